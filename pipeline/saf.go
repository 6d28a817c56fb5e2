package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/osc-library/pmcdash/article"
	"github.com/osc-library/pmcdash/format"
	"github.com/osc-library/pmcdash/format/dublincore"
)

// Import package file names.
const (
	DublinCoreFile = "dublin_core.xml"
	DashFile       = "metadata_dash.xml"
	ContentsFile   = "contents"
	LicenseFile    = "license.txt"
)

// PackageWriter writes DSpace Simple Archive Format items under
// {import}/{collection}/{n}/. Item numbers run across collections.
type PackageWriter struct {
	Dir         string
	LicensesDir string
	Batch       string
	Serializer  format.Serializer

	next int
}

// NewPackageWriter returns a writer into dir using the dublincore serializer.
func NewPackageWriter(dir, licensesDir, batch string) *PackageWriter {
	return &PackageWriter{
		Dir:         dir,
		LicensesDir: licensesDir,
		Batch:       batch,
		Serializer:  &dublincore.Format{},
	}
}

// Prepare deletes any previous output and creates an empty import directory.
func (w *PackageWriter) Prepare() error {
	if exists(w.Dir) {
		slog.Info("deleting existing import directory", "dir", w.Dir)
		if err := os.RemoveAll(w.Dir); err != nil {
			return fmt.Errorf("removing import directory: %w", err)
		}
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("creating import directory: %w", err)
	}
	w.next = 0
	return nil
}

// Count returns the number of items written.
func (w *PackageWriter) Count() int {
	return w.next
}

// Write stores a as the next item of collection and returns its directory.
func (w *PackageWriter) Write(a *article.Article, collection string) (string, error) {
	if a.License == "" {
		return "", fmt.Errorf("article %s has no license", a)
	}
	licensePath := filepath.Join(w.LicensesDir, a.License, LicenseFile)
	if !exists(licensePath) {
		return "", fmt.Errorf("license text for %q not found at %s", a.License, licensePath)
	}

	dir := filepath.Join(w.Dir, collection, strconv.Itoa(w.next))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating item directory: %w", err)
	}

	if err := w.writeMetadata(dir, a); err != nil {
		return "", err
	}
	if err := writeContents(dir, a); err != nil {
		return "", err
	}
	for _, file := range a.Files {
		if err := copyFile(file.Path, filepath.Join(dir, file.Name)); err != nil {
			return "", fmt.Errorf("copying %s: %w", file.Name, err)
		}
	}
	if err := copyFile(licensePath, filepath.Join(dir, LicenseFile)); err != nil {
		return "", fmt.Errorf("copying license: %w", err)
	}

	w.next++
	return dir, nil
}

func (w *PackageWriter) writeMetadata(dir string, a *article.Article) (err error) {
	dc, err := os.Create(filepath.Join(dir, DublinCoreFile))
	if err != nil {
		return fmt.Errorf("creating %s: %w", DublinCoreFile, err)
	}
	defer func() {
		if cerr := dc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", DublinCoreFile, cerr)
		}
	}()

	dash, err := os.Create(filepath.Join(dir, DashFile))
	if err != nil {
		return fmt.Errorf("creating %s: %w", DashFile, err)
	}
	defer func() {
		if cerr := dash.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", DashFile, cerr)
		}
	}()

	opts := format.NewSerializeOptions()
	opts.Batch = w.Batch
	opts.ExtraWriters[dublincore.DashWriter] = dash
	return w.Serializer.Serialize(dc, a, opts)
}

// writeContents lists the item's bitstreams, one "name\tbundle:NAME" per line.
func writeContents(dir string, a *article.Article) error {
	var sb strings.Builder
	for _, file := range a.Files {
		sb.WriteString(file.Name)
		sb.WriteString("\tbundle:ORIGINAL\n")
	}
	sb.WriteString(LicenseFile)
	sb.WriteString("\tbundle:LICENSE\n")

	if err := os.WriteFile(filepath.Join(dir, ContentsFile), []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ContentsFile, err)
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
