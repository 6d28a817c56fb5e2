// Package pipeline runs a harvested batch through screening, extraction,
// classification, identity resolution and packaging.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Layout names the directories of one batch under {data_dir}/batch/{batch}.
type Layout struct {
	Batch string
	Root  string
}

// NewLayout returns the layout of batch under dataDir.
func NewLayout(dataDir, batch string) Layout {
	return Layout{Batch: batch, Root: filepath.Join(dataDir, "batch", batch)}
}

// OAIDir holds the harvested OAI-PMH pages.
func (l Layout) OAIDir() string { return filepath.Join(l.Root, "oai") }

// ArticlesDir caches downloaded full texts across runs.
func (l Layout) ArticlesDir() string { return filepath.Join(l.Root, "articles") }

// ImportDir receives the import packages. It is recreated on every run.
func (l Layout) ImportDir() string { return filepath.Join(l.Root, "import") }

// ReportDir receives the author report.
func (l Layout) ReportDir() string { return filepath.Join(l.Root, "report") }

// Pages returns the harvested page files in name order.
func (l Layout) Pages() ([]string, error) {
	pages, err := filepath.Glob(filepath.Join(l.OAIDir(), "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("listing harvested pages: %w", err)
	}
	if len(pages) == 0 {
		if _, err := os.Stat(l.OAIDir()); err != nil {
			return nil, fmt.Errorf("batch %s has no harvest directory: %w", l.Batch, err)
		}
	}
	sort.Strings(pages)
	return pages, nil
}
