package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/osc-library/pmcdash/article"
)

// DefaultAttachmentURL is the base of full-text PDF links.
const DefaultAttachmentURL = "http://www.ncbi.nlm.nih.gov/pmc/articles"

const userAgent = "pmcdash/1.0 (+https://dash.harvard.edu)"

// Attacher stages the full text of an article.
type Attacher interface {
	Attach(ctx context.Context, a *article.Article) error
}

// Fetcher downloads full-text PDFs into a per-batch cache. A download that
// failed once leaves a ".error" marker and is not retried in later runs.
type Fetcher struct {
	BaseURL    string
	HTTPClient *http.Client
	CacheDir   string

	// MinDelay and MaxDelay bound the pause after each network fetch
	MinDelay time.Duration
	MaxDelay time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a fetcher caching into cacheDir.
func NewFetcher(baseURL, cacheDir string, timeout, minDelay, maxDelay time.Duration) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultAttachmentURL
	}
	return &Fetcher{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		CacheDir:   cacheDir,
		MinDelay:   minDelay,
		MaxDelay:   maxDelay,
		sleep:      sleepContext,
	}
}

// URL returns the full-text link of an article.
func (f *Fetcher) URL(a *article.Article) string {
	return f.BaseURL + "/PMC" + a.ExternalID + "/pdf/"
}

// Attach records the full-text link on the article and, when the PDF is in
// the cache or can be fetched, adds it to the article's files.
func (f *Fetcher) Attach(ctx context.Context, a *article.Article) error {
	url := f.URL(a)
	a.HasVersion = url

	name := a.ExternalID + ".pdf"
	path := filepath.Join(f.CacheDir, name)
	errorPath := path + ".error"

	if exists(path) || exists(errorPath) {
		slog.Debug("attachment in cache", "article", a.ExternalID, "path", path)
	} else {
		if err := os.MkdirAll(f.CacheDir, 0o755); err != nil {
			return fmt.Errorf("creating attachment cache: %w", err)
		}
		slog.Info("downloading attachment", "url", url, "path", path)
		if err := f.download(ctx, url, path); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("attachment download failed", "article", a.ExternalID, "url", url, "error", err)
			msg := fmt.Sprintf("Error getting url:\n%s\n%v\n", url, err)
			if werr := os.WriteFile(errorPath, []byte(msg), 0o644); werr != nil {
				return fmt.Errorf("recording failed download: %w", werr)
			}
		}
		if err := f.pause(ctx); err != nil {
			return err
		}
	}

	if exists(path) {
		a.Files = append(a.Files, article.File{URL: url, Name: name, Path: path})
	}
	return nil
}

func (f *Fetcher) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	// a partial file must never look like a cached download
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("reading body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (f *Fetcher) pause(ctx context.Context) error {
	if f.MaxDelay <= 0 || f.sleep == nil {
		return nil
	}
	d := f.MinDelay
	if spread := f.MaxDelay - f.MinDelay; spread > 0 {
		d += rand.N(spread + 1)
	}
	return f.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
