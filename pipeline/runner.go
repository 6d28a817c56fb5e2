package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/osc-library/pmcdash/aggregate"
	"github.com/osc-library/pmcdash/archive"
	"github.com/osc-library/pmcdash/article"
	"github.com/osc-library/pmcdash/citation"
	"github.com/osc-library/pmcdash/classify"
	"github.com/osc-library/pmcdash/format"
	"github.com/osc-library/pmcdash/report"
)

// AuthorReportFile is the author report written into the report directory.
const AuthorReportFile = "author-report.json"

// Resolver attaches authoritative identities to an article's authors.
type Resolver interface {
	ResolveArticle(ctx context.Context, a *article.Article) error
}

// Runner processes the records of one batch, one at a time.
type Runner struct {
	Parser     format.Parser
	Classifier *classify.Classifier
	Resolver   Resolver
	Router     *aggregate.Router
	Known      *archive.Known
	Attacher   Attacher
	Licenser   *Licenser
	Packages   *PackageWriter
	Citation   citation.Options

	Stats *report.Stats
	Audit *report.Audit
}

// Run prepares the import directory and processes every page of the batch.
// Malformed, unroutable and file-less records are counted and skipped; an
// identity lookup failure stops the run.
func (r *Runner) Run(ctx context.Context, layout Layout) error {
	pages, err := layout.Pages()
	if err != nil {
		return err
	}
	if err := r.Packages.Prepare(); err != nil {
		return err
	}

	for _, page := range pages {
		if err := r.processFile(ctx, page); err != nil {
			return err
		}
	}

	slog.Info("batch processed",
		"batch", layout.Batch,
		"pages", r.Stats.Get(report.OAIPages),
		"articles", r.Stats.Get(report.ArticlesTotal),
		"loaded", r.Stats.Get(report.ArticlesLoaded))
	return nil
}

func (r *Runner) processFile(ctx context.Context, path string) (err error) {
	slog.Info("processing page", "file", path)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing page: %w", cerr)
		}
	}()
	return r.ProcessPage(ctx, f)
}

// ProcessPage splits one harvested page and processes its records.
func (r *Runner) ProcessPage(ctx context.Context, page io.Reader) error {
	r.Stats.Inc(report.OAIPages)

	records, err := r.Parser.Split(page)
	if err != nil {
		return fmt.Errorf("splitting page: %w", err)
	}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.ProcessRecord(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// ProcessRecord takes one record from screening to its import package.
func (r *Runner) ProcessRecord(ctx context.Context, rec format.Record) error {
	if rec.Deleted {
		slog.Debug("skipping deleted record", "identifier", rec.Identifier)
		return nil
	}
	r.Stats.Inc(report.ArticlesTotal)

	mentions, err := r.Parser.Screen(rec, r.Classifier.MentionsInstitution)
	if err != nil {
		slog.Warn("record could not be screened", "identifier", rec.Identifier, "error", err)
		r.Stats.Inc(report.ArticlesErrorParse)
		return nil
	}
	if !mentions {
		return nil
	}
	r.Stats.Inc(report.ArticlesInstitution)

	a, err := r.Parser.Extract(rec, &format.ParseOptions{SourceName: rec.Identifier})
	if err != nil {
		if !errors.Is(err, format.ErrMissingField) {
			slog.Warn("record could not be extracted", "identifier", rec.Identifier, "error", err)
		} else {
			slog.Info("record is missing a required field", "identifier", rec.Identifier, "error", err)
		}
		r.Stats.Inc(report.ArticlesErrorParse)
		return nil
	}

	a.Authors, _ = article.DedupeAuthors(a.Authors)
	a.Citation = citation.Render(a, r.Citation)
	r.Classifier.ClassifyArticle(a)

	if err := r.Resolver.ResolveArticle(ctx, a); err != nil {
		return fmt.Errorf("resolving authors of %s: %w", a, err)
	}
	aggregate.Flags(a)
	for _, au := range a.MatchedAuthors() {
		r.Stats.CountAuthor(au)
	}
	r.Stats.CountArticle(a)

	if reason, dup := r.Known.IsDuplicate(a); dup {
		slog.Info("article already in archive", "article", a.String(), "reason", reason)
		r.Stats.Inc(report.ArticlesAlreadyInArchive)
		return nil
	}

	collection, err := r.Router.TargetCollection(a)
	if errors.Is(err, aggregate.ErrUnroutable) {
		slog.Warn("no valid school", "article", a.String(),
			"resolved", a.ResolvedUnits.String(), "classified", a.InstitutionUnits.String())
		r.Stats.Inc(report.ArticlesErrorNoSchool)
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.Attacher.Attach(ctx, a); err != nil {
		return fmt.Errorf("attaching full text of %s: %w", a, err)
	}
	if !a.HasFiles() {
		r.Stats.Inc(report.ArticlesErrorNoFiles)
		return nil
	}

	r.Licenser.Assign(a)
	dir, err := r.Packages.Write(a, collection)
	if err != nil {
		return fmt.Errorf("writing import package for %s: %w", a, err)
	}
	slog.Info("article loaded", "article", a.String(), "collection", collection, "dir", dir)
	r.Stats.Inc(report.ArticlesLoaded)
	return nil
}

// WriteReports writes the author report into dir and the counters table to w.
func (r *Runner) WriteReports(w io.Writer, dir string, opts report.WriteOptions) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, AuthorReportFile))
	if err != nil {
		return fmt.Errorf("creating author report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing author report: %w", cerr)
		}
	}()

	if err := r.Audit.WriteJSON(f, opts); err != nil {
		return fmt.Errorf("writing author report: %w", err)
	}
	return r.Stats.WriteTable(w)
}
