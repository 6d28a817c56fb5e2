package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/osc-library/pmcdash/aggregate"
	"github.com/osc-library/pmcdash/archive"
	"github.com/osc-library/pmcdash/article"
	"github.com/osc-library/pmcdash/citation"
	"github.com/osc-library/pmcdash/classify"
	"github.com/osc-library/pmcdash/format/jats"
	"github.com/osc-library/pmcdash/identity"
	"github.com/osc-library/pmcdash/report"
)

type fakeLookup struct {
	candidates []identity.Candidate
	err        error
	calls      int
}

func (f *fakeLookup) Lookup(_ context.Context, q identity.Query) (*identity.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &identity.Result{URL: "http://identity.test/?surname=" + q.Surname, Candidates: f.candidates}, nil
}

type fakeAttacher struct {
	dir   string
	empty bool
}

func (f *fakeAttacher) Attach(_ context.Context, a *article.Article) error {
	a.HasVersion = "http://files.test/PMC" + a.ExternalID + "/pdf/"
	if f.empty {
		return nil
	}
	path := filepath.Join(f.dir, a.ExternalID+".pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		return err
	}
	a.Files = append(a.Files, article.File{URL: a.HasVersion, Name: a.ExternalID + ".pdf", Path: path})
	return nil
}

type fixture struct {
	runner *Runner
	layout Layout
	lookup *fakeLookup
	attach *fakeAttacher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dataDir := t.TempDir()
	layout := NewLayout(dataDir, "pmc2013_05.2013_06_10")

	page, err := os.ReadFile("testdata/oai/page_0001.xml")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(layout.OAIDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(layout.OAIDir(), "page_0001.xml"), page, 0o644); err != nil {
		t.Fatal(err)
	}

	licenses := filepath.Join(dataDir, "licenses")
	for _, name := range []string{"LAA", "OAP"} {
		if err := os.MkdirAll(filepath.Join(licenses, name), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(licenses, name, LicenseFile), []byte(name+" terms"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	classifier, err := classify.Load("", "")
	if err != nil {
		t.Fatalf("classify.Load() error: %v", err)
	}

	lookup := &fakeLookup{candidates: []identity.Candidate{
		{Authority: "auth-1", Confidence: 0.9, Schools: []string{"HMS"}, Label: "Pizzagalli, Diego"},
	}}
	batch := layout.Batch
	audit := report.NewAudit(batch)
	attach := &fakeAttacher{dir: t.TempDir()}

	return &fixture{
		layout: layout,
		lookup: lookup,
		attach: attach,
		runner: &Runner{
			Parser:     &jats.Format{},
			Classifier: classifier,
			Resolver:   identity.NewResolver(lookup, identity.DefaultAliases(), 0, audit),
			Router:     aggregate.NewRouter(nil),
			Known:      archive.NewKnown(),
			Attacher:   attach,
			Licenser:   NewLicenser("LAA", "OAP", []string{"FAS", "GSE", "HLS"}, false),
			Packages:   NewPackageWriter(layout.ImportDir(), licenses, batch),
			Citation:   citation.DefaultOptions(),
			Stats:      report.NewStats(batch),
			Audit:      audit,
		},
	}
}

func TestRun(t *testing.T) {
	fx := newFixture(t)

	// stale output from an earlier run is removed
	stale := filepath.Join(fx.layout.ImportDir(), "OLD", "0")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := fx.runner.Run(context.Background(), fx.layout); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	stats := fx.runner.Stats
	want := map[report.Counter]int{
		report.OAIPages:                 1,
		report.ArticlesTotal:            3,
		report.ArticlesInstitution:      2,
		report.ArticlesErrorParse:       1,
		report.ArticlesLoaded:           1,
		report.ArticlesAlreadyInArchive: 0,
		report.AuthorsCount:             1,
		report.AuthorsMatched:           1,
		report.AuthorsSingleMatch:       1,
		report.FoundAllAuths:            1,
		report.FoundAnyAuths:            1,
	}
	for counter, n := range want {
		if got := stats.Get(counter); got != n {
			t.Errorf("%s = %d, want %d", counter, got, n)
		}
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale import output was not removed")
	}

	item := filepath.Join(fx.layout.ImportDir(), "HMS", "0")
	for _, name := range []string{DublinCoreFile, DashFile, ContentsFile, LicenseFile, "3668000.pdf"} {
		if _, err := os.Stat(filepath.Join(item, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	dc, err := os.ReadFile(filepath.Join(item, DublinCoreFile))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`authority="auth-1"`,
		`<dcvalue element="identifier" qualifier="citation">Huys, Quentin JM`,
		`<dcvalue element="relation" qualifier="hasversion">http://files.test/PMC3668000/pdf/</dcvalue>`,
	} {
		if !strings.Contains(string(dc), want) {
			t.Errorf("dublin_core.xml missing %q", want)
		}
	}

	if fx.runner.Audit.Len() != 1 {
		t.Errorf("audit records = %d, want 1", fx.runner.Audit.Len())
	}
}

func TestRunSkipsKnownArticles(t *testing.T) {
	fx := newFixture(t)
	fx.runner.Known.AddExternalID("PMC3668000")

	if err := fx.runner.Run(context.Background(), fx.layout); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := fx.runner.Stats.Get(report.ArticlesAlreadyInArchive); got != 1 {
		t.Errorf("already in archive = %d, want 1", got)
	}
	if got := fx.runner.Stats.Get(report.ArticlesLoaded); got != 0 {
		t.Errorf("loaded = %d, want 0", got)
	}
	// identity is still resolved for reporting
	if fx.lookup.calls != 1 {
		t.Errorf("lookups = %d, want 1", fx.lookup.calls)
	}
}

func TestRunCountsMissingFiles(t *testing.T) {
	fx := newFixture(t)
	fx.attach.empty = true

	if err := fx.runner.Run(context.Background(), fx.layout); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := fx.runner.Stats.Get(report.ArticlesErrorNoFiles); got != 1 {
		t.Errorf("no files = %d, want 1", got)
	}
	if fx.runner.Packages.Count() != 0 {
		t.Error("no package should be written")
	}
}

func TestRunUnresolvedFallsBackToClassifier(t *testing.T) {
	fx := newFixture(t)
	fx.lookup.candidates = nil

	if err := fx.runner.Run(context.Background(), fx.layout); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	stats := fx.runner.Stats
	if stats.Get(report.FoundNoAuths) != 1 || stats.Get(report.AuthorsNoMatches) != 1 || stats.Get(report.FoundAllAuths) != 0 {
		t.Errorf("counters = %v", stats.Snapshot())
	}
	if _, err := os.Stat(filepath.Join(fx.layout.ImportDir(), "HMS", "0", DublinCoreFile)); err != nil {
		t.Errorf("expected package routed by classifier unit: %v", err)
	}
}

func TestRunAbortsOnIdentityFailure(t *testing.T) {
	fx := newFixture(t)
	fx.lookup.err = errors.New("connection refused")

	err := fx.runner.Run(context.Background(), fx.layout)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("Run() error = %v, want identity failure", err)
	}
	if fx.runner.Audit.Len() != 0 {
		t.Error("failed lookups must not be audited")
	}
}

func TestRunMissingHarvest(t *testing.T) {
	fx := newFixture(t)
	layout := NewLayout(t.TempDir(), "missing")
	if err := fx.runner.Run(context.Background(), layout); err == nil {
		t.Error("expected an error for a batch without harvested pages")
	}
}

func TestWriteReports(t *testing.T) {
	fx := newFixture(t)
	if err := fx.runner.Run(context.Background(), fx.layout); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	var table bytes.Buffer
	opts := report.WriteOptions{Handles: map[string]string{"3668000": "1/12345"}}
	if err := fx.runner.WriteReports(&table, fx.layout.ReportDir(), opts); err != nil {
		t.Fatalf("WriteReports() error: %v", err)
	}

	if !strings.Contains(table.String(), "articles_loaded:") {
		t.Errorf("table = %s", table.String())
	}
	data, err := os.ReadFile(filepath.Join(fx.layout.ReportDir(), AuthorReportFile))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"handle"`, `"1/12345"`, `"bestLabel"`, `"Pizzagalli, Diego"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("author report missing %s", want)
		}
	}
}
