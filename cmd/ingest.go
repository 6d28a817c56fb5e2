package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/osc-library/pmcdash/aggregate"
	"github.com/osc-library/pmcdash/archive"
	"github.com/osc-library/pmcdash/citation"
	"github.com/osc-library/pmcdash/classify"
	"github.com/osc-library/pmcdash/config"
	"github.com/osc-library/pmcdash/format"
	"github.com/osc-library/pmcdash/identity"
	"github.com/osc-library/pmcdash/pipeline"
	"github.com/osc-library/pmcdash/report"

	// Register format plugins
	_ "github.com/osc-library/pmcdash/format/dublincore"
	_ "github.com/osc-library/pmcdash/format/jats"
)

var (
	ingestFormat     string
	ingestOpenAccess bool
	ingestPretty     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <batch>",
	Short: "Build import packages for a harvested batch",
	Long: `Process every harvested page under {data_dir}/batch/<batch>/oai and write
DSpace import packages to {data_dir}/batch/<batch>/import.

The import directory is recreated on every run. Full texts are cached in
{data_dir}/batch/<batch>/articles, so a rerun only fetches what is missing.
The counters are printed when the run completes and the author report is
written to {data_dir}/batch/<batch>/report/author-report.json.

Examples:
  pmcdash ingest pmc2013_05.2013_06_10
  pmcdash ingest pmc2013_05.2013_06_10 --open-access`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFormat, "format", "f", "jats", "Harvest format (jats, auto)")
	ingestCmd.Flags().BoolVar(&ingestOpenAccess, "open-access", false, "Assign the open-access license to articles of open-access units")
	ingestCmd.Flags().BoolVar(&ingestPretty, "pretty", false, "Pretty-print the author report")
}

func runIngest(cmd *cobra.Command, args []string) error {
	batch := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("open-access") {
		cfg.License.EnableOpenAccess = ingestOpenAccess
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	layout := pipeline.NewLayout(cfg.DataDir, batch)
	runner, handles, err := buildRunner(ctx, cfg, layout)
	if err != nil {
		return err
	}

	slog.Info("processing batch", "batch", batch, "dir", layout.Root, "run", runner.Audit.RunID())
	if err := runner.Run(ctx, layout); err != nil {
		return fmt.Errorf("batch %s: %w", batch, err)
	}

	opts := report.WriteOptions{Handles: handles, Pretty: ingestPretty}
	return runner.WriteReports(os.Stdout, layout.ReportDir(), opts)
}

func buildRunner(ctx context.Context, cfg *config.Config, layout pipeline.Layout) (*pipeline.Runner, map[string]string, error) {
	parser, err := harvestParser(layout)
	if err != nil {
		return nil, nil, err
	}

	classifier, err := classify.Load(cfg.Classifier.RulesFile, cfg.Classifier.DepartmentsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading classifier: %w", err)
	}

	known, err := archive.Load(ctx, cfg.Archive.DSN, cfg.TSVDir())
	if err != nil {
		return nil, nil, fmt.Errorf("loading archive identifiers: %w", err)
	}
	slog.Info("archive identifiers loaded", "count", known.Len())

	handles, err := loadHandles(ctx, cfg.Archive.DSN)
	if err != nil {
		return nil, nil, err
	}

	audit := report.NewAudit(layout.Batch)
	client := identity.NewClient(cfg.IdentityClient())

	var codes *aggregate.CodeTable
	if len(cfg.Schools.CodeTable) > 0 {
		codes = aggregate.NewCodeTable(cfg.Schools.CodeTable)
	}

	runner := &pipeline.Runner{
		Parser:     parser,
		Classifier: classifier,
		Resolver:   identity.NewResolver(client, cfg.AliasTable(), cfg.Identity.Threshold, audit),
		Router:     aggregate.NewRouter(codes),
		Known:      known,
		Attacher: pipeline.NewFetcher(cfg.Attachments.BaseURL, layout.ArticlesDir(),
			cfg.Attachments.Timeout, cfg.Attachments.MinDelay, cfg.Attachments.MaxDelay),
		Licenser: pipeline.NewLicenser(cfg.License.Default, cfg.License.OpenAccess,
			cfg.License.OpenAccessUnits, cfg.License.EnableOpenAccess),
		Packages: pipeline.NewPackageWriter(layout.ImportDir(), cfg.LicensesDir(), layout.Batch),
		Citation: citation.Options{DefaultIssue: cfg.Citation.DefaultIssue, IssueValue: cfg.Citation.IssueValue},
		Stats:    report.NewStats(layout.Batch),
		Audit:    audit,
	}
	return runner, handles, nil
}

// harvestParser picks the parser by name, or by sniffing the first page for "auto".
func harvestParser(layout pipeline.Layout) (format.Parser, error) {
	var peek []byte
	if ingestFormat == "" || ingestFormat == "auto" {
		pages, err := layout.Pages()
		if err != nil {
			return nil, err
		}
		if len(pages) > 0 {
			data, err := os.ReadFile(pages[0])
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", pages[0], err)
			}
			peek = data[:min(len(data), 4096)]
		}
	}
	parser, err := format.DetectParser(ingestFormat, peek)
	if err != nil {
		return nil, fmt.Errorf("harvest format %q: %w", ingestFormat, err)
	}
	return parser, nil
}

// loadHandles reads external ID to handle links from a live archive database.
func loadHandles(ctx context.Context, dsn string) (map[string]string, error) {
	if dsn == "" {
		return nil, nil
	}
	store, err := archive.OpenStore(dsn)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	// a snapshot carries no handles
	if store.Driver() != "postgres" {
		return nil, nil
	}

	handles, err := store.Handles(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading archive handles: %w", err)
	}
	return handles, nil
}
