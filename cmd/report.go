package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/osc-library/pmcdash/pipeline"
	"github.com/osc-library/pmcdash/report"
)

var (
	reportInput      string
	reportTitleWidth int
	reportUnmatched  bool
)

var reportCmd = &cobra.Command{
	Use:   "report [batch]",
	Short: "Summarize the author report of a batch",
	Long: `Print the identity lookups recorded by an ingest run as a table.

The report is read from {data_dir}/batch/<batch>/report/author-report.json,
or from --input.

Examples:
  pmcdash report pmc2013_05.2013_06_10
  pmcdash report pmc2013_05.2013_06_10 --unmatched
  pmcdash report -i author-report.json --title-width 0`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportInput, "input", "i", "", "Author report file")
	reportCmd.Flags().IntVar(&reportTitleWidth, "title-width", 40, "Title column width (0 hides titles)")
	reportCmd.Flags().BoolVar(&reportUnmatched, "unmatched", false, "Only show authors without a match")
}

func runReport(cmd *cobra.Command, args []string) (err error) {
	path := reportInput
	if path == "" {
		if len(args) == 0 {
			return fmt.Errorf("a batch or --input is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		layout := pipeline.NewLayout(cfg.DataDir, args[0])
		path = filepath.Join(layout.ReportDir(), pipeline.AuthorReportFile)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening author report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing author report: %w", cerr)
		}
	}()

	rep, err := report.ReadJSON(f)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Batch %s (run %s, %s): %d authors, %d matched\n",
		rep.Batch, rep.RunID, rep.Timestamp, len(rep.Rows), rep.Matched())

	if reportUnmatched {
		kept := rep.Rows[:0]
		for _, row := range rep.Rows {
			if row.BestLabel == report.NoMatchLabel {
				kept = append(kept, row)
			}
		}
		rep.Rows = kept
	}
	return rep.WriteTable(cmd.OutOrStdout(), reportTitleWidth)
}
