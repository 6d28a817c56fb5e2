package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/osc-library/pmcdash/pipeline"
)

var batchRunDate string

var batchCmd = &cobra.Command{
	Use:   "batch <YYYY_MM>",
	Short: "Print the shell commands for a monthly batch",
	Long: `Print the commands that harvest one month of the PMC open-access set,
ingest it and copy the import packages to the archive server.

The batch id is pmc{YYYY_MM}.{run date}, where the run date defaults to today.

Examples:
  pmcdash batch 2014_04
  pmcdash batch 2014_04 | sh
  pmcdash batch 2014_04 --run-date 2014-05-09`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchRunDate, "run-date", "", "Run date as YYYY-MM-DD (default: today)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	today := time.Now()
	if batchRunDate != "" {
		today, err = time.Parse(time.DateOnly, batchRunDate)
		if err != nil {
			return fmt.Errorf("invalid run date %q: %w", batchRunDate, err)
		}
	}

	plan, err := pipeline.NewPlan(args[0], today)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, line := range plan.Commands(cfg.DataDir, cfg.Batch.OAIURL, cfg.Batch.HarvestCommand, cfg.Batch.RsyncTarget) {
		fmt.Fprintln(out, line)
	}
	return nil
}
