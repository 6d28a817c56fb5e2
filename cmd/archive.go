package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/osc-library/pmcdash/archive"
)

var (
	snapshotSource string
	snapshotTSVDir string
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the archive identifier snapshot",
	Long:  `Archive commands copy the identifiers used for duplicate detection.`,
}

var archiveSnapshotCmd = &cobra.Command{
	Use:   "snapshot <sqlite-file>",
	Short: "Save archive identifiers into a SQLite snapshot",
	Long: `Read the DOIs, titles and PMC ids already in the archive and store them in
a SQLite file. Point archive.dsn at the file to run batches without access to
the live database.

The source is --source (a postgres:// DSN or another snapshot), else the
configured archive.dsn, else the TSV exports in archive.tsv_dir.

Examples:
  pmcdash archive snapshot known.db --source postgres://dspace@db/dspace
  pmcdash archive snapshot known.db --tsv-dir data/dash`,
	Args: cobra.ExactArgs(1),
	RunE: runArchiveSnapshot,
}

func init() {
	archiveSnapshotCmd.Flags().StringVar(&snapshotSource, "source", "", "Source database DSN (default: archive.dsn)")
	archiveSnapshotCmd.Flags().StringVar(&snapshotTSVDir, "tsv-dir", "", "TSV export directory (default: archive.tsv_dir)")
	archiveCmd.AddCommand(archiveSnapshotCmd)
}

func runArchiveSnapshot(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	source := snapshotSource
	if source == "" {
		source = cfg.Archive.DSN
	}
	tsvDir := snapshotTSVDir
	if tsvDir == "" {
		tsvDir = cfg.TSVDir()
	}

	ctx := cmd.Context()
	known, err := archive.Load(ctx, source, tsvDir)
	if err != nil {
		return fmt.Errorf("loading archive identifiers: %w", err)
	}

	store, err := archive.OpenStore(args[0])
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing snapshot: %w", cerr)
		}
	}()
	if store.Driver() != "sqlite" {
		return fmt.Errorf("snapshot target must be a SQLite file, got %s", args[0])
	}

	if err := store.Save(ctx, known); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved %d identifiers to %s\n", known.Len(), args[0])
	return nil
}
