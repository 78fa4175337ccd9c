package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/config"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove stored blobs that no catalog entry references",
	Long: `Find blobs left behind by uploads whose metadata write failed and
remove them.

Only keys named the way uploads are named are candidates; anything else
in the bucket is left alone. Blobs newer than --older-than are skipped so
uploads still in flight are never touched. Use --dry-run to report orphans
without removing them.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var (
	sweepOlderThan time.Duration
	sweepDryRun    bool
)

func init() {
	sweepCmd.Flags().DurationVar(&sweepOlderThan, "older-than", time.Hour, "only remove blobs last modified before now minus this duration")
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "report orphans without removing them")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	slog.Info("starting sweep", "older_than", sweepOlderThan, "dry_run", sweepDryRun)

	result, err := a.catalog.Sweep(ctx, gallery.SweepOptions{
		OlderThan: sweepOlderThan,
		DryRun:    sweepDryRun,
	})
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	for _, key := range result.Orphaned {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), key)
	}

	slog.Info("sweep complete", "scanned", result.Scanned, "orphaned", len(result.Orphaned), "removed", result.Removed, "skipped", result.Skipped)
	return nil
}
