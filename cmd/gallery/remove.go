package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/config"
)

var removeCmd = &cobra.Command{
	Use:   "remove [flags] <id1> [id2] ...",
	Short: "Remove images from the catalog",
	Long: `Delete images by id. The blob is removed from storage and the
catalog entry is deleted.

Examples:
  # Remove a single image
  gallery remove 3f1c2a9e-8b7d-4c55-9e1a-6f0d2b4c8a11

  # Remove quietly (suppress per-image output)
  gallery remove -q <id1> <id2>`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var removeQuiet bool

func init() {
	removeCmd.Flags().BoolVarP(&removeQuiet, "quiet", "q", false, "suppress per-image output")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	a, err := openApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.close()

	removed := 0
	notFound := 0

	for _, id := range args {
		deleteErr := a.catalog.Delete(ctx, id)
		if errors.Is(deleteErr, gallery.ErrNotFound) {
			notFound++
			if !removeQuiet {
				slog.Warn("not found", "id", id)
			}
			continue
		}
		if deleteErr != nil {
			return fmt.Errorf("remove %s: %w", id, deleteErr)
		}
		removed++
		if !removeQuiet {
			slog.Info("removed", "id", id)
		}
	}

	slog.Info("remove complete", "removed", removed, "not_found", notFound)
	return nil
}
