package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sagarc03/gallery/config"
)

var listCmd = &cobra.Command{
	Use:   "list [flags]",
	Short: "List catalog entries, newest first",
	Long: `Print the catalog. With --search only images whose title,
description or tags contain the query are shown.

Examples:
  gallery list
  gallery list --search beach
  gallery list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listSearch string
	listJSON   bool
)

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "case-insensitive search over title, description and tags")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print records as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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

	images, err := a.catalog.List(ctx, listSearch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"images": images})
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tTAGS\tSIZE\tUPLOADED")
	for _, img := range images {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			img.ID, img.Title, strings.Join(img.Tags, ","), img.Size, img.UploadedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
