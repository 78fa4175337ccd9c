package main

import (
	"os"

	"github.com/spf13/cobra"
)

var listSearch string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List images, newest first",
	Long: `List the catalog. With --search only images whose title, description
or tags contain the query (case-insensitive) are shown.

Examples:
  gallery-cli list
  gallery-cli list --search beach
  gallery-cli list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "search query")
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()

	result, err := client.List(cmd.Context(), listSearch)
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	return formatter.FormatList(os.Stdout, result)
}
