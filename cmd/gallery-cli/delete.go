package main

import (
	"errors"
	"os"

	"github.com/sagarc03/gallery/clientcli"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>...",
	Aliases: []string{"rm"},
	Short:   "Delete images",
	Long: `Delete one or more images by id. The stored file and the catalog
entry are both removed.

Examples:
  gallery-cli delete 3f1c2a9e-8b7d-4c55-9e1a-6f0d2b4c8a11
  gallery-cli delete id1 id2 id3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()

	results, err := client.Delete(cmd.Context(), args)
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	if err := formatter.FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return errors.New("one or more deletes failed")
	}
	return nil
}
