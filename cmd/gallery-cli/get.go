package main

import (
	"os"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show an image record with a fresh signed URL",
	Long: `Show one image record. The URL in the output is signed at request
time. With -q only the URL is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()

	image, err := client.Get(cmd.Context(), args[0])
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	return formatter.FormatImage(os.Stdout, image)
}
