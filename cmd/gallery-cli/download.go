package main

import (
	"io"
	"os"

	"github.com/sagarc03/gallery/clientcli"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <id> [local-path]",
	Short: "Download an image through its signed URL",
	Long: `Download an image.

If local-path is omitted, the original file name is used.
Use "-" as local-path to write to stdout.

Examples:
  gallery-cli download 3f1c2a9e-8b7d-4c55-9e1a-6f0d2b4c8a11
  gallery-cli download 3f1c2a9e-8b7d-4c55-9e1a-6f0d2b4c8a11 ./out/photo.jpg
  gallery-cli download 3f1c2a9e-8b7d-4c55-9e1a-6f0d2b4c8a11 - > photo.jpg`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	opts := clientcli.DownloadOptions{ID: args[0]}
	if len(args) > 1 {
		opts.LocalPath = args[1]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()

	result, body, err := client.Download(cmd.Context(), opts)
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	if body != nil {
		defer func() { _ = body.Close() }()
		written, copyErr := io.Copy(os.Stdout, body)
		if copyErr != nil {
			return copyErr
		}
		result.Size = written
		return formatter.FormatDownload(os.Stderr, result)
	}

	return formatter.FormatDownload(os.Stdout, result)
}
