package main

import (
	"os"

	"github.com/sagarc03/gallery/clientcli"
	"github.com/spf13/cobra"
)

var (
	uploadTitle       string
	uploadDescription string
	uploadTags        string
	uploadRecursive   bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path>",
	Short: "Upload images to the catalog",
	Long: `Upload an image, or every file in a directory with -r.

The title defaults to the file name on the server.

Examples:
  gallery-cli upload ./sunset.jpg
  gallery-cli upload --title "Sunset" --tags "beach, summer" ./sunset.jpg
  gallery-cli upload -r --tags holiday ./album/`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadTitle, "title", "", "image title")
	uploadCmd.Flags().StringVar(&uploadDescription, "description", "", "image description")
	uploadCmd.Flags().StringVar(&uploadTags, "tags", "", "comma separated tags")
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()

	results, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		LocalPath:   args[0],
		Title:       uploadTitle,
		Description: uploadDescription,
		Tags:        uploadTags,
		Recursive:   uploadRecursive,
	})
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	if err := formatter.FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	for i := range results {
		if results[i].Err != nil {
			return results[i].Err
		}
	}

	return nil
}
