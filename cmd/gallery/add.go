package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/config"
)

var addCmd = &cobra.Command{
	Use:   "add [flags] <file1> [file2] ...",
	Short: "Import local images into the catalog",
	Long: `Import image files from local paths into the gallery.

Each file is uploaded to the blob store and registered in the catalog
with the given title, description and tags. The title defaults to the
file name.

Examples:
  # Add a single image
  gallery add /path/to/photo.jpg

  # Add with metadata
  gallery add --title "Sunset" --tags "beach, summer" sunset.jpg

  # Add a directory recursively
  gallery add -r /path/to/album`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addTitle       string
	addDescription string
	addTags        string
	addRecursive   bool
	addQuiet       bool
)

func init() {
	addCmd.Flags().StringVar(&addTitle, "title", "", "image title (default: file name)")
	addCmd.Flags().StringVar(&addDescription, "description", "", "image description")
	addCmd.Flags().StringVar(&addTags, "tags", "", "comma separated tags")
	addCmd.Flags().BoolVarP(&addRecursive, "recursive", "r", false, "recursively add directories")
	addCmd.Flags().BoolVarP(&addQuiet, "quiet", "q", false, "suppress per-file output")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var files []string
	for _, arg := range args {
		paths, collectErr := collectFiles(arg, addRecursive)
		if collectErr != nil {
			return fmt.Errorf("collect files from %s: %w", arg, collectErr)
		}
		files = append(files, paths...)
	}

	if len(files) == 0 {
		slog.Info("no files to add")
		return nil
	}

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	added := 0
	for _, path := range files {
		record, addErr := addFile(cmd, a.catalog, path)
		if addErr != nil {
			return fmt.Errorf("add %s: %w", path, addErr)
		}

		added++
		if !addQuiet {
			slog.Info("added", "id", record.ID, "file", path, "filename", record.Filename)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), record.ID)
	}

	slog.Info("add complete", "added", added)
	return nil
}

func addFile(cmd *cobra.Command, catalog *gallery.CatalogService, path string) (gallery.ImageRecord, error) {
	f, err := os.Open(path) //#nosec G304 -- path is user-provided input
	if err != nil {
		return gallery.ImageRecord{}, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return gallery.ImageRecord{}, err
	}

	name := filepath.Base(path)
	return catalog.Create(cmd.Context(), gallery.CreateImage{
		OriginalName: name,
		ContentType:  gallery.DetectContentType(name),
		Size:         info.Size(),
		Title:        addTitle,
		Description:  addDescription,
		Tags:         addTags,
	}, f)
}

// collectFiles gathers files from a path, optionally recursively.
func collectFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	if !recursive {
		return nil, fmt.Errorf("%s is a directory (use -r to add recursively)", path)
	}

	var paths []string
	walkErr := filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			paths = append(paths, walkPath)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return paths, nil
}
