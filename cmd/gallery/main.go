package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/gallery/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "gallery",
	Short:   "Image gallery server with searchable metadata",
	Long: `Gallery stores uploaded images in object storage, keeps their
metadata in a key/value store and serves a JSON API to upload,
search and delete them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if f, _ := cmd.Flags().GetString("config"); f != "" {
			files = append(files, f)
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "metadata backend: memory, sqlite, postgres, badger, redis (env: GALLERY_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "metadata connection string (env: GALLERY_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-type", "", "blob backend: filesystem, minio, s3, stowry (env: GALLERY_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "filesystem storage directory (env: GALLERY_STORAGE_FILESYSTEM_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: GALLERY_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
