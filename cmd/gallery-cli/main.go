package main

import (
	"errors"
	"os"

	"github.com/sagarc03/gallery/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "gallery-cli",
	Version: version,
	Short:   "Client for a gallery image catalog server",
	Long: `gallery-cli - Client for the gallery image catalog

Upload images with a title, description and tags, list and search the
catalog, fetch records with signed URLs, download and delete images.

The server endpoint is resolved from, in increasing precedence:
  - the selected profile in ~/.gallery/config.yaml (--profile, GALLERY_PROFILE)
  - GALLERY_ENDPOINT
  - --endpoint`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.gallery/config.yaml, env: GALLERY_CLI_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (env: GALLERY_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL including base path (default: http://localhost:5708, env: GALLERY_ENDPOINT)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := os.Getenv(clientcli.EnvConfigPath); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig resolves the endpoint. A profile file that does not exist is
// only an error when it was named with --config.
func buildConfig() (*clientcli.Config, error) {
	var file *clientcli.ConfigFile
	if path := getConfigPath(); path != "" {
		loaded, err := clientcli.LoadConfigFile(path)
		if err != nil && (cfgFile != "" || !errors.Is(err, os.ErrNotExist)) {
			return nil, err
		}
		file = loaded
	}

	profileName := profile
	if profileName == "" {
		profileName = os.Getenv(clientcli.EnvProfile)
	}

	return clientcli.Resolve(clientcli.Resolution{
		Endpoint:    endpoint,
		EnvEndpoint: os.Getenv(clientcli.EnvEndpoint),
		Profile:     profileName,
		File:        file,
	})
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}
