package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/sagarc03/gallery/clientcli"
	"github.com/spf13/cobra"
)

var (
	setEndpoint string
	setDefault  bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage named server endpoints in ~/.gallery/config.yaml.

Select a profile with --profile or GALLERY_PROFILE. Without either the
default profile is used.`,
}

var configureSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or change a profile",
	Long: `Store an endpoint under a profile name.

Without --endpoint the URL is asked for interactively. The server is
checked with GET /health before saving; when it cannot be reached an
interactive session asks whether to save anyway. The first profile
always becomes the default.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureSet,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE:  runConfigureList,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

func init() {
	configureSetCmd.Flags().StringVar(&setEndpoint, "endpoint", "", "server URL including base path")
	configureSetCmd.Flags().BoolVar(&setDefault, "default", false, "make this the default profile")

	configureCmd.AddCommand(configureSetCmd)
	configureCmd.AddCommand(configureListCmd)
	configureCmd.AddCommand(configureRemoveCmd)
}

// loadProfiles returns the profile file, empty when it does not exist yet.
func loadProfiles(path string) (*clientcli.ConfigFile, error) {
	file, err := clientcli.LoadConfigFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &clientcli.ConfigFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return file, nil
}

// saveProfile stores one profile and writes the file back.
func saveProfile(path, name, endpointURL string, makeDefault bool) error {
	file, err := loadProfiles(path)
	if err != nil {
		return err
	}
	file.Set(name, endpointURL, makeDefault || len(file.Endpoints) == 0)
	return file.Save(path)
}

func runConfigureSet(cmd *cobra.Command, args []string) error {
	name := args[0]
	interactive := setEndpoint == ""

	endpointURL := setEndpoint
	if interactive {
		prompt := promptui.Prompt{
			Label:    "Endpoint URL",
			Default:  clientcli.DefaultEndpoint,
			Validate: validateEndpoint,
		}
		var err error
		if endpointURL, err = prompt.Run(); err != nil {
			return handlePromptError(err)
		}
	} else if err := validateEndpoint(endpointURL); err != nil {
		return err
	}

	if err := testServerConnection(cmd.Context(), endpointURL); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s is not reachable: %v\n", endpointURL, err)
		if interactive {
			confirm := promptui.Prompt{Label: "Save anyway", IsConfirm: true}
			if _, promptErr := confirm.Run(); promptErr != nil {
				fmt.Println("Cancelled.")
				return nil //nolint:nilerr // declining is not a failure
			}
		}
	}

	if err := saveProfile(getConfigPath(), name, endpointURL, setDefault); err != nil {
		return err
	}
	if !quiet {
		fmt.Printf("Profile '%s' saved.\n", name)
	}
	return nil
}

func runConfigureList(_ *cobra.Command, _ []string) error {
	file, err := loadProfiles(getConfigPath())
	if err != nil {
		return err
	}
	if len(file.Endpoints) == 0 && !jsonOutput {
		fmt.Println("No profiles. Create one with 'gallery-cli configure set <name>'.")
		return nil
	}
	return getFormatter().FormatProfiles(os.Stdout, file)
}

func runConfigureRemove(_ *cobra.Command, args []string) error {
	path := getConfigPath()
	file, err := loadProfiles(path)
	if err != nil {
		return err
	}
	if err := file.Remove(args[0]); err != nil {
		return err
	}
	if err := file.Save(path); err != nil {
		return err
	}
	if !quiet {
		fmt.Printf("Profile '%s' removed.\n", args[0])
	}
	return nil
}

func validateEndpoint(input string) error {
	return (&clientcli.Config{Endpoint: input}).Validate()
}

func testServerConnection(ctx context.Context, endpointURL string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := clientcli.New(&clientcli.Config{Endpoint: endpointURL}, clientcli.WithTimeout(5*time.Second))
	if err != nil {
		return err
	}
	return client.Health(ctx)
}

func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
