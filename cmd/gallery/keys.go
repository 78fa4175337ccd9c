package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/gallery/keybackend"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate a key pair for signing file URLs",
	Long: `Print a random access/secret key pair.

The default output is an auth block for config.yaml. With --json the pair
is printed as an entry for an auth.keys.file key list.`,
	Args: cobra.NoArgs,
	RunE: runKeys,
}

var keysJSON bool

func init() {
	keysCmd.Flags().BoolVar(&keysJSON, "json", false, "print as a JSON key list entry")
	rootCmd.AddCommand(keysCmd)
}

func runKeys(cmd *cobra.Command, args []string) error {
	pair, err := keybackend.GenerateKeyPair()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if keysJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode([]keybackend.KeyPair{pair})
	}

	data, err := yaml.Marshal(map[string]keybackend.KeyPair{"auth": pair})
	if err != nil {
		return fmt.Errorf("marshal keys: %w", err)
	}
	_, err = out.Write(data)
	return err
}
