package keybackend

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadKeyFile parses a list of key pairs. Files ending in .yaml or .yml are
// YAML, anything else is JSON:
//
//	[{"access_key": "GK1A2B...", "secret_key": "9f86d0..."}]
func ReadKeyFile(path string) ([]KeyPair, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}

	unmarshal := json.Unmarshal
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		unmarshal = yaml.Unmarshal
	}

	var pairs []KeyPair
	if err := unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse keys file %s: %w", path, err)
	}
	return pairs, nil
}

// GenerateKeyPair makes a random pair: "GK" plus 18 upper-case hex digits
// for the access key and 40 hex digits for the secret.
func GenerateKeyPair() (KeyPair, error) {
	buf := make([]byte, 9+20)
	if _, err := rand.Read(buf); err != nil {
		return KeyPair{}, fmt.Errorf("generate key pair: %w", err)
	}
	return KeyPair{
		AccessKey: "GK" + strings.ToUpper(hex.EncodeToString(buf[:9])),
		SecretKey: hex.EncodeToString(buf[9:]),
	}, nil
}
