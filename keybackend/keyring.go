// Package keybackend holds the access keys trusted to sign image URLs.
package keybackend

import (
	"errors"
	"fmt"

	"github.com/sagarc03/gallery"
)

// ErrKeyNotFound marks a lookup for an access key the keyring does not hold.
var ErrKeyNotFound = errors.New("access key not found")

// KeyPair is one access key and its secret.
type KeyPair struct {
	AccessKey string `json:"access_key" yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key" mapstructure:"secret_key"`
}

// Valid reports whether both halves are set.
func (p KeyPair) Valid() bool {
	return p.AccessKey != "" && p.SecretKey != ""
}

// Keyring maps access keys to secrets.
type Keyring map[string]string

var _ gallery.SecretStore = Keyring(nil)

// Add stores each valid pair. Half-empty pairs are dropped and a repeated
// access key takes the later secret.
func (k Keyring) Add(pairs ...KeyPair) {
	for _, p := range pairs {
		if p.Valid() {
			k[p.AccessKey] = p.SecretKey
		}
	}
}

// Lookup returns the secret for accessKey. A miss matches both
// ErrKeyNotFound and gallery.ErrUnauthorized.
func (k Keyring) Lookup(accessKey string) (string, error) {
	if secret, ok := k[accessKey]; ok && accessKey != "" {
		return secret, nil
	}
	return "", fmt.Errorf("lookup %q: %w: %w", accessKey, ErrKeyNotFound, gallery.ErrUnauthorized)
}

// KeysConfig is the auth.keys section of the server config.
type KeysConfig struct {
	Inline []KeyPair `mapstructure:"inline"`
	File   string    `mapstructure:"file"`
}

// Load builds a keyring from the inline pairs, then the key file, then
// extra. The filesystem blob backend passes its own signing pair as extra
// so the URLs it issues always verify.
func Load(cfg KeysConfig, extra ...KeyPair) (Keyring, error) {
	ring := Keyring{}
	ring.Add(cfg.Inline...)

	if cfg.File != "" {
		pairs, err := ReadKeyFile(cfg.File)
		if err != nil {
			return nil, err
		}
		ring.Add(pairs...)
	}

	ring.Add(extra...)
	return ring, nil
}
