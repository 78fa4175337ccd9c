package clientcli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is used when neither a profile nor the environment names a
// server.
const DefaultEndpoint = "http://localhost:5708"

// Environment variables read by the command line client.
const (
	EnvEndpoint   = "GALLERY_ENDPOINT"
	EnvProfile    = "GALLERY_PROFILE"
	EnvConfigPath = "GALLERY_CLI_CONFIG"
)

// ConfigFile is the on-disk profile list. Each profile is a name for a
// server endpoint, base path included.
//
//	default: prod
//	endpoints:
//	  local: http://localhost:5708
//	  prod: https://gallery.example.com/api
type ConfigFile struct {
	Default   string            `yaml:"default,omitempty"`
	Endpoints map[string]string `yaml:"endpoints"`
}

// Endpoint returns the endpoint stored for name. An empty name selects the
// default profile, or the only profile when there is exactly one.
func (c *ConfigFile) Endpoint(name string) (string, error) {
	if len(c.Endpoints) == 0 {
		return "", ErrNoProfiles
	}

	if name == "" {
		name = c.Default
	}
	if name == "" {
		if len(c.Endpoints) > 1 {
			return "", fmt.Errorf("%w: no default among %s", ErrProfileNotFound, strings.Join(c.Names(), ", "))
		}
		for _, ep := range c.Endpoints {
			return ep, nil
		}
	}

	ep, ok := c.Endpoints[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return ep, nil
}

// Set stores endpoint under name, replacing any previous value.
func (c *ConfigFile) Set(name, endpoint string, makeDefault bool) {
	if c.Endpoints == nil {
		c.Endpoints = map[string]string{}
	}
	c.Endpoints[name] = strings.TrimSuffix(endpoint, "/")
	if makeDefault {
		c.Default = name
	}
}

// Remove deletes a profile. Removing the default leaves no default set.
func (c *ConfigFile) Remove(name string) error {
	if _, ok := c.Endpoints[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	delete(c.Endpoints, name)
	if c.Default == name {
		c.Default = ""
	}
	return nil
}

// Names returns the profile names in sorted order.
func (c *ConfigFile) Names() []string {
	names := make([]string, 0, len(c.Endpoints))
	for name := range c.Endpoints {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Save writes the file with owner-only permissions.
func (c *ConfigFile) Save(path string) error {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadConfigFile reads a profile file. A missing file yields an error
// matching os.ErrNotExist.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// DefaultConfigPath is ~/.gallery/config.yaml, or "" without a home directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gallery", "config.yaml")
}

// Config is the resolved client configuration.
type Config struct {
	Endpoint string
}

// Validate checks that the endpoint is an absolute http or https URL.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.Endpoint)
	}
	return nil
}

// WithDefaults returns a copy with an empty endpoint set to DefaultEndpoint.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &cfg
}

// Resolution names the inputs that can pick a server endpoint.
type Resolution struct {
	// Endpoint given explicitly, e.g. on the command line. Wins over everything.
	Endpoint string
	// EnvEndpoint is the value of GALLERY_ENDPOINT.
	EnvEndpoint string
	// Profile selects a profile from File; empty means the default profile.
	Profile string
	// File is the loaded profile file, nil when there is none.
	File *ConfigFile
}

// Resolve picks the endpoint: explicit endpoint, then the environment, then
// the selected profile. An empty result means DefaultEndpoint applies.
// Naming a profile that does not exist is an error. So is having no file
// while a profile is named.
func Resolve(r Resolution) (*Config, error) {
	if r.Endpoint != "" {
		return &Config{Endpoint: r.Endpoint}, nil
	}
	if r.EnvEndpoint != "" {
		return &Config{Endpoint: r.EnvEndpoint}, nil
	}

	if r.File == nil {
		if r.Profile != "" {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, r.Profile)
		}
		return &Config{}, nil
	}

	ep, err := r.File.Endpoint(r.Profile)
	if err != nil {
		if r.Profile == "" && (errors.Is(err, ErrNoProfiles) || r.File.Default == "") {
			return &Config{}, nil
		}
		return nil, err
	}
	return &Config{Endpoint: ep}, nil
}
