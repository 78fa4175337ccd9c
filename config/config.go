package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database"
	galleryhttp "github.com/sagarc03/gallery/http"
	"github.com/sagarc03/gallery/keybackend"
	"github.com/sagarc03/gallery/storage"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for the gallery.
type Config struct {
	Env      string                 `mapstructure:"env" validate:"required,oneof=dev development prod production test"`
	Server   ServerConfig           `mapstructure:"server"`
	Catalog  CatalogConfig          `mapstructure:"catalog"`
	Database database.Config        `mapstructure:"database"`
	Storage  storage.Config         `mapstructure:"storage"`
	Auth     AuthConfig             `mapstructure:"auth"`
	CORS     galleryhttp.CORSConfig `mapstructure:"cors"`
	Metrics  MetricsConfig          `mapstructure:"metrics"`
	Log      LogConfig              `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	BasePath        string        `mapstructure:"base_path" validate:"omitempty,startswith=/"`
	PublicURL       string        `mapstructure:"public_url" validate:"omitempty,url"` // externally reachable URL, base path included
	MaxUploadSize   int64         `mapstructure:"max_upload_size" validate:"min=1"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=1s"`
}

// CatalogConfig holds catalog engine settings.
type CatalogConfig struct {
	SignedURLTTL       time.Duration `mapstructure:"signed_url_ttl" validate:"gte=1s,lte=8760h"`
	RefreshConcurrency int           `mapstructure:"refresh_concurrency" validate:"min=1,max=1024"`
}

// AuthConfig holds the signing settings for locally served files.
type AuthConfig struct {
	Region  string `mapstructure:"region" validate:"required"`
	Service string `mapstructure:"service" validate:"required"`
	// AccessKey and SecretKey sign URLs issued by the filesystem backend.
	// When empty a random pair is generated at startup.
	AccessKey string                `mapstructure:"access_key"`
	SecretKey string                `mapstructure:"secret_key"`
	Keys      keybackend.KeysConfig `mapstructure:"keys"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// IsProduction reports whether Env names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// PublicBaseURL is the URL the server is reachable at, base path included.
// It falls back to localhost on the configured port.
func (c *Config) PublicBaseURL() string {
	if c.Server.PublicURL != "" {
		return strings.TrimSuffix(c.Server.PublicURL, "/")
	}
	return "http://localhost:" + strconv.Itoa(c.Server.Port) + strings.TrimSuffix(c.Server.BasePath, "/")
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-type": "storage.type",
	"storage-path": "storage.filesystem.path",
	"port":         "server.port",
	"base-path":    "server.base_path",
	"log-level":    "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance. Every key
// that should be settable through the environment needs a default here.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", 5708)
	v.SetDefault("server.base_path", "")
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.max_upload_size", galleryhttp.DefaultMaxUploadSize)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("catalog.signed_url_ttl", gallery.DefaultSignedURLTTL.String())
	v.SetDefault("catalog.refresh_concurrency", 16)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "gallery.db")
	v.SetDefault("database.tables.records", "gallery_images")
	v.SetDefault("database.cache.enabled", false)
	v.SetDefault("database.cache.max_cost", 10000)
	v.SetDefault("database.cache.ttl", "5m")

	v.SetDefault("storage.type", "filesystem")
	v.SetDefault("storage.bucket", storage.DefaultBucket)
	v.SetDefault("storage.filesystem.path", "./data")
	v.SetDefault("storage.filesystem.base_url", "")
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.region", "us-east-1")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.use_path_style", false)
	v.SetDefault("storage.stowry.endpoint", "")
	v.SetDefault("storage.stowry.access_key", "")
	v.SetDefault("storage.stowry.secret_key", "")

	v.SetDefault("auth.region", "us-east-1")
	v.SetDefault("auth.service", "s3")
	v.SetDefault("auth.access_key", "")
	v.SetDefault("auth.secret_key", "")
	v.SetDefault("auth.keys.file", "")

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("GALLERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator, then the rules that span fields
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := cfg.validateBackends(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validateBackends() error {
	switch c.Database.Type {
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for %s", c.Database.Type)
		}
		if err := c.Database.Tables.Validate(); err != nil {
			return err
		}
	case "badger", "redis":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for %s", c.Database.Type)
		}
	}

	switch c.Storage.Type {
	case "filesystem":
		if c.Storage.Filesystem.Path == "" {
			return errors.New("storage.filesystem.path is required")
		}
		if (c.Auth.AccessKey == "") != (c.Auth.SecretKey == "") {
			return errors.New("auth.access_key and auth.secret_key must be set together")
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" {
			return errors.New("storage.minio.endpoint is required")
		}
	case "stowry":
		s := c.Storage.Stowry
		if s.Endpoint == "" || s.AccessKey == "" || s.SecretKey == "" {
			return errors.New("storage.stowry.endpoint, access_key and secret_key are required")
		}
	}

	return nil
}
