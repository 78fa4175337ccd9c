package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/badger"
	"github.com/sagarc03/gallery/database/cache"
	"github.com/sagarc03/gallery/database/memory"
	"github.com/sagarc03/gallery/database/postgres"
	"github.com/sagarc03/gallery/database/redis"
	"github.com/sagarc03/gallery/database/sqlite"
)

// Database is a metadata backend connection.
type Database interface {
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Migrate creates the tables the store needs. It is idempotent and a
	// no-op for schemaless backends.
	Migrate(ctx context.Context) error
	// Validate checks the existing schema against what the store expects.
	Validate(ctx context.Context) error
	// GetStore returns the record store backed by this connection.
	GetStore() gallery.MetadataStore
	// Close releases the connection.
	Close() error
}

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the backend: "memory", "sqlite", "postgres", "badger" or "redis"
	Type string `mapstructure:"type" validate:"required,oneof=memory sqlite postgres badger redis"`
	// DSN is the data source name (connection string, directory or URL)
	DSN string `mapstructure:"dsn"`
	// Tables names the SQL tables; ignored by key/value backends
	Tables gallery.Tables `mapstructure:"tables"`
	// Cache wraps the store in a read-through cache when enabled
	Cache cache.Config `mapstructure:"cache"`
}

// Connect opens the configured backend. It does not migrate or validate;
// callers decide when to do that.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	db, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if !cfg.Cache.Enabled {
		return db, nil
	}

	c, err := cache.New(db.GetStore(), cfg.Cache)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &cachedDatabase{Database: db, cache: c}, nil
}

func connect(ctx context.Context, cfg Config) (Database, error) {
	switch cfg.Type {
	case "memory":
		return memory.Connect(), nil
	case "sqlite":
		if err := cfg.Tables.Validate(); err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		return sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		if err := cfg.Tables.Validate(); err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		return postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	case "badger":
		return badger.Connect(cfg.DSN)
	case "redis":
		return redis.Connect(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %q", cfg.Type)
	}
}

// Open connects, migrates and validates in one step and returns the store
// with a cleanup function that closes the connection.
func Open(ctx context.Context, cfg Config) (gallery.MetadataStore, func(), error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err := db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	cleanup := func() {
		_ = db.Close()
	}
	return db.GetStore(), cleanup, nil
}

type cachedDatabase struct {
	Database
	cache *cache.Store
}

func (d *cachedDatabase) GetStore() gallery.MetadataStore {
	return d.cache
}

func (d *cachedDatabase) Close() error {
	d.cache.Close()
	return d.Database.Close()
}
