package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/sagarc03/gallery"
)

// MemoryDSN opens Badger without touching disk.
const MemoryDSN = ":memory:"

type database struct {
	db *badger.DB
}

// Connect opens the Badger database in directory dsn, creating it if needed.
// A dsn of ":memory:" keeps everything in memory.
func Connect(dsn string) (*database, error) {
	dsn = strings.TrimPrefix(dsn, "badger://")
	if dsn == "" {
		return nil, errors.New("connect badger: directory is required")
	}

	var opts badger.Options
	if dsn == MemoryDSN {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dsn)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("connect badger: %w", err)
	}

	return &database{db: db}, nil
}

// Ping fails once the database is closed.
func (d *database) Ping(ctx context.Context) error {
	if d.db.IsClosed() {
		return errors.New("ping badger: database is closed")
	}
	return ctx.Err()
}

// Migrate is a no-op; Badger has no schema.
func (d *database) Migrate(context.Context) error { return nil }

// Validate is a no-op; Badger has no schema.
func (d *database) Validate(context.Context) error { return nil }

func (d *database) GetStore() gallery.MetadataStore {
	return &store{db: d.db}
}

func (d *database) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	return nil
}
