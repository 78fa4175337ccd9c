package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sagarc03/gallery"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables gallery.Tables
}

// Connect establishes a connection to SQLite.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables gallery.Tables) (*database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// Every connection to an in-memory DSN opens its own empty database.
	if isMemoryDSN(dsn) {
		db.SetMaxOpenConns(1)
	}

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.db, d.tables)
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetStore returns the MetadataStore for record operations.
func (d *database) GetStore() gallery.MetadataStore {
	return &repo{db: d.db, tableName: quoteIdentifier(d.tables.Records)}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
