package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/gallery"
)

// Migrate creates every table that does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables gallery.Tables) error {
	if err := createRecordsTable(ctx, pool, tables.Records); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Records, err)
	}
	return nil
}

func createRecordsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexKeyPattern := pgx.Identifier{fmt.Sprintf("idx_%s_key_pattern", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (key text_pattern_ops);
	`,
		quotedTable,
		indexKeyPattern, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create records table: %w", err)
	}
	return nil
}

// DropTables drops every table created by Migrate.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables gallery.Tables) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{tables.Records}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Records, err)
	}
	return nil
}
