package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/internal"
)

var recordColumns = map[string]internal.Column{
	"key":        {Type: "text"},
	"value":      {Type: "jsonb"},
	"created_at": {Type: "timestamp with time zone"},
	"updated_at": {Type: "timestamp with time zone"},
}

// ValidateSchema checks that the records table in the current schema has
// the columns Migrate creates.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables gallery.Tables) error {
	if !gallery.IsValidTableName(tables.Records) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Records)
	}

	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, tables.Records)
	if err != nil {
		return fmt.Errorf("validate schema: read columns: %w", err)
	}

	got := map[string]internal.Column{}
	var name, typ string
	var nullable bool
	_, err = pgx.ForEachRow(rows, []any{&name, &typ, &nullable}, func() error {
		got[name] = internal.Column{Type: strings.ToLower(typ), Nullable: nullable}
		return nil
	})
	if err != nil {
		return fmt.Errorf("validate schema: read columns: %w", err)
	}

	if err := internal.CheckColumns(tables.Records, recordColumns, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}
