package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/internal"
)

// recordColumns is what Migrate creates. SQLite stores timestamps as text.
var recordColumns = map[string]internal.Column{
	"key":        {Type: "text"},
	"value":      {Type: "text"},
	"created_at": {Type: "text"},
	"updated_at": {Type: "text"},
}

// ValidateSchema checks that the records table has the columns Migrate
// creates.
func ValidateSchema(ctx context.Context, db *sql.DB, tables gallery.Tables) error {
	if !gallery.IsValidTableName(tables.Records) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Records)
	}

	rows, err := db.QueryContext(ctx, `SELECT name, type, "notnull" FROM pragma_table_info(?)`, tables.Records)
	if err != nil {
		return fmt.Errorf("validate schema: read columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	got := map[string]internal.Column{}
	for rows.Next() {
		var name, typ string
		var notNull bool
		if err := rows.Scan(&name, &typ, &notNull); err != nil {
			return fmt.Errorf("validate schema: scan column: %w", err)
		}
		got[name] = internal.Column{Type: strings.ToLower(typ), Nullable: !notNull}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate schema: read columns: %w", err)
	}

	if err := internal.CheckColumns(tables.Records, recordColumns, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}
