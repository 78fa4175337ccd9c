package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sagarc03/gallery"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

// getTableMigrations returns all table migrations for the app
func getTableMigrations(tables gallery.Tables) []TableMigration {
	migrations := []TableMigration{}

	migrations = append(migrations, TableMigration{
		TableName: tables.Records,
		Up:        createRecordsTable(tables.Records),
		Down:      dropTable(tables.Records),
	})

	return migrations
}

// Migrate creates every table that does not exist yet.
func Migrate(ctx context.Context, db *sql.DB, tables gallery.Tables) error {
	migrations := getTableMigrations(tables)

	for _, migration := range migrations {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

// DropTables drops every table in reverse creation order.
func DropTables(ctx context.Context, db *sql.DB, tables gallery.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createRecordsTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				key TEXT NOT NULL PRIMARY KEY,
				value TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`, quoteIdentifier(tableName))

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
