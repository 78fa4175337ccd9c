package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	tables := gallery.Tables{Records: "gallery_records"}

	require.NoError(t, sqlite.Migrate(ctx, db, tables))
	require.NoError(t, sqlite.Migrate(ctx, db, tables), "migrate should be idempotent")
	assert.NoError(t, sqlite.ValidateSchema(ctx, db, tables))

	require.NoError(t, sqlite.DropTables(ctx, db, tables))
	assert.Error(t, sqlite.ValidateSchema(ctx, db, tables))
}

func TestValidateSchema(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		ddl       string
		wantError string
	}{
		{
			name:      "missing table",
			wantError: "does not exist",
		},
		{
			name:      "missing columns",
			ddl:       `CREATE TABLE gallery_records (key TEXT NOT NULL PRIMARY KEY, value TEXT NOT NULL)`,
			wantError: "missing column created_at",
		},
		{
			name:      "wrong type",
			ddl:       `CREATE TABLE gallery_records (key TEXT NOT NULL PRIMARY KEY, value BLOB NOT NULL, created_at TEXT NOT NULL, updated_at TEXT NOT NULL)`,
			wantError: "value: expected text, got blob",
		},
		{
			name:      "nullable value",
			ddl:       `CREATE TABLE gallery_records (key TEXT NOT NULL PRIMARY KEY, value TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL)`,
			wantError: "expected nullable=false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openMemory(t)
			if tt.ddl != "" {
				_, err := db.ExecContext(ctx, tt.ddl)
				require.NoError(t, err)
			}

			err := sqlite.ValidateSchema(ctx, db, gallery.Tables{Records: "gallery_records"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantError)
		})
	}

	t.Run("invalid table name", func(t *testing.T) {
		err := sqlite.ValidateSchema(ctx, openMemory(t), gallery.Tables{Records: "Bad-Name"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid table name")
	})
}
