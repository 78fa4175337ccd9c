package postgres_test

import (
	"context"
	"testing"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/internal/storetest"
	"github.com/sagarc03/gallery/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	db, err := postgres.Connect(ctx, getDSN(pool), gallery.Tables{Records: "records"})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.NoError(t, db.Ping(ctx), "ping should succeed after connect")
}

func TestDatabase_Migrate(t *testing.T) {
	pool := getSharedTestDatabase(t)
	dsn := getDSN(pool)
	ctx := context.Background()

	t.Run("success - creates tables", func(t *testing.T) {
		tableName := "migrate_test_" + getRandomString(t)
		db, err := postgres.Connect(ctx, dsn, gallery.Tables{Records: tableName})
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
			_ = dropTable(ctx, pool, tableName)
		}()

		require.NoError(t, db.Migrate(ctx), "migrate should succeed")

		_, err = db.GetStore().ListByPrefix(ctx, gallery.KeyPrefix)
		assert.NoError(t, err, "store should work after migration")
	})

	t.Run("idempotent - can run multiple times", func(t *testing.T) {
		tableName := "migrate_idem_" + getRandomString(t)
		db, err := postgres.Connect(ctx, dsn, gallery.Tables{Records: tableName})
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
			_ = dropTable(ctx, pool, tableName)
		}()

		require.NoError(t, db.Migrate(ctx), "first migrate should succeed")
		assert.NoError(t, db.Migrate(ctx), "second migrate should succeed")
	})
}

func TestDatabase_Validate(t *testing.T) {
	pool := getSharedTestDatabase(t)
	dsn := getDSN(pool)
	ctx := context.Background()

	t.Run("success - valid schema after migrate", func(t *testing.T) {
		tableName := "validate_test_" + getRandomString(t)
		db, err := postgres.Connect(ctx, dsn, gallery.Tables{Records: tableName})
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
			_ = dropTable(ctx, pool, tableName)
		}()

		require.NoError(t, db.Migrate(ctx))
		assert.NoError(t, db.Validate(ctx), "validate should succeed after migrate")
	})

	t.Run("error - table does not exist", func(t *testing.T) {
		db, err := postgres.Connect(ctx, dsn, gallery.Tables{Records: "nonexistent_table"})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		err = db.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("error - missing columns", func(t *testing.T) {
		tableName := "incomplete_" + getRandomString(t)

		_, err := pool.Exec(ctx, `CREATE TABLE `+tableName+` (key TEXT PRIMARY KEY)`)
		require.NoError(t, err)
		defer func() { _ = dropTable(ctx, pool, tableName) }()

		db, err := postgres.Connect(ctx, dsn, gallery.Tables{Records: tableName})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		err = db.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing columns")
	})

	t.Run("error - wrong column type", func(t *testing.T) {
		tableName := "wrongtype_" + getRandomString(t)

		// value as TEXT instead of JSONB
		_, err := pool.Exec(ctx, `
			CREATE TABLE `+tableName+` (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`)
		require.NoError(t, err)
		defer func() { _ = dropTable(ctx, pool, tableName) }()

		db, err := postgres.Connect(ctx, dsn, gallery.Tables{Records: tableName})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		err = db.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "value: expected jsonb, got text")
	})
}

func TestDatabase_Close(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	db, err := postgres.Connect(ctx, getDSN(pool), gallery.Tables{Records: "close_test"})
	require.NoError(t, err)

	require.NoError(t, db.Close(), "close should succeed")
	assert.Error(t, db.Ping(ctx), "ping should fail after close")
}

func TestRepo(t *testing.T) {
	storetest.Run(t, func(t *testing.T) gallery.MetadataStore {
		return setupTestStore(t)
	})
}

func TestRepo_StoresJSONB(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tableName := "jsonb_" + getRandomString(t)
	db, err := postgres.Connect(ctx, getDSN(pool), gallery.Tables{Records: tableName})
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
		_ = dropTable(ctx, pool, tableName)
	}()
	require.NoError(t, db.Migrate(ctx))

	require.NoError(t, db.GetStore().Set(ctx, "image:one", storetest.Record("one")))

	var title string
	err = pool.QueryRow(ctx, `SELECT value->>'title' FROM `+tableName+` WHERE key = 'image:one'`).Scan(&title)
	require.NoError(t, err)
	assert.Equal(t, "Title one", title)
}
