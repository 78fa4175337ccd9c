package postgres_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testPool     *pgxpool.Pool
	testPoolErr  error
	testPoolOnce sync.Once
)

// getSharedTestDatabase returns a pool on a postgres container shared by
// every test in the package. The container is reaped by testcontainers when
// the test binary exits.
func getSharedTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	testPoolOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			testPoolErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = testcontainers.TerminateContainer(pgContainer)
			testPoolErr = fmt.Errorf("get connection string: %w", err)
			return
		}

		testPool, testPoolErr = pgxpool.New(ctx, connectionStr)
	})

	require.NoError(t, testPoolErr)
	return testPool
}

// getRandomString generates a random string for unique test identifiers.
func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// dropTable drops the specified table for test cleanup.
func dropTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", quotedTable)
	_, err := pool.Exec(ctx, sql)
	return err
}

// getDSN extracts the DSN from the pool config.
func getDSN(pool *pgxpool.Pool) string {
	return pool.Config().ConnString()
}

// setupTestStore creates a store with a unique table name for test isolation.
func setupTestStore(t *testing.T) gallery.MetadataStore {
	t.Helper()

	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tableName := fmt.Sprintf("records_%s", getRandomString(t))
	tables := gallery.Tables{Records: tableName}

	db, err := postgres.Connect(ctx, getDSN(pool), tables)
	require.NoError(t, err, "failed to connect")

	err = db.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	t.Cleanup(func() {
		_ = db.Close()
		_ = dropTable(ctx, pool, tableName)
	})

	return db.GetStore()
}
