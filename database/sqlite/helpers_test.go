package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestStore creates a store with a unique table name for test isolation
func setupTestStore(t *testing.T) gallery.MetadataStore {
	t.Helper()

	ctx := context.Background()

	tableName := fmt.Sprintf("records_%s", getRandomString(t))
	tables := gallery.Tables{Records: tableName}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")

	err = db.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	t.Cleanup(func() { _ = db.Close() })

	return db.GetStore()
}
