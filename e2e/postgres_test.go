package e2e_test

import (
	"context"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// getSharedPostgresDatabase returns the DSN of a PostgreSQL container shared
// by all E2E tests. The container is terminated when the test binary exits.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	pgOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			pgErr = err
			return
		}
		testcontainersCleanup = append(testcontainersCleanup, func() {
			_ = testcontainers.TerminateContainer(pgContainer)
		})

		pgDSN, pgErr = pgContainer.ConnectionString(ctx, "sslmode=disable")
	})

	if pgErr != nil {
		t.Fatalf("failed to start postgres container: %v", pgErr)
	}

	return pgDSN
}
