//go:build integration

// Package testutil starts the throwaway services the integration tests run
// against.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresPool starts a Postgres container and returns a pool connected to
// it. The container and pool are released when the test ends. The test is
// skipped if no container runtime is available.
func PostgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("todolist"),
		postgres.WithUsername("todolist"),
		postgres.WithPassword("todolist"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("Failed to start Postgres testcontainer: %v", err)
	}
	t.Cleanup(func() {
		if terminateErr := pgContainer.Terminate(context.Background()); terminateErr != nil {
			t.Logf("Failed to terminate container: %v", terminateErr)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get Postgres connection string: %v", err)
	}
	t.Logf("Postgres container started at: %s", dsn)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping Postgres: %v", err)
	}
	return pool
}
