//go:build integration

package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/Black-And-White-Club/demonlist-tracker/config"
	"github.com/Black-And-White-Club/demonlist-tracker/db/bundb"
	"github.com/Black-And-White-Club/demonlist-tracker/integration_tests/containers"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
)

// TestEnvironment is one Postgres container shared by a test package.
type TestEnvironment struct {
	Container *postgres.PostgresContainer
	DSN       string
	DB        *bun.DB
	Logger    *slog.Logger
}

// NewTestEnvironment starts Postgres and applies the schema.
func NewTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	container, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	db, err := bundb.Open(ctx, config.DatabaseConfig{Driver: config.DriverPostgres, DSN: dsn})
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := bundb.Migrate(ctx, db, logger); err != nil {
		db.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return &TestEnvironment{Container: container, DSN: dsn, DB: db, Logger: logger}, nil
}

// Reset empties every demon list table.
func (env *TestEnvironment) Reset(t *testing.T) {
	t.Helper()
	_, err := env.DB.ExecContext(context.Background(),
		"TRUNCATE active_levels, reserve_levels, level_progress, players, banked_points")
	if err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
}

// Terminate closes the database and stops the container.
func (env *TestEnvironment) Terminate(ctx context.Context) {
	if env.DB != nil {
		env.DB.Close()
	}
	if env.Container != nil {
		_ = env.Container.Terminate(ctx)
	}
}
