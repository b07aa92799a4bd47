package testutil

import (
	"context"
	"fmt"
	"os"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer is a throwaway PostgreSQL instance for integration tests.
type PostgresContainer struct {
	DSN       string
	container *postgres.PostgresContainer
}

// StartPostgres returns TEST_DATABASE_URL when set, otherwise starts a
// postgres container. Callers skip their tests when this fails (no Docker).
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return &PostgresContainer{DSN: dsn}, nil
	}

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("gizmo"),
		postgres.WithUsername("gizmo"),
		postgres.WithPassword("gizmo"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}
	return &PostgresContainer{DSN: dsn, container: ctr}, nil
}

// Terminate stops the container if one was started.
func (p *PostgresContainer) Terminate(ctx context.Context) error {
	if p == nil || p.container == nil {
		return nil
	}
	return p.container.Terminate(ctx)
}
