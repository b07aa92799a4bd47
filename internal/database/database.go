package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/onap/aai-gizmo-sub001/internal/config"
	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

// DB bundles the pgx pool and the bun instance wrapping it
type DB struct {
	Pool *pgxpool.Pool
	Bun  *bun.DB
}

// Open creates the pgx pool, verifies connectivity and wraps it with bun.
// Only the postgres graph store needs a database, so this is called on demand
// rather than provided unconditionally.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*DB, error) {
	log = log.With(logger.Scope("database"))

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnIdleTime = cfg.Database.MaxIdleTime

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database pool created",
		slog.String("host", cfg.Database.Host),
		slog.Int("port", cfg.Database.Port),
		slog.String("database", cfg.Database.Database),
		slog.Int("max_conns", cfg.Database.MaxOpenConns),
	)

	return &DB{Pool: pool, Bun: NewBunDB(pool, cfg.Database.QueryDebug, log)}, nil
}

// NewBunDB wraps a pgx pool with bun using the PostgreSQL dialect
func NewBunDB(pool *pgxpool.Pool, queryDebug bool, log *slog.Logger) *bun.DB {
	db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())
	if queryDebug {
		db.AddQueryHook(&queryLoggingHook{log: log.With(logger.Scope("bun"))})
	}
	return db
}

// Close closes bun and the underlying pool
func (d *DB) Close() error {
	err := d.Bun.Close()
	d.Pool.Close()
	return err
}

// queryLoggingHook implements bun.QueryHook for query logging
type queryLoggingHook struct {
	log *slog.Logger
}

func (h *queryLoggingHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLoggingHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)

	if event.Err != nil && event.Err != sql.ErrNoRows {
		h.log.Error("query error",
			slog.String("query", event.Query),
			slog.Duration("duration", duration),
			logger.Error(event.Err),
		)
		return
	}

	// Log slow queries as warnings
	if duration > 3*time.Second {
		h.log.Warn("slow query",
			slog.String("query", event.Query),
			slog.Duration("duration", duration),
		)
		return
	}

	// Debug log all queries
	h.log.Debug("query",
		slog.String("query", event.Query),
		slog.Duration("duration", duration),
	)
}

// SafeTx wraps a bun.Tx so that Rollback after Commit is a no-op. Graph
// store transaction handles hold one of these for their whole lifetime and
// release it with a deferred Rollback.
type SafeTx struct {
	bun.Tx
	done bool
}

// BeginSafeTx starts a new transaction and returns a SafeTx wrapper.
func BeginSafeTx(ctx context.Context, db bun.IDB) (*SafeTx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &SafeTx{Tx: tx}, nil
}

// Commit commits the transaction once.
func (tx *SafeTx) Commit() error {
	if tx.done {
		return nil
	}
	err := tx.Tx.Commit()
	if err == nil {
		tx.done = true
	}
	return err
}

// Rollback rolls back the transaction unless it already finished.
func (tx *SafeTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	return tx.Tx.Rollback()
}

// Done reports whether the transaction was committed or rolled back.
func (tx *SafeTx) Done() bool {
	return tx.done
}
