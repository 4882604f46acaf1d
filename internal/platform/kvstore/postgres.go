// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Opinionated pool settings for the Ticketloft workload. The CLI issues a few
// sequential statements per run, so the pool is kept deliberately small.
const (
	pgMaxConns        = 4
	pgMinConns        = 1
	pgMaxConnLifetime = 60 * time.Minute
	pgConnectTimeout  = 5 * time.Second
	pgPingTimeout     = 2 * time.Second
)

// Postgres is a pooled [Store] over the same single kv table shape the
// SQLite driver uses. Schema is managed by the migration runner, not here.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates and validates a new PostgreSQL-backed store.
//
// # Parameters
//   - ctx: Context for the initial connection attempt.
//   - dsn: A libpq-compatible connection string or postgres:// URL.
//   - logger: Structured logger for pool-level events.
func NewPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("kvstore: invalid postgres DSN: %w", err)
	}

	// Apply pool tuning parameters.
	poolConfig.MaxConns = pgMaxConns
	poolConfig.MinConns = pgMinConns
	poolConfig.MaxConnLifetime = pgMaxConnLifetime
	poolConfig.ConnConfig.ConnectTimeout = pgConnectTimeout

	connectCtx, cancel := context.WithTimeout(ctx, pgConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("kvstore: failed to create postgres pool: %w", err)
	}

	// Validate that we can actually reach the database.
	pingCtx, pingCancel := context.WithTimeout(ctx, pgPingTimeout)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("kvstore: postgres ping failed: %w", err)
	}

	logger.Info("postgres store connected",
		slog.Int("max_conns", int(pool.Stat().MaxConns())),
	)

	return &Postgres{pool: pool}, nil
}

// Ensure the interface is met.
var _ Store = (*Postgres)(nil)

// Get returns the value stored under key.
func (store *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := store.pool.QueryRow(ctx, `SELECT v FROM kv WHERE k = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: postgres get failed: %w", err)
	}
	return value, true, nil
}

// Set writes value under key, replacing any previous value.
func (store *Postgres) Set(ctx context.Context, key, value string) error {
	_, err := store.pool.Exec(ctx,
		`INSERT INTO kv (k, v) VALUES ($1, $2) ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("kvstore: postgres set failed: %w", err)
	}
	return nil
}

// Remove deletes the key. Removing an absent key is a no-op.
func (store *Postgres) Remove(ctx context.Context, key string) error {
	if _, err := store.pool.Exec(ctx, `DELETE FROM kv WHERE k = $1`, key); err != nil {
		return fmt.Errorf("kvstore: postgres remove failed: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (store *Postgres) Close() {
	store.pool.Close()
}
