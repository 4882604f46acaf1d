// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// sqliteSchema is the whole storage model: one key, one JSON document.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	k TEXT PRIMARY KEY,
	v TEXT NOT NULL
);`

// SQLite is the default local [Store], backed by an embedded database file.
//
// # Concurrency
//
// database/sql serializes access to the single connection SQLite hands out,
// which matches the single-process, synchronous model of this layer. Two
// ticketloft processes sharing one file are last-writer-wins; the core
// provides no cross-process locking.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database file at path and ensures
// the kv schema exists.
func NewSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {

	// Ensure the parent directory exists before the driver touches the file.
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("kvstore: failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("kvstore: failed to open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kvstore: sqlite ping failed: %w", err)
	}

	// Idempotent schema setup. A one-table store needs no migration history.
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kvstore: failed to ensure kv schema: %w", err)
	}

	logger.Info("sqlite store opened", slog.String("path", path))

	return &SQLite{db: db}, nil
}

// Ensure the interface is met.
var _ Store = (*SQLite)(nil)

// Get returns the value stored under key.
func (store *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := store.db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: sqlite get failed: %w", err)
	}
	return value, true, nil
}

// Set writes value under key, replacing any previous value.
func (store *SQLite) Set(ctx context.Context, key, value string) error {
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("kvstore: sqlite set failed: %w", err)
	}
	return nil
}

// Remove deletes the key. Removing an absent key is a no-op.
func (store *SQLite) Remove(ctx context.Context, key string) error {
	if _, err := store.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key); err != nil {
		return fmt.Errorf("kvstore: sqlite remove failed: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (store *SQLite) Close() error {
	return store.db.Close()
}
