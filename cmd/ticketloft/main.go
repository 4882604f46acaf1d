// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

// Command ticketloft is the entry point for the Ticketloft CLI.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the configured durable store (sqlite, memory, redis, postgres).
//  4. Run database migrations for the postgres driver (idempotent).
//  5. Wire the state cell, user directory, session manager, and ticket store.
//  6. Restore a persisted session, if any.
//  7. Dispatch the subcommand.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ticketloft/ticketloft/internal/platform/config"
	"github.com/ticketloft/ticketloft/internal/platform/ctxutil"
	"github.com/ticketloft/ticketloft/internal/platform/kvstore"
	"github.com/ticketloft/ticketloft/internal/platform/migration"
	"github.com/ticketloft/ticketloft/internal/state"
	"github.com/ticketloft/ticketloft/internal/tickets"
	"github.com/ticketloft/ticketloft/internal/users/directory"
	"github.com/ticketloft/ticketloft/internal/users/session"
	"github.com/ticketloft/ticketloft/pkg/uuid"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Diagnostics go to stderr so command output stays pipeable.
	rawLog := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	log := rawLog.With(slog.String("app", "ticketloft"))
	slog.SetDefault(log)

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "ticketloft"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	// Root context for the whole command. A CLI invocation that takes longer
	// than this is stuck on a dead medium.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Every invocation gets an operation id so log lines from one run can be
	// correlated when several processes share the same medium.
	operationID := uuid.New()
	log = log.With(slog.String("operation_id", operationID))
	ctx = ctxutil.WithOperationID(ctx, operationID)
	ctx = ctxutil.WithLogger(ctx, log)

	// ── 3. Durable Store ──────────────────────────────────────────────────
	store, closeStore, err := openStore(ctx, cfg, log)
	must(log, err, "open durable store")
	defer closeStore()

	// ── 4. Domain Wiring ──────────────────────────────────────────────────
	cell := state.NewCell[tickets.Ticket]()
	users := directory.NewDirectory(store, log)
	manager := session.NewManager(users, store, cell, log)
	ticketStore := tickets.NewStore(users, manager, cell, log)

	// ── 5. Session Restore ────────────────────────────────────────────────
	// A corrupt or orphaned pointer is cleaned up silently; only a dead
	// medium is fatal here.
	must(log, manager.Restore(ctx), "restore session")

	// ── 6. Dispatch ───────────────────────────────────────────────────────
	app := &application{
		manager: manager,
		tickets: ticketStore,
		out:     os.Stdout,
	}

	if err := app.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

/*
openStore opens the durable key-value medium selected by configuration.

Description: Returns the store together with a close function so main can
defer cleanup uniformly across drivers. The postgres driver also runs the
schema migrations before the store is handed out.

Parameters:
  - context: context.Context
  - cfg: *config.Config
  - log: *slog.Logger

Returns:
  - kvstore.Store: The opened store
  - func(): Cleanup to run at process exit
  - error: Connection or migration failures
*/
func openStore(context context.Context, cfg *config.Config, log *slog.Logger) (kvstore.Store, func(), error) {
	switch cfg.StoreDriver {

	case config.DriverSQLite:
		store, err := kvstore.NewSQLite(context, cfg.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if cerr := store.Close(); cerr != nil {
				log.Error("sqlite close error", slog.Any("error", cerr))
			}
		}, nil

	case config.DriverMemory:
		// Useful for smoke tests; nothing survives the process.
		return kvstore.NewMemory(), func() {}, nil

	case config.DriverRedis:
		store, err := kvstore.NewRedis(context, cfg.RedisURL, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if cerr := store.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}, nil

	case config.DriverPostgres:
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			return nil, nil, err
		}
		store, err := kvstore.NewPostgres(context, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
