// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/ticketloft/ticketloft/internal/platform/ctxkey"
)

// # Operation Tracing

// WithOperationID returns a new context with the provided operation ID attached.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyOperationID, id)
}

// GetOperationID retrieves the operation ID from the context.
// Returns an empty string if not found.
func GetOperationID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyOperationID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}
