// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

// Package ctxkey defines typed context keys used across the core.
//
// # Safety
//
// Using a private, unexported type for keys prevents collisions with
// third-party packages that might also use context for storage.
package ctxkey

// key is an unexported type used for context keys to ensure type safety.
//
// # Collision Prevention
//
// Even if another package uses "logger" as a string key, it will not collide
// with this key type because Go's [context.Context] uses both the value AND
// the type for lookups.
type key string

const (
	// KeyOperationID is the context key for the per-operation correlation value.
	KeyOperationID key = "operation_id"

	// KeyLogger is the context key for the per-operation [*log/slog.Logger].
	KeyLogger key = "logger"
)
