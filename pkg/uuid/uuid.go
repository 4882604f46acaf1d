// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

/*
Package uuid provides time-ordered unique identifiers for the app.

It wraps the standard UUID library to specifically generate Version 7 values,
which embed a millisecond-precision timestamp in their high bits.

Advantages:

  - Sortable: Naturally ordered by creation time (millisecond precision).
  - Collision-free: Unlike raw Unix timestamps, two calls in the same
    millisecond still yield distinct values.
  - Compact: 128-bit storage, compatible with standard 'uuid' types.

This is the mandatory generator for profile ids, ticket ids, and session
tokens across Ticketloft.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {

	// Create a new version 7 UUID (time-sortable)
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	// Convert the UUID to a string
	return id.String()
}

// NewToken generates an opaque session token.
//
// Tokens are UUIDv7 values: unique per login and time-derived, which is all
// the session pointer requires. They carry no cryptographic guarantees and
// are explicitly not a security boundary.
func NewToken() string {
	return "tok-" + New()
}
