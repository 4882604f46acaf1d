// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

/*
Package kvstore defines the durable key-value medium underlying all
persistence in Ticketloft, together with its storage drivers.

The adapter is content-agnostic: values are UTF-8 JSON documents produced by
the directory and session layers. A missing key is an ordinary outcome, not
an error; only medium failures (I/O, quota, connectivity) surface as errors.

Drivers:

  - SQLite: the default local medium, a single kv table in an embedded file.
  - Memory: map-backed, for tests and throwaway runs.
  - Redis: volatile-friendly driver for hosts that already run a local Redis.
  - Postgres: pooled driver over the same kv table shape.

All drivers are synchronous: a Set that returns nil has reached the medium.
There is no write-behind buffering.
*/
package kvstore

import "context"

// Store is the durable key-value contract.
//
// # Absence vs Failure
//
// Get reports a missing key as (ok == false) with a nil error. A non-nil
// error always means the medium itself failed and the value state is
// unknown. Callers must branch on ok before err-wrapping.
type Store interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the key. Removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error
}
