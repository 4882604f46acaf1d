// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

package kvstore

import (
	"context"
	"sync"
)

// Memory is a map-backed [Store] for tests and throwaway runs.
//
// # Durability
//
// None. Contents vanish with the process. The mutex exists so tests that
// exercise the observable state cell from multiple goroutines stay race-free.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Ensure the interface is met.
var _ Store = (*Memory)(nil)

// Get returns the value stored under key.
func (store *Memory) Get(_ context.Context, key string) (string, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	value, ok := store.values[key]
	return value, ok, nil
}

// Set writes value under key, replacing any previous value.
func (store *Memory) Set(_ context.Context, key, value string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.values[key] = value
	return nil
}

// Remove deletes the key. Removing an absent key is a no-op.
func (store *Memory) Remove(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.values, key)
	return nil
}
