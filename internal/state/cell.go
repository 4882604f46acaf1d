// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

/*
Package state implements the shared state cell: the single observable object
holding the live identity and ticket list that every UI consumer reads.

A Vue-style module-global ref is replaced here by an explicit cell passed by
shared ownership to the session manager, the ticket store, and any UI layer.
Mutations go through setters; consumers either read consistent snapshots or
subscribe for notify-on-change delivery.

# Concurrency

The cell is safe for concurrent readers and writers within one process.
There is deliberately NO cross-process protection: two processes sharing one
durable store are last-writer-wins. That is an accepted limitation of the
single-record storage layout, not a hidden bug.
*/
package state

import "sync"

// Identity is the minimal authenticated-user view shared with every consumer.
// A nil Identity means the process is anonymous.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Token  string
}

// Snapshot is a consistent copy of the cell contents at one instant.
type Snapshot[T any] struct {
	// Identity is the current user view, nil when anonymous.
	Identity *Identity
	// Tickets is the current user's ticket list.
	Tickets []T
}

// Cell is the process-wide observable state container.
//
// The ticket element type is a parameter so this package stays a leaf:
// it never imports the domain packages that depend on it.
type Cell[T any] struct {
	mu       sync.RWMutex
	identity *Identity
	tickets  []T

	nextSub     uint64
	subscribers map[uint64]chan Snapshot[T]
}

// NewCell creates an empty (anonymous) cell.
func NewCell[T any]() *Cell[T] {
	return &Cell[T]{subscribers: make(map[uint64]chan Snapshot[T])}
}

// # Reads

// Snapshot returns a consistent copy of the current contents.
// The returned slice is owned by the caller.
func (cell *Cell[T]) Snapshot() Snapshot[T] {
	cell.mu.RLock()
	defer cell.mu.RUnlock()
	return cell.snapshotLocked()
}

// Identity returns a copy of the current identity, or nil when anonymous.
func (cell *Cell[T]) Identity() *Identity {
	cell.mu.RLock()
	defer cell.mu.RUnlock()

	if cell.identity == nil {
		return nil
	}
	copied := *cell.identity
	return &copied
}

// Tickets returns a caller-owned copy of the current ticket list.
func (cell *Cell[T]) Tickets() []T {
	cell.mu.RLock()
	defer cell.mu.RUnlock()

	copied := make([]T, len(cell.tickets))
	copy(copied, cell.tickets)
	return copied
}

// # Writes

// SetIdentity replaces the current identity and notifies subscribers.
func (cell *Cell[T]) SetIdentity(identity Identity) {
	cell.mu.Lock()
	defer cell.mu.Unlock()

	cell.identity = &identity
	cell.notifyLocked()
}

// SetTickets replaces the ticket list wholesale and notifies subscribers.
// The cell copies the slice; the caller keeps ownership of its argument.
func (cell *Cell[T]) SetTickets(list []T) {
	cell.mu.Lock()
	defer cell.mu.Unlock()

	cell.tickets = make([]T, len(list))
	copy(cell.tickets, list)
	cell.notifyLocked()
}

// Clear resets the cell to the anonymous state (no identity, no tickets)
// and notifies subscribers. Used on logout and on corrupt-session recovery.
func (cell *Cell[T]) Clear() {
	cell.mu.Lock()
	defer cell.mu.Unlock()

	cell.identity = nil
	cell.tickets = nil
	cell.notifyLocked()
}

// # Subscriptions

// Subscribe registers for change notifications. Every state mutation delivers
// a fresh snapshot; a slow consumer only ever observes the LATEST state (an
// undelivered older snapshot is replaced, never queued behind).
//
// The returned cancel function must be called to release the subscription.
func (cell *Cell[T]) Subscribe() (<-chan Snapshot[T], func()) {
	cell.mu.Lock()
	defer cell.mu.Unlock()

	id := cell.nextSub
	cell.nextSub++

	// Buffer of one: the channel holds at most the latest snapshot.
	ch := make(chan Snapshot[T], 1)
	cell.subscribers[id] = ch

	cancel := func() {
		cell.mu.Lock()
		defer cell.mu.Unlock()
		delete(cell.subscribers, id)
	}
	return ch, cancel
}

// notifyLocked pushes the current snapshot to every subscriber.
// Callers must hold the write lock.
func (cell *Cell[T]) notifyLocked() {
	snap := cell.snapshotLocked()
	for _, ch := range cell.subscribers {
		// Replace a pending undelivered snapshot with the newer one.
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// snapshotLocked builds a copy of the contents. Callers must hold a lock.
func (cell *Cell[T]) snapshotLocked() Snapshot[T] {
	snap := Snapshot[T]{Tickets: make([]T, len(cell.tickets))}
	copy(snap.Tickets, cell.tickets)

	if cell.identity != nil {
		identity := *cell.identity
		snap.Identity = &identity
	}
	return snap
}
