// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

package tickets

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ticketloft/ticketloft/internal/platform/apperr"
	"github.com/ticketloft/ticketloft/internal/state"
	"github.com/ticketloft/ticketloft/pkg/slice"
	"github.com/ticketloft/ticketloft/pkg/uuid"
)

// # Contracts

// ProfileSource is the slice of user-directory behavior the store depends on.
type ProfileSource interface {

	/*
		TicketsOf returns the ticket collection nested in the user's record.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []Ticket: The stored collection (possibly empty)
		  - bool: False when the field is missing or was not a valid sequence
		  - error: apperr.NotFound when the profile is gone, or storage failures
	*/
	TicketsOf(context context.Context, userID string) ([]Ticket, bool, error)

	/*
		SaveTickets replaces the ticket collection nested in the user's record
		and persists the full directory.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - list: []Ticket

		Returns:
		  - error: apperr.NotFound when the profile is gone, or storage failures
	*/
	SaveTickets(context context.Context, userID string, list []Ticket) error
}

// SessionSource resolves the currently authenticated user.
// Implemented by the session manager.
type SessionSource interface {
	// CurrentUserID returns the authenticated user's id, or ok=false when
	// the process is anonymous.
	CurrentUserID() (id string, ok bool)
}

// # Store

// Store is the in-memory reactive mirror of the current user's ticket list.
//
// # Persistence Policy
//
// Every mutation is a single logical transaction: the candidate list is
// written through to the directory FIRST, and the in-memory mirror (and the
// shared cell) commit only after the write succeeds. A store failure
// therefore rolls back implicitly — callers never observe a mutation that
// did not reach the durable medium.
type Store struct {
	profiles ProfileSource
	sessions SessionSource
	cell     *state.Cell[Ticket]
	logger   *slog.Logger

	mu   sync.Mutex
	list []Ticket
	// owner is the user id the mirror belongs to. Every operation checks it
	// against the session's current user: a mirror left over from a previous
	// session is never served and never written back, so two users' tickets
	// can never interleave.
	owner string
}

// NewStore constructs a ticket [Store] with its collaborators.
func NewStore(profiles ProfileSource, sessions SessionSource, cell *state.Cell[Ticket], logger *slog.Logger) *Store {
	return &Store{
		profiles: profiles,
		sessions: sessions,
		cell:     cell,
		logger:   logger,
	}
}

// # Operations

/*
Load resolves the current user and replaces the in-memory mirror with that
user's persisted collection.

Description: The replacement is wholesale, never a merge, so the mirror always
reflects exactly one user's tickets. A missing or malformed tickets field is
self-healed: initialized to empty and persisted immediately.

Parameters:
  - context: context.Context

Returns:
  - []Ticket: Caller-owned copy of the loaded list
  - error: apperr.NoSession when anonymous, or storage failures
*/
func (store *Store) Load(context context.Context) ([]Ticket, error) {
	userID, ok := store.sessions.CurrentUserID()
	if !ok {
		store.reset()
		return nil, apperr.NoSession()
	}
	return store.refresh(context, userID)
}

/*
Add appends a new ticket to the current user's collection and persists it.

Description: Assigns a time-ordered id and a creation timestamp when absent.
The write goes through to the directory before the mirror commits.

Parameters:
  - context: context.Context
  - ticket: Ticket

Returns:
  - *Ticket: The stored ticket including assigned fields
  - error: apperr.NoSession when anonymous, or storage failures
*/
func (store *Store) Add(context context.Context, ticket Ticket) (*Ticket, error) {
	userID, err := store.requireOwner()
	if err != nil {
		return nil, err
	}

	if ticket.ID == "" {
		ticket.ID = uuid.New()
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}

	current, err := store.workingList(context, userID)
	if err != nil {
		return nil, err
	}
	next := append(current, ticket)

	if err := store.profiles.SaveTickets(context, userID, next); err != nil {
		return nil, err
	}

	store.commit(userID, next)
	stored := ticket
	return &stored, nil
}

/*
Update shallow-merges the present overlay fields onto the ticket with the
given id and persists the result.

Description: UpdatedAt is stamped unconditionally on every successful update;
CreatedAt is never modified.

Parameters:
  - context: context.Context
  - id: string
  - update: Update

Returns:
  - *Ticket: The merged ticket
  - error: apperr.NoSession, apperr.NotFound, or storage failures
*/
func (store *Store) Update(context context.Context, id string, update Update) (*Ticket, error) {
	userID, err := store.requireOwner()
	if err != nil {
		return nil, err
	}

	next, err := store.workingList(context, userID)
	if err != nil {
		return nil, err
	}

	index := slice.IndexFunc(next, func(t Ticket) bool { return t.ID == id })
	if index == -1 {
		return nil, apperr.NotFound("Ticket")
	}

	update.ApplyTo(&next[index])
	next[index].UpdatedAt = time.Now().UTC()

	if err := store.profiles.SaveTickets(context, userID, next); err != nil {
		return nil, err
	}

	store.commit(userID, next)
	merged := next[index]
	return &merged, nil
}

/*
Delete removes the ticket with the given id and persists the shortened list.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NoSession, apperr.NotFound (list untouched), or storage failures
*/
func (store *Store) Delete(context context.Context, id string) error {
	userID, err := store.requireOwner()
	if err != nil {
		return err
	}

	current, err := store.workingList(context, userID)
	if err != nil {
		return err
	}

	next := slice.Filter(current, func(t Ticket) bool { return t.ID != id })
	if len(next) == len(current) {
		return apperr.NotFound("Ticket")
	}

	if err := store.profiles.SaveTickets(context, userID, next); err != nil {
		return err
	}

	store.commit(userID, next)
	return nil
}

/*
GetByID returns a defensive copy of the ticket with the given id.

Parameters:
  - id: string

Returns:
  - *Ticket: Caller-owned copy
  - error: apperr.NoSession when anonymous, apperr.NotFound when absent
*/
func (store *Store) GetByID(id string) (*Ticket, error) {
	userID, err := store.requireOwner()
	if err != nil {
		return nil, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	// A mirror left over from a previous session holds another user's
	// tickets; none of this user's are loaded yet.
	if store.owner != userID {
		return nil, apperr.NotFound("Ticket")
	}

	index := slice.IndexFunc(store.list, func(t Ticket) bool { return t.ID == id })
	if index == -1 {
		return nil, apperr.NotFound("Ticket")
	}

	copied := store.list[index]
	return &copied, nil
}

/*
All returns a caller-owned copy of the current in-memory list.

Parameters: none

Returns:
  - []Ticket: Defensive copy in insertion order
  - error: apperr.NoSession when anonymous
*/
func (store *Store) All() ([]Ticket, error) {
	userID, err := store.requireOwner()
	if err != nil {
		return nil, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	// Stale mirror after a session switch: nothing loaded for this user yet.
	if store.owner != userID {
		return []Ticket{}, nil
	}
	return copyList(store.list), nil
}

/*
Stats recomputes the by-status aggregate over the current list.

Description: Derived on every call, never cached — the underlying list
mutates between accesses.

Parameters: none

Returns:
  - Stats: Counts by status plus total
  - error: apperr.NoSession when anonymous
*/
func (store *Store) Stats() (Stats, error) {
	userID, err := store.requireOwner()
	if err != nil {
		return Stats{}, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if store.owner != userID {
		return Stats{}, nil
	}

	return Stats{
		Total:      len(store.list),
		Open:       slice.Count(store.list, func(t Ticket) bool { return t.Status == StatusOpen }),
		InProgress: slice.Count(store.list, func(t Ticket) bool { return t.Status == StatusInProgress }),
		Closed:     slice.Count(store.list, func(t Ticket) bool { return t.Status == StatusClosed }),
	}, nil
}

// # Internals

// requireOwner resolves the authenticated user id or fails with NO_SESSION.
// An anonymous ticket operation is a precondition violation in the caller,
// reported distinctly from NOT_FOUND so session-loss bugs are never masked.
func (store *Store) requireOwner() (string, error) {
	userID, ok := store.sessions.CurrentUserID()
	if !ok {
		return "", apperr.NoSession()
	}
	return userID, nil
}

/*
refresh re-reads userID's persisted collection and commits it to the mirror.

Description: The wholesale-replacement body of Load, shared with the stale
mirror recovery in workingList. A vanished profile yields an empty list (the
session manager's minimal-view fallback); a missing or malformed tickets
field is initialized and persisted immediately.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []Ticket: Caller-owned copy of the loaded list
  - error: Storage failures
*/
func (store *Store) refresh(context context.Context, userID string) ([]Ticket, error) {
	list, present, err := store.profiles.TicketsOf(context, userID)
	if err != nil {
		// The profile can legitimately be gone when the directory fell out
		// of sync with the session pointer. Mirror the session manager's
		// minimal-view fallback: empty list, no failure.
		if apperr.HasCode(err, apperr.CodeNotFound) {
			store.logger.Warn("ticket_load_profile_missing", slog.String("user_id", userID))
			store.commit(userID, nil)
			return nil, nil
		}
		return nil, err
	}

	// Self-heal a record whose tickets field is missing or malformed: the
	// initialization itself is persisted so the next reader finds a sequence.
	if !present {
		list = []Ticket{}
		if err := store.profiles.SaveTickets(context, userID, list); err != nil {
			return nil, err
		}
		store.logger.Warn("ticket_collection_initialized", slog.String("user_id", userID))
	}

	store.commit(userID, list)
	return copyList(list), nil
}

// workingList returns a caller-owned copy of the mirror when it belongs to
// userID. After a session switch the mirror still holds the previous user's
// list; reusing it would write one user's tickets into another user's record,
// so the collection is re-read from the directory instead.
func (store *Store) workingList(context context.Context, userID string) ([]Ticket, error) {
	store.mu.Lock()
	if store.owner == userID {
		list := copyList(store.list)
		store.mu.Unlock()
		return list, nil
	}
	store.mu.Unlock()

	store.logger.Warn("ticket_mirror_stale_reloaded", slog.String("user_id", userID))
	return store.refresh(context, userID)
}

// commit replaces the mirror and publishes the new list to the shared cell.
func (store *Store) commit(userID string, list []Ticket) {
	store.mu.Lock()
	store.owner = userID
	store.list = copyList(list)
	store.mu.Unlock()

	store.cell.SetTickets(list)
}

// reset drops the mirror (used when the session disappears).
func (store *Store) reset() {
	store.mu.Lock()
	store.owner = ""
	store.list = nil
	store.mu.Unlock()

	store.cell.SetTickets(nil)
}

// copyList clones a ticket slice so callers never share backing arrays.
func copyList(list []Ticket) []Ticket {
	copied := make([]Ticket, len(list))
	copy(copied, list)
	return copied
}
