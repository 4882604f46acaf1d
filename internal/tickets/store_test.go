// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

package tickets_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketloft/ticketloft/internal/platform/apperr"
	"github.com/ticketloft/ticketloft/internal/platform/kvstore"
	"github.com/ticketloft/ticketloft/internal/state"
	"github.com/ticketloft/ticketloft/internal/tickets"
	"github.com/ticketloft/ticketloft/internal/users/directory"
	"github.com/ticketloft/ticketloft/internal/users/session"
	"github.com/ticketloft/ticketloft/pkg/pointer"
)

type fixture struct {
	store     *tickets.Store
	manager   *session.Manager
	directory *directory.Directory
	medium    kvstore.Store
	cell      *state.Cell[tickets.Ticket]
}

func newFixture(medium kvstore.Store) *fixture {
	logger := slog.Default()
	dir := directory.NewDirectory(medium, logger)
	cell := state.NewCell[tickets.Ticket]()
	manager := session.NewManager(dir, medium, cell, logger)
	return &fixture{
		store:     tickets.NewStore(dir, manager, cell, logger),
		manager:   manager,
		directory: dir,
		medium:    medium,
		cell:      cell,
	}
}

// signedUpFixture returns a fixture with one authenticated user and an
// empty, loaded ticket sequence.
func signedUpFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(kvstore.NewMemory())
	_, err := f.manager.Signup(context.Background(), session.SignupInput{
		Name: "Ana", Email: "ana@x.com", Password: "secret",
	})
	require.NoError(t, err)
	_, err = f.store.Load(context.Background())
	require.NoError(t, err)
	return f
}

func TestStore_RequiresSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(kvstore.NewMemory())

	_, err := f.store.Load(ctx)
	assert.True(t, apperr.HasCode(err, apperr.CodeNoSession))

	_, err = f.store.Add(ctx, tickets.Ticket{Title: "x"})
	assert.True(t, apperr.HasCode(err, apperr.CodeNoSession))

	_, err = f.store.Stats()
	assert.True(t, apperr.HasCode(err, apperr.CodeNoSession))

	// Absence of a session is distinct from an empty sequence.
	assert.False(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestStore_AddAndGet(t *testing.T) {
	ctx := context.Background()
	f := signedUpFixture(t)

	created, err := f.store.Add(ctx, tickets.Ticket{
		Title:    "Printer is on fire",
		Priority: "high",
		Status:   tickets.StatusOpen,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := f.store.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Printer is on fire", got.Title)
	assert.Equal(t, tickets.StatusOpen, got.Status)

	// Returned tickets are copies.
	got.Title = "mutated"
	again, err := f.store.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Printer is on fire", again.Title)

	_, err = f.store.GetByID("ghost")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	f := signedUpFixture(t)

	created, err := f.store.Add(ctx, tickets.Ticket{Title: "Slow wifi", Status: tickets.StatusOpen})
	require.NoError(t, err)

	first, err := f.store.Update(ctx, created.ID, tickets.Update{
		Status: pointer.To(tickets.StatusInProgress),
	})
	require.NoError(t, err)
	assert.Equal(t, tickets.StatusInProgress, first.Status)
	assert.Equal(t, "Slow wifi", first.Title)
	assert.False(t, first.UpdatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, first.CreatedAt)
	assert.Equal(t, created.ID, first.ID)

	second, err := f.store.Update(ctx, created.ID, tickets.Update{
		Title: pointer.To("Slow wifi in lobby"),
	})
	require.NoError(t, err)
	assert.Equal(t, tickets.StatusInProgress, second.Status)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

	_, err = f.store.Update(ctx, "ghost", tickets.Update{Title: pointer.To("x")})
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	f := signedUpFixture(t)

	created, err := f.store.Add(ctx, tickets.Ticket{Title: "a", Status: tickets.StatusOpen})
	require.NoError(t, err)
	_, err = f.store.Add(ctx, tickets.Ticket{Title: "b", Status: tickets.StatusOpen})
	require.NoError(t, err)

	require.NoError(t, f.store.Delete(ctx, created.ID))
	_, err = f.store.GetByID(created.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	// Deleting a missing id reports not found and changes nothing.
	err = f.store.Delete(ctx, created.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	list, err := f.store.All()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_Stats(t *testing.T) {
	ctx := context.Background()
	f := signedUpFixture(t)

	stats, err := f.store.Stats()
	require.NoError(t, err)
	assert.Equal(t, tickets.Stats{}, stats)

	for _, status := range []tickets.Status{
		tickets.StatusOpen, tickets.StatusOpen,
		tickets.StatusInProgress,
		tickets.StatusClosed, tickets.StatusClosed, tickets.StatusClosed,
	} {
		_, err := f.store.Add(ctx, tickets.Ticket{Title: "t", Status: status})
		require.NoError(t, err)
	}

	stats, err = f.store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 2, stats.Open)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 3, stats.Closed)
	assert.Equal(t, stats.Total, stats.Open+stats.InProgress+stats.Closed)
}

/*
TestStore_PerUserIsolation switches between two accounts over the same
medium and verifies each only ever sees its own tickets.
*/
func TestStore_PerUserIsolation(t *testing.T) {
	ctx := context.Background()
	f := signedUpFixture(t)

	_, err := f.store.Add(ctx, tickets.Ticket{Title: "ana-1", Status: tickets.StatusOpen})
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(ctx))
	_, err = f.manager.Signup(ctx, session.SignupInput{Email: "bob@x.com", Password: "p"})
	require.NoError(t, err)

	list, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.store.Add(ctx, tickets.Ticket{Title: "bob-1", Status: tickets.StatusOpen})
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(ctx))
	_, err = f.manager.Login(ctx, session.Credentials{Email: "ana@x.com", Password: "secret"})
	require.NoError(t, err)

	list, err = f.store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ana-1", list[0].Title)
}

/*
TestStore_LoadSelfHeals covers profiles whose ticket field is missing or
malformed: Load yields an empty sequence and writes the healed shape back.
*/
func TestStore_LoadSelfHeals(t *testing.T) {
	ctx := context.Background()
	medium := kvstore.NewMemory()
	f := newFixture(medium)

	_, err := f.manager.Signup(ctx, session.SignupInput{Email: "ana@x.com", Password: "p"})
	require.NoError(t, err)
	userID, ok := f.manager.CurrentUserID()
	require.True(t, ok)

	// Corrupt the nested field behind the store's back.
	require.NoError(t, medium.Set(ctx, directory.UsersKey,
		`[{"id":"`+userID+`","name":"ana","email":"ana@x.com","password":"p","tickets":42}]`))

	list, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// The healed sequence is durable.
	got, present, err := f.directory.TicketsOf(ctx, userID)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Empty(t, got)
}

// failingStore wraps a working medium and fails every write once armed.
type failingStore struct {
	*kvstore.Memory
	failWrites bool
}

func (store *failingStore) Set(context context.Context, key, value string) error {
	if store.failWrites {
		return errors.New("disk full")
	}
	return store.Memory.Set(context, key, value)
}

/*
TestStore_WriteFailureRollsBack arms a failing medium and verifies that a
rejected write leaves both the in-memory sequence and the durable record
exactly as they were.
*/
func TestStore_WriteFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	medium := &failingStore{Memory: kvstore.NewMemory()}
	f := newFixture(medium)

	_, err := f.manager.Signup(ctx, session.SignupInput{Email: "ana@x.com", Password: "p"})
	require.NoError(t, err)
	created, err := f.store.Add(ctx, tickets.Ticket{Title: "keep me", Status: tickets.StatusOpen})
	require.NoError(t, err)

	medium.failWrites = true

	_, err = f.store.Add(ctx, tickets.Ticket{Title: "lost", Status: tickets.StatusOpen})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeStorage))

	_, err = f.store.Update(ctx, created.ID, tickets.Update{Title: pointer.To("renamed")})
	require.Error(t, err)

	err = f.store.Delete(ctx, created.ID)
	require.Error(t, err)

	list, err := f.store.All()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "keep me", list[0].Title)
	assert.True(t, list[0].UpdatedAt.IsZero())

	// The durable record still holds the pre-failure sequence.
	medium.failWrites = false
	userID, _ := f.manager.CurrentUserID()
	got, present, err := f.directory.TicketsOf(ctx, userID)
	require.NoError(t, err)
	assert.True(t, present)
	require.Len(t, got, 1)
	assert.Equal(t, "keep me", got[0].Title)
}

/*
TestStore_MutateAfterSessionSwitch covers a mutation issued after a session
switch with no intervening Load: the stale mirror from the previous user must
be discarded, never written into the new user's record or published to the
shared cell.
*/
func TestStore_MutateAfterSessionSwitch(t *testing.T) {
	ctx := context.Background()
	f := signedUpFixture(t)

	anaTicket, err := f.store.Add(ctx, tickets.Ticket{Title: "ana-private", Status: tickets.StatusOpen})
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(ctx))
	_, err = f.manager.Signup(ctx, session.SignupInput{Email: "bob@x.com", Password: "p"})
	require.NoError(t, err)

	// No Load between the switch and the mutation.
	_, err = f.store.Add(ctx, tickets.Ticket{Title: "bob-first", Status: tickets.StatusOpen})
	require.NoError(t, err)

	// Bob's durable record holds only bob's ticket.
	bobID, ok := f.manager.CurrentUserID()
	require.True(t, ok)
	got, present, err := f.directory.TicketsOf(ctx, bobID)
	require.NoError(t, err)
	require.True(t, present)
	require.Len(t, got, 1)
	assert.Equal(t, "bob-first", got[0].Title)

	// The shared cell carries only bob's list.
	published := f.cell.Tickets()
	require.Len(t, published, 1)
	assert.Equal(t, "bob-first", published[0].Title)

	// Ana's record is untouched.
	anaProfile, err := f.directory.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	require.Len(t, anaProfile.Tickets, 1)
	assert.Equal(t, "ana-private", anaProfile.Tickets[0].Title)

	// Mutating ana's ticket id under bob's session finds nothing.
	_, err = f.store.Update(ctx, anaTicket.ID, tickets.Update{Title: pointer.To("hijacked")})
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	err = f.store.Delete(ctx, anaTicket.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestStore_ReadsAfterSessionSwitch verifies that reads never serve the
previous user's mirror: until the new session loads, the collection reads
as empty.
*/
func TestStore_ReadsAfterSessionSwitch(t *testing.T) {
	ctx := context.Background()
	f := signedUpFixture(t)

	created, err := f.store.Add(ctx, tickets.Ticket{Title: "ana-private", Status: tickets.StatusOpen})
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(ctx))
	_, err = f.manager.Signup(ctx, session.SignupInput{Email: "bob@x.com", Password: "p"})
	require.NoError(t, err)

	_, err = f.store.GetByID(created.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	list, err := f.store.All()
	require.NoError(t, err)
	assert.Empty(t, list)

	stats, err := f.store.Stats()
	require.NoError(t, err)
	assert.Equal(t, tickets.Stats{}, stats)
}

func TestStore_SessionChangeResetsSequence(t *testing.T) {
	ctx := context.Background()
	f := signedUpFixture(t)

	_, err := f.store.Add(ctx, tickets.Ticket{Title: "a", Status: tickets.StatusOpen})
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(ctx))

	// After logout the store must not answer from the stale sequence.
	_, err = f.store.All()
	assert.True(t, apperr.HasCode(err, apperr.CodeNoSession))
}

func TestStore_AddPreservesTimestamps(t *testing.T) {
	ctx := context.Background()
	f := signedUpFixture(t)

	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	got, err := f.store.Add(ctx, tickets.Ticket{
		Title:     "imported",
		Status:    tickets.StatusClosed,
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	assert.Equal(t, createdAt, got.CreatedAt)
}
