// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

package directory_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketloft/ticketloft/internal/platform/apperr"
	"github.com/ticketloft/ticketloft/internal/platform/kvstore"
	"github.com/ticketloft/ticketloft/internal/tickets"
	"github.com/ticketloft/ticketloft/internal/users/directory"
	"github.com/ticketloft/ticketloft/pkg/pointer"
)

func newTestDirectory() (*directory.Directory, *kvstore.Memory) {
	store := kvstore.NewMemory()
	return directory.NewDirectory(store, slog.Default()), store
}

/*
TestDirectory_ListAll_Recovery verifies the silent-recovery contract: absent
and corrupt stored values both yield an empty sequence, and a corrupt value
is removed so the next write starts clean.
*/
func TestDirectory_ListAll_Recovery(t *testing.T) {
	ctx := context.Background()

	t.Run("absent_value", func(t *testing.T) {
		dir, _ := newTestDirectory()

		profiles, err := dir.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})

	t.Run("corrupt_value_discarded", func(t *testing.T) {
		dir, store := newTestDirectory()
		require.NoError(t, store.Set(ctx, directory.UsersKey, "{not json"))

		profiles, err := dir.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, profiles)

		// The offending key must be gone.
		_, ok, err := store.Get(ctx, directory.UsersKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

/*
TestDirectory_Upsert_AppendsAndFinds covers the create path and the
email/id lookups over the persisted array.
*/
func TestDirectory_Upsert_AppendsAndFinds(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory()

	created, err := dir.Upsert(ctx, "u1", directory.ProfileUpdate{
		Name:     pointer.To("Ana"),
		Email:    pointer.To("ana@x.com"),
		Password: pointer.To("p"),
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", created.ID)

	byEmail, err := dir.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)
	assert.Equal(t, "Ana", byEmail.Name)

	byID, err := dir.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", byID.Email)

	// Email equality is case-sensitive and exact.
	_, err = dir.FindByEmail(ctx, "ANA@x.com")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestDirectory_Upsert_MergeSafety verifies the shallow-merge invariant: a
tickets-only update must leave name, email, and password untouched.
*/
func TestDirectory_Upsert_MergeSafety(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory()

	_, err := dir.Upsert(ctx, "u1", directory.ProfileUpdate{
		Name:     pointer.To("Ana"),
		Email:    pointer.To("ana@x.com"),
		Password: pointer.To("p"),
	})
	require.NoError(t, err)

	list := []tickets.Ticket{{ID: "t1", Title: "Broken printer", Status: tickets.StatusOpen}}
	merged, err := dir.Upsert(ctx, "u1", directory.ProfileUpdate{Tickets: &list})
	require.NoError(t, err)

	assert.Equal(t, "Ana", merged.Name)
	assert.Equal(t, "ana@x.com", merged.Email)
	assert.Equal(t, "p", merged.Password)
	require.Len(t, merged.Tickets, 1)
	assert.Equal(t, "t1", merged.Tickets[0].ID)
}

/*
TestDirectory_TicketsOf covers the three shapes of the nested tickets field:
valid sequence, missing field, and malformed field. Only the valid sequence
reports present=true; a malformed field never discards the rest of the profile.
*/
func TestDirectory_TicketsOf(t *testing.T) {
	ctx := context.Background()

	t.Run("valid_sequence", func(t *testing.T) {
		dir, _ := newTestDirectory()
		list := []tickets.Ticket{{ID: "t1", Status: tickets.StatusOpen}}
		_, err := dir.Upsert(ctx, "u1", directory.ProfileUpdate{
			Email:   pointer.To("ana@x.com"),
			Tickets: &list,
		})
		require.NoError(t, err)

		got, present, err := dir.TicketsOf(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, present)
		assert.Len(t, got, 1)
	})

	t.Run("missing_field", func(t *testing.T) {
		dir, store := newTestDirectory()
		require.NoError(t, store.Set(ctx, directory.UsersKey,
			`[{"id":"u1","name":"Ana","email":"ana@x.com","password":"p"}]`))

		_, present, err := dir.TicketsOf(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, present)
	})

	t.Run("malformed_field", func(t *testing.T) {
		dir, store := newTestDirectory()
		require.NoError(t, store.Set(ctx, directory.UsersKey,
			`[{"id":"u1","name":"Ana","email":"ana@x.com","password":"p","tickets":"oops"}]`))

		_, present, err := dir.TicketsOf(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, present)

		// The rest of the record survives the bad field.
		profile, err := dir.FindByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Ana", profile.Name)
	})

	t.Run("unknown_user", func(t *testing.T) {
		dir, _ := newTestDirectory()
		_, _, err := dir.TicketsOf(ctx, "ghost")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})
}

/*
TestDirectory_SaveTickets verifies the nested-write path, including the
refusal to create a ghost profile for an unknown user.
*/
func TestDirectory_SaveTickets(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory()

	_, err := dir.Upsert(ctx, "u1", directory.ProfileUpdate{
		Email:    pointer.To("ana@x.com"),
		Password: pointer.To("p"),
	})
	require.NoError(t, err)

	list := []tickets.Ticket{{ID: "t1", Status: tickets.StatusClosed}}
	require.NoError(t, dir.SaveTickets(ctx, "u1", list))

	got, present, err := dir.TicketsOf(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, present)
	require.Len(t, got, 1)
	assert.Equal(t, tickets.StatusClosed, got[0].Status)

	// A nil list heals to an empty persisted sequence.
	require.NoError(t, dir.SaveTickets(ctx, "u1", nil))
	got, present, err = dir.TicketsOf(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Empty(t, got)

	err = dir.SaveTickets(ctx, "ghost", list)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}
