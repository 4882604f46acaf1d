// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ticketloft/ticketloft/internal/platform/apperr"
	"github.com/ticketloft/ticketloft/internal/platform/ctxutil"
	"github.com/ticketloft/ticketloft/internal/platform/kvstore"
	"github.com/ticketloft/ticketloft/internal/tickets"
	"github.com/ticketloft/ticketloft/pkg/slice"
)

// UsersKey is the durable-store key holding the full profile array.
const UsersKey = "ticketapp_users"

// Directory is the data access layer for the profile array.
type Directory struct {
	store  kvstore.Store
	logger *slog.Logger
}

// NewDirectory constructs a [Directory] over the given durable store.
func NewDirectory(store kvstore.Store, logger *slog.Logger) *Directory {
	return &Directory{store: store, logger: logger}
}

// # Reads

/*
ListAll returns every registered profile.

Description: An absent or unparsable stored value yields an empty sequence —
a silent-recovery path, not a fatal error. A corrupt value is additionally
removed so the next write starts clean. Only medium failures surface as errors.

Parameters:
  - context: context.Context

Returns:
  - []UserProfile: Parsed profiles, possibly empty
  - error: apperr.Storage on medium failure
*/
func (directory *Directory) ListAll(context context.Context) ([]UserProfile, error) {
	raw, ok, err := directory.store.Get(context, UsersKey)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("directory_list_failed: %w", err))
	}
	if !ok {
		return []UserProfile{}, nil
	}

	var profiles []UserProfile
	if err := json.Unmarshal([]byte(raw), &profiles); err != nil {
		// Corrupt directory: recover to empty rather than crash the app.
		// The operation-scoped logger carries the invocation id.
		log := ctxutil.GetLogger(context)
		log.Warn("user_directory_corrupt_discarded", slog.Any("error", err))
		if removeErr := directory.store.Remove(context, UsersKey); removeErr != nil {
			log.Error("user_directory_remove_failed", slog.Any("error", removeErr))
		}
		return []UserProfile{}, nil
	}

	if profiles == nil {
		profiles = []UserProfile{}
	}
	return profiles, nil
}

/*
FindByEmail returns the first profile with the given email.

Description: Linear scan, case-sensitive exact equality.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *UserProfile: Deep copy of the match
  - error: apperr.NotFound when no profile matches
*/
func (directory *Directory) FindByEmail(context context.Context, email string) (*UserProfile, error) {
	profiles, err := directory.ListAll(context)
	if err != nil {
		return nil, err
	}

	index := slice.IndexFunc(profiles, func(p UserProfile) bool { return p.Email == email })
	if index == -1 {
		return nil, apperr.NotFound("User")
	}

	profile := profiles[index].Clone()
	return &profile, nil
}

/*
FindByID returns the profile with the given id.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *UserProfile: Deep copy of the match
  - error: apperr.NotFound when no profile matches
*/
func (directory *Directory) FindByID(context context.Context, id string) (*UserProfile, error) {
	profiles, err := directory.ListAll(context)
	if err != nil {
		return nil, err
	}

	index := slice.IndexFunc(profiles, func(p UserProfile) bool { return p.ID == id })
	if index == -1 {
		return nil, apperr.NotFound("User")
	}

	profile := profiles[index].Clone()
	return &profile, nil
}

// # Writes

/*
Upsert merges the overlay onto the profile with the given id, appending a new
profile when none exists, then persists the full array.

Description: Fields absent from the overlay are preserved — a tickets-only
update never erases name, email, or password.

Parameters:
  - context: context.Context
  - id: string
  - update: ProfileUpdate

Returns:
  - *UserProfile: Deep copy of the stored result
  - error: apperr.Storage on medium failure
*/
func (directory *Directory) Upsert(context context.Context, id string, update ProfileUpdate) (*UserProfile, error) {
	profiles, err := directory.ListAll(context)
	if err != nil {
		return nil, err
	}

	index := slice.IndexFunc(profiles, func(p UserProfile) bool { return p.ID == id })
	if index == -1 {
		profiles = append(profiles, UserProfile{ID: id})
		index = len(profiles) - 1
	}

	update.ApplyTo(&profiles[index])

	if err := directory.persist(context, profiles); err != nil {
		return nil, err
	}

	profile := profiles[index].Clone()
	return &profile, nil
}

/*
TicketsOf returns the ticket collection nested in the user's record.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []tickets.Ticket: The stored collection
  - bool: False when the tickets field was missing or not a valid sequence
  - error: apperr.NotFound when the profile is gone, apperr.Storage on medium failure
*/
func (directory *Directory) TicketsOf(context context.Context, userID string) ([]tickets.Ticket, bool, error) {
	profile, err := directory.FindByID(context, userID)
	if err != nil {
		return nil, false, err
	}

	// Clone already duplicated the slice; nil means the field needs healing.
	if profile.Tickets == nil {
		return nil, false, nil
	}
	return profile.Tickets, true, nil
}

/*
SaveTickets replaces the ticket collection nested in the user's record and
persists the full array.

Description: Unlike Upsert, a missing profile is an error here — silently
creating a ghost profile for orphaned tickets would mask session-loss bugs.

Parameters:
  - context: context.Context
  - userID: string
  - list: []tickets.Ticket

Returns:
  - error: apperr.NotFound when the profile is gone, apperr.Storage on medium failure
*/
func (directory *Directory) SaveTickets(context context.Context, userID string, list []tickets.Ticket) error {
	if list == nil {
		list = []tickets.Ticket{}
	}

	profiles, err := directory.ListAll(context)
	if err != nil {
		return err
	}

	index := slice.IndexFunc(profiles, func(p UserProfile) bool { return p.ID == userID })
	if index == -1 {
		return apperr.NotFound("User")
	}

	update := ProfileUpdate{Tickets: &list}
	update.ApplyTo(&profiles[index])

	return directory.persist(context, profiles)
}

// persist writes the full array back to the durable store.
func (directory *Directory) persist(context context.Context, profiles []UserProfile) error {
	encoded, err := json.Marshal(profiles)
	if err != nil {
		return apperr.Internal(fmt.Errorf("directory_encode_failed: %w", err))
	}

	if err := directory.store.Set(context, UsersKey, string(encoded)); err != nil {
		return apperr.Storage(fmt.Errorf("directory_persist_failed: %w", err))
	}
	return nil
}
