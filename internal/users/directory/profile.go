// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

/*
Package directory implements the user directory: the single authoritative
record of every registered profile, persisted as one JSON array under one
durable-store key.

# Architecture

This layer is the "Truth" of the system. The session manager and the ticket
store hold copies of what lives here, never a second source of truth. All
user and ticket data is nested inside this one record; every write rewrites
the full array. That is a deliberate scale-vs-simplicity tradeoff — at the
scale of a personal ticketing app, one durable record beats an indexed
(userId, ticketId) layout.
*/
package directory

import (
	"encoding/json"

	"github.com/ticketloft/ticketloft/internal/tickets"
)

// # Domain Entities

// UserProfile is the durable record of a registered user, including
// credentials and the owned ticket collection.
//
// # Security
//
// Password is stored as plaintext and compared byte-for-byte at login. This
// is explicitly NOT a security boundary: the store is local, single-user,
// and the check exists only to drive the app's login flow.
type UserProfile struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Tickets  []tickets.Ticket `json:"tickets"`
}

// UnmarshalJSON decodes a profile while tolerating a corrupt tickets field.
//
// A missing, null, or non-sequence tickets value decodes as nil so the
// ticket store can self-heal it, instead of one bad field discarding the
// whole directory.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type alias UserProfile
	aux := struct {
		*alias
		Tickets json.RawMessage `json:"tickets"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.Tickets = nil
	if len(aux.Tickets) > 0 {
		var list []tickets.Ticket
		if err := json.Unmarshal(aux.Tickets, &list); err == nil && list != nil {
			p.Tickets = list
		}
	}
	return nil
}

// Clone returns a deep copy of the profile (the ticket slice is duplicated).
func (p UserProfile) Clone() UserProfile {
	copied := p
	copied.Tickets = make([]tickets.Ticket, len(p.Tickets))
	copy(copied.Tickets, p.Tickets)
	return copied
}

// # Partial Updates

// ProfileUpdate is the typed shallow overlay for profile mutations. A nil
// field means "preserve the existing value" — a tickets-only update can
// never erase name, email, or password.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Tickets  *[]tickets.Ticket
}

// ApplyTo overlays the present fields onto the profile in place.
// ID is immutable once assigned and deliberately not part of the overlay.
func (u ProfileUpdate) ApplyTo(profile *UserProfile) {
	if u.Name != nil {
		profile.Name = *u.Name
	}
	if u.Email != nil {
		profile.Email = *u.Email
	}
	if u.Password != nil {
		profile.Password = *u.Password
	}
	if u.Tickets != nil {
		list := make([]tickets.Ticket, len(*u.Tickets))
		copy(list, *u.Tickets)
		profile.Tickets = list
	}
}
