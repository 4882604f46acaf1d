// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

/*
Package tickets implements the per-user support ticket collection.

It defines the Ticket entity and the Store: an in-memory reactive mirror of
the authenticated user's ticket list, write-through to the user directory on
every mutation.

# Architecture

  - Store: Orchestrates load/add/update/delete/stats against the live list.
  - ProfileSource: Abstracted interface to the user directory record.
  - SessionSource: Abstracted interface to the session manager's current user.

Each ticket is owned by exactly one user profile; ids are unique within that
user's collection only, never globally.
*/
package tickets

import (
	"time"
)

// # Domain Entities

// Status is the lifecycle state of a ticket.
type Status string

// Valid ticket statuses.
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// ValidStatus reports whether value is a recognized ticket status.
func ValidStatus(value string) bool {
	switch Status(value) {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// Ticket represents a single support request owned by one user.
type Ticket struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// # Partial Updates

// Update is the typed shallow overlay for ticket mutations. A nil field means
// "leave unchanged"; adding a Ticket field later forces a conscious decision
// here instead of silently falling through a generic merge.
type Update struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *Status
}

// ApplyTo overlays the present fields onto the ticket in place.
// ID and CreatedAt are immutable and deliberately not part of the overlay.
func (u Update) ApplyTo(ticket *Ticket) {
	if u.Title != nil {
		ticket.Title = *u.Title
	}
	if u.Description != nil {
		ticket.Description = *u.Description
	}
	if u.Priority != nil {
		ticket.Priority = *u.Priority
	}
	if u.Status != nil {
		ticket.Status = *u.Status
	}
}

// # Aggregates

// Stats is the by-status breakdown of a ticket list.
type Stats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Closed     int `json:"closed"`
}
