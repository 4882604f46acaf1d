// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

/*
Package session implements the session manager: the owner of the "current
user" concept.

It creates sessions on login and signup, restores the persisted session on
process start, tears sessions down on logout, and exposes the authentication
predicate the UI's route guard calls.

# State Machine

Anonymous → (login success | signup success) → Authenticated →
(logout | corrupt-session detected on restore) → Anonymous.

There are no other states; a failed login or signup leaves the machine where
it was.
*/
package session

import "strings"

// SessionKey is the durable-store key holding the current-session pointer.
const SessionKey = "ticketapp_session"

// # Domain Entities

// Session is the persisted "who is currently authenticated" record.
//
// It is derived from a [directory.UserProfile] at login time but is NOT that
// profile: the profile id is the sole join key between the two. A new token
// is minted on every login; the token is opaque and carries no cryptographic
// guarantees (explicitly not a security boundary).
type Session struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// # Inputs

// Credentials holds a login attempt.
type Credentials struct {
	Email    string
	Password string
}

// SignupInput holds the data required to register a new user.
// Name is optional; it defaults to the email's local part.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// localPart extracts the part of an email address before the '@'.
// An address without '@' is returned unchanged.
func localPart(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}
