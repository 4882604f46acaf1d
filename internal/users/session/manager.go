// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ticketloft/ticketloft/internal/platform/apperr"
	"github.com/ticketloft/ticketloft/internal/platform/ctxutil"
	"github.com/ticketloft/ticketloft/internal/platform/kvstore"
	"github.com/ticketloft/ticketloft/internal/platform/validate"
	"github.com/ticketloft/ticketloft/internal/state"
	"github.com/ticketloft/ticketloft/internal/tickets"
	"github.com/ticketloft/ticketloft/internal/users/directory"
	"github.com/ticketloft/ticketloft/pkg/uuid"
)

// # Contracts

// ProfileDirectory is the slice of user-directory behavior the manager needs.
type ProfileDirectory interface {

	/*
		FindByEmail returns the profile with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *directory.UserProfile: Deep copy of the match
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*directory.UserProfile, error)

	/*
		FindByID returns the profile with the given id.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *directory.UserProfile: Deep copy of the match
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*directory.UserProfile, error)

	/*
		Upsert merges the overlay onto the identified profile, creating it
		when absent, and persists the full directory.

		Parameters:
		  - context: context.Context
		  - id: string
		  - update: directory.ProfileUpdate

		Returns:
		  - *directory.UserProfile: Deep copy of the stored result
		  - error: Storage failures
	*/
	Upsert(context context.Context, id string, update directory.ProfileUpdate) (*directory.UserProfile, error)
}

// # Manager

// Manager owns the current session and the anonymous/authenticated state
// machine. All mutations publish the resulting identity to the shared cell
// so every consumer observes the same state without explicit wiring.
type Manager struct {
	profiles ProfileDirectory
	store    kvstore.Store
	cell     *state.Cell[tickets.Ticket]
	logger   *slog.Logger

	mu      sync.RWMutex
	session *Session
	user    *directory.UserProfile
}

// NewManager constructs a [Manager] with its collaborators.
func NewManager(profiles ProfileDirectory, store kvstore.Store, cell *state.Cell[tickets.Ticket], logger *slog.Logger) *Manager {
	return &Manager{
		profiles: profiles,
		store:    store,
		cell:     cell,
		logger:   logger,
	}
}

// # Session Lifecycle

/*
Restore loads the persisted session pointer on process start.

Description: An absent pointer is a no-op (stay anonymous). An unparsable or
token-less pointer is treated as corrupt: the state is cleared, the offending
key is removed, and the process stays anonymous — fail-safe, never fail-loud. When
the pointer resolves but the profile has vanished from the directory, a
minimal user view is derived from the session fields alone with an empty
ticket list rather than failing.

Parameters:
  - context: context.Context

Returns:
  - error: apperr.Storage on medium failure only
*/
func (manager *Manager) Restore(context context.Context) error {
	raw, ok, err := manager.store.Get(context, SessionKey)
	if err != nil {
		return apperr.Storage(fmt.Errorf("session_restore_failed: %w", err))
	}
	if !ok {
		return nil
	}

	var restored Session
	if err := json.Unmarshal([]byte(raw), &restored); err != nil {
		return manager.discardPointer(context, err)
	}
	if restored.Token == "" {
		// A token-less pointer would install a half-authenticated state.
		return manager.discardPointer(context, errors.New("empty session token"))
	}

	profile, err := manager.profiles.FindByID(context, restored.ID)
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeNotFound) {
			return err
		}
		// Directory out of sync with the pointer: minimal view, empty tickets.
		manager.logger.Warn("session_profile_missing_minimal_view", slog.String("user_id", restored.ID))
		profile = &directory.UserProfile{
			ID:      restored.ID,
			Name:    restored.Name,
			Email:   restored.Email,
			Tickets: []tickets.Ticket{},
		}
	}

	manager.setAuthenticated(&restored, profile)
	return nil
}

// discardPointer treats the persisted session pointer as corrupt: clear the
// in-memory state, remove the key, stay anonymous.
func (manager *Manager) discardPointer(context context.Context, cause error) error {
	log := ctxutil.GetLogger(context)
	log.Warn("session_pointer_corrupt_discarded", slog.Any("error", cause))
	manager.setAnonymous()
	if removeErr := manager.store.Remove(context, SessionKey); removeErr != nil {
		log.Error("session_pointer_remove_failed", slog.Any("error", removeErr))
	}
	return nil
}

/*
Login authenticates a user and mints a fresh session.

Description: Both credential fields are required; a missing field, an unknown
email, or a password mismatch all reject with the same client-safe message
and leave no side effects. The comparison is plain byte equality against the
stored plaintext — this is the app's sole authentication check, explicitly
not a security boundary.

Parameters:
  - context: context.Context
  - credentials: Credentials

Returns:
  - *Session: The established session
  - error: apperr.Unauthorized("Invalid credentials") or storage failures
*/
func (manager *Manager) Login(context context.Context, credentials Credentials) (*Session, error) {
	if credentials.Email == "" || credentials.Password == "" {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	profile, err := manager.profiles.FindByEmail(context, credentials.Email)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		return nil, err
	}

	if profile.Password != credentials.Password {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	// Unique per login; logins are sequential within one process, so a
	// time-ordered value suffices.
	established := &Session{
		ID:       profile.ID,
		Name:     profile.Name,
		Email:    profile.Email,
		Token:    uuid.NewToken(),
		Password: profile.Password,
	}

	if err := manager.persistSession(context, established); err != nil {
		return nil, err
	}

	// Refresh the directory record's bookkeeping write. The empty overlay
	// preserves every stored field.
	if _, err := manager.profiles.Upsert(context, profile.ID, directory.ProfileUpdate{}); err != nil {
		// Keep the state machine consistent: without the directory write the
		// login did not complete, so the pointer must not linger.
		if removeErr := manager.store.Remove(context, SessionKey); removeErr != nil {
			manager.logger.Error("session_pointer_remove_failed", slog.Any("error", removeErr))
		}
		return nil, err
	}

	manager.setAuthenticated(established, profile)
	manager.logger.Info("session_established", slog.String("user_id", profile.ID))

	copied := *established
	return &copied, nil
}

/*
Signup registers a new user and immediately establishes a session.

Description: Rejects when a profile with the email already exists, with no
side effects. Otherwise mints a new time-ordered id, derives the name from
the email's local part when absent, stores the profile with an empty ticket
collection, persists the derived session, and sets the current user.

Parameters:
  - context: context.Context
  - input: SignupInput

Returns:
  - *Session: The established session
  - error: apperr.Conflict("User already exists"), validation, or storage failures
*/
func (manager *Manager) Signup(context context.Context, input SignupInput) (*Session, error) {
	v := &validate.Validator{}
	if err := v.Required("email", input.Email).Required("password", input.Password).Err(); err != nil {
		return nil, err
	}

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := manager.profiles.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("User already exists")
	}
	if !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name = localPart(input.Email)
	}

	// Time-sortable id; also the join key the session carries from now on.
	id := uuid.New()
	emptyTickets := []tickets.Ticket{}

	profile, err := manager.profiles.Upsert(context, id, directory.ProfileUpdate{
		Name:     &name,
		Email:    &input.Email,
		Password: &input.Password,
		Tickets:  &emptyTickets,
	})
	if err != nil {
		return nil, err
	}

	established := &Session{
		ID:       profile.ID,
		Name:     profile.Name,
		Email:    profile.Email,
		Token:    uuid.NewToken(),
		Password: profile.Password,
	}

	if err := manager.persistSession(context, established); err != nil {
		return nil, err
	}

	manager.setAuthenticated(established, profile)
	manager.logger.Info("user_registered", slog.String("user_id", profile.ID))

	copied := *established
	return &copied, nil
}

/*
Logout clears the current user and removes the persisted session pointer.

Description: The directory is untouched — profile data survives logout. The
in-memory state goes anonymous even if the pointer removal fails, so a
storage error can never leave a half-authenticated process.

Parameters:
  - context: context.Context

Returns:
  - error: apperr.Storage when the pointer removal fails
*/
func (manager *Manager) Logout(context context.Context) error {
	manager.setAnonymous()

	if err := manager.store.Remove(context, SessionKey); err != nil {
		return apperr.Storage(fmt.Errorf("session_logout_failed: %w", err))
	}
	return nil
}

// # Predicates & Accessors

// IsAuthenticated reports whether a session with a non-empty token is held.
// Pure and O(1): no directory scan, no side effects. This is the route
// guard's contract.
func (manager *Manager) IsAuthenticated() bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.session != nil && manager.session.Token != ""
}

// CurrentUserID returns the authenticated user's id, or ok=false when
// anonymous. Implements the ticket store's session source contract.
func (manager *Manager) CurrentUserID() (string, bool) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	if manager.session == nil || manager.session.Token == "" {
		return "", false
	}
	return manager.session.ID, true
}

// Current returns a deep copy of the current user's profile view, or nil
// when anonymous.
func (manager *Manager) Current() *directory.UserProfile {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	if manager.user == nil {
		return nil
	}
	copied := manager.user.Clone()
	return &copied
}

// RequireSession is the route-guard helper: it fails with NO_SESSION when
// the process is anonymous.
func (manager *Manager) RequireSession() error {
	if !manager.IsAuthenticated() {
		return apperr.NoSession()
	}
	return nil
}

// # Internals

// persistSession writes the session pointer through to the durable store.
func (manager *Manager) persistSession(context context.Context, session *Session) error {
	encoded, err := json.Marshal(session)
	if err != nil {
		return apperr.Internal(fmt.Errorf("session_encode_failed: %w", err))
	}

	if err := manager.store.Set(context, SessionKey, string(encoded)); err != nil {
		return apperr.Storage(fmt.Errorf("session_persist_failed: %w", err))
	}
	return nil
}

// setAuthenticated installs the session and publishes the identity.
func (manager *Manager) setAuthenticated(session *Session, profile *directory.UserProfile) {
	manager.mu.Lock()
	manager.session = session
	manager.user = profile
	manager.mu.Unlock()

	manager.cell.SetIdentity(state.Identity{
		UserID: session.ID,
		Name:   session.Name,
		Email:  session.Email,
		Token:  session.Token,
	})
}

// setAnonymous drops the session and clears the shared cell.
func (manager *Manager) setAnonymous() {
	manager.mu.Lock()
	manager.session = nil
	manager.user = nil
	manager.mu.Unlock()

	manager.cell.Clear()
}
