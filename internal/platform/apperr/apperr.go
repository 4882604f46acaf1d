// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

/*
Package apperr defines the centralized error handling framework for Ticketloft.

It provides a rich error type that bridges the gap between low-level storage
errors and the structured failure results the UI layer renders.

Architecture:

  - AppError: A struct containing a machine-readable Code and a user-friendly message.
  - Taxonomy: Distinct codes for not-found, validation, no-session, and storage
    failures so callers can branch without string matching.
  - Recovery: Malformed-persisted-data is NOT represented here. Corrupt durable
    values are recovered in place (reset to defaults) and never escape the
    persistence boundary as errors.

Every error that leaves a service should be wrapped as an [AppError] to ensure
consistent caller-facing messages.
*/
package apperr

import (
	"errors"
)

// Machine-readable error codes.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConflict     = "CONFLICT"
	CodeValidation   = "VALIDATION_ERROR"
	CodeNoSession    = "NO_SESSION"
	CodeStorage      = "STORAGE_FAILURE"
	CodeInternal     = "INTERNAL_ERROR"
)

// AppError is the canonical error type for the Ticketloft core.
//
// It carries a machine-readable code, a client-safe message, and an optional
// slice of field-level validation errors.
//
// # Safety
//
// The Cause field is for logging only and is never rendered to the user, to
// avoid leaking internal implementation details (e.g. SQL statements).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "NO_SESSION").
	Code string `json:"code"`
	// Message is a human-readable description safe to render to the user.
	Message string `json:"error"`
	// Cause is the underlying error, used for logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR results.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Caller Errors

// NotFound creates a NOT_FOUND [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Ticket") // Returns "Ticket not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: resource + " not found",
	}
}

// Unauthorized creates an UNAUTHORIZED [AppError] for rejected credentials.
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: msg,
	}
}

// Conflict creates a CONFLICT [AppError] for duplicate or uniqueness violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: msg,
	}
}

// ValidationError creates a VALIDATION_ERROR [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: msg,
		Details: details,
	}
}

// NoSession creates a NO_SESSION [AppError].
//
// Ticket operations attempted without an authenticated session are a
// precondition violation in the calling layer. The code is distinct from
// NOT_FOUND so that session-loss bugs are never masked as missing data.
func NoSession() *AppError {
	return &AppError{
		Code:    CodeNoSession,
		Message: "No active session",
	}
}

// # Infrastructure Errors

// Storage creates a STORAGE_FAILURE [AppError] wrapping a durable-store error.
// Store failures (quota exceeded, I/O, connectivity) must surface under this
// distinct code, never be swallowed.
func Storage(cause error) *AppError {
	return &AppError{
		Code:    CodeStorage,
		Message: "Persistent storage failure",
		Cause:   cause,
	}
}

// Internal creates an INTERNAL_ERROR [AppError] wrapping an unexpected error.
// The cause is stored for logging but is never rendered to the user.
func Internal(cause error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
		Cause:   cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err is an [*AppError] carrying the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
