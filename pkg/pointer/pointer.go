// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

/*
Package pointer provides utilities for working with optional values.

Partial-update payloads (profile and ticket overlays) model "field present"
as a non-nil pointer. These generic helpers keep that convention free of
boilerplate at call sites.
*/
package pointer

// To returns a pointer to the provided value.
// It is used to mark a field as present in an update overlay
// (e.g. pointer.To("closed")).
func To[T any](v T) *T {
	return &v
}

// Val safely dereferences a pointer.
// If the pointer is nil, it returns the zero value of the underlying type.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Fallback safely dereferences a pointer.
// If the pointer is nil, it returns the provided fallback value instead.
func Fallback[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
