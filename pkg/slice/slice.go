// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

/*
Package slice compliments the standard [slices] package by providing functional
programming utilities (Filter, Count) leveraging generics.
*/
package slice

// Filter filters a slice, returning only elements where the predicate function evaluates to true.
func Filter[T any](input []T, predicate func(T) bool) []T {
	if input == nil {
		return nil
	}

	// Not pre-allocating to full length to avoid excessive memory on heavy filters
	var result []T
	for _, v := range input {
		if predicate(v) {
			result = append(result, v)
		}
	}

	return result
}

// Count returns the number of elements for which the predicate evaluates to true.
func Count[T any](input []T, predicate func(T) bool) int {
	n := 0
	for _, v := range input {
		if predicate(v) {
			n++
		}
	}
	return n
}

// IndexFunc returns the index of the first element satisfying the predicate,
// or -1 if no element matches.
func IndexFunc[T any](input []T, predicate func(T) bool) int {
	for i, v := range input {
		if predicate(v) {
			return i
		}
	}
	return -1
}
