package marlon

import "errors"

// Error kinds All are surfaced synchronously from the API
// call that detects them; none are retried internally.
var (
	// ErrCapacityExceeded is returned when a fixed-capacity pool or arena
	// (particles, rigid bodies, static bodies, neighbor pairs, neighbor
	// groups) is full.
	ErrCapacityExceeded = errors.New("marlon: capacity exceeded")

	// ErrColoringExhausted is returned by Simulate when a connected
	// component needs more than maxColors distinct colors.
	ErrColoringExhausted = errors.New("marlon: coloring exhausted")

	// ErrInvalidArgument is returned when a caller-supplied value violates
	// a precondition (non-unit orientation, non-positive mass, etc).
	ErrInvalidArgument = errors.New("marlon: invalid argument")
)
