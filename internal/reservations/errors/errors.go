package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrNoTransition means a conditional status update matched nothing:
	// the booking is gone or no longer in the expected state. The caller
	// re-reads to tell the two apart.
	ErrNoTransition = errors.New("booking not in expected state")
)
