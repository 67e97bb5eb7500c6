package core

import "errors"

var (
	// ErrNonScalarValue is returned when an edit places a nested value in a cell.
	ErrNonScalarValue = errors.New("invalid cell value: non-scalar")

	// ErrRowOutOfRange is returned when an edit addresses a row that does not exist.
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions is returned when the session cap is reached.
	ErrTooManySessions = errors.New("too many open sessions")
)
