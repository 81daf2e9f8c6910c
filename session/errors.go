package session

import "errors"

var (
	// ErrNotFound indicates no session exists for the identifier.
	ErrNotFound = errors.New("session not found")

	// ErrEmptyID indicates a session without an identifier.
	ErrEmptyID = errors.New("session id cannot be empty")

	// ErrInvalidTTL indicates a negative time-to-live or cleanup interval.
	ErrInvalidTTL = errors.New("ttl must not be negative")
)
