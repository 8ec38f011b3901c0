package domain

import "errors"

var (
	// ErrAlreadyExists is returned when a session is initialized for an
	// order key that already has one, including terminal-but-not-yet-swept
	// entries. Callers must not retry with a fresh session.
	ErrAlreadyExists = errors.New("session already exists")

	// ErrNotFound is returned for lookups of unknown sessions or print jobs.
	ErrNotFound = errors.New("not found")

	// ErrSessionClosed is returned when an operation requires an Active
	// session but the session is already Completed or Cancelled.
	ErrSessionClosed = errors.New("session closed")

	// ErrInvalidArgument is returned for malformed input (empty order key,
	// non-positive amounts).
	ErrInvalidArgument = errors.New("invalid argument")
)
