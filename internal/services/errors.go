package services

import "errors"

// Typed failure reasons surfaced by the service layer. The HTTP layer is
// the only place these are mapped to status codes and user-facing
// messages.
var (
	// ErrNotFound covers both "does not exist" and "not owned by the
	// requester"; the two are deliberately indistinguishable so the API
	// never leaks resource existence.
	ErrNotFound = errors.New("resource not found")

	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrNoFile       = errors.New("no file provided")
	ErrTooManyFiles = errors.New("too many files in one upload")
	ErrNoFields     = errors.New("no fields to update")
)
