package repositories

import "errors"

var (
	// ErrNotFound is returned when a row does not exist or is not reachable
	// through the requesting user's ownership filter.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when the users.email unique index
	// rejects an insert. The index is the authoritative uniqueness
	// guarantee; callers may pre-check only for a friendlier error path.
	ErrDuplicateEmail = errors.New("email already registered")
)
