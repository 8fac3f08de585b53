package store

import "errors"

var (
	// ErrNotFound is returned when a document with the given id (or matching
	// query) does not exist in the collection.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique constraint is violated.
	ErrConflict = errors.New("conflict")
)
