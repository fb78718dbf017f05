package store

import "errors"

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when creating a document whose key is taken.
	ErrAlreadyExists = errors.New("already exists")
)
