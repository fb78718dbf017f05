package service

import (
	"errors"
	"fmt"
)

// ErrRetrievalDisabled reports an operation that needs a search backend when
// none is configured.
var ErrRetrievalDisabled = errors.New("requirements search is not configured")

// UpstreamError wraps a failure of an external collaborator (generation
// backend, search backend). Retryable mirrors the collaborator's verdict so
// the API can tell the caller whether trying again makes sense.
type UpstreamError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StorageError wraps a durable-store failure. Always retryable from the
// caller's point of view: the write either did not happen or is safely
// re-appliable.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
