package plan

import (
	"errors"
	"fmt"
)

var (
	// ErrCaseNotFound is returned when a case id matches nothing in the session.
	ErrCaseNotFound = errors.New("test case not found")

	// ErrIterationNotFound is returned when an explicit iteration number is
	// outside [1, len(iterations)].
	ErrIterationNotFound = errors.New("iteration not found")
)

// ValidationError names the first field that violated a rule. Validation is
// fail-fast: callers only ever see one of these per request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

func invalidField(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
