package inkwell

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the store and write actions. Callers classify
// with errors.Is; handlers map them to HTTP responses.
var (
	ErrUnauthenticated = errors.New("inkwell: not signed in")
	ErrForbidden       = errors.New("inkwell: not the owner")
	ErrNotFound        = errors.New("inkwell: not found")
	ErrConflict        = errors.New("inkwell: conflict")
	ErrValidation      = errors.New("inkwell: validation failed")
	ErrUpstream        = errors.New("inkwell: upstream failure")
)

// validationErr marks a missing or malformed field.
func validationErr(field string) error {
	return fmt.Errorf("%w: %s is required", ErrValidation, field)
}

// upstreamErr wraps a store or asset-pipeline failure so callers can
// distinguish it from not-found without losing the cause.
func upstreamErr(op string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, cause)
}

// ActionResult is the structured outcome of a write action. Write actions
// never panic through; every path produces a result.
type ActionResult struct {
	Success bool
	Err     error
	Slug    string
}

func failure(err error) ActionResult {
	return ActionResult{Err: err}
}
