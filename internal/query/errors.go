package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream is returned when an external collaborator (embedding
	// provider, vector store, completion provider) fails.
	ErrUpstream = errors.New("upstream service error")
)

// ValidationError represents a malformed-request rejection with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// WrapUpstream wraps an external collaborator failure so callers can map it
// to the upstream-failure taxonomy with errors.Is.
func WrapUpstream(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrUpstream, err)
}
