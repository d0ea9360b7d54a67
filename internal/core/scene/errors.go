package scene

import (
	"errors"
	"fmt"
	"strings"
)

// Scene-specific errors
var (
	ErrValidation = errors.New("invalid entity")
	ErrNotFound   = errors.New("entity not found")
)

// ValidationError describes why a record was refused. It matches ErrValidation
// with errors.Is.
type ValidationError struct {
	// Index is the record's position in a ReplaceAll batch, or -1.
	Index  int
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidation.Error())
	if e.Index >= 0 {
		fmt.Fprintf(&b, " at index %d", e.Index)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, " %q", e.ID)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(id, field, reason string) *ValidationError {
	return &ValidationError{Index: -1, ID: id, Field: field, Reason: reason}
}

func notFound(id string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, id)
}
