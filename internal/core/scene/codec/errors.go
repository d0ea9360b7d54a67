package codec

import (
	"errors"
	"fmt"
	"strings"
)

var ErrDecode = errors.New("malformed scene document")

// DecodeError reports a structurally broken scene document. It matches
// ErrDecode with errors.Is and unwraps to the underlying parse error if any.
type DecodeError struct {
	// Index of the offending element, -1 for document-level problems.
	Index  int
	Field  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString(ErrDecode.Error())
	if e.Index >= 0 {
		fmt.Fprintf(&b, ": element %d", e.Index)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func malformed(index int, field, reason string, err error) *DecodeError {
	return &DecodeError{Index: index, Field: field, Reason: reason, Err: err}
}
