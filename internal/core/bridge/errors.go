package bridge

import (
	"errors"
	"fmt"
	"strings"
)

// Bridge-specific errors
var (
	ErrBridgeBusy   = errors.New("an edit request is already pending")
	ErrEditRejected = errors.New("edit rejected")
	ErrTransport    = errors.New("edit transport failed")
)

// TransportError is a failure to obtain an edit response: network errors,
// non-2xx relay replies and unreadable response envelopes. It matches
// ErrTransport with errors.Is.
type TransportError struct {
	// StatusCode is the relay's HTTP status, 0 when no response arrived.
	StatusCode int
	// Message is the relay's {"error": ...} text when it sent one.
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(ErrTransport.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func rejected(cause error) error {
	return fmt.Errorf("%w: %w", ErrEditRejected, cause)
}
