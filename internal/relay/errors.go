package relay

import (
	"errors"
	"fmt"
)

// Relay-specific errors
var (
	ErrConfiguration        = errors.New("invalid relay configuration")
	ErrServerAlreadyRunning = errors.New("relay is already running")
	ErrProvider             = errors.New("generation provider request failed")
)

// ConfigurationError is fatal at startup: the relay refuses to serve edit
// requests until it is fixed. It matches ErrConfiguration with errors.Is.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Messages returned to clients in {"error": ...} bodies.
const (
	msgBadRequest     = "sceneDefs+instruction required"
	msgInvalidJSON    = "request body must be a JSON object"
	msgProviderFailed = "OpenAI request failed"
	msgMethod         = "method not allowed"
)
