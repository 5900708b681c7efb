package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a user has no stored session.
var ErrSessionNotFound = errors.New("session not found")

// ErrMissingCredentials is returned when no credential source is configured.
var ErrMissingCredentials = errors.New("missing credentials")

// ErrSinkUnavailable is returned when the tabular store cannot be reached.
var ErrSinkUnavailable = errors.New("record sink unavailable")

// SinkError wraps a Record Sink failure with the operation that failed.
// Callers outside the sink must treat it as an opaque failure.
type SinkError struct {
	Op  string
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Op, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
