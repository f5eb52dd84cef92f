package services

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when another record is already being processed.
	ErrBusy = errors.New("another operation is in progress")
	// ErrInvalidState is returned when an operation is not allowed from the record's status.
	ErrInvalidState = errors.New("operation not allowed in current state")
)

// ValidationError reports malformed or missing operator input. Nothing is
// persisted when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
