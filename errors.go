package slotwatch

import (
	"errors"
	"strings"
)

var (
	// ErrAlreadyActive is returned by [Monitor.Start] while a session is
	// running. Stop the current session before starting another.
	ErrAlreadyActive = errors.New("monitoring session already active")

	// ErrFormFrozen is returned by [Form] setters while a monitoring session
	// holds the form read-only.
	ErrFormFrozen = errors.New("form is read-only while monitoring")
)

// FieldError describes one failing form field.
type FieldError struct {
	// Field is the field name: "mode", "state", "districts", "pincode"
	// or "poll_period".
	Field string

	// Message explains the failure.
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError reports an incomplete or malformed filter. It blocks
// [Monitor.Start] and never reaches a running session.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "invalid filter: " + strings.Join(parts, "; ")
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// IsValidationError reports whether err is or wraps a [ValidationError].
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
