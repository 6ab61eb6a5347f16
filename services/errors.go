package services

import (
	"errors"
	"fmt"
)

// ErrNotificationNotFound deliberately conflates "does not exist" and "belongs
// to someone else" so callers cannot probe other users' notifications.
var ErrNotificationNotFound = errors.New("notification not found or unauthorized")

// ValidationError marks malformed dispatcher input. It propagates to the
// caller and aborts the surrounding transaction: a bad notification request is
// a caller bug, not a transient condition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
