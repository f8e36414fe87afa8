package triggers

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied means precise-timer consent is withheld. The caller
	// should ask the user to grant it; the operation did nothing.
	ErrPermissionDenied = errors.New("exact alarm permission denied")
	// ErrCapacityExceeded means the fixed-time trigger limit is reached.
	ErrCapacityExceeded = errors.New("fixed-time trigger capacity exceeded")
	// ErrInvalidArgument is matched by every ValidationError.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ValidationError represents user-facing validation issues.
type ValidationError struct {
	msg string
}

func (e ValidationError) Error() string {
	return e.msg
}

// Unwrap lets errors.Is(err, ErrInvalidArgument) match.
func (e ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// NewValidationError creates a new validation error.
func NewValidationError(format string, args ...interface{}) error {
	return ValidationError{msg: fmt.Sprintf(format, args...)}
}
