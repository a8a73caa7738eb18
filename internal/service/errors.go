package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks an input rejected before any write happened.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden marks an operation the actor's role or ownership does
	// not allow.
	ErrForbidden = errors.New("operation not permitted")
)

// validationf wraps a formatted message in ErrValidation so callers can
// match it with errors.Is.
func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
