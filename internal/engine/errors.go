package engine

import (
	"errors"
	"fmt"
)

// UnexpectedError is returned when a command raised an error that the
// testcase did not expect. The original error is preserved.
type UnexpectedError struct {
	Command string
	Err     error
}

// Error implements the error interface.
func (e *UnexpectedError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("command %q raised an unexpected error: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("unexpected error: %v", e.Err)
}

// Unwrap returns the application error.
func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// IsUnexpected reports whether err is an unexpected application error.
// Uses errors.As to handle wrapped errors.
func IsUnexpected(err error) bool {
	var ue *UnexpectedError
	return errors.As(err, &ue)
}
