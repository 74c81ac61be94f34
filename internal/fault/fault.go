// Package fault defines framework errors: defects in suite data or engine
// usage, as opposed to assertion failures or errors raised by the system
// under test.
//
// Framework errors always fail a leaf outright. The error classifier never
// treats them as an expected application error, so every layer that validates
// suite data reports through this package.
package fault

import (
	"errors"
	"fmt"
)

// Code identifies the framework error category.
type Code string

const (
	// CodeUnknownAssertion indicates an assertion kind outside the fixed vocabulary.
	CodeUnknownAssertion Code = "UNKNOWN_ASSERTION"

	// CodeInvalidExport indicates an exportData identifier that fails ^[A-Za-z_]\w*$.
	CodeInvalidExport Code = "INVALID_EXPORT"

	// CodeUndefinedReference indicates a reference token whose export was never written.
	CodeUndefinedReference Code = "UNDEFINED_REFERENCE"

	// CodeUnevaluable indicates a reference expression that failed to evaluate.
	CodeUnevaluable Code = "UNEVALUABLE_EXPRESSION"

	// CodeMissingCommand indicates a testcase command absent from the registry.
	CodeMissingCommand Code = "MISSING_COMMAND"

	// CodeMissingExpected indicates a testcase without expectedData.
	CodeMissingExpected Code = "MISSING_EXPECTED"

	// CodeInvalidKey indicates an assertion key that is not a valid property path.
	CodeInvalidKey Code = "INVALID_KEY"

	// CodeInvalidSuite indicates malformed suite structure (unknown fields, wrong types).
	CodeInvalidSuite Code = "INVALID_SUITE"
)

// Error is a framework error.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Subject names the offending item: the export key, the expression
	// string, the command name or the assertion kind.
	Subject string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a framework error.
func New(code Code, subject, format string, args ...any) *Error {
	return &Error{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a framework error with an underlying cause.
func Wrap(code Code, subject string, err error, format string, args ...any) *Error {
	return &Error{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...), Err: err}
}

// Is reports whether err is a framework error. Uses errors.As to handle
// wrapped errors.
func Is(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}

// HasCode reports whether err is a framework error with the given code.
func HasCode(err error, code Code) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}
