// Package assertion implements the fixed vocabulary of comparisons a
// testcase can make against a command's outcome.
package assertion

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind names a comparison.
type Kind string

const (
	KindEqual        Kind = "equal"
	KindNotEqual     Kind = "notEqual"
	KindUndefined    Kind = "undefined"
	KindNotUndefined Kind = "notUndefined"
	KindGreater      Kind = "greater"
	KindLess         Kind = "less"
	KindTypeOf       Kind = "typeof"
	KindOK           Kind = "ok"
	KindError        Kind = "error"
)

var kinds = map[Kind]bool{
	KindEqual:        true,
	KindNotEqual:     true,
	KindUndefined:    true,
	KindNotUndefined: true,
	KindGreater:      true,
	KindLess:         true,
	KindTypeOf:       true,
	KindOK:           true,
	KindError:        true,
}

// Known reports whether k is part of the vocabulary.
func Known(k Kind) bool {
	return kinds[k]
}

// Kinds lists the vocabulary in sorted order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Assertion is one entry of a testcase's expectedData.
type Assertion struct {
	Assert  Kind
	Key     string // property path into the actual value; empty means the whole value
	Value   any    // expected value; see HasValue
	Message string // replaces the generated failure message when set

	// Null marks an explicit null expected value, which a nil Value
	// cannot express on its own.
	Null bool
}

// HasValue reports whether an expected value was supplied.
func (a Assertion) HasValue() bool {
	return a.Value != nil || a.Null
}

// Error is returned when an assertion does not hold.
type Error struct {
	Kind     Kind
	Key      string
	Expected string
	Actual   string
	Message  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var buf strings.Builder
	if e.Message != "" {
		fmt.Fprintf(&buf, "%s\n", e.Message)
	}
	if e.Key != "" {
		fmt.Fprintf(&buf, "Assertion failed: %s (key %s)\n", e.Kind, e.Key)
	} else {
		fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Kind)
	}
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// IsFailure reports whether err is an assertion failure.
func IsFailure(err error) bool {
	var ae *Error
	return errors.As(err, &ae)
}
