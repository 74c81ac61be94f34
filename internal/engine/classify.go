package engine

import (
	"errors"
	"reflect"

	"github.com/roach88/tester/internal/assertion"
	"github.com/roach88/tester/internal/command"
	"github.com/roach88/tester/internal/fault"
	"github.com/roach88/tester/internal/suite"
	"github.com/roach88/tester/internal/value"
)

// Classifier decides whether an application error satisfies a testcase.
type Classifier struct{}

// Classify checks appErr against the testcase's assertions.
//
// When every assertion is of kind error, each one with a value must match:
// with a key, the value at that path of ErrorObject(appErr); without one,
// the error payload if there is one and the message otherwise. Assertions
// without a value accept any error. Any other assertion kind makes the
// error unexpected.
func (c *Classifier) Classify(tc *suite.Testcase, expected []assertion.Assertion, appErr error) error {
	if fault.Is(appErr) || assertion.IsFailure(appErr) {
		return appErr
	}
	if !tc.ExpectsError() {
		return &UnexpectedError{Command: tc.Command, Err: appErr}
	}

	for _, a := range expected {
		if !a.HasValue() {
			continue
		}
		var actual any
		if a.Key == "" {
			actual = ErrorValue(appErr)
		} else {
			got, err := assertion.Select(ErrorObject(appErr), a.Key)
			if err != nil {
				return err
			}
			actual = got
		}
		if !value.Equal(actual, a.Value) {
			return &assertion.Error{
				Kind:     assertion.KindError,
				Key:      a.Key,
				Expected: value.Format(a.Value),
				Actual:   value.Format(actual),
				Message:  a.Message,
			}
		}
	}
	return nil
}

// ErrorValue is what an error assertion without a key compares against:
// the payload when the error carries one, the message otherwise.
func ErrorValue(err error) any {
	if p, ok := payload(err); ok {
		return p
	}
	return err.Error()
}

// ErrorObject presents err as an object for keyed error assertions. It
// holds "message", "name" and, when the payload is an object, the
// payload's fields. Payload fields never replace message or name.
func ErrorObject(err error) map[string]any {
	obj := map[string]any{}
	if p, ok := payload(err); ok {
		if m, ok := value.MustNormalize(p).(map[string]any); ok {
			for k, v := range m {
				obj[k] = v
			}
		} else {
			obj["payload"] = p
		}
	}
	obj["message"] = err.Error()
	obj["name"] = errorName(err)
	return obj
}

func payload(err error) (any, bool) {
	var pc command.PayloadCarrier
	if errors.As(err, &pc) {
		if p := pc.Value(); p != nil {
			return p, true
		}
	}
	return nil, false
}

// errorName is the error's own Name() when it has one, otherwise the bare
// name of its concrete type.
func errorName(err error) string {
	var named interface{ Name() string }
	if errors.As(err, &named) {
		return named.Name()
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "Error"
	}
	return t.Name()
}
