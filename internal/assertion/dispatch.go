package assertion

import (
	"fmt"

	"github.com/roach88/tester/internal/expr"
	"github.com/roach88/tester/internal/fault"
	"github.com/roach88/tester/internal/value"
)

// Dispatcher applies assertions to values. It holds no state.
type Dispatcher struct{}

// NewDispatcher returns a Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Select resolves the assertion key against actual. Missing segments yield
// value.Undefined; a key that is not a valid path is a framework error.
func Select(actual any, key string) (any, error) {
	if key == "" {
		return actual, nil
	}
	path, err := expr.ParsePath(key)
	if err != nil {
		return nil, fault.Wrap(fault.CodeInvalidKey, key, err, "invalid assertion key %q", key)
	}
	return expr.Lookup(actual, path), nil
}

// Apply checks a against actual. It returns nil when the assertion holds,
// an *Error when it does not, and a framework error for unknown kinds or
// malformed keys.
func (d *Dispatcher) Apply(a Assertion, actual any) error {
	if !Known(a.Assert) {
		return fault.New(fault.CodeUnknownAssertion, string(a.Assert), "unknown assertion %q", a.Assert)
	}
	got, err := Select(actual, a.Key)
	if err != nil {
		return err
	}

	switch a.Assert {
	case KindEqual:
		if value.Equal(got, expected(a)) {
			return nil
		}
		return failure(a, value.Format(expected(a)), value.Format(got))

	case KindNotEqual:
		if !value.Equal(got, expected(a)) {
			return nil
		}
		return failure(a, "not "+value.Format(expected(a)), value.Format(got))

	case KindUndefined:
		if value.IsUndefined(got) {
			return nil
		}
		return failure(a, "undefined", value.Format(got))

	case KindNotUndefined:
		if !value.IsUndefined(got) {
			return nil
		}
		return failure(a, "a defined value", "undefined")

	case KindGreater, KindLess:
		return d.order(a, got)

	case KindTypeOf:
		want, ok := a.Value.(string)
		if !ok {
			return failure(a, fmt.Sprintf("type name, got %s", value.Format(a.Value)), value.TypeOf(got))
		}
		if value.TypeOf(got) == want {
			return nil
		}
		return failure(a, want, value.TypeOf(got))

	case KindOK:
		if !value.IsError(got) {
			return nil
		}
		return failure(a, "a successful value", value.Format(got))

	case KindError:
		// Expected errors are handled before dispatch; reaching here means
		// the command succeeded.
		exp := "an error"
		if a.HasValue() {
			exp = "error " + value.Format(a.Value)
		}
		return failure(a, exp, value.Format(got))
	}
	return nil
}

// ApplyAll checks every assertion in order and returns the first error.
func (d *Dispatcher) ApplyAll(as []Assertion, actual any) error {
	for _, a := range as {
		if err := d.Apply(a, actual); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) order(a Assertion, got any) error {
	want := expected(a)
	cmp, err := value.Compare(got, want)
	sym := ">"
	if a.Assert == KindLess {
		sym = "<"
	}
	exp := fmt.Sprintf("%s %s", sym, value.Format(want))
	if err != nil {
		return failure(a, exp, fmt.Sprintf("%s (%v)", value.Format(got), err))
	}
	if (a.Assert == KindGreater && cmp > 0) || (a.Assert == KindLess && cmp < 0) {
		return nil
	}
	return failure(a, exp, value.Format(got))
}

// expected maps an absent value to Undefined so equal with no value checks
// for an absent actual. An explicit null stays nil.
func expected(a Assertion) any {
	if !a.HasValue() {
		return value.Undefined
	}
	return a.Value
}

func failure(a Assertion, exp, act string) *Error {
	return &Error{
		Kind:     a.Assert,
		Key:      a.Key,
		Expected: exp,
		Actual:   act,
		Message:  a.Message,
	}
}
