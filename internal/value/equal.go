package value

import (
	"fmt"
	"reflect"
	"strings"
)

// Equal reports deep structural equality between a and b.
//
// Both sides are normalized first, so an int 1 equals a float64 1 and a
// []string equals the []any holding the same strings. Undefined only equals
// Undefined, and nil (null) only equals nil. Errors compare by message.
func Equal(a, b any) bool {
	na, errA := Normalize(a)
	nb, errB := Normalize(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return deepEqual(na, nb)
}

func deepEqual(a, b any) bool {
	switch av := a.(type) {
	case undefined:
		return IsUndefined(b)
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, elem := range av {
			other, exists := bv[k]
			if !exists || !deepEqual(elem, other) {
				return false
			}
		}
		return true
	case error:
		bv, ok := b.(error)
		return ok && av.Error() == bv.Error()
	}
	return reflect.DeepEqual(a, b)
}

// Compare orders a against b, returning -1, 0 or 1. Only numbers against
// numbers and strings against strings are ordered; any other pairing is an
// error so that greater/less never pass by accident.
func Compare(a, b any) (int, error) {
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		if !ok {
			return 0, fmt.Errorf("cannot order %s against %s", TypeOf(a), TypeOf(b))
		}
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		case fa == fb:
			return 0, nil
		}
		return 0, fmt.Errorf("cannot order NaN")
	}

	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("cannot order %s against %s", TypeOf(a), TypeOf(b))
		}
		return strings.Compare(sa, sb), nil
	}

	return 0, fmt.Errorf("%s values are not ordered", TypeOf(a))
}
