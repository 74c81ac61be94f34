package value

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
)

type undefined struct{}

// String renders the sentinel the way assertion messages print it.
func (undefined) String() string { return "undefined" }

// Undefined is the absent-value sentinel. Missing inputs and missing
// property paths produce Undefined. A handler returning nil reports null.
var Undefined = undefined{}

// IsUndefined reports whether v is the absent-value sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// Type tags returned by TypeOf.
const (
	TypeUndefined = "undefined"
	TypeObject    = "object"
	TypeBoolean   = "boolean"
	TypeNumber    = "number"
	TypeString    = "string"
	TypeFunction  = "function"
)

// TypeOf returns the dynamic type tag of v. Maps, slices, structs, errors
// and null all report "object".
func TypeOf(v any) string {
	switch v.(type) {
	case undefined:
		return TypeUndefined
	case nil:
		return TypeObject
	case bool:
		return TypeBoolean
	case string:
		return TypeString
	case json.Number, *big.Int, *big.Float:
		return TypeNumber
	case error:
		return TypeObject
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return TypeBoolean
	case reflect.String:
		return TypeString
	case reflect.Func:
		return TypeFunction
	}
	if isNumberKind(rv.Kind()) {
		return TypeNumber
	}
	return TypeObject
}

// IsError reports whether v is an error value. Error-shaped values never
// satisfy an "ok" assertion.
func IsError(v any) bool {
	_, ok := v.(error)
	return ok
}

// ToFloat converts any Go numeric value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case *big.Int:
		if n == nil {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	case *big.Float:
		if n == nil {
			return 0, false
		}
		f, _ := n.Float64()
		return f, true
	case bool, string, nil:
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return float64(rv.Int()), true
	case rv.CanUint():
		return float64(rv.Uint()), true
	case rv.CanFloat():
		return rv.Float(), true
	}
	return 0, false
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Normalize converts v into the canonical tree shape: map[string]any,
// []any, float64, string, bool, nil, Undefined. Errors and functions are
// kept as they are so they stay recognizable. Typed maps and slices are
// walked with reflection; structs and pointers go through encoding/json.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil, undefined, bool, string, float64, error:
		return val, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := Normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := Normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	}

	if f, ok := ToFloat(v); ok {
		return f, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		return v, nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			n, err := Normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			n, err := Normalize(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", iter.Key().String(), err)
			}
			out[iter.Key().String()] = n
		}
		return out, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
	}

	// Structs and anything else with a JSON form.
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unsupported type %T: %w", v, err)
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("unsupported type %T: %w", v, err)
	}
	return decoded, nil
}

// MustNormalize is Normalize for values known to be JSON-like. Values that
// cannot be normalized are returned unchanged.
func MustNormalize(v any) any {
	n, err := Normalize(v)
	if err != nil {
		return v
	}
	return n
}

// Format renders v for assertion messages.
func Format(v any) string {
	switch val := v.(type) {
	case undefined:
		return "undefined"
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	case error:
		return fmt.Sprintf("error(%q)", val.Error())
	}
	if data, err := MarshalCanonical(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}
