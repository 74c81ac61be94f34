package expr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/roach88/tester/internal/value"
)

// Env resolves sigil-prefixed reference names.
type Env interface {
	Lookup(key string) (any, bool)
}

// MapEnv is an Env backed by a plain map.
type MapEnv map[string]any

// Lookup implements Env.
func (m MapEnv) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// EvalError reports an expression that parsed but could not be evaluated.
type EvalError struct {
	Pos     int
	Message string
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluation error at offset %d: %s", e.Pos, e.Message)
}

// UndefinedRefError reports a reference that the Env does not hold.
type UndefinedRefError struct {
	Name string
	Pos  int
}

// Error implements the error interface.
func (e *UndefinedRefError) Error() string {
	return fmt.Sprintf("%s is not defined", e.Name)
}

// Evaluate parses and evaluates src against env.
func Evaluate(src string, env Env) (any, error) {
	n, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Eval(n, env)
}

// Eval evaluates a parsed expression against env.
func Eval(n Node, env Env) (any, error) {
	switch v := n.(type) {
	case *Literal:
		return v.Value, nil
	case *Ref:
		val, ok := env.Lookup(v.Name)
		if !ok {
			return nil, &UndefinedRefError{Name: v.Name, Pos: v.At}
		}
		return val, nil
	case *Member:
		obj, err := Eval(v.Object, env)
		if err != nil {
			return nil, err
		}
		return property(obj, v.Property, v.At)
	case *Index:
		obj, err := Eval(v.Object, env)
		if err != nil {
			return nil, err
		}
		idx, err := Eval(v.Index, env)
		if err != nil {
			return nil, err
		}
		key, err := indexKey(idx, v.At)
		if err != nil {
			return nil, err
		}
		return property(obj, key, v.At)
	case *Call:
		fn, err := Eval(v.Func, env)
		if err != nil {
			return nil, err
		}
		args := make([]any, len(v.Args))
		for i, a := range v.Args {
			if args[i], err = Eval(a, env); err != nil {
				return nil, err
			}
		}
		return call(fn, args, v.At)
	case *Concat:
		left, err := Eval(v.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := Eval(v.Right, env)
		if err != nil {
			return nil, err
		}
		return concat(left, right, v.At)
	}
	return nil, &EvalError{Pos: n.Pos(), Message: fmt.Sprintf("unsupported node %T", n)}
}

// indexKey converts a bracket index to a property name.
func indexKey(idx any, pos int) (string, error) {
	switch k := idx.(type) {
	case string:
		return k, nil
	case bool:
		return strconv.FormatBool(k), nil
	}
	if f, ok := value.ToFloat(idx); ok {
		return formatNumber(f), nil
	}
	return "", &EvalError{Pos: pos, Message: fmt.Sprintf("cannot use %s as a property name", value.TypeOf(idx))}
}

// property reads obj[key]. Missing properties of objects, arrays and strings
// are Undefined; reading from undefined, null, numbers or booleans fails.
func property(obj any, key string, pos int) (any, error) {
	switch o := obj.(type) {
	case map[string]any:
		if v, ok := o[key]; ok {
			return v, nil
		}
		return value.Undefined, nil
	case []any:
		return arrayProperty(len(o), func(i int) any { return o[i] }, key), nil
	case string:
		return arrayProperty(len(o), func(i int) any { return o[i : i+1] }, key), nil
	case error:
		if key == "message" {
			return o.Error(), nil
		}
		return value.Undefined, nil
	}

	switch value.TypeOf(obj) {
	case value.TypeUndefined, value.TypeBoolean, value.TypeNumber:
		return nil, &EvalError{Pos: pos, Message: fmt.Sprintf("cannot read property %q of %s", key, value.Format(obj))}
	case value.TypeFunction:
		return value.Undefined, nil
	}
	if obj == nil {
		return nil, &EvalError{Pos: pos, Message: fmt.Sprintf("cannot read property %q of null", key)}
	}

	// Typed maps, slices and structs are read through their normalized form.
	n, err := value.Normalize(obj)
	if err != nil {
		return nil, &EvalError{Pos: pos, Message: fmt.Sprintf("cannot read property %q: %v", key, err)}
	}
	return property(n, key, pos)
}

func arrayProperty(length int, at func(int) any, key string) any {
	if key == "length" {
		return float64(length)
	}
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= length || strconv.Itoa(i) != key {
		return value.Undefined
	}
	return at(i)
}

// call invokes fn with args. fn must be a Go function; a trailing error
// result that is non-nil fails the evaluation.
func call(fn any, args []any, pos int) (any, error) {
	rv := reflect.ValueOf(fn)
	if fn == nil || value.IsUndefined(fn) || rv.Kind() != reflect.Func {
		return nil, &EvalError{Pos: pos, Message: fmt.Sprintf("%s is not a function", value.Format(fn))}
	}
	ft := rv.Type()

	if ft.IsVariadic() {
		if len(args) < ft.NumIn()-1 {
			return nil, &EvalError{Pos: pos, Message: fmt.Sprintf("function expects at least %d argument(s), got %d", ft.NumIn()-1, len(args))}
		}
	} else if len(args) != ft.NumIn() {
		return nil, &EvalError{Pos: pos, Message: fmt.Sprintf("function expects %d argument(s), got %d", ft.NumIn(), len(args))}
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var want reflect.Type
		if ft.IsVariadic() && i >= ft.NumIn()-1 {
			want = ft.In(ft.NumIn() - 1).Elem()
		} else {
			want = ft.In(i)
		}
		v, err := convertArg(arg, want)
		if err != nil {
			return nil, &EvalError{Pos: pos, Message: fmt.Sprintf("argument %d: %v", i, err)}
		}
		in[i] = v
	}

	out := rv.Call(in)
	errType := reflect.TypeOf((*error)(nil)).Elem()
	if n := len(out); n > 0 && ft.Out(n-1) == errType {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return nil, &EvalError{Pos: pos, Message: fmt.Sprintf("function failed: %v", err)}
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return value.Undefined, nil
	case 1:
		return out[0].Interface(), nil
	}
	results := make([]any, len(out))
	for i, o := range out {
		results[i] = o.Interface()
	}
	return results, nil
}

func convertArg(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(want), nil
	}
	rv := reflect.ValueOf(arg)
	switch {
	case rv.Type().AssignableTo(want):
		return rv, nil
	case rv.Type().ConvertibleTo(want) && rv.Kind() != reflect.String && want.Kind() != reflect.String:
		return rv.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", value.TypeOf(arg), want)
}

// concat implements "+": numeric addition when both operands are numbers,
// string concatenation when either is a string.
func concat(left, right any, pos int) (any, error) {
	lf, lnum := value.ToFloat(left)
	rf, rnum := value.ToFloat(right)
	if lnum && rnum {
		return lf + rf, nil
	}
	_, lstr := left.(string)
	_, rstr := right.(string)
	if !lstr && !rstr {
		return nil, &EvalError{Pos: pos, Message: fmt.Sprintf("cannot add %s and %s", value.TypeOf(left), value.TypeOf(right))}
	}
	ls, err := stringify(left)
	if err != nil {
		return nil, &EvalError{Pos: pos, Message: err.Error()}
	}
	rs, err := stringify(right)
	if err != nil {
		return nil, &EvalError{Pos: pos, Message: err.Error()}
	}
	return ls + rs, nil
}

func stringify(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case bool:
		return strconv.FormatBool(s), nil
	case nil:
		return "null", nil
	}
	if value.IsUndefined(v) {
		return "undefined", nil
	}
	if f, ok := value.ToFloat(v); ok {
		return formatNumber(f), nil
	}
	return "", errors.New("cannot concatenate " + value.TypeOf(v) + " with a string")
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
