package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tester/internal/value"
)

func testEnv() MapEnv {
	return MapEnv{
		"$output": map[string]any{"foo": "bar", "n": 2.0, "list": []any{"x", "y"}},
		"$key":    "foo",
		"$items":  []string{"a", "b", "c"},
		"$greet":  func(name string) string { return "hello " + name },
		"$fail":   func() (any, error) { return nil, errors.New("nope") },
		"$num":    3,
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{"whole value", "$output", testEnv()["$output"]},
		{"member", "$output.foo", "bar"},
		{"bracket string", `$output["foo"]`, "bar"},
		{"nested reference as key", "$output[$key]", "bar"},
		{"array index", "$output.list[1]", "y"},
		{"array index by dot", "$output.list.0", "x"},
		{"array length", "$output.list.length", 2.0},
		{"typed slice", "$items[2]", "c"},
		{"missing member", "$output.missing", value.Undefined},
		{"out of range", "$output.list[5]", value.Undefined},
		{"string length", "$key.length", 3.0},
		{"call", `$greet("world")`, "hello world"},
		{"concat strings", `$key + "-" + $output.foo`, "foo-bar"},
		{"add numbers", "$output.n + $num", 5.0},
		{"concat number into string", `"n=" + $num`, "n=3"},
		{"literal", `"plain"`, "plain"},
		{"parenthesized", "($output).foo", "bar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.src, testEnv())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Failures(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"call non-function", "$output()"},
		{"property of undefined", "$output.missing.deeper"},
		{"property of number", "$output.n.x"},
		{"function error", "$fail()"},
		{"wrong arity", `$greet()`},
		{"wrong argument type", `$greet(1)`},
		{"add objects", "$output + $output"},
		{"object as key", "$output[$output]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.src, testEnv())
			require.Error(t, err)
			var ee *EvalError
			assert.ErrorAs(t, err, &ee)
		})
	}
}

func TestEvaluate_UndefinedReference(t *testing.T) {
	_, err := Evaluate("$nothing.foo", testEnv())
	var ue *UndefinedRefError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "$nothing", ue.Name)
}

func TestEvaluate_ErrorMessage(t *testing.T) {
	got, err := Evaluate("$e.message", MapEnv{"$e": errors.New("boom")})
	require.NoError(t, err)
	assert.Equal(t, "boom", got)
}
