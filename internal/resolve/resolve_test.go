package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tester/internal/exports"
	"github.com/roach88/tester/internal/fault"
	"github.com/roach88/tester/internal/value"
)

func newResolver(t *testing.T) (*Resolver, *exports.Store) {
	t.Helper()
	store := exports.New()
	require.NoError(t, store.Write("output", map[string]any{"foo": "bar", "n": 1.0}))
	require.NoError(t, store.Write("key", "foo"))
	return New(store), store
}

func TestResolve_IdentityWithoutReferences(t *testing.T) {
	r, _ := newResolver(t)
	trees := []any{
		nil,
		value.Undefined,
		42,
		true,
		"plain",
		"costs 5$",
		"just a $ sign",
		map[string]any{"a": []any{1, "two", map[string]any{"b": nil}}},
		[]any{},
	}
	for _, tree := range trees {
		got, err := r.Resolve(tree)
		require.NoError(t, err)
		assert.Equal(t, tree, got)
	}
}

func TestResolve_References(t *testing.T) {
	r, _ := newResolver(t)

	got, err := r.Resolve("$output.foo")
	require.NoError(t, err)
	assert.Equal(t, "bar", got)

	got, err = r.Resolve("$output")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": "bar", "n": 1.0}, got, "a bare reference yields the whole stored value")

	got, err = r.Resolve("$output[$key]")
	require.NoError(t, err)
	assert.Equal(t, "bar", got)

	got, err = r.Resolve(`$key + ":" + $output.foo`)
	require.NoError(t, err)
	assert.Equal(t, "foo:bar", got)
}

func TestResolve_NestedTree(t *testing.T) {
	r, _ := newResolver(t)
	in := []any{"$output", map[string]any{"foo": "$output.foo", "n": "$output.n"}}

	got, err := r.Resolve(in)
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"foo": "bar", "n": 1.0},
		map[string]any{"foo": "bar", "n": 1.0},
	}, got)

	// The input tree is untouched.
	assert.Equal(t, "$output.foo", in[1].(map[string]any)["foo"])
}

func TestResolve_UndefinedReference(t *testing.T) {
	r, _ := newResolver(t)
	_, err := r.Resolve(map[string]any{"x": "$1output"})
	require.Error(t, err)

	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fault.CodeUndefinedReference, fe.Code)
	assert.Equal(t, "$1output", fe.Subject)
}

func TestResolve_OneMissingTokenFailsTheString(t *testing.T) {
	r, _ := newResolver(t)
	_, err := r.Resolve("$output[$missing]")
	require.Error(t, err)
	assert.True(t, fault.HasCode(err, fault.CodeUndefinedReference))
	assert.Contains(t, err.Error(), "$missing")
}

func TestResolve_Unevaluable(t *testing.T) {
	r, _ := newResolver(t)
	for _, s := range []string{"$output()", "$output.foo.bar.baz", "hello $key", "$output."} {
		_, err := r.Resolve(s)
		require.Error(t, err, s)

		var fe *fault.Error
		require.ErrorAs(t, err, &fe, s)
		assert.Equal(t, fault.CodeUnevaluable, fe.Code, s)
		assert.Equal(t, s, fe.Subject, "error names the original string")
	}
}

func TestResolve_SeesLaterWrites(t *testing.T) {
	r, store := newResolver(t)
	require.NoError(t, store.Write("key", "second"))

	got, err := r.Resolve("$key")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"$a", "$b_2"}, Tokens("$a + $b_2"))
	assert.Empty(t, Tokens("no refs $"))
}
