package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Shapes(t *testing.T) {
	n, err := Parse(`$output.foo["bar"][0](1, 'x')`)
	require.NoError(t, err)

	call, ok := n.(*Call)
	require.True(t, ok, "outermost node should be the call, got %T", n)
	assert.Len(t, call.Args, 2)

	idx, ok := call.Func.(*Index)
	require.True(t, ok)
	assert.Equal(t, 0.0, idx.Index.(*Literal).Value)

	idx2, ok := idx.Object.(*Index)
	require.True(t, ok)
	assert.Equal(t, "bar", idx2.Index.(*Literal).Value)

	member, ok := idx2.Object.(*Member)
	require.True(t, ok)
	assert.Equal(t, "foo", member.Property)
	assert.Equal(t, "$output", member.Object.(*Ref).Name)
}

func TestParse_Concat(t *testing.T) {
	n, err := Parse(`$a + "-" + $b.c`)
	require.NoError(t, err)
	assert.Equal(t, []string{"$a", "$b"}, Refs(n))
}

func TestParse_DigitsAfterDot(t *testing.T) {
	n, err := Parse(`$a.0.1`)
	require.NoError(t, err)
	outer := n.(*Member)
	assert.Equal(t, "1", outer.Property)
	assert.Equal(t, "0", outer.Object.(*Member).Property)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unclosed call", "$output("},
		{"dangling dot", "$output."},
		{"bare identifier", "output"},
		{"lone sigil", "$"},
		{"trailing garbage", "$a $b"},
		{"unterminated string", `$a["foo]`},
		{"unknown operator", "$a - 1"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			var se *SyntaxError
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestRefs_Deduplicates(t *testing.T) {
	n, err := Parse(`$a[$b] + $a`)
	require.NoError(t, err)
	assert.Equal(t, []string{"$a", "$b"}, Refs(n))
}
