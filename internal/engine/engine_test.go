package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tester/internal/assertion"
	"github.com/roach88/tester/internal/command"
	"github.com/roach88/tester/internal/exports"
	"github.com/roach88/tester/internal/fault"
	"github.com/roach88/tester/internal/harness"
	"github.com/roach88/tester/internal/suite"
	"github.com/roach88/tester/internal/value"
)

func testRegistry() *command.Registry {
	r := command.NewRegistry()
	r.Register(
		command.Command{Name: "general", Handler: func(_ context.Context, input any) (any, error) {
			return input, nil
		}},
		command.Command{Name: "error", Handler: func(_ context.Context, input any) (any, error) {
			msg, _ := input.(string)
			return nil, errors.New(msg)
		}},
	)
	return r
}

func eq(v any) []assertion.Assertion {
	return []assertion.Assertion{{Assert: assertion.KindEqual, Value: v}}
}

type fixture struct {
	runner   *harness.Runner
	store    *exports.Store
	walker   *Walker
	outcomes []Outcome
}

func newFixture() *fixture {
	f := &fixture{runner: harness.NewRunner(harness.Config{}), store: exports.New()}
	f.walker = New(f.runner, testRegistry(), f.store, WithObserver(func(o Outcome) {
		f.outcomes = append(f.outcomes, o)
	}))
	return f
}

func (f *fixture) run(t *testing.T, nodes ...suite.Node) harness.Results {
	t.Helper()
	f.walker.Walk(nodes...)
	return f.runner.Run(context.Background())
}

func TestWalk_TreeShape(t *testing.T) {
	f := newFixture()
	results := f.run(t,
		&suite.Description{Description: "outer", Testcases: []suite.Node{
			&suite.Testcase{Test: "a", Command: "general", InputData: 1, ExpectedData: eq(1)},
			&suite.Description{Description: "inner", Testcases: []suite.Node{
				&suite.Testcase{Test: "b", Command: "general", InputData: 2, ExpectedData: eq(2)},
			}},
			&suite.Testcase{Test: "skipped", Command: "missing", Skip: true},
		}},
		&suite.Testcase{Test: "top", Command: "general", InputData: "x", ExpectedData: eq("x")},
	)

	require.True(t, results.OK(), "%v", results.Failures)
	var ids []string
	for _, r := range results.Tests {
		ids = append(ids, r.TestID.String())
	}
	assert.Equal(t, []string{"outer/a", "outer/inner/b", "outer/skipped", "top"}, ids)
	require.Len(t, results.Skipped, 1)

	require.Len(t, f.outcomes, 3)
	assert.Equal(t, []string{"outer", "inner", "b"}, f.outcomes[1].Path)
}

func TestRunCase_AbsentInputIsUndefined(t *testing.T) {
	f := newFixture()
	tc := &suite.Testcase{Test: "t", Command: "general", ExpectedData: []assertion.Assertion{{Assert: assertion.KindUndefined}}}
	require.NoError(t, f.walker.RunCase(context.Background(), []string{"t"}, tc))
	assert.True(t, value.IsUndefined(f.outcomes[0].Input))
}

func TestRunCase_ExplicitNullInput(t *testing.T) {
	f := newFixture()
	tc := &suite.Testcase{Test: "t", Command: "general", HasInput: true,
		ExpectedData: []assertion.Assertion{{Assert: assertion.KindTypeOf, Value: "object"}}}
	require.NoError(t, f.walker.RunCase(context.Background(), []string{"t"}, tc))
	require.Len(t, f.outcomes, 1)
	assert.Nil(t, f.outcomes[0].Input)
	assert.Nil(t, f.outcomes[0].Output)
}

func TestRunCase_NullAndAbsentInputFromSuite(t *testing.T) {
	nodes, err := suite.Parse([]any{
		map[string]any{"test": "null", "command": "general", "inputData": nil,
			"expectedData": map[string]any{"assert": "notUndefined"}},
		map[string]any{"test": "absent", "command": "general",
			"expectedData": map[string]any{"assert": "undefined"}},
	})
	require.NoError(t, err)

	f := newFixture()
	results := f.run(t, nodes...)
	require.True(t, results.OK(), "%v", results.Failures)
	require.Len(t, f.outcomes, 2)
	assert.Nil(t, f.outcomes[0].Input)
	assert.True(t, value.IsUndefined(f.outcomes[1].Input))
}

func TestRunCase_UnknownAssertionListsKinds(t *testing.T) {
	f := newFixture()
	tc := &suite.Testcase{Test: "t", Command: "general", ExpectedData: []assertion.Assertion{{Assert: "equals"}}}
	err := f.walker.RunCase(context.Background(), []string{"t"}, tc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(assertion.KindNotEqual))
}

func TestRunCase_UnregisteredCommandNotObservedAsRaised(t *testing.T) {
	f := newFixture()
	tc := &suite.Testcase{Test: "t", Command: "nope", ExpectedData: []assertion.Assertion{{Assert: assertion.KindError}}}
	err := f.walker.RunCase(context.Background(), []string{"t"}, tc)
	require.Error(t, err)
	assert.True(t, fault.HasCode(err, fault.CodeMissingCommand))
	require.Len(t, f.outcomes, 1)
	assert.NoError(t, f.outcomes[0].Err)
}

func TestRunCase_ExportsFlowIntoLaterCases(t *testing.T) {
	f := newFixture()
	results := f.run(t,
		&suite.Testcase{
			Test: "export", Command: "general",
			InputData:    map[string]any{"foo": "bar"},
			ExportData:   "output",
			ExpectedData: []assertion.Assertion{{Assert: assertion.KindTypeOf, Value: "object"}},
		},
		&suite.Testcase{
			Test: "use", Command: "general",
			InputData:    "$output.foo",
			ExpectedData: eq("$output.foo"),
		},
		&suite.Testcase{
			Test: "advanced", Command: "general",
			InputData:    []any{"$output", map[string]any{"foo": "$output.foo"}},
			ExpectedData: eq([]any{map[string]any{"foo": "bar"}, map[string]any{"foo": "bar"}}),
		},
	)
	require.True(t, results.OK(), "%v", results.Failures)

	got, ok := f.store.Read("$output")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"foo": "bar"}, got)
}

func TestRunCase_NoExportOnFailure(t *testing.T) {
	f := newFixture()
	tc := &suite.Testcase{Test: "t", Command: "general", InputData: 1, ExportData: "out", ExpectedData: eq(2)}
	err := f.walker.RunCase(context.Background(), []string{"t"}, tc)
	assert.True(t, assertion.IsFailure(err))
	assert.False(t, f.store.Has("$out"))
}

func TestRunCase_FrameworkErrors(t *testing.T) {
	tests := []struct {
		name string
		tc   *suite.Testcase
		code fault.Code
	}{
		{"unknown assertion", &suite.Testcase{Command: "general", ExpectedData: []assertion.Assertion{{Assert: "some_assert"}}}, fault.CodeUnknownAssertion},
		{"invalid export", &suite.Testcase{Command: "general", ExportData: "1output", ExpectedData: []assertion.Assertion{{Assert: assertion.KindOK}}}, fault.CodeInvalidExport},
		{"undefined reference", &suite.Testcase{Command: "general", InputData: "$1output", ExpectedData: []assertion.Assertion{{Assert: assertion.KindOK}}}, fault.CodeUndefinedReference},
		{"missing command", &suite.Testcase{ExpectedData: []assertion.Assertion{{Assert: assertion.KindOK}}}, fault.CodeMissingCommand},
		{"unregistered command", &suite.Testcase{Command: "nope", ExpectedData: []assertion.Assertion{{Assert: assertion.KindOK}}}, fault.CodeMissingCommand},
		{"missing expected", &suite.Testcase{Command: "general"}, fault.CodeMissingExpected},
		{"unresolvable expected", &suite.Testcase{Command: "general", ExpectedData: eq("$nothing")}, fault.CodeUndefinedReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.tc.Test = tt.name
			err := f.walker.RunCase(context.Background(), []string{tt.name}, tt.tc)
			require.Error(t, err)
			assert.True(t, fault.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestRunCase_Unevaluable(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.store.Write("output", map[string]any{"foo": "bar"}))
	tc := &suite.Testcase{Test: "t", Command: "general", InputData: "$output()", ExpectedData: []assertion.Assertion{{Assert: assertion.KindOK}}}
	err := f.walker.RunCase(context.Background(), []string{"t"}, tc)
	assert.True(t, fault.HasCode(err, fault.CodeUnevaluable), "got %v", err)
}

func TestRunCase_ErrorPaths(t *testing.T) {
	tests := []struct {
		name  string
		tc    *suite.Testcase
		pass  bool
		check func(t *testing.T, err error)
	}{
		{
			name: "expected error without value",
			tc:   &suite.Testcase{Command: "error", InputData: "boom", ExpectedData: []assertion.Assertion{{Assert: assertion.KindError}}},
			pass: true,
		},
		{
			name: "expected error with matching message",
			tc:   &suite.Testcase{Command: "error", InputData: "boom", ExpectedData: []assertion.Assertion{{Assert: assertion.KindError, Value: "boom"}}},
			pass: true,
		},
		{
			name: "expected error with message key",
			tc:   &suite.Testcase{Command: "error", InputData: "boom", ExpectedData: []assertion.Assertion{{Assert: assertion.KindError, Key: "message", Value: "boom"}}},
			pass: true,
		},
		{
			name: "expected error with other message",
			tc:   &suite.Testcase{Command: "error", InputData: "boom", ExpectedData: []assertion.Assertion{{Assert: assertion.KindError, Value: "bang"}}},
			check: func(t *testing.T, err error) {
				assert.True(t, assertion.IsFailure(err))
			},
		},
		{
			name: "error against ok",
			tc:   &suite.Testcase{Command: "error", InputData: "boom", ExpectedData: []assertion.Assertion{{Assert: assertion.KindOK}}},
			check: func(t *testing.T, err error) {
				require.True(t, IsUnexpected(err))
				assert.Contains(t, err.Error(), "boom")
				assert.EqualError(t, errors.Unwrap(err), "boom")
			},
		},
		{
			name: "error against equal",
			tc:   &suite.Testcase{Command: "error", InputData: "boom", ExpectedData: eq("boom")},
			check: func(t *testing.T, err error) {
				assert.True(t, IsUnexpected(err))
			},
		},
		{
			name: "mixed error and other kinds",
			tc: &suite.Testcase{Command: "error", InputData: "boom", ExpectedData: []assertion.Assertion{
				{Assert: assertion.KindError}, {Assert: assertion.KindOK},
			}},
			check: func(t *testing.T, err error) {
				assert.True(t, IsUnexpected(err))
			},
		},
		{
			name: "success against error",
			tc:   &suite.Testcase{Command: "general", InputData: "fine", ExpectedData: []assertion.Assertion{{Assert: assertion.KindError}}},
			check: func(t *testing.T, err error) {
				assert.True(t, assertion.IsFailure(err))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.tc.Test = tt.name
			err := f.walker.RunCase(context.Background(), []string{tt.name}, tt.tc)
			if tt.pass {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestRunCase_ContextReachesHandler(t *testing.T) {
	r := command.NewRegistry()
	type key struct{}
	r.Register(command.Command{Name: "ctx", Handler: func(ctx context.Context, _ any) (any, error) {
		return ctx.Value(key{}), nil
	}})
	w := New(harness.NewRunner(harness.Config{}), r, exports.New())
	ctx := context.WithValue(context.Background(), key{}, "carried")
	tc := &suite.Testcase{Test: "t", Command: "ctx", ExpectedData: eq("carried")}
	assert.NoError(t, w.RunCase(ctx, []string{"t"}, tc))
}
