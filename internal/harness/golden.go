package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tester/internal/value"
)

// Snapshot renders results as canonical JSON. Durations are left out so the
// output is stable across runs.
func Snapshot(results Results) ([]byte, error) {
	tests := make([]any, len(results.Tests))
	for i, r := range results.Tests {
		entry := map[string]any{
			"id":     r.TestID.String(),
			"status": string(r.Status),
		}
		if len(r.Errors) > 0 {
			msgs := make([]any, len(r.Errors))
			for j, err := range r.Errors {
				msgs[j] = err.Error()
			}
			entry["errors"] = msgs
		}
		if r.SkipReason != "" {
			entry["skip_reason"] = r.SkipReason
		}
		tests[i] = entry
	}
	return value.MarshalCanonical(map[string]any{
		"tests": tests,
		"summary": map[string]any{
			"tests":    len(results.Tests),
			"passed":   results.Passed(),
			"failures": len(results.Failures),
			"skipped":  len(results.Skipped),
		},
	})
}

// RunWithGolden runs r and compares the snapshot against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func RunWithGolden(t *testing.T, name string, r *Runner) Results {
	t.Helper()
	results := r.Run(t.Context())
	AssertGolden(t, name, results)
	return results
}

// AssertGolden compares already collected results against a golden file.
func AssertGolden(t *testing.T, name string, results Results) {
	t.Helper()
	data, err := Snapshot(results)
	if err != nil {
		t.Fatalf("snapshot %s: %v", name, err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
