package harness

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CaseFunc is the body of a test case. A non-nil error fails the case.
type CaseFunc func(ctx context.Context) error

// HookFunc runs once before the first case or after the last one.
type HookFunc func(ctx context.Context) error

// Adapter is what the engine registers groups and cases with.
type Adapter interface {
	Group(name string, body func())
	Case(name string, fn CaseFunc)
	SkippedCase(name string)
	BeforeAll(fn HookFunc)
	AfterAll(fn HookFunc)
}

// TestID is the path of a case: enclosing group names followed by the case
// name.
type TestID []string

func (t TestID) String() string {
	return strings.Join(t, "/")
}

// Plus returns a copy of t extended with name.
func (t TestID) Plus(name string) TestID {
	return append(append(TestID(nil), t...), name)
}

// Status is the terminal state of a case.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// TestResult is the outcome of one case or hook.
type TestResult struct {
	TestID     TestID
	Status     Status
	Errors     []error
	SkipReason string
	Duration   time.Duration
}

// Results collects every outcome of a run in execution order.
type Results struct {
	Tests    []TestResult
	Failures []TestResult
	Skipped  []TestResult
}

// OK reports whether nothing failed.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Passed counts passing cases.
func (r Results) Passed() int {
	n := 0
	for _, t := range r.Tests {
		if t.Status == StatusPassed {
			n++
		}
	}
	return n
}

// Find returns the result recorded for id.
func (r Results) Find(id string) (TestResult, bool) {
	for _, t := range r.Tests {
		if t.TestID.String() == id {
			return t, true
		}
	}
	return TestResult{}, false
}

func (r *Results) add(res TestResult) {
	r.Tests = append(r.Tests, res)
	switch res.Status {
	case StatusFailed:
		r.Failures = append(r.Failures, res)
	case StatusSkipped:
		r.Skipped = append(r.Skipped, res)
	}
}

// TestFailure pairs a case with one of its errors.
type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

func (f TestFailure) Unwrap() error {
	return f.Err
}
