package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"
)

// Config holds options for a Runner.
type Config struct {
	// Filter selects which cases run. Excluded cases are reported as
	// skipped.
	Filter Filter

	// TestLogger receives progress events. Defaults to a silent logger.
	TestLogger TestLogger

	// Logger receives structured diagnostics.
	Logger *slog.Logger

	// Now reads the clock used for case durations. Defaults to time.Now.
	Now func() time.Time
}

type caseEntry struct {
	id      TestID
	fn      CaseFunc
	skipped bool
}

// Runner is the native sequential Adapter.
//
// Runner is not safe for concurrent use. Groups and cases are registered
// from the calling goroutine and Run executes them on it.
type Runner struct {
	config Config
	prefix TestID
	cases  []caseEntry
	before []HookFunc
	after  []HookFunc
}

var _ Adapter = (*Runner)(nil)

// NewRunner creates a Runner.
func NewRunner(config Config) *Runner {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Runner{config: config}
}

// Group runs body immediately with name appended to the current path.
func (r *Runner) Group(name string, body func()) {
	saved := r.prefix
	r.prefix = r.prefix.Plus(name)
	defer func() { r.prefix = saved }()
	body()
}

// Case registers a case under the current path.
func (r *Runner) Case(name string, fn CaseFunc) {
	r.cases = append(r.cases, caseEntry{id: r.prefix.Plus(name), fn: fn})
}

// SkippedCase registers a case that is reported as skipped.
func (r *Runner) SkippedCase(name string) {
	r.cases = append(r.cases, caseEntry{id: r.prefix.Plus(name), skipped: true})
}

// BeforeAll registers a hook to run before the first case.
func (r *Runner) BeforeAll(fn HookFunc) {
	r.before = append(r.before, fn)
}

// AfterAll registers a hook to run after the last case.
func (r *Runner) AfterAll(fn HookFunc) {
	r.after = append(r.after, fn)
}

// Len returns the number of registered cases.
func (r *Runner) Len() int {
	return len(r.cases)
}

// Run executes the registered hooks and cases.
//
// A failing before-hook is recorded as a failure and no cases run; the
// after-hooks still do. Once ctx is done, remaining cases are reported as
// skipped.
func (r *Runner) Run(ctx context.Context) Results {
	var results Results
	log := r.config.Logger
	log.Info("run started", "cases", len(r.cases))

	setupFailed := false
	for i, hook := range r.before {
		id := TestID{fmt.Sprintf("before all #%d", i+1)}
		res := r.execute(ctx, id, CaseFunc(hook))
		if res.Status == StatusFailed {
			results.add(res)
			setupFailed = true
			break
		}
	}

	for _, c := range r.cases {
		var res TestResult
		switch {
		case setupFailed:
			res = r.skip(c.id, "before all hook failed")
		case c.skipped:
			res = r.skip(c.id, "")
		case r.config.Filter != nil && !r.config.Filter.Match(c.id):
			res = r.skip(c.id, "excluded by filter parameters")
		case ctx.Err() != nil:
			res = r.skip(c.id, ctx.Err().Error())
		default:
			r.config.TestLogger.TestStarted(c.id)
			res = r.execute(ctx, c.id, c.fn)
			r.config.TestLogger.TestFinished(c.id, res.Status == StatusFailed, res.Duration)
		}
		log.Debug("case finished", "id", c.id.String(), "status", res.Status)
		results.add(res)
	}

	for i, hook := range r.after {
		id := TestID{fmt.Sprintf("after all #%d", i+1)}
		if res := r.execute(context.WithoutCancel(ctx), id, CaseFunc(hook)); res.Status == StatusFailed {
			results.add(res)
		}
	}

	log.Info("run finished",
		"tests", len(results.Tests),
		"failures", len(results.Failures),
		"skipped", len(results.Skipped))
	return results
}

func (r *Runner) skip(id TestID, reason string) TestResult {
	r.config.TestLogger.TestSkipped(id, reason)
	return TestResult{TestID: id, Status: StatusSkipped, SkipReason: reason}
}

// execute runs fn, converting a panic into a failure.
func (r *Runner) execute(ctx context.Context, id TestID, fn CaseFunc) (res TestResult) {
	res.TestID = id
	start := r.config.Now()
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("unexpected panic in test: %+v\n%s", p, debug.Stack())
			res.Errors = append(res.Errors, err)
			r.config.TestLogger.TestError(id, err)
		}
		res.Duration = r.config.Now().Sub(start)
		if len(res.Errors) > 0 {
			res.Status = StatusFailed
		} else {
			res.Status = StatusPassed
		}
	}()

	if err := fn(ctx); err != nil {
		res.Errors = append(res.Errors, err)
		r.config.TestLogger.TestError(id, err)
	}
	return res
}
