// Package tester runs declarative test suites.
//
// A suite is a tree of descriptions and testcases. Each testcase names a
// command, the input to call it with, the assertions its outcome must
// satisfy and optionally an export name under which later testcases can
// reference the result as $name:
//
//	t := tester.New()
//	t.Use(command.Command{Name: "add", Handler: add})
//	t.Test(&suite.Description{
//		Description: "math",
//		Testcases: []suite.Node{
//			&suite.Testcase{
//				Test:         "adds",
//				Command:      "add",
//				InputData:    []any{1.0, 2.0},
//				ExpectedData: []assertion.Assertion{{Assert: assertion.KindEqual, Value: 3.0}},
//				ExportData:   "sum",
//			},
//		},
//	})
//	results := t.Run(ctx, harness.Config{})
//
// Under go test, RunT maps groups and cases onto subtests instead.
package tester

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/roach88/tester/internal/command"
	"github.com/roach88/tester/internal/engine"
	"github.com/roach88/tester/internal/env"
	"github.com/roach88/tester/internal/exports"
	"github.com/roach88/tester/internal/harness"
	"github.com/roach88/tester/internal/plugins/builtin"
	"github.com/roach88/tester/internal/suite"
)

// Tester collects commands, suites and hooks and registers them with a
// harness. Exports written by one suite are visible to every later suite
// of the same Tester.
type Tester struct {
	registry *command.Registry
	store    *exports.Store
	env      *env.Env
	logger   *slog.Logger
	observer engine.Observer
	builtins bool
	client   *http.Client

	suites [][]suite.Node
	before []harness.HookFunc
	after  []harness.HookFunc
}

// Option configures a Tester.
type Option func(*Tester)

// WithLogger sets the structured logger passed to the walker.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tester) {
		t.logger = l
	}
}

// WithEnv replaces the environment Get and Set operate on.
func WithEnv(e *env.Env) Option {
	return func(t *Tester) {
		t.env = e
	}
}

// WithObserver receives the outcome of every executed testcase.
func WithObserver(o engine.Observer) Option {
	return func(t *Tester) {
		t.observer = o
	}
}

// WithBuiltins registers the builtin commands. client backs http.get and
// may be nil.
func WithBuiltins(client *http.Client) Option {
	return func(t *Tester) {
		t.builtins = true
		t.client = client
	}
}

// New creates a Tester with an empty registry and export store.
func New(opts ...Option) *Tester {
	t := &Tester{
		registry: command.NewRegistry(),
		store:    exports.New(),
		env:      env.New(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.builtins {
		t.registry.Register(builtin.Commands(t.env, t.client)...)
	}
	return t
}

// Use registers commands. A later command with the same name replaces an
// earlier one.
func (t *Tester) Use(cmds ...command.Command) {
	t.registry.Register(cmds...)
}

// Test queues a suite.
func (t *Tester) Test(nodes ...suite.Node) {
	t.suites = append(t.suites, nodes)
}

// BeforeTest registers a hook that runs once before the first testcase.
func (t *Tester) BeforeTest(fn harness.HookFunc) {
	t.before = append(t.before, fn)
}

// AfterTest registers a hook that runs once after the last testcase.
func (t *Tester) AfterTest(fn harness.HookFunc) {
	t.after = append(t.after, fn)
}

// Get returns an environment value, overrides first.
func (t *Tester) Get(key string) any {
	return t.env.Get(key)
}

// Set overrides an environment value.
func (t *Tester) Set(key string, value any) {
	t.env.Set(key, value)
}

// Env returns the environment handlers and hooks share.
func (t *Tester) Env() *env.Env {
	return t.env
}

// Registry returns the command registry.
func (t *Tester) Registry() *command.Registry {
	return t.registry
}

// Exports returns the export store.
func (t *Tester) Exports() *exports.Store {
	return t.store
}

// Register hands the hooks and queued suites to a.
func (t *Tester) Register(a harness.Adapter) {
	for _, fn := range t.before {
		a.BeforeAll(fn)
	}
	for _, fn := range t.after {
		a.AfterAll(fn)
	}
	opts := []engine.Option{engine.WithLogger(t.logger)}
	if t.observer != nil {
		opts = append(opts, engine.WithObserver(t.observer))
	}
	w := engine.New(a, t.registry, t.store, opts...)
	for _, nodes := range t.suites {
		w.Walk(nodes...)
	}
}

// Run executes everything on a native Runner.
func (t *Tester) Run(ctx context.Context, config harness.Config) harness.Results {
	if config.Logger == nil {
		config.Logger = t.logger
	}
	r := harness.NewRunner(config)
	t.Register(r)
	return r.Run(ctx)
}

// RunT executes everything as subtests of tt.
func (t *Tester) RunT(tt *testing.T) {
	t.Register(harness.NewTesting(tt))
}
