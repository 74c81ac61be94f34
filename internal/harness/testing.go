package harness

import (
	"context"
	"testing"
)

// Testing adapts *testing.T. Groups and cases become subtests and run as
// soon as they are registered.
type Testing struct {
	stack []*testing.T
	ctx   context.Context
}

var _ Adapter = (*Testing)(nil)

// NewTesting returns an adapter rooted at t.
func NewTesting(t *testing.T) *Testing {
	return &Testing{stack: []*testing.T{t}, ctx: t.Context()}
}

func (a *Testing) current() *testing.T {
	return a.stack[len(a.stack)-1]
}

func (a *Testing) Group(name string, body func()) {
	a.current().Run(name, func(t *testing.T) {
		a.stack = append(a.stack, t)
		defer func() { a.stack = a.stack[:len(a.stack)-1] }()
		body()
	})
}

func (a *Testing) Case(name string, fn CaseFunc) {
	a.current().Run(name, func(t *testing.T) {
		t.Helper()
		if err := fn(t.Context()); err != nil {
			t.Fatal(err)
		}
	})
}

func (a *Testing) SkippedCase(name string) {
	a.current().Run(name, func(t *testing.T) {
		t.Skip("skipped by suite")
	})
}

// BeforeAll runs fn right away. Cases registered afterwards run after it.
func (a *Testing) BeforeAll(fn HookFunc) {
	t := a.current()
	t.Helper()
	if err := fn(a.ctx); err != nil {
		t.Fatalf("before all: %v", err)
	}
}

// AfterAll runs fn when the current test and its subtests finish.
func (a *Testing) AfterAll(fn HookFunc) {
	t := a.current()
	t.Cleanup(func() {
		if err := fn(context.Background()); err != nil {
			t.Errorf("after all: %v", err)
		}
	})
}
