package engine

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/tester/internal/assertion"
	"github.com/roach88/tester/internal/command"
	"github.com/roach88/tester/internal/exports"
	"github.com/roach88/tester/internal/fault"
	"github.com/roach88/tester/internal/harness"
	"github.com/roach88/tester/internal/resolve"
	"github.com/roach88/tester/internal/suite"
	"github.com/roach88/tester/internal/value"
)

// Outcome describes one executed testcase. It is passed to the observer
// after the case body finishes.
type Outcome struct {
	Path    []string
	Command string
	Input   any
	Output  any
	Err     error // the command's own error, if it raised one
	Result  error // what the case body returned
}

// Observer receives case outcomes.
type Observer func(Outcome)

// Walker registers suite trees with a harness adapter.
//
// A Walker is single-threaded: cases run one at a time and each handler
// is awaited before the next case starts, so the export store needs no
// locking.
type Walker struct {
	adapter    harness.Adapter
	registry   *command.Registry
	store      *exports.Store
	resolver   *resolve.Resolver
	dispatcher *assertion.Dispatcher
	classifier *Classifier
	logger     *slog.Logger
	observer   Observer
	path       []string
}

// Option configures a Walker.
type Option func(*Walker)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(w *Walker) {
		w.logger = l
	}
}

// WithObserver sets a callback that receives every case outcome.
func WithObserver(o Observer) Option {
	return func(w *Walker) {
		w.observer = o
	}
}

// New creates a Walker. store may be shared between walkers to carry
// exports across suite files of the same run.
func New(adapter harness.Adapter, registry *command.Registry, store *exports.Store, opts ...Option) *Walker {
	w := &Walker{
		adapter:    adapter,
		registry:   registry,
		store:      store,
		resolver:   resolve.New(store),
		dispatcher: assertion.NewDispatcher(),
		classifier: &Classifier{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk registers nodes in depth-first pre-order.
func (w *Walker) Walk(nodes ...suite.Node) {
	for _, n := range nodes {
		w.walk(n)
	}
}

func (w *Walker) walk(n suite.Node) {
	switch node := n.(type) {
	case *suite.Description:
		w.adapter.Group(node.Description, func() {
			w.path = append(w.path, node.Description)
			defer func() { w.path = w.path[:len(w.path)-1] }()
			w.Walk(node.Testcases...)
		})
	case *suite.Testcase:
		if node.Skip {
			w.adapter.SkippedCase(node.Test)
			return
		}
		path := append(append([]string(nil), w.path...), node.Test)
		w.adapter.Case(node.Test, func(ctx context.Context) error {
			return w.RunCase(ctx, path, node)
		})
	}
}

// RunCase executes one testcase and returns nil when it passes.
func (w *Walker) RunCase(ctx context.Context, path []string, tc *suite.Testcase) error {
	id := suite.JoinPath(path)
	log := w.logger.With("test", id, "command", tc.Command)
	log.Debug("case started")

	outcome := Outcome{Path: path, Command: tc.Command}
	err := w.runCase(ctx, tc, &outcome)
	outcome.Result = err

	switch {
	case err == nil && outcome.Err != nil:
		log.Info("case passed", "outcome", "expected error", "error", outcome.Err.Error())
	case err == nil:
		log.Info("case passed", "outcome", "value")
	case fault.Is(err):
		log.Warn("case failed", "outcome", "framework error", "error", err.Error())
	case IsUnexpected(err):
		log.Info("case failed", "outcome", "unexpected error", "error", err.Error())
	default:
		log.Info("case failed", "error", err.Error())
	}
	if w.observer != nil {
		w.observer(outcome)
	}
	return err
}

func (w *Walker) runCase(ctx context.Context, tc *suite.Testcase, out *Outcome) error {
	if err := checkLeaf(tc); err != nil {
		return err
	}

	input := any(value.Undefined)
	if tc.InputData != nil || tc.HasInput {
		resolved, err := w.resolver.Resolve(tc.InputData)
		if err != nil {
			return err
		}
		input = resolved
	}
	out.Input = input

	result, appErr := w.registry.Invoke(ctx, tc.Command, input)
	if fault.HasCode(appErr, fault.CodeMissingCommand) {
		return appErr
	}

	expected, err := w.resolveExpected(tc.ExpectedData)
	if err != nil {
		return err
	}

	if appErr != nil {
		out.Err = appErr
		return w.classifier.Classify(tc, expected, appErr)
	}
	out.Output = result

	if err := w.dispatcher.ApplyAll(expected, result); err != nil {
		return err
	}
	if tc.ExportData != "" {
		if err := w.store.Write(tc.ExportData, result); err != nil {
			return err
		}
	}
	return nil
}

// checkLeaf rejects testcases that can never pass before anything runs.
func checkLeaf(tc *suite.Testcase) error {
	if tc.Command == "" {
		return fault.New(fault.CodeMissingCommand, tc.Test, "testcase %q has no command", tc.Test)
	}
	if len(tc.ExpectedData) == 0 {
		return fault.New(fault.CodeMissingExpected, tc.Test, "testcase %q has no expectedData", tc.Test)
	}
	for _, a := range tc.ExpectedData {
		if !assertion.Known(a.Assert) {
			return fault.New(fault.CodeUnknownAssertion, string(a.Assert), "unknown assertion %q (known: %s)", a.Assert, knownKinds())
		}
	}
	if tc.ExportData != "" {
		if err := exports.ValidateIdentifier(tc.ExportData); err != nil {
			return err
		}
	}
	return nil
}

// resolveExpected resolves reference tokens in expected values. The
// testcase itself is left untouched.
func (w *Walker) resolveExpected(as []assertion.Assertion) ([]assertion.Assertion, error) {
	out := make([]assertion.Assertion, len(as))
	for i, a := range as {
		if a.HasValue() {
			v, err := w.resolver.Resolve(a.Value)
			if err != nil {
				return nil, err
			}
			a.Value = v
			a.Null = v == nil
		}
		out[i] = a
	}
	return out, nil
}

// Store returns the export store the walker writes to.
func (w *Walker) Store() *exports.Store {
	return w.store
}

func knownKinds() string {
	kinds := assertion.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
