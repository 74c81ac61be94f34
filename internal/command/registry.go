// Package command maps command names to the handlers that testcases invoke.
package command

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/roach88/tester/internal/fault"
)

// Handler executes a command. It receives the resolved inputData (which is
// value.Undefined when the testcase declares none) and produces exactly one
// outcome: a value or an error.
type Handler func(ctx context.Context, input any) (any, error)

// Command binds a name to a handler.
type Command struct {
	Name    string
	Handler Handler
}

// Registry is the command table for one test run.
//
// Registering a name twice replaces the earlier handler, which lets fixtures
// override defaults. Entries are never removed.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds commands. A later registration of the same name wins.
func (r *Registry) Register(cmds ...Command) {
	for _, c := range cmds {
		r.handlers[c.Name] = c.Handler
	}
}

// Use is an alias of Register.
func (r *Registry) Use(cmds ...Command) {
	r.Register(cmds...)
}

// Lookup returns the handler for name. Unknown names are a framework error.
func (r *Registry) Lookup(name string) (Handler, error) {
	h, ok := r.handlers[name]
	if !ok || h == nil {
		return nil, fault.New(fault.CodeMissingCommand, name, "command %q is not registered (registered: %s)", name, strings.Join(r.Names(), ", "))
	}
	return h, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Invoke looks up name and runs its handler. A panicking handler is reported
// as an error raised by the command.
func (r *Registry) Invoke(ctx context.Context, name string, input any) (out any, err error) {
	h, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = &Error{Message: fmt.Sprintf("command %q panicked: %v\n%s", name, p, debug.Stack())}
		}
	}()
	return h(ctx, input)
}
