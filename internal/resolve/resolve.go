// Package resolve substitutes export references inside suite data.
package resolve

import (
	"errors"
	"regexp"
	"strings"

	"github.com/roach88/tester/internal/exports"
	"github.com/roach88/tester/internal/expr"
	"github.com/roach88/tester/internal/fault"
)

// referenceToken matches a sigil followed by a run of word characters.
var referenceToken = regexp.MustCompile(`\$\w+`)

// Tokens returns the reference tokens in s, in order of appearance.
func Tokens(s string) []string {
	return referenceToken.FindAllString(s, -1)
}

// Resolver substitutes reference strings with values from an export store.
type Resolver struct {
	store *exports.Store
}

// New creates a resolver reading from store.
func New(store *exports.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns node with every reference string replaced by the value of
// its expression.
//
// Maps and slices are rebuilt element by element, so the input is never
// mutated. Non-string scalars and strings without reference tokens come back
// verbatim. A string with tokens is evaluated as a whole, and its result,
// which may be any type, replaces the string.
func (r *Resolver) Resolve(node any) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			resolved, err := r.Resolve(elem)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			resolved, err := r.Resolve(elem)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case string:
		return r.ResolveString(v)
	default:
		return node, nil
	}
}

// ResolveString resolves a single string.
func (r *Resolver) ResolveString(s string) (any, error) {
	if !strings.Contains(s, exports.Sigil) {
		return s, nil
	}
	tokens := Tokens(s)
	if len(tokens) == 0 {
		return s, nil
	}

	// Every referenced export must exist before anything is evaluated.
	for _, tok := range tokens {
		if !r.store.Has(tok) {
			return nil, fault.New(fault.CodeUndefinedReference, tok,
				"reference %s in %q is not defined", tok, s)
		}
	}

	result, err := expr.Evaluate(s, r.store)
	if err != nil {
		var ue *expr.UndefinedRefError
		if errors.As(err, &ue) {
			return nil, fault.Wrap(fault.CodeUndefinedReference, ue.Name, err, "cannot evaluate %q", s)
		}
		return nil, fault.Wrap(fault.CodeUnevaluable, s, err, "cannot evaluate %q", s)
	}
	return result, nil
}
