package suite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/tester/internal/assertion"
	"github.com/roach88/tester/internal/exports"
	"github.com/roach88/tester/internal/expr"
	"github.com/roach88/tester/internal/fault"
	"github.com/roach88/tester/internal/resolve"
)

// ValidationError describes one static problem in a suite.
type ValidationError struct {
	Path    string     `json:"path"`
	Code    fault.Code `json:"code"`
	Message string     `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
}

// Validate checks nodes without running anything and returns every problem
// found. known reports whether a command name is registered; nil skips that
// check.
//
// References are checked against the exports that earlier, non-skipped
// testcases declare, in execution order.
func Validate(nodes []Node, known func(string) bool) []ValidationError {
	v := &validator{known: known, exported: make(map[string]bool)}
	Visit(nodes, func(path []string, n Node) {
		if tc, ok := n.(*Testcase); ok {
			v.testcase(JoinPath(path), tc)
		}
	})
	return v.errs
}

type validator struct {
	known    func(string) bool
	exported map[string]bool
	errs     []ValidationError
}

func (v *validator) add(path string, code fault.Code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Path: path, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) testcase(path string, tc *Testcase) {
	if tc.Skip {
		return
	}
	switch {
	case tc.Command == "":
		v.add(path, fault.CodeMissingCommand, "testcase has no command")
	case v.known != nil && !v.known(tc.Command):
		v.add(path, fault.CodeMissingCommand, "command %q is not registered", tc.Command)
	}

	if len(tc.ExpectedData) == 0 {
		v.add(path, fault.CodeMissingExpected, "testcase has no expectedData")
	}
	for i, a := range tc.ExpectedData {
		at := fmt.Sprintf("%s#expectedData[%d]", path, i)
		if !assertion.Known(a.Assert) {
			v.add(at, fault.CodeUnknownAssertion, "unknown assertion %q", a.Assert)
		}
		if a.Key != "" {
			if _, err := expr.ParsePath(a.Key); err != nil {
				v.add(at, fault.CodeInvalidKey, "invalid key %q: %v", a.Key, err)
			}
		}
		v.references(at, a.Value)
	}

	v.references(path+"#inputData", tc.InputData)

	if tc.ExportData != "" {
		if !exports.ValidIdentifier(tc.ExportData) {
			v.add(path, fault.CodeInvalidExport, "export name %q is not a valid identifier", tc.ExportData)
		} else {
			v.exported[exports.Key(tc.ExportData)] = true
		}
	}
}

// references walks data and checks every string holding reference tokens.
func (v *validator) references(path string, data any) {
	switch d := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v.references(path, d[k])
		}
	case []any:
		for _, elem := range d {
			v.references(path, elem)
		}
	case string:
		tokens := resolve.Tokens(d)
		if len(tokens) == 0 {
			return
		}
		var missing []string
		for _, tok := range tokens {
			if !v.exported[tok] {
				missing = append(missing, tok)
			}
		}
		if len(missing) > 0 {
			v.add(path, fault.CodeUndefinedReference, "%q references %s before any testcase exports it", d, strings.Join(missing, ", "))
		}
		if _, err := expr.Parse(d); err != nil {
			v.add(path, fault.CodeUnevaluable, "%q cannot be evaluated: %v", d, err)
		}
	}
}
