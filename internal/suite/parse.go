package suite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/tester/internal/assertion"
	"github.com/roach88/tester/internal/fault"
	"github.com/roach88/tester/internal/value"
)

var (
	descriptionFields = fieldSet("description", "testcases")
	testcaseFields    = fieldSet("test", "command", "inputData", "expectedData", "exportData", "skip")
	assertionFields   = fieldSet("assert", "key", "value", "message")
)

func fieldSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Parse converts decoded suite data into nodes. raw is either a list of
// nodes or a single node, as produced by a YAML, JSON or CUE decoder.
// Unknown fields are rejected.
func Parse(raw any) ([]Node, error) {
	raw = value.MustNormalize(raw)
	switch v := raw.(type) {
	case []any:
		return parseNodes(v, "")
	case map[string]any:
		n, err := parseNode(v, "")
		if err != nil {
			return nil, err
		}
		return []Node{n}, nil
	}
	return nil, invalid("", "suite must be a list of nodes or a single node, got %s", value.TypeOf(raw))
}

func parseNodes(list []any, at string) ([]Node, error) {
	nodes := make([]Node, 0, len(list))
	for i, item := range list {
		loc := fmt.Sprintf("%s/%d", at, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, invalid(loc, "node must be an object, got %s", value.TypeOf(item))
		}
		n, err := parseNode(m, loc)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func parseNode(m map[string]any, at string) (Node, error) {
	_, isDesc := m["description"]
	_, isTest := m["test"]
	switch {
	case isDesc && isTest:
		return nil, invalid(at, "node has both description and test")
	case isDesc:
		return parseDescription(m, at)
	case isTest:
		return parseTestcase(m, at)
	}
	return nil, invalid(at, "node needs a description or a test field")
}

func parseDescription(m map[string]any, at string) (*Description, error) {
	if err := checkFields(m, descriptionFields, at); err != nil {
		return nil, err
	}
	name, err := stringField(m, "description", at)
	if err != nil {
		return nil, err
	}
	d := &Description{Description: name}

	children, ok := m["testcases"]
	if !ok || children == nil {
		return d, nil
	}
	list, ok := children.([]any)
	if !ok {
		return nil, invalid(at+"/testcases", "testcases must be a list, got %s", value.TypeOf(children))
	}
	d.Testcases, err = parseNodes(list, at+"/testcases")
	if err != nil {
		return nil, err
	}
	return d, nil
}

func parseTestcase(m map[string]any, at string) (*Testcase, error) {
	if err := checkFields(m, testcaseFields, at); err != nil {
		return nil, err
	}
	tc := &Testcase{}
	var err error
	if tc.Test, err = stringField(m, "test", at); err != nil {
		return nil, err
	}
	if tc.Command, err = stringField(m, "command", at); err != nil {
		return nil, err
	}
	if tc.ExportData, err = stringField(m, "exportData", at); err != nil {
		return nil, err
	}
	if s, ok := m["skip"]; ok && s != nil {
		b, ok := s.(bool)
		if !ok {
			return nil, invalid(at+"/skip", "skip must be a boolean, got %s", value.TypeOf(s))
		}
		tc.Skip = b
	}
	tc.InputData, tc.HasInput = m["inputData"]

	if exp, ok := m["expectedData"]; ok && exp != nil {
		tc.ExpectedData, err = parseAssertions(exp, at+"/expectedData")
		if err != nil {
			return nil, err
		}
	}
	return tc, nil
}

// parseAssertions accepts one assertion object or a list of them.
func parseAssertions(raw any, at string) ([]assertion.Assertion, error) {
	switch v := raw.(type) {
	case map[string]any:
		a, err := parseAssertion(v, at)
		if err != nil {
			return nil, err
		}
		return []assertion.Assertion{a}, nil
	case []any:
		out := make([]assertion.Assertion, 0, len(v))
		for i, item := range v {
			loc := fmt.Sprintf("%s/%d", at, i)
			m, ok := item.(map[string]any)
			if !ok {
				return nil, invalid(loc, "assertion must be an object, got %s", value.TypeOf(item))
			}
			a, err := parseAssertion(m, loc)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
		return out, nil
	}
	return nil, invalid(at, "expectedData must be an object or a list, got %s", value.TypeOf(raw))
}

func parseAssertion(m map[string]any, at string) (assertion.Assertion, error) {
	if err := checkFields(m, assertionFields, at); err != nil {
		return assertion.Assertion{}, err
	}
	kind, err := stringField(m, "assert", at)
	if err != nil {
		return assertion.Assertion{}, err
	}
	if kind == "" {
		return assertion.Assertion{}, invalid(at, "assertion needs an assert field")
	}
	key, err := stringField(m, "key", at)
	if err != nil {
		return assertion.Assertion{}, err
	}
	msg, err := stringField(m, "message", at)
	if err != nil {
		return assertion.Assertion{}, err
	}
	v, present := m["value"]
	return assertion.Assertion{
		Assert:  assertion.Kind(kind),
		Key:     key,
		Value:   v,
		Message: msg,
		Null:    present && v == nil,
	}, nil
}

func checkFields(m map[string]any, allowed map[string]bool, at string) error {
	var unknown []string
	for k := range m {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return invalid(at, "unknown field(s) %s", strings.Join(unknown, ", "))
}

func stringField(m map[string]any, name, at string) (string, error) {
	v, ok := m[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", invalid(at+"/"+name, "%s must be a string, got %s", name, value.TypeOf(v))
	}
	return s, nil
}

func invalid(at, format string, args ...any) *fault.Error {
	if at == "" {
		at = "/"
	}
	return fault.New(fault.CodeInvalidSuite, at, "%s: %s", at, fmt.Sprintf(format, args...))
}
