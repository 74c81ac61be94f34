// Package suite defines the data model of declarative test suites and
// loads them from YAML, JSON and CUE files.
//
// A suite is a forest of nodes. A Description groups further nodes under a
// name; a Testcase is a leaf that invokes one command and checks its
// outcome. Node is sealed: those two types are its only implementations.
package suite

import (
	"strings"

	"github.com/roach88/tester/internal/assertion"
)

// Node is either a *Description or a *Testcase.
type Node interface {
	Name() string
	node()
}

// Description is a named group of nodes. Groups nest without limit.
type Description struct {
	Description string
	Testcases   []Node
}

// Testcase is one executable leaf.
type Testcase struct {
	Test    string
	Command string

	// InputData is resolved against the export store before the command
	// runs. nil means no input was declared unless HasInput is set, in
	// which case the input is an explicit null.
	InputData any
	HasInput  bool

	ExpectedData []assertion.Assertion

	// ExportData names the export that receives the command's result.
	ExportData string

	Skip bool
}

// Name returns the group title.
func (d *Description) Name() string { return d.Description }

// Name returns the test title.
func (t *Testcase) Name() string { return t.Test }

func (*Description) node() {}
func (*Testcase) node()    {}

// ExpectsError reports whether every assertion is of kind error.
func (t *Testcase) ExpectsError() bool {
	if len(t.ExpectedData) == 0 {
		return false
	}
	for _, a := range t.ExpectedData {
		if a.Assert != assertion.KindError {
			return false
		}
	}
	return true
}

// Visit calls fn for every node in depth-first pre-order. path holds the
// names of the enclosing descriptions followed by the node's own name.
func Visit(nodes []Node, fn func(path []string, n Node)) {
	visit(nil, nodes, fn)
}

func visit(prefix []string, nodes []Node, fn func([]string, Node)) {
	for _, n := range nodes {
		path := append(append([]string(nil), prefix...), n.Name())
		fn(path, n)
		if d, ok := n.(*Description); ok {
			visit(path, d.Testcases, fn)
		}
	}
}

// Count returns the number of testcases in nodes, skipped ones included.
func Count(nodes []Node) int {
	n := 0
	Visit(nodes, func(_ []string, node Node) {
		if _, ok := node.(*Testcase); ok {
			n++
		}
	})
	return n
}

// JoinPath renders a node path the way test IDs print.
func JoinPath(path []string) string {
	return strings.Join(path, "/")
}
