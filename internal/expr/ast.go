package expr

// Node is an expression AST node.
type Node interface {
	// Pos returns the byte offset of the node in the source.
	Pos() int
	node()
}

// Ref is a sigil-prefixed reference such as "$output".
type Ref struct {
	Name string // includes the "$" sigil
	At   int
}

// Literal is a string, number, boolean, null or undefined constant.
type Literal struct {
	Value any
	At    int
}

// Member is a ".name" property access.
type Member struct {
	Object   Node
	Property string
	At       int
}

// Index is a "[expr]" property access.
type Index struct {
	Object Node
	Index  Node
	At     int
}

// Call is a "(args)" call suffix.
type Call struct {
	Func Node
	Args []Node
	At   int
}

// Concat is a "+" between two operands: numeric addition or string
// concatenation.
type Concat struct {
	Left  Node
	Right Node
	At    int
}

func (n *Ref) Pos() int     { return n.At }
func (n *Literal) Pos() int { return n.At }
func (n *Member) Pos() int  { return n.At }
func (n *Index) Pos() int   { return n.At }
func (n *Call) Pos() int    { return n.At }
func (n *Concat) Pos() int  { return n.At }

func (*Ref) node()     {}
func (*Literal) node() {}
func (*Member) node()  {}
func (*Index) node()   {}
func (*Call) node()    {}
func (*Concat) node()  {}

// Refs returns the reference names used by n, in source order, without
// duplicates.
func Refs(n Node) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Ref:
			if !seen[v.Name] {
				seen[v.Name] = true
				names = append(names, v.Name)
			}
		case *Member:
			walk(v.Object)
		case *Index:
			walk(v.Object)
			walk(v.Index)
		case *Call:
			walk(v.Func)
			for _, a := range v.Args {
				walk(a)
			}
		case *Concat:
			walk(v.Left)
			walk(v.Right)
		}
	}
	walk(n)
	return names
}
