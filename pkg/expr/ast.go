package expr

// Node is the interface for all expression AST nodes. Nodes are immutable
// after parsing; a compiled expression owns its tree exclusively and may be
// shared across goroutines without synchronization.
type Node interface {
	nodeType() string
}

// LiteralNode represents a literal value (int, float, string, bool, null).
type LiteralNode struct {
	TokenType TokenType
	IntVal    int64
	FloatVal  float64
	StrVal    string
	BoolVal   bool
}

func (n *LiteralNode) nodeType() string { return "Literal" }

// IdentNode represents a variable reference.
type IdentNode struct {
	Name string
}

func (n *IdentNode) nodeType() string { return "Ident" }

// BinaryNode represents a binary operation (e.g., a + b, x == y, a and b).
type BinaryNode struct {
	Op    TokenType
	Left  Node
	Right Node
}

func (n *BinaryNode) nodeType() string { return "Binary" }

// UnaryNode represents a unary operation (e.g., -x, not x).
type UnaryNode struct {
	Op      TokenType
	Operand Node
}

func (n *UnaryNode) nodeType() string { return "Unary" }

// PropertyNode represents attribute access (e.g., obj.field).
type PropertyNode struct {
	Object   Node
	Property string
}

func (n *PropertyNode) nodeType() string { return "Property" }

// IndexNode represents index access (e.g., list[0], map["key"]).
type IndexNode struct {
	Object Node
	Index  Node
}

func (n *IndexNode) nodeType() string { return "Index" }

// CallNode represents a function call. Name is the full (possibly dotted)
// function name resolved at parse time; call targets are always static
// names, never computed values.
type CallNode struct {
	Name string
	Args []Node
}

func (n *CallNode) nodeType() string { return "Call" }

// TernaryNode represents a conditional expression (cond ? then : else).
type TernaryNode struct {
	Cond Node
	Then Node
	Else Node
}

func (n *TernaryNode) nodeType() string { return "Ternary" }

// ListNode represents a list literal (e.g., [1, 2, 3]).
type ListNode struct {
	Elements []Node
}

func (n *ListNode) nodeType() string { return "List" }

// MapNode represents a map literal (e.g., {"key": "value"}).
type MapNode struct {
	Keys   []Node
	Values []Node
}

func (n *MapNode) nodeType() string { return "Map" }

// InNode represents a membership test (e.g., x in list, "key" in map).
type InNode struct {
	Value     Node
	Container Node
	Negated   bool // true for "not in"
}

func (n *InNode) nodeType() string { return "In" }

// Children returns the direct child nodes of a node. Used by walkers that
// must visit every reachable node (the sandbox validator in particular).
func Children(node Node) []Node {
	switch n := node.(type) {
	case *BinaryNode:
		return []Node{n.Left, n.Right}
	case *UnaryNode:
		return []Node{n.Operand}
	case *PropertyNode:
		return []Node{n.Object}
	case *IndexNode:
		return []Node{n.Object, n.Index}
	case *CallNode:
		return n.Args
	case *TernaryNode:
		return []Node{n.Cond, n.Then, n.Else}
	case *ListNode:
		return n.Elements
	case *MapNode:
		out := make([]Node, 0, len(n.Keys)+len(n.Values))
		out = append(out, n.Keys...)
		out = append(out, n.Values...)
		return out
	case *InNode:
		return []Node{n.Value, n.Container}
	default:
		return nil
	}
}
