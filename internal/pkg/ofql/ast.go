package ofql

// Node is the interface implemented by all AST nodes.
type Node interface {
	node() // marker method
}

// AndExpr joins two clauses. Object filters have no disjunction, so AND is
// the only connective.
type AndExpr struct {
	Left  Node
	Right Node
}

func (AndExpr) node() {}

// MatchExpr represents path:value or path!=value.
type MatchExpr struct {
	Path  string // Dot-separated property path.
	Op    string // "=" or "!="
	Value any
}

func (MatchExpr) node() {}

// CallExpr represents path:func(args...).
type CallExpr struct {
	Path string
	Func string
	Args []any // Scalars, or []any for bracketed lists.
	Pos  int   // Offset of the function name, for error reporting.
}

func (CallExpr) node() {}
