package filter

import (
	"errors"
	"sort"
	"strings"
)

// Node is one segment of a filter path.
//
// A Node is not safe for concurrent use.
type Node struct {
	name      string
	parent    *Node
	children  map[string]*Node
	operation string
	options   []Option
	strict    bool
	errs      []error
}

// New returns an empty root node.
func New() *Node {
	return &Node{}
}

// NewStrict returns an empty root node whose descendants reject calls that
// would replace an operation already set on the same node.
func NewStrict() *Node {
	return &Node{strict: true}
}

// Child returns the child stored under name, creating it on first access.
// The same *Node is returned for every later access of name.
func (n *Node) Child(name string) *Node {
	if c, ok := n.children[name]; ok {
		return c
	}
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	c := &Node{name: name, parent: n, strict: n.strict}
	n.children[name] = c
	return c
}

// Path walks a dot-separated property path, creating nodes as needed.
// An empty path returns n itself.
func (n *Node) Path(path string) *Node {
	if path == "" {
		return n
	}
	cur := n
	for _, seg := range strings.Split(path, ".") {
		cur = cur.Child(seg)
	}
	return cur
}

// Lookup returns the child stored under name without creating it.
func (n *Node) Lookup(name string) (*Node, bool) {
	c, ok := n.children[name]
	return c, ok
}

// Children returns the names of the node's children, sorted.
func (n *Node) Children() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Name returns the segment name, empty for a root.
func (n *Node) Name() string {
	return n.name
}

// FullPath returns the dot-joined path from the root to n.
func (n *Node) FullPath() string {
	var segs []string
	for cur := n; cur != nil && cur.parent != nil; cur = cur.parent {
		segs = append(segs, cur.name)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, ".")
}

// Operation returns the operation set on the node, or "" if none.
func (n *Node) Operation() string {
	return n.operation
}

// Options returns a copy of the node's options in append order.
func (n *Node) Options() []Option {
	if len(n.options) == 0 {
		return nil
	}
	out := make([]Option, len(n.options))
	copy(out, n.options)
	return out
}

// Strict reports whether the node rejects conflicting operations.
func (n *Node) Strict() bool {
	return n.strict
}

// IsEmpty reports whether the node has no operation, options or children.
func (n *Node) IsEmpty() bool {
	return n.operation == "" && len(n.options) == 0 && len(n.children) == 0
}

// Err returns the strict-mode errors recorded on n and its descendants,
// joined, or nil.
func (n *Node) Err() error {
	var errs []error
	n.collectErrs(&errs)
	return errors.Join(errs...)
}

func (n *Node) collectErrs(dst *[]error) {
	*dst = append(*dst, n.errs...)
	for _, name := range n.Children() {
		n.children[name].collectErrs(dst)
	}
}

// setOperation replaces the operation. In strict mode a different operation
// already present is kept and the attempt is recorded as a conflict.
func (n *Node) setOperation(op string) bool {
	if n.strict && n.operation != "" && n.operation != op {
		n.errs = append(n.errs, &ConflictError{
			Path:      n.FullPath(),
			Current:   n.operation,
			Attempted: op,
		})
		return false
	}
	n.operation = op
	return true
}
