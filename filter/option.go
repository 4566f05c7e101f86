package filter

// Option is a named parameter of a node's operation, such as the data set of
// an "in" operation. Value is nil, a scalar, or a slice of scalars.
type Option struct {
	Name  string
	Value any
}

func newOption(name string, value any) Option {
	return Option{Name: name, Value: value}
}

func (n *Node) addOption(opt Option) *Node {
	n.options = append(n.options, opt)
	return n
}

// addOptions appends a batch of options. An empty batch is a programming
// error inside this package.
func (n *Node) addOptions(opts []Option) *Node {
	if len(opts) == 0 {
		panic(ErrInvalidOption)
	}
	for _, opt := range opts {
		n.addOption(opt)
	}
	return n
}

// Apply sets op when it is non-empty and appends opts verbatim. It covers
// operations without a dedicated builder method and is how decoded filters
// are restored.
func (n *Node) Apply(op string, opts ...Option) *Node {
	if op != "" && !n.setOperation(op) {
		return n
	}
	for _, opt := range opts {
		n.addOption(opt)
	}
	return n
}
