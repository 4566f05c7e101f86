package filter

// DateRange matches records whose date property falls in a range. Dates are
// passed through in whatever format the remote API accepts, e.g.
// "01/31/2024" or "2024-01-31T00:00:00-06:00".
//
// With both bounds the operation is betweenDate. With only start it is
// greaterThanDate. With only end it is lessThanDate, but the date option
// carries the empty start bound, stored as nil. Use Before for an open-start
// range.
// With neither bound the node is unchanged.
func (n *Node) DateRange(start, end string) *Node {
	switch {
	case start != "" && end != "":
		if n.setOperation(OpBetweenDate) {
			n.addOptions([]Option{
				newOption("startDate", []any{start}),
				newOption("endDate", []any{end}),
			})
		}
	case start != "":
		n.greaterThanDate(start)
	case end != "":
		n.lessThanDate(nil)
	}
	return n
}

// After matches records dated after date. An empty date leaves the node
// unchanged.
func (n *Node) After(date string) *Node {
	if date != "" {
		n.greaterThanDate(date)
	}
	return n
}

// Before matches records dated before date. An empty date leaves the node
// unchanged.
func (n *Node) Before(date string) *Node {
	if date != "" {
		n.lessThanDate(date)
	}
	return n
}

func (n *Node) greaterThanDate(date any) {
	if n.setOperation(OpGreaterThanDate) {
		n.addOption(newOption("date", []any{date}))
	}
}

func (n *Node) lessThanDate(date any) {
	if n.setOperation(OpLessThanDate) {
		n.addOption(newOption("date", []any{date}))
	}
}
