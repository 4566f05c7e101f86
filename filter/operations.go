package filter

import (
	"fmt"
	"strings"
)

// Operation names understood by the remote API.
const (
	OpOrderBy         = "orderBy"
	OpIn              = "in"
	OpNotIn           = "not in"
	OpIsNull          = "is null"
	OpNotNull         = "not null"
	OpImplodeLike     = "implodeLike"
	OpBetweenDate     = "betweenDate"
	OpGreaterThanDate = "greaterThanDate"
	OpLessThanDate    = "lessThanDate"
)

// Sort directions.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// SortAsInit disables the case-insensitive "lower" option on sorts.
const SortAsInit = "init"

func (n *Node) sort(direction string, sortAs []string) *Node {
	if n.operation == "" {
		n.operation = OpOrderBy
	}
	opts := []Option{newOption("sort", []any{direction})}
	if len(sortAs) == 0 || !strings.EqualFold(sortAs[0], SortAsInit) {
		opts = append(opts, newOption("lower", nil))
	}
	return n.addOptions(opts)
}

// SortUp orders results by this property, ascending. An optional sortAs of
// "init" sorts on the raw value instead of its lower-cased form.
func (n *Node) SortUp(sortAs ...string) *Node {
	return n.sort(SortAsc, sortAs)
}

// SortDown orders results by this property, descending.
func (n *Node) SortDown(sortAs ...string) *Node {
	return n.sort(SortDesc, sortAs)
}

// Contains matches records whose property contains term. An empty term
// leaves the node unchanged.
func (n *Node) Contains(term string) *Node {
	if term != "" {
		n.setOperation("*=" + term)
	}
	return n
}

// In matches records whose property is one of values. An empty set is
// allowed.
func (n *Node) In(values ...any) *Node {
	return n.setWithData(OpIn, values)
}

// NotIn matches records whose property is none of values.
func (n *Node) NotIn(values ...any) *Node {
	return n.setWithData(OpNotIn, values)
}

func (n *Node) setWithData(op string, values []any) *Node {
	data := make([]any, len(values))
	copy(data, values)
	if n.setOperation(op) {
		n.addOption(newOption("data", data))
	}
	return n
}

// Equals matches records whose property equals term. The operation is the
// literal term. A nil or empty term leaves the node unchanged.
func (n *Node) Equals(term any) *Node {
	if s, ok := termString(term); ok {
		n.setOperation(s)
	}
	return n
}

// NotEquals matches records whose property does not equal term. A nil or
// empty term leaves the node unchanged.
func (n *Node) NotEquals(term any) *Node {
	if s, ok := termString(term); ok {
		n.setOperation("!= " + s)
	}
	return n
}

func termString(term any) (string, bool) {
	if term == nil {
		return "", false
	}
	s, ok := term.(string)
	if !ok {
		s = fmt.Sprint(term)
	}
	return s, s != ""
}

// IsNull matches records where the property is null.
func (n *Node) IsNull() *Node {
	n.setOperation(OpIsNull)
	return n
}

// NotNull matches records where the property is not null.
func (n *Node) NotNull() *Node {
	n.setOperation(OpNotNull)
	return n
}

// CountEquals matches records whose related item count compares to count
// with operator ("=" when empty). It only adds options; the operation
// already on the node, if any, is kept. count is sent as given, so 0 means
// zero items; the OFQL countEquals() default of 1 is not applied here.
func (n *Node) CountEquals(count int, operator string) *Node {
	if operator == "" {
		operator = "="
	}
	return n.addOptions([]Option{
		newOption("itemCount", []any{count}),
		newOption("countOperator", []any{operator}),
	})
}

// MergeEquals joins fields with glue and matches the result against value.
// fields is stored as given.
func (n *Node) MergeEquals(fields any, glue string, value any) *Node {
	if !n.setOperation(OpImplodeLike) {
		return n
	}
	return n.addOptions([]Option{
		newOption("properties", fields),
		newOption("glue", []any{glue}),
		newOption("value", []any{value}),
	})
}
