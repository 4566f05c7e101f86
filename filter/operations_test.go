package filter

import (
	"reflect"
	"testing"
)

func TestOperations(t *testing.T) {
	tests := []struct {
		name    string
		build   func(*Node)
		wantOp  string
		wantOpt []Option
	}{
		{
			name:    "contains",
			build:   func(n *Node) { n.Contains("web") },
			wantOp:  "*=web",
			wantOpt: nil,
		},
		{
			name:   "contains is not escaped",
			build:  func(n *Node) { n.Contains(`a "b" *c`) },
			wantOp: `*=a "b" *c`,
		},
		{
			name:    "in",
			build:   func(n *Node) { n.In(3, "x", 1.5) },
			wantOp:  OpIn,
			wantOpt: []Option{{Name: "data", Value: []any{3, "x", 1.5}}},
		},
		{
			name:    "in empty",
			build:   func(n *Node) { n.In() },
			wantOp:  OpIn,
			wantOpt: []Option{{Name: "data", Value: []any{}}},
		},
		{
			name:    "not in",
			build:   func(n *Node) { n.NotIn("a", "b") },
			wantOp:  OpNotIn,
			wantOpt: []Option{{Name: "data", Value: []any{"a", "b"}}},
		},
		{
			name:   "equals string",
			build:  func(n *Node) { n.Equals("ACTIVE") },
			wantOp: "ACTIVE",
		},
		{
			name:   "equals number",
			build:  func(n *Node) { n.Equals(42) },
			wantOp: "42",
		},
		{
			name:   "not equals",
			build:  func(n *Node) { n.NotEquals("DISABLED") },
			wantOp: "!= DISABLED",
		},
		{
			name:   "is null",
			build:  func(n *Node) { n.IsNull() },
			wantOp: OpIsNull,
		},
		{
			name:   "not null",
			build:  func(n *Node) { n.NotNull() },
			wantOp: OpNotNull,
		},
		{
			name:   "count equals",
			build:  func(n *Node) { n.CountEquals(5, ">") },
			wantOp: "",
			wantOpt: []Option{
				{Name: "itemCount", Value: []any{5}},
				{Name: "countOperator", Value: []any{">"}},
			},
		},
		{
			name:   "count equals default operator",
			build:  func(n *Node) { n.CountEquals(1, "") },
			wantOp: "",
			wantOpt: []Option{
				{Name: "itemCount", Value: []any{1}},
				{Name: "countOperator", Value: []any{"="}},
			},
		},
		{
			name:   "merge equals",
			build:  func(n *Node) { n.MergeEquals([]string{"a", "b"}, "-", "x") },
			wantOp: OpImplodeLike,
			wantOpt: []Option{
				{Name: "properties", Value: []string{"a", "b"}},
				{Name: "glue", Value: []any{"-"}},
				{Name: "value", Value: []any{"x"}},
			},
		},
		{
			name:   "merge equals scalar fields kept unwrapped",
			build:  func(n *Node) { n.MergeEquals("firstName", " ", "Ann") },
			wantOp: OpImplodeLike,
			wantOpt: []Option{
				{Name: "properties", Value: "firstName"},
				{Name: "glue", Value: []any{" "}},
				{Name: "value", Value: []any{"Ann"}},
			},
		},
		{
			name:   "date range both",
			build:  func(n *Node) { n.DateRange("01/01/2024", "12/31/2024") },
			wantOp: OpBetweenDate,
			wantOpt: []Option{
				{Name: "startDate", Value: []any{"01/01/2024"}},
				{Name: "endDate", Value: []any{"12/31/2024"}},
			},
		},
		{
			name:    "date range start only",
			build:   func(n *Node) { n.DateRange("01/01/2024", "") },
			wantOp:  OpGreaterThanDate,
			wantOpt: []Option{{Name: "date", Value: []any{"01/01/2024"}}},
		},
		{
			// The end-only branch carries the empty start bound.
			name:    "date range end only",
			build:   func(n *Node) { n.DateRange("", "12/31/2024") },
			wantOp:  OpLessThanDate,
			wantOpt: []Option{{Name: "date", Value: []any{nil}}},
		},
		{
			name:   "date range neither",
			build:  func(n *Node) { n.DateRange("", "") },
			wantOp: "",
		},
		{
			name:    "after",
			build:   func(n *Node) { n.After("2024-01-01") },
			wantOp:  OpGreaterThanDate,
			wantOpt: []Option{{Name: "date", Value: []any{"2024-01-01"}}},
		},
		{
			name:    "before",
			build:   func(n *Node) { n.Before("2024-12-31") },
			wantOp:  OpLessThanDate,
			wantOpt: []Option{{Name: "date", Value: []any{"2024-12-31"}}},
		},
		{
			name:   "before empty",
			build:  func(n *Node) { n.Before("") },
			wantOp: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New().Child("field")
			tt.build(n)
			if got := n.Operation(); got != tt.wantOp {
				t.Errorf("operation = %q, want %q", got, tt.wantOp)
			}
			if got := n.Options(); !reflect.DeepEqual(got, tt.wantOpt) {
				t.Errorf("options = %#v, want %#v", got, tt.wantOpt)
			}
		})
	}
}

func TestInKeepsCallerOrder(t *testing.T) {
	data := []any{"c", "a", "b"}
	n := New().In(data...)
	data[0] = "mutated"

	got := n.Options()[0].Value.([]any)
	if !reflect.DeepEqual(got, []any{"c", "a", "b"}) {
		t.Errorf("data = %v", got)
	}
}

func TestNoOpsKeepPriorOperation(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Node)
	}{
		{"equals nil", func(n *Node) { n.Equals(nil) }},
		{"equals empty", func(n *Node) { n.Equals("") }},
		{"not equals nil", func(n *Node) { n.NotEquals(nil) }},
		{"not equals empty", func(n *Node) { n.NotEquals("") }},
		{"contains empty", func(n *Node) { n.Contains("") }},
		{"date range empty", func(n *Node) { n.DateRange("", "") }},
		{"after empty", func(n *Node) { n.After("") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh := New()
			tt.build(fresh)
			if !fresh.IsEmpty() {
				t.Errorf("no-op changed a fresh node: op=%q opts=%v", fresh.Operation(), fresh.Options())
			}

			n := New().IsNull()
			tt.build(n)
			if n.Operation() != OpIsNull {
				t.Errorf("operation = %q, want %q", n.Operation(), OpIsNull)
			}
		})
	}
}

func TestSortUp(t *testing.T) {
	n := New().SortUp()
	if n.Operation() != OpOrderBy {
		t.Fatalf("operation = %q", n.Operation())
	}
	want := []Option{
		{Name: "sort", Value: []any{SortAsc}},
		{Name: "lower", Value: nil},
	}
	if !reflect.DeepEqual(n.Options(), want) {
		t.Errorf("options = %#v", n.Options())
	}
}

func TestSortTwiceAccumulates(t *testing.T) {
	n := New().SortUp()
	n.SortUp()

	if n.Operation() != OpOrderBy {
		t.Errorf("operation = %q", n.Operation())
	}
	want := []Option{
		{Name: "sort", Value: []any{SortAsc}},
		{Name: "lower", Value: nil},
		{Name: "sort", Value: []any{SortAsc}},
		{Name: "lower", Value: nil},
	}
	if !reflect.DeepEqual(n.Options(), want) {
		t.Errorf("options = %#v", n.Options())
	}
}

func TestSortDownInit(t *testing.T) {
	for _, sortAs := range []string{"init", "INIT", "Init"} {
		t.Run(sortAs, func(t *testing.T) {
			n := New().SortDown(sortAs)
			want := []Option{{Name: "sort", Value: []any{SortDesc}}}
			if !reflect.DeepEqual(n.Options(), want) {
				t.Errorf("options = %#v", n.Options())
			}
		})
	}
}

func TestSortKeepsExistingOperation(t *testing.T) {
	n := New().Contains("web").SortDown("string")
	if n.Operation() != "*=web" {
		t.Errorf("operation = %q, want *=web", n.Operation())
	}
	if len(n.Options()) != 2 {
		t.Errorf("expected sort and lower options, got %#v", n.Options())
	}
}

func TestCountEqualsKeepsOperation(t *testing.T) {
	n := New().In(1).CountEquals(5, ">")
	if n.Operation() != OpIn {
		t.Errorf("operation = %q, want %q", n.Operation(), OpIn)
	}
	if len(n.Options()) != 3 {
		t.Errorf("expected 3 options, got %d", len(n.Options()))
	}
}

func TestCountEqualsZeroIsLiteral(t *testing.T) {
	opts := New().CountEquals(0, "").Options()
	want := []Option{
		{Name: "itemCount", Value: []any{0}},
		{Name: "countOperator", Value: []any{"="}},
	}
	if !reflect.DeepEqual(opts, want) {
		t.Errorf("options = %#v, want %#v", opts, want)
	}
}
