package ofql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coffersTech/objectfilter/filter"
)

var (
	// ErrUnknownFunction is returned for calls to functions OFQL lacks.
	ErrUnknownFunction = errors.New("ofql: unknown function")
	// ErrArguments is returned when a call has the wrong number or kind of
	// arguments.
	ErrArguments = errors.New("ofql: bad arguments")
)

// Compile parses input and builds it onto a fresh filter root.
func Compile(input string) (*filter.Node, error) {
	root := filter.New()
	if err := ApplyString(root, input); err != nil {
		return nil, err
	}
	return root, nil
}

// ApplyString parses input and builds it onto root. Strict-mode conflicts are
// recorded on root and surface through root.Err, not through the returned
// error.
func ApplyString(root *filter.Node, input string) error {
	node, err := Parse(input)
	if err != nil {
		return err
	}
	return Apply(root, node)
}

// Apply builds the AST node onto root. A nil node is a no-op.
func Apply(root *filter.Node, node Node) error {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case AndExpr:
		if err := Apply(root, n.Left); err != nil {
			return err
		}
		return Apply(root, n.Right)
	case MatchExpr:
		return applyMatch(root.Path(n.Path), n)
	case CallExpr:
		return applyCall(root.Path(n.Path), n)
	default:
		return fmt.Errorf("ofql: unsupported node %T", node)
	}
}

func applyMatch(target *filter.Node, expr MatchExpr) error {
	switch expr.Op {
	case "=":
		target.Equals(expr.Value)
	case "!=":
		target.NotEquals(expr.Value)
	default:
		return fmt.Errorf("ofql: unsupported match operator %q", expr.Op)
	}
	return nil
}

type builder func(target *filter.Node, args []any) error

// builders is keyed by lower-cased function name.
var builders = map[string]builder{
	"equals": func(t *filter.Node, args []any) error {
		if err := arity(args, 1, 1); err != nil {
			return err
		}
		t.Equals(args[0])
		return nil
	},
	"notequals": func(t *filter.Node, args []any) error {
		if err := arity(args, 1, 1); err != nil {
			return err
		}
		t.NotEquals(args[0])
		return nil
	},
	"contains": func(t *filter.Node, args []any) error {
		if err := arity(args, 1, 1); err != nil {
			return err
		}
		term, err := textArg(args[0])
		if err != nil {
			return err
		}
		t.Contains(term)
		return nil
	},
	"in": func(t *filter.Node, args []any) error {
		t.In(setArgs(args)...)
		return nil
	},
	"notin": func(t *filter.Node, args []any) error {
		t.NotIn(setArgs(args)...)
		return nil
	},
	"isnull": func(t *filter.Node, args []any) error {
		if err := arity(args, 0, 0); err != nil {
			return err
		}
		t.IsNull()
		return nil
	},
	"notnull": func(t *filter.Node, args []any) error {
		if err := arity(args, 0, 0); err != nil {
			return err
		}
		t.NotNull()
		return nil
	},
	"sortup":   sortBuilder((*filter.Node).SortUp),
	"sortdown": sortBuilder((*filter.Node).SortDown),
	"countequals": func(t *filter.Node, args []any) error {
		if err := arity(args, 0, 2); err != nil {
			return err
		}
		count, operator := 1, "="
		if len(args) > 0 {
			i, ok := args[0].(int64)
			if !ok {
				return fmt.Errorf("%w: count must be an integer, got %v", ErrArguments, args[0])
			}
			count = int(i)
		}
		if len(args) > 1 {
			op, err := textArg(args[1])
			if err != nil {
				return err
			}
			operator = op
		}
		t.CountEquals(count, operator)
		return nil
	},
	"mergeequals": func(t *filter.Node, args []any) error {
		if err := arity(args, 3, 3); err != nil {
			return err
		}
		glue, err := textArg(args[1])
		if err != nil {
			return err
		}
		t.MergeEquals(args[0], glue, args[2])
		return nil
	},
	"daterange": func(t *filter.Node, args []any) error {
		if err := arity(args, 0, 2); err != nil {
			return err
		}
		var bounds [2]string
		for i, a := range args {
			s, err := textArg(a)
			if err != nil {
				return err
			}
			bounds[i] = s
		}
		t.DateRange(bounds[0], bounds[1])
		return nil
	},
	"after":  dateBuilder((*filter.Node).After),
	"before": dateBuilder((*filter.Node).Before),
}

func applyCall(target *filter.Node, call CallExpr) error {
	b, ok := builders[strings.ToLower(call.Func)]
	if !ok {
		return fmt.Errorf("%w %q at offset %d", ErrUnknownFunction, call.Func, call.Pos)
	}
	if err := b(target, call.Args); err != nil {
		return fmt.Errorf("%s:%s: %w", call.Path, call.Func, err)
	}
	return nil
}

func sortBuilder(sortFn func(*filter.Node, ...string) *filter.Node) builder {
	return func(t *filter.Node, args []any) error {
		if err := arity(args, 0, 1); err != nil {
			return err
		}
		if len(args) == 0 {
			sortFn(t)
			return nil
		}
		sortAs, err := textArg(args[0])
		if err != nil {
			return err
		}
		sortFn(t, sortAs)
		return nil
	}
}

func dateBuilder(dateFn func(*filter.Node, string) *filter.Node) builder {
	return func(t *filter.Node, args []any) error {
		if err := arity(args, 1, 1); err != nil {
			return err
		}
		date, err := textArg(args[0])
		if err != nil {
			return err
		}
		dateFn(t, date)
		return nil
	}
}

func arity(args []any, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return fmt.Errorf("%w: want %d, got %d", ErrArguments, lo, len(args))
		}
		return fmt.Errorf("%w: want %d to %d, got %d", ErrArguments, lo, hi, len(args))
	}
	return nil
}

// setArgs lets in(1,2) and in([1,2]) mean the same thing.
func setArgs(args []any) []any {
	if len(args) == 1 {
		if list, ok := args[0].([]any); ok {
			return list
		}
	}
	return args
}

// textArg converts a scalar argument to text. null becomes "".
func textArg(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	return "", fmt.Errorf("%w: expected a scalar, got %v", ErrArguments, v)
}
