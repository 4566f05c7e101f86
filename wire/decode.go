package wire

import (
	"fmt"

	"github.com/coffersTech/objectfilter/filter"
	"github.com/valyala/fastjson"
)

var parsers fastjson.ParserPool

// Unmarshal decodes objectFilter JSON into a new filter tree.
func Unmarshal(data []byte) (*filter.Node, error) {
	root := filter.New()
	if err := UnmarshalInto(root, data); err != nil {
		return nil, err
	}
	return root, nil
}

// UnmarshalInto decodes objectFilter JSON onto an existing node. Operations
// replace the ones already present; options are appended.
func UnmarshalInto(root *filter.Node, data []byte) error {
	p := parsers.Get()
	defer parsers.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return decodeNode(root, v)
}

func decodeNode(n *filter.Node, v *fastjson.Value) error {
	obj, err := v.Object()
	if err != nil {
		return fmt.Errorf("%w: %s: expected object, got %s", ErrInvalidFilter, pathOf(n), v.Type())
	}

	var (
		op       string
		opts     []filter.Option
		visitErr error
	)
	obj.Visit(func(key []byte, val *fastjson.Value) {
		if visitErr != nil {
			return
		}
		switch k := string(key); k {
		case keyOperation:
			op, visitErr = decodeOperation(n, val)
		case keyOptions:
			opts, visitErr = decodeOptions(n, val)
		default:
			visitErr = decodeNode(n.Child(k), val)
		}
	})
	if visitErr != nil {
		return visitErr
	}

	n.Apply(op, opts...)
	return nil
}

// decodeOperation accepts strings and, for filters written by clients that
// send equality terms unquoted, bare numbers and booleans.
func decodeOperation(n *filter.Node, v *fastjson.Value) (string, error) {
	switch v.Type() {
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b), nil
	case fastjson.TypeNumber, fastjson.TypeTrue, fastjson.TypeFalse:
		return v.String(), nil
	case fastjson.TypeNull:
		return "", nil
	}
	return "", fmt.Errorf("%w: %s: operation must be a string, got %s", ErrInvalidFilter, pathOf(n), v.Type())
}

func decodeOptions(n *filter.Node, v *fastjson.Value) ([]filter.Option, error) {
	items, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: options must be an array", ErrInvalidFilter, pathOf(n))
	}

	opts := make([]filter.Option, 0, len(items))
	for i, item := range items {
		if item.Type() != fastjson.TypeObject {
			return nil, fmt.Errorf("%w: %s: option %d is not an object", ErrInvalidFilter, pathOf(n), i)
		}
		nameVal := item.Get(keyName)
		if nameVal == nil || nameVal.Type() != fastjson.TypeString {
			return nil, fmt.Errorf("%w: %s: option %d has no name", ErrInvalidFilter, pathOf(n), i)
		}
		name, _ := nameVal.StringBytes()

		var value any
		if raw := item.Get(keyValue); raw != nil {
			if value, err = decodeValue(raw); err != nil {
				return nil, fmt.Errorf("%s option %q: %w", pathOf(n), name, err)
			}
		}
		opts = append(opts, filter.Option{Name: string(name), Value: value})
	}
	return opts, nil
}

func decodeValue(v *fastjson.Value) (any, error) {
	switch v.Type() {
	case fastjson.TypeNull:
		return nil, nil
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b), nil
	case fastjson.TypeTrue:
		return true, nil
	case fastjson.TypeFalse:
		return false, nil
	case fastjson.TypeNumber:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		return v.Float64()
	case fastjson.TypeArray:
		items, _ := v.Array()
		out := make([]any, len(items))
		for i, item := range items {
			iv, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = iv
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, v.Type())
}
