// Package wire converts filter trees to and from the objectFilter JSON shape
// accepted by the SoftLayer API:
//
//	{"virtualGuests":{"hostname":{"operation":"*=web"},
//	 "id":{"operation":"in","options":[{"name":"data","value":[1,2]}]}}}
//
// The keys "operation" and "options" hold node state; every other key is a
// child property.
package wire

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"

	"github.com/coffersTech/objectfilter/filter"
	"github.com/valyala/fastjson"
)

const (
	keyOperation = "operation"
	keyOptions   = "options"
	keyName      = "name"
	keyValue     = "value"
)

// QueryKey is the URL query parameter the REST endpoint reads filters from.
const QueryKey = "objectFilter"

var (
	// ErrUnsupportedValue is returned for option values that have no JSON
	// scalar form.
	ErrUnsupportedValue = errors.New("wire: unsupported option value")
	// ErrInvalidFilter is returned when decoded JSON is not a filter tree.
	ErrInvalidFilter = errors.New("wire: invalid filter")
	// ErrReservedName is returned when a child is named after a node state
	// key and cannot be told apart from it on the wire.
	ErrReservedName = errors.New("wire: reserved property name")
)

var arenas fastjson.ArenaPool

// Marshal encodes n as objectFilter JSON.
func Marshal(n *filter.Node) ([]byte, error) {
	return AppendJSON(nil, n)
}

// AppendJSON appends the JSON encoding of n to dst.
func AppendJSON(dst []byte, n *filter.Node) ([]byte, error) {
	a := arenas.Get()
	defer arenas.Put(a)

	v, err := encodeNode(a, n)
	if err != nil {
		return dst, err
	}
	return v.MarshalTo(dst), nil
}

// QueryParam returns n encoded as an objectFilter URL query pair.
func QueryParam(n *filter.Node) (string, error) {
	data, err := Marshal(n)
	if err != nil {
		return "", err
	}
	return QueryKey + "=" + url.QueryEscape(string(data)), nil
}

func encodeNode(a *fastjson.Arena, n *filter.Node) (*fastjson.Value, error) {
	obj := a.NewObject()

	if op := n.Operation(); op != "" {
		obj.Set(keyOperation, a.NewString(op))
	}

	if opts := n.Options(); len(opts) > 0 {
		arr := a.NewArray()
		for i, opt := range opts {
			val, err := encodeValue(a, opt.Value)
			if err != nil {
				return nil, fmt.Errorf("%s option %q: %w", pathOf(n), opt.Name, err)
			}
			o := a.NewObject()
			o.Set(keyName, a.NewString(opt.Name))
			o.Set(keyValue, val)
			arr.SetArrayItem(i, o)
		}
		obj.Set(keyOptions, arr)
	}

	for _, name := range n.Children() {
		if name == keyOperation || name == keyOptions {
			return nil, fmt.Errorf("%w: %s.%s", ErrReservedName, pathOf(n), name)
		}
		child, _ := n.Lookup(name)
		cv, err := encodeNode(a, child)
		if err != nil {
			return nil, err
		}
		obj.Set(name, cv)
	}
	return obj, nil
}

func encodeValue(a *fastjson.Arena, v any) (*fastjson.Value, error) {
	switch x := v.(type) {
	case nil:
		return a.NewNull(), nil
	case string:
		return a.NewString(x), nil
	case bool:
		if x {
			return a.NewTrue(), nil
		}
		return a.NewFalse(), nil
	case int:
		return a.NewNumberInt(x), nil
	case int8, int16, int32, int64:
		return a.NewNumberString(strconv.FormatInt(reflect.ValueOf(x).Int(), 10)), nil
	case uint, uint8, uint16, uint32, uint64:
		return a.NewNumberString(strconv.FormatUint(reflect.ValueOf(x).Uint(), 10)), nil
	case float32:
		return encodeFloat(a, float64(x))
	case float64:
		return encodeFloat(a, x)
	case []any:
		arr := a.NewArray()
		for i, item := range x {
			iv, err := encodeValue(a, item)
			if err != nil {
				return nil, err
			}
			arr.SetArrayItem(i, iv)
		}
		return arr, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		arr := a.NewArray()
		for i := 0; i < rv.Len(); i++ {
			iv, err := encodeValue(a, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			arr.SetArrayItem(i, iv)
		}
		return arr, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

func encodeFloat(a *fastjson.Arena, f float64) (*fastjson.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, f)
	}
	return a.NewNumberFloat64(f), nil
}

func pathOf(n *filter.Node) string {
	if p := n.FullPath(); p != "" {
		return p
	}
	return "<root>"
}
