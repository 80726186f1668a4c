package stdjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/iancoleman/orderedmap"
	"github.com/podhmo/vsharp"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/token"
)

// Install registers the native `json` functions with the interpreter.
func Install(interp *vsharp.Interpreter) {
	interp.Register("json", map[string]any{
		"stringify": builtinStringify(),
		"parse":     builtinParse(),
	})
}

func builtinStringify() *object.Builtin {
	return &object.Builtin{
		Name: "json.stringify",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) < 1 || len(args) > 2 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for json.stringify, got=%d, want=1..2", len(args))
			}
			indent := ""
			if len(args) == 2 {
				switch a := args[1].(type) {
				case *object.Integer:
					indent = strings.Repeat(" ", int(a.Value))
				case *object.String:
					indent = a.Value
				default:
					return ctx.NewError(pos, object.TypeMismatch, "indent must be int or str, got %s", object.TypeName(a))
				}
			}
			s, err := Stringify(args[0], indent)
			if err != nil {
				kind := object.CoercionError
				if errors.Is(err, ErrCyclic) {
					kind = object.TypeMismatch
				}
				return ctx.NewError(pos, kind, "json.stringify: %v", err)
			}
			return &object.String{Value: s}
		},
	}
}

func builtinParse() *object.Builtin {
	return &object.Builtin{
		Name: "json.parse",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for json.parse, got=%d, want=1", len(args))
			}
			s, ok := args[0].(*object.String)
			if !ok {
				return ctx.NewError(pos, object.TypeMismatch, "argument to json.parse must be str, got %s", object.TypeName(args[0]))
			}
			v, err := Parse(s.Value)
			if err != nil {
				return ctx.NewError(pos, object.CoercionError, "json.parse: %v", err)
			}
			return v
		},
	}
}

// ErrCyclic is returned when a value contains itself.
var ErrCyclic = errors.New("cyclic value")

// Stringify encodes v as JSON. Object keys keep their insertion order.
func Stringify(v object.Object, indent string) (string, error) {
	native, err := toJSON(v, map[object.Object]bool{})
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(native); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// toJSON converts v to encodable Go values. path holds the containers
// being converted, so a container met again is a cycle.
func toJSON(v object.Object, path map[object.Object]bool) (any, error) {
	switch v := v.(type) {
	case *object.Null:
		return nil, nil
	case *object.Boolean:
		return v.Value, nil
	case *object.Integer:
		return v.Value, nil
	case *object.Double:
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			return nil, fmt.Errorf("%s is not representable", v.Inspect())
		}
		return v.Value, nil
	case *object.String:
		return v.Value, nil
	case *object.Array:
		if path[v] {
			return nil, ErrCyclic
		}
		path[v] = true
		defer delete(path, v)
		items := make([]any, len(v.Elements))
		for i, el := range v.Elements {
			x, err := toJSON(el, path)
			if err != nil {
				return nil, err
			}
			items[i] = x
		}
		return items, nil
	case *object.Range:
		items := []any{}
		for it := v.Iterate(); it.Next(); {
			items = append(items, it.Current().(*object.Integer).Value)
		}
		return items, nil
	case *object.DynamicObject:
		if path[v] {
			return nil, ErrCyclic
		}
		path[v] = true
		defer delete(path, v)
		om := orderedmap.New()
		om.SetEscapeHTML(false)
		for _, k := range v.Keys() {
			el, _ := v.Get(k)
			x, err := toJSON(el, path)
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", k, err)
			}
			om.Set(k.String(), x)
		}
		return om, nil
	case *object.GoValue:
		if v.Value.CanInterface() {
			return v.Value.Interface(), nil
		}
	}
	return nil, fmt.Errorf("cannot serialize %s", object.TypeName(v))
}

// Parse decodes JSON text. Objects keep the key order of the input.
// Integral numbers that fit in int64 become ints, all others f64.
func Parse(s string) (object.Object, error) {
	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("invalid JSON")
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid JSON: trailing data")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (object.Object, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch tok := tok.(type) {
	case nil:
		return object.NULL, nil
	case bool:
		return object.NativeBool(tok), nil
	case string:
		return &object.String{Value: tok}, nil
	case json.Number:
		if i, err := tok.Int64(); err == nil {
			return &object.Integer{Value: i}, nil
		}
		f, err := tok.Float64()
		if err != nil {
			return nil, err
		}
		return &object.Double{Value: f}, nil
	case json.Delim:
		switch tok {
		case '[':
			elements := []object.Object{}
			for dec.More() {
				el, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				elements = append(elements, el)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return &object.Array{Elements: elements}, nil
		case '{':
			obj := object.NewDynamicObject()
			for dec.More() {
				key, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(object.StrKey(key.(string)), v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
