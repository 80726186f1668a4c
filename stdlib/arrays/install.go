package stdarrays

import (
	"reflect"
	"strings"

	"github.com/podhmo/vsharp"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/token"
)

// Install registers the methods callable on every array, e.g. `xs.push(1)`.
func Install(interp *vsharp.Interpreter) {
	interp.RegisterMethods(object.ARRAY_OBJ, Methods())
}

// Methods returns the array method table. Arrays are shared, so push and
// pop are visible to every holder.
func Methods() map[string]*object.Builtin {
	fns := map[string]any{
		"push":     push,
		"pop":      pop,
		"len":      func(a *object.Array) int { return len(a.Elements) },
		"join":     join,
		"contains": contains,
		"slice":    slice,
		"reverse":  reverse,
	}
	methods := make(map[string]*object.Builtin, len(fns)+2)
	for name, fn := range fns {
		methods[name] = object.WrapFunction("array."+name, reflect.ValueOf(fn))
	}
	methods["map"] = builtinMap()
	methods["filter"] = builtinFilter()
	return methods
}

func push(a *object.Array, items ...object.Object) *object.Array {
	a.Elements = append(a.Elements, items...)
	return a
}

func pop(a *object.Array) (object.Object, error) {
	n := len(a.Elements)
	if n == 0 {
		return nil, object.Errorf(object.IndexError, "pop from empty array")
	}
	last := a.Elements[n-1]
	a.Elements = a.Elements[:n-1]
	return last, nil
}

func join(a *object.Array, sep string) string {
	parts := make([]string, len(a.Elements))
	for i, el := range a.Elements {
		parts[i] = el.Inspect()
	}
	return strings.Join(parts, sep)
}

func contains(a *object.Array, item object.Object) bool {
	for _, el := range a.Elements {
		if object.Equal(el, item) {
			return true
		}
	}
	return false
}

// slice returns a new array of the elements in [start, end). end
// defaults to the length.
func slice(a *object.Array, start int, end ...int) (*object.Array, error) {
	stop := len(a.Elements)
	if len(end) > 0 {
		stop = end[0]
	}
	if start < 0 || stop > len(a.Elements) || start > stop {
		return nil, object.Errorf(object.IndexError, "slice [%d:%d] out of range for length %d", start, stop, len(a.Elements))
	}
	return &object.Array{Elements: append([]object.Object(nil), a.Elements[start:stop]...)}, nil
}

func reverse(a *object.Array) *object.Array {
	n := len(a.Elements)
	out := make([]object.Object, n)
	for i, el := range a.Elements {
		out[n-1-i] = el
	}
	return &object.Array{Elements: out}
}

func callbackArgs(ctx *object.BuiltinContext, pos token.Pos, name string, args []object.Object) (*object.Array, object.Object, *object.Error) {
	if len(args) != 2 {
		return nil, nil, ctx.NewError(pos, object.ArgumentCount, "array.%s expects 1 argument but got %d", name, len(args)-1)
	}
	a, ok := args[0].(*object.Array)
	if !ok {
		return nil, nil, ctx.NewError(pos, object.TypeMismatch, "array.%s called on %s", name, object.TypeName(args[0]))
	}
	if !object.IsCallable(args[1]) {
		return nil, nil, ctx.NewError(pos, object.NotCallable, "argument to array.%s must be callable, got %s", name, object.TypeName(args[1]))
	}
	return a, args[1], nil
}

func builtinMap() *object.Builtin {
	return &object.Builtin{
		Name: "array.map",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			a, fn, err := callbackArgs(ctx, pos, "map", args)
			if err != nil {
				return err
			}
			out := make([]object.Object, len(a.Elements))
			for i, el := range a.Elements {
				v := ctx.Call(fn, el)
				if _, ok := v.(*object.Error); ok {
					return v
				}
				out[i] = v
			}
			return &object.Array{Elements: out}
		},
	}
}

func builtinFilter() *object.Builtin {
	return &object.Builtin{
		Name: "array.filter",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			a, fn, err := callbackArgs(ctx, pos, "filter", args)
			if err != nil {
				return err
			}
			var out []object.Object
			for _, el := range a.Elements {
				v := ctx.Call(fn, el)
				switch v := v.(type) {
				case *object.Error:
					return v
				case *object.Boolean:
					if v.Value {
						out = append(out, el)
					}
				case *object.Null:
				default:
					out = append(out, el)
				}
			}
			return &object.Array{Elements: out}
		},
	}
}
