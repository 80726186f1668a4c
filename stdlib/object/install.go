package stdobject

import (
	"github.com/podhmo/vsharp"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/token"
)

// Install registers the native `object` functions with the interpreter.
func Install(interp *vsharp.Interpreter) {
	interp.Register("object", map[string]any{
		"new":    builtinNew(),
		"keys":   builtinKeys(),
		"values": builtinValues(),
		"has":    builtinHas(),
		"remove": builtinRemove(),
	})
}

func objectArg(ctx *object.BuiltinContext, pos token.Pos, name string, args []object.Object, want int) (*object.DynamicObject, *object.Error) {
	if len(args) != want {
		return nil, ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for object.%s, got=%d, want=%d", name, len(args), want)
	}
	o, ok := args[0].(*object.DynamicObject)
	if !ok {
		return nil, ctx.NewError(pos, object.TypeMismatch, "first argument to object.%s must be an object, got %s", name, object.TypeName(args[0]))
	}
	return o, nil
}

func keyArg(ctx *object.BuiltinContext, pos token.Pos, name string, arg object.Object) (object.Key, *object.Error) {
	k, ok := object.KeyOf(arg)
	if !ok {
		return object.Key{}, ctx.NewError(pos, object.TypeMismatch, "key for object.%s must be str or int, got %s", name, object.TypeName(arg))
	}
	return k, nil
}

func builtinNew() *object.Builtin {
	return &object.Builtin{
		Name: "object.new",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 0 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for object.new, got=%d, want=0", len(args))
			}
			return object.NewDynamicObject()
		},
	}
}

func builtinKeys() *object.Builtin {
	return &object.Builtin{
		Name: "object.keys",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			o, err := objectArg(ctx, pos, "keys", args, 1)
			if err != nil {
				return err
			}
			keys := o.Keys()
			elements := make([]object.Object, len(keys))
			for i, k := range keys {
				elements[i] = k.Object()
			}
			return &object.Array{Elements: elements}
		},
	}
}

func builtinValues() *object.Builtin {
	return &object.Builtin{
		Name: "object.values",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			o, err := objectArg(ctx, pos, "values", args, 1)
			if err != nil {
				return err
			}
			keys := o.Keys()
			elements := make([]object.Object, len(keys))
			for i, k := range keys {
				elements[i], _ = o.Get(k)
			}
			return &object.Array{Elements: elements}
		},
	}
}

func builtinHas() *object.Builtin {
	return &object.Builtin{
		Name: "object.has",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			o, err := objectArg(ctx, pos, "has", args, 2)
			if err != nil {
				return err
			}
			k, err := keyArg(ctx, pos, "has", args[1])
			if err != nil {
				return err
			}
			return object.NativeBool(o.Has(k))
		},
	}
}

// remove deletes the key and returns the removed value, or null.
func builtinRemove() *object.Builtin {
	return &object.Builtin{
		Name: "object.remove",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			o, err := objectArg(ctx, pos, "remove", args, 2)
			if err != nil {
				return err
			}
			k, err := keyArg(ctx, pos, "remove", args[1])
			if err != nil {
				return err
			}
			v, ok := o.Get(k)
			if !ok {
				return object.NULL
			}
			o.Delete(k)
			return v
		},
	}
}
