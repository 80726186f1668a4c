package stderror

import (
	"fmt"

	"github.com/podhmo/vsharp"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/token"
)

const (
	defaultNullMessage  = "value cannot be null"
	defaultEmptyMessage = "collection cannot be empty"
)

// Install registers the native `error` functions with the interpreter.
// Raised errors are fatal, like every runtime error, and carry the kind
// Raised.
func Install(interp *vsharp.Interpreter) {
	interp.Register("error", map[string]any{
		"throw":          builtinThrow(),
		"throw_if_null":  builtinThrowIfNull(),
		"throw_if_empty": builtinThrowIfEmpty(),
		"throw_custom":   builtinThrowCustom(),
		"log":            builtinLog(),
	})
}

// message renders an optional message argument.
func message(args []object.Object, i int, fallback string) string {
	if len(args) <= i {
		return fallback
	}
	if s, ok := args[i].(*object.String); ok {
		return s.Value
	}
	return args[i].Inspect()
}

func builtinThrow() *object.Builtin {
	return &object.Builtin{
		Name: "error.throw",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for error.throw, got=%d, want=1", len(args))
			}
			return ctx.NewError(pos, object.Raised, "%s", message(args, 0, ""))
		},
	}
}

func builtinThrowIfNull() *object.Builtin {
	return &object.Builtin{
		Name: "error.throw_if_null",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) < 1 || len(args) > 2 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for error.throw_if_null, got=%d, want=1..2", len(args))
			}
			if args[0] == object.NULL {
				return ctx.NewError(pos, object.Raised, "%s", message(args, 1, defaultNullMessage))
			}
			return object.NULL
		},
	}
}

func builtinThrowIfEmpty() *object.Builtin {
	return &object.Builtin{
		Name: "error.throw_if_empty",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) < 1 || len(args) > 2 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for error.throw_if_empty, got=%d, want=1..2", len(args))
			}
			it, ok := args[0].(object.Iterable)
			if !ok {
				return ctx.NewError(pos, object.NotIterable, "%s is not iterable", object.TypeName(args[0]))
			}
			if !it.Iterate().Next() {
				return ctx.NewError(pos, object.Raised, "%s", message(args, 1, defaultEmptyMessage))
			}
			return object.NULL
		},
	}
}

// builtinThrowCustom raises an error whose message is prefixed with a
// script-chosen name, e.g. `ArgumentError: bad input`.
func builtinThrowCustom() *object.Builtin {
	return &object.Builtin{
		Name: "error.throw_custom",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 2 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for error.throw_custom, got=%d, want=2", len(args))
			}
			name, ok := args[0].(*object.String)
			if !ok || name.Value == "" {
				return ctx.NewError(pos, object.TypeMismatch, "error name must be a non-empty str, got %s", object.Repr(args[0]))
			}
			return ctx.NewError(pos, object.Raised, "%s: %s", name.Value, message(args, 1, ""))
		},
	}
}

// builtinLog writes `Error: msg` to the interpreter's standard error and
// keeps running.
func builtinLog() *object.Builtin {
	return &object.Builtin{
		Name: "error.log",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for error.log, got=%d, want=1", len(args))
			}
			fmt.Fprintf(ctx.Stderr, "Error: %s\n", message(args, 0, ""))
			return object.NULL
		},
	}
}
