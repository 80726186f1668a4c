package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/token"
)

// builtins are consulted when a name is not bound in scope.
var builtins = map[string]*object.Builtin{
	"print": {
		Name: "print",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			fmt.Fprint(ctx.Stdout, joinInspect(args))
			return object.NULL
		},
	},
	"println": {
		Name: "println",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			fmt.Fprintln(ctx.Stdout, joinInspect(args))
			return object.NULL
		},
	},
	"len": {
		Name: "len",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments. got=%d, want=1", len(args))
			}
			n, ok := length(args[0])
			if !ok {
				return ctx.NewError(pos, object.TypeMismatch, "argument to `len` not supported, got %s", object.TypeName(args[0]))
			}
			return &object.Integer{Value: int64(n)}
		},
	},
	"str": {
		Name: "str",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments. got=%d, want=1", len(args))
			}
			if s, ok := args[0].(*object.String); ok {
				return s
			}
			return &object.String{Value: args[0].Inspect()}
		},
	},
	"int": {
		Name: "int",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments. got=%d, want=1", len(args))
			}
			switch arg := args[0].(type) {
			case *object.Integer:
				return arg
			case *object.Double:
				if math.IsNaN(arg.Value) || math.IsInf(arg.Value, 0) {
					return ctx.NewError(pos, object.CoercionError, "cannot convert %s to int", arg.Inspect())
				}
				return &object.Integer{Value: int64(arg.Value)}
			case *object.Boolean:
				if arg.Value {
					return &object.Integer{Value: 1}
				}
				return &object.Integer{Value: 0}
			case *object.String:
				i, err := strconv.ParseInt(strings.TrimSpace(arg.Value), 10, 64)
				if err != nil {
					return ctx.NewError(pos, object.CoercionError, "cannot convert %q to int", arg.Value)
				}
				return &object.Integer{Value: i}
			}
			return ctx.NewError(pos, object.CoercionError, "cannot convert %s to int", object.TypeName(args[0]))
		},
	},
	"float": {
		Name: "float",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments. got=%d, want=1", len(args))
			}
			switch arg := args[0].(type) {
			case *object.Integer:
				return &object.Double{Value: float64(arg.Value)}
			case *object.Double:
				return arg
			case *object.String:
				f, err := strconv.ParseFloat(strings.TrimSpace(arg.Value), 64)
				if err != nil {
					return ctx.NewError(pos, object.CoercionError, "cannot convert %q to f64", arg.Value)
				}
				return &object.Double{Value: f}
			}
			return ctx.NewError(pos, object.CoercionError, "cannot convert %s to f64", object.TypeName(args[0]))
		},
	},
	"range": {
		Name: "range",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) < 1 || len(args) > 3 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments. got=%d, want=1..3", len(args))
			}
			nums := make([]int64, len(args))
			for i, a := range args {
				n, ok := a.(*object.Integer)
				if !ok {
					return ctx.NewError(pos, object.TypeMismatch, "argument %d to `range` must be int, got %s", i+1, object.TypeName(a))
				}
				nums[i] = n.Value
			}
			r := &object.Range{Step: 1}
			switch len(nums) {
			case 1:
				r.Stop = nums[0]
			case 2:
				r.Start, r.Stop = nums[0], nums[1]
			case 3:
				r.Start, r.Stop, r.Step = nums[0], nums[1], nums[2]
			}
			if r.Step == 0 {
				return ctx.NewError(pos, object.TypeMismatch, "range step must not be zero")
			}
			return r
		},
	},
	"type_of": {
		Name: "type_of",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments. got=%d, want=1", len(args))
			}
			return &object.String{Value: object.TypeName(args[0])}
		},
	},
}

func joinInspect(args []object.Object) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Inspect()
	}
	return strings.Join(parts, " ")
}

// BuiltinNames returns the names of the core builtins.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	return names
}
