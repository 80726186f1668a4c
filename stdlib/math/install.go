package stdmath

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/podhmo/vsharp"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/token"
)

// Install registers the native `math` functions with the interpreter.
func Install(interp *vsharp.Interpreter) {
	interp.Register("math", map[string]any{
		"abs":        builtinAbs(),
		"min":        builtinExtreme("min", func(a, b float64) bool { return a < b }),
		"max":        builtinExtreme("max", func(a, b float64) bool { return a > b }),
		"sqrt":       math.Sqrt,
		"pow":        math.Pow,
		"sin":        math.Sin,
		"cos":        math.Cos,
		"floor":      func(x float64) int64 { return int64(math.Floor(x)) },
		"ceil":       func(x float64) int64 { return int64(math.Ceil(x)) },
		"round":      func(x float64) int64 { return int64(math.Round(x)) },
		"pi":         math.Pi,
		"rand_int":   randInt,
		"rand_float": randFloat,
	})
}

// randInt returns a random int in [lo, hi).
func randInt(lo, hi int64) (int64, error) {
	if hi <= lo {
		return 0, fmt.Errorf("rand_int: empty range [%d, %d)", lo, hi)
	}
	return lo + rand.Int64N(hi-lo), nil
}

func randFloat(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}

func builtinAbs() *object.Builtin {
	return &object.Builtin{
		Name: "math.abs",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for math.abs, got=%d, want=1", len(args))
			}
			switch x := args[0].(type) {
			case *object.Integer:
				if x.Value < 0 {
					return &object.Integer{Value: -x.Value}
				}
				return x
			case *object.Double:
				return &object.Double{Value: math.Abs(x.Value)}
			}
			return ctx.NewError(pos, object.TypeMismatch, "argument to math.abs must be a number, got %s", object.TypeName(args[0]))
		},
	}
}

// builtinExtreme returns the argument preferred by better. The result is
// an int when every argument is an int.
func builtinExtreme(name string, better func(a, b float64) bool) *object.Builtin {
	return &object.Builtin{
		Name: "math." + name,
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) == 0 {
				return ctx.NewError(pos, object.ArgumentCount, "math.%s expects at least 1 argument", name)
			}
			var best object.Object
			var bestValue float64
			for i, a := range args {
				var v float64
				switch a := a.(type) {
				case *object.Integer:
					v = float64(a.Value)
				case *object.Double:
					v = a.Value
				default:
					return ctx.NewError(pos, object.TypeMismatch, "argument %d to math.%s must be a number, got %s", i+1, name, object.TypeName(a))
				}
				if best == nil || better(v, bestValue) {
					best, bestValue = a, v
				}
			}
			for _, a := range args {
				if _, ok := a.(*object.Double); ok {
					return &object.Double{Value: bestValue}
				}
			}
			return best
		},
	}
}
