package stdsys

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/podhmo/vsharp"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/token"
)

// Install registers the native `sys` functions with the interpreter.
func Install(interp *vsharp.Interpreter) {
	interp.Register("sys", map[string]any{
		"exit":                 builtinExit(),
		"execute":              builtinExecute(),
		"set_color":            builtinColor("set_color", colorFG, colorBG),
		"set_foreground_color": builtinColor("set_foreground_color", colorFG),
		"set_background_color": builtinColor("set_background_color", colorBG),
		"reset_color":          builtinResetColor(),
	})
}

// builtinExit stops the script. The host decides what an exit means; the
// CLI turns it into the process exit status (see vsharp.ExitStatus).
func builtinExit() *object.Builtin {
	return &object.Builtin{
		Name: "sys.exit",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			code := int64(0)
			switch len(args) {
			case 0:
			case 1:
				n, ok := args[0].(*object.Integer)
				if !ok {
					return ctx.NewError(pos, object.TypeMismatch, "exit code must be int, got %s", object.TypeName(args[0]))
				}
				code = n.Value
			default:
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for sys.exit, got=%d, want=0..1", len(args))
			}
			err := ctx.NewError(pos, object.Exit, "exit status %d", code)
			err.Code = int(code)
			return err
		},
	}
}

// builtinExecute runs a command through the system shell with the
// interpreter's output streams and returns its exit status.
func builtinExecute() *object.Builtin {
	return &object.Builtin{
		Name: "sys.execute",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for sys.execute, got=%d, want=1", len(args))
			}
			command, ok := args[0].(*object.String)
			if !ok {
				return ctx.NewError(pos, object.TypeMismatch, "command must be str, got %s", object.TypeName(args[0]))
			}
			cmd := shell(command.Value)
			cmd.Stdin = ctx.Stdin
			cmd.Stdout = ctx.Stdout
			cmd.Stderr = ctx.Stderr
			ctx.Logger.Debug("execute", "command", command.Value)

			err := cmd.Run()
			var exitErr *exec.ExitError
			switch {
			case err == nil:
				return &object.Integer{Value: 0}
			case errors.As(err, &exitErr):
				return &object.Integer{Value: int64(exitErr.ExitCode())}
			}
			return ctx.NewError(pos, object.NativeError, "sys.execute: %v", err)
		},
	}
}

func shell(command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd.exe", "/c", command)
	}
	return exec.Command("/bin/sh", "-c", command)
}

// ANSI SGR base codes; a color index is added to them.
const (
	colorFG = 30
	colorBG = 40
)

var colors = map[string]int{
	"black":   0,
	"red":     1,
	"green":   2,
	"yellow":  3,
	"blue":    4,
	"magenta": 5,
	"cyan":    6,
	"white":   7,
}

// colorIndex maps a color name to its ANSI index. Unknown names are white.
func colorIndex(name string) int {
	if i, ok := colors[name]; ok {
		return i
	}
	return colors["white"]
}

func builtinColor(name string, bases ...int) *object.Builtin {
	return &object.Builtin{
		Name: "sys." + name,
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != len(bases) {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for sys.%s, got=%d, want=%d", name, len(args), len(bases))
			}
			for i, base := range bases {
				s, ok := args[i].(*object.String)
				if !ok {
					return ctx.NewError(pos, object.TypeMismatch, "color must be str, got %s", object.TypeName(args[i]))
				}
				fmt.Fprintf(ctx.Stdout, "\x1b[%dm", base+colorIndex(s.Value))
			}
			return object.NULL
		},
	}
}

func builtinResetColor() *object.Builtin {
	return &object.Builtin{
		Name: "sys.reset_color",
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			if len(args) != 0 {
				return ctx.NewError(pos, object.ArgumentCount, "wrong number of arguments for sys.reset_color, got=%d, want=0", len(args))
			}
			fmt.Fprint(ctx.Stdout, "\x1b[0m")
			return object.NULL
		},
	}
}
