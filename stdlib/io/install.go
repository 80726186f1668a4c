package stdio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/podhmo/vsharp"
	"github.com/podhmo/vsharp/object"
)

// Install registers the console as `io`.
func Install(interp *vsharp.Interpreter) {
	interp.Register("io", NewConsole(interp.Stdin(), interp.Stdout()))
}

// Console is the host object behind `io`. Its methods are reached through
// host interop, e.g. `io.println("x")` calls Println.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(r io.Reader, w io.Writer) *Console {
	return &Console{in: bufio.NewReader(r), out: w}
}

func (c *Console) Println(args ...object.Object) {
	fmt.Fprintln(c.out, join(args))
}

func (c *Console) Print(args ...object.Object) {
	fmt.Fprint(c.out, join(args))
}

// Input writes the optional prompt and reads one line without its line
// terminator. It returns null at end of input.
func (c *Console) Input(prompt ...string) (object.Object, error) {
	if len(prompt) > 0 {
		fmt.Fprint(c.out, strings.Join(prompt, " "))
	}
	line, err := c.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, err
		}
		if line == "" {
			return object.NULL, nil
		}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return &object.String{Value: line}, nil
}

func join(args []object.Object) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Inspect()
	}
	return strings.Join(parts, " ")
}
