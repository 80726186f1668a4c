package stdlib_test

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/podhmo/vsharp"
	"github.com/podhmo/vsharp/fs"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/stdlib"
)

func newInterp(stdin string) (*vsharp.Interpreter, *bytes.Buffer) {
	var out bytes.Buffer
	i := vsharp.NewInterpreter(vsharp.WithStdout(&out), vsharp.WithStdin(strings.NewReader(stdin)))
	stdlib.Install(i)
	return i, &out
}

func TestStdlib(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"math abs", "[math.abs(-3), math.abs(-2.5)]", "[3, 2.5]"},
		{"math min max", "[math.min(3, 1, 2), math.max(1, 2.5), math.max(4)]", "[1, 2.5, 4]"},
		{"math float funcs", "[math.sqrt(16), math.pow(2, 10), math.floor(2.7), math.ceil(2.1), math.round(2.5)]", "[4, 1024, 2, 3, 3]"},
		{"math rand", "set r = math.rand_int(5, 6)\n[r, math.pi > 3.14]", "[5, true]"},
		{"json stringify keeps key order", `json.stringify({b: 1, a: [true, null, "x"], c: {z: 1.5}})`, `{"b":1,"a":[true,null,"x"],"c":{"z":1.5}}`},
		{"json stringify indent", `json.stringify([1], 2)`, "[\n  1\n]"},
		{"json parse keeps key order", `set v = json.parse("{\"z\": 1, \"a\": [1.5, {\"y\": null, \"b\": \"s\"}]}")
[v, object.keys(v)]`, `[{z: 1, a: [1.5, {y: null, b: "s"}]}, ["z", "a"]]`},
		{"json parse scalar", `json.parse("42")`, "42"},
		{"json parse keeps large ints exact", `set v = json.parse("[9007199254740993, 2.0, 1e2, -0]")
[v, type_of(v[0]), type_of(v[1]), type_of(v[3])]`, `[[9007199254740993, 2, 100, 0], "int", "f64", "int"]`},
		{"cyclic values print a marker", `set o = {name: "n"}
o.self = o
set xs = [1]
xs.push(xs, o)
[str(o), str(xs)]`, `["{name: \"n\", self: {...}}", "[1, [...], {name: \"n\", self: {...}}]"]`},
		{"object", `set o = object.new()
o.x = 1
o[2] = "two"
set removed = object.remove(o, "x")
[removed, object.has(o, "x"), object.has(o, 2), object.keys(o), object.values(o), object.remove(o, "nope")]`, `[1, false, true, [2], ["two"], null]`},
		{"string methods", `set s = "  Hello World  ".trim()
[s.to_upper(), s.to_lower(), s.split(" "), s.contains("lo W"), s.starts_with("He"), s.ends_with("x"), s.replace("o", "0"), s.len(), s.index_of("W"), s.substring(6, 5), "ab".repeat(2)]`,
			`["HELLO WORLD", "hello world", ["Hello", "World"], true, true, false, "Hell0 W0rld", 11, 6, "World", "abab"]`},
		{"array methods", `set xs = [1, 2]
xs.push(3, 4)
set last = xs.pop()
[last, xs, xs.len(), xs.join("-"), xs.contains(2), xs.slice(1), xs.slice(0, 1), xs.reverse()]`,
			`[4, [1, 2, 3], 3, "1-2-3", true, [2, 3], [1], [3, 2, 1]]`},
		{"array callbacks", "set xs = [1, 2, 3, 4]\n[xs.map(func(x) { x * 10 }), xs.filter(func(x) { x > 2 })]", "[[10, 20, 30, 40], [3, 4]]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, _ := newInterp("")
			got, err := i.EvalString(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("EvalString() failed: %v", err)
			}
			if got.Inspect() != tt.want {
				t.Errorf("got %s, want %s", got.Inspect(), tt.want)
			}
		})
	}
}

func TestStdlibErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  object.ErrorKind
	}{
		{"[].pop()", object.IndexError},
		{"[1].slice(2)", object.IndexError},
		{`"abc".substring(2, 5)`, object.IndexError},
		{`"abc".substring(1, 9223372036854775807)`, object.IndexError},
		{`"abc".substring(4, 0)`, object.IndexError},
		{"math.rand_int(3, 3)", object.NativeError},
		{`math.abs("x")`, object.TypeMismatch},
		{`json.parse("{")`, object.CoercionError},
		{"json.stringify(len)", object.CoercionError},
		{"set xs = [1]\nxs.push(xs)\njson.stringify(xs)", object.TypeMismatch},
		{"set o = {}\no.inner = {back: o}\njson.stringify(o)", object.TypeMismatch},
		{"object.keys([1])", object.TypeMismatch},
		{"[1].map(2)", object.NotCallable},
		{"[1].map(func(x) { x / 0 })", object.DivisionByZero},
		{`"abc".to_upper(1)`, object.ArgumentCount},
		{"[1].nope()", object.MissingMember},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			i, _ := newInterp("")
			_, err := i.EvalString(context.Background(), tt.input)
			var oe *object.Error
			if !errors.As(err, &oe) {
				t.Fatalf("expected *object.Error, got %v", err)
			}
			if oe.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s (%s)", oe.Kind, tt.kind, oe.Message)
			}
		})
	}
}

func TestConsole(t *testing.T) {
	i, out := newInterp("alice\nbob")
	got, err := i.EvalString(context.Background(), `
set a = io.input("name? ")
set b = io.input()
set c = io.input()
io.println("hi", a, [b])
io.print(c)
c`)
	if err != nil {
		t.Fatalf("EvalString() failed: %v", err)
	}
	if got != object.NULL {
		t.Errorf("input at end of stream = %s, want null", got.Inspect())
	}
	if want := "name? hi alice [\"bob\"]\nnull"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestFile(t *testing.T) {
	fsys := fs.NewMapFS(map[string]string{"/data/in.txt": "one\ntwo\n"})
	i := vsharp.NewInterpreter(vsharp.WithStdout(&bytes.Buffer{}), vsharp.WithFS(fsys), vsharp.WithBaseDir("/data"))
	stdlib.Install(i)

	got, err := i.EvalString(context.Background(), `
set lines = file.read_lines("in.txt")
file.write("out.txt", lines.join(","))
file.append("out.txt", 3)
file.copy("out.txt", "copy.txt")
set copied = file.exists("copy.txt")
file.delete("copy.txt")
[lines, file.read("out.txt"), copied, file.exists("copy.txt"), file.exists("/data")]`)
	if err != nil {
		t.Fatalf("EvalString() failed: %v", err)
	}
	if want := `[["one", "two"], "one,two3", true, false, false]`; got.Inspect() != want {
		t.Errorf("got %s, want %s", got.Inspect(), want)
	}
	if fsys["data/out.txt"] != "one,two3" {
		t.Errorf("file system content = %q", fsys["data/out.txt"])
	}

	for _, input := range []string{
		`file.read("missing.txt")`,
		`file.delete("missing.txt")`,
		`file.copy("in.txt", "out.txt")`,
	} {
		_, err := i.EvalString(context.Background(), input)
		var oe *object.Error
		if !errors.As(err, &oe) || oe.Kind != object.NativeError {
			t.Errorf("%s: expected a NativeError, got %v", input, err)
		}
	}
	if _, err := i.EvalString(context.Background(), `file.copy("in.txt", "out.txt", true)`); err != nil {
		t.Errorf("copy with overwrite failed: %v", err)
	}
}

func TestTime(t *testing.T) {
	i, _ := newInterp("")
	got, err := i.EvalString(context.Background(), `
set start = time.parse_iso8601("2024-02-28T10:00:00Z")
set later = time.add_minutes(time.add_hours(time.add_days(start, 2), 1), 30)
[time.to_iso8601(later), time.difference(start, later), later.year(), time.unix(start)]`)
	if err != nil {
		t.Fatalf("EvalString() failed: %v", err)
	}
	if want := `["2024-03-01T11:30:00Z", 178200, 2024, 1709114400]`; got.Inspect() != want {
		t.Errorf("got %s, want %s", got.Inspect(), want)
	}

	_, err = i.EvalString(context.Background(), `time.parse_iso8601("yesterday")`)
	var oe *object.Error
	if !errors.As(err, &oe) || oe.Kind != object.NativeError {
		t.Errorf("expected a NativeError, got %v", err)
	}
}

func TestSys(t *testing.T) {
	i, out := newInterp("")
	_, err := i.EvalString(context.Background(), `
io.println("before")
sys.set_color("red", "nope")
sys.reset_color()
sys.exit(3)
io.println("after")`)
	code, ok := vsharp.ExitStatus(err)
	if !ok || code != 3 {
		t.Fatalf("ExitStatus() = %d, %v; err = %v", code, ok, err)
	}
	if want := "before\n\x1b[31m\x1b[47m\x1b[0m"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if _, ok := vsharp.ExitStatus(errors.New("other")); ok {
		t.Errorf("only sys.exit is an exit request")
	}

	if runtime.GOOS == "windows" {
		t.Skip("sys.execute uses /bin/sh")
	}
	i, out = newInterp("")
	got, err := i.EvalString(context.Background(), `[sys.execute("echo hi"), sys.execute("exit 4")]`)
	if err != nil {
		t.Fatalf("EvalString() failed: %v", err)
	}
	if got.Inspect() != "[0, 4]" || out.String() != "hi\n" {
		t.Errorf("got %s, output %q", got.Inspect(), out.String())
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{`error.throw("bad input")`, "bad input"},
		{`error.throw_if_null(null)`, "value cannot be null"},
		{`error.throw_if_null(null, "need a name")`, "need a name"},
		{`error.throw_if_empty([])`, "collection cannot be empty"},
		{`error.throw_if_empty("", "no text")`, "no text"},
		{`error.throw_custom("ArgumentError", "bad input")`, "ArgumentError: bad input"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			i, _ := newInterp("")
			_, err := i.EvalString(context.Background(), "func check() { "+tt.input+" }\ncheck()")
			var oe *object.Error
			if !errors.As(err, &oe) {
				t.Fatalf("expected *object.Error, got %v", err)
			}
			if oe.Kind != object.Raised || oe.Message != tt.message {
				t.Errorf("got %s %q, want Raised %q", oe.Kind, oe.Message, tt.message)
			}
			if len(oe.CallStack) != 1 || oe.CallStack[0].Function != "check" {
				t.Errorf("raised errors should carry the call stack, got %v", oe.CallStack)
			}
		})
	}

	var stderr bytes.Buffer
	i := vsharp.NewInterpreter(vsharp.WithStdout(&bytes.Buffer{}), vsharp.WithStderr(&stderr))
	stdlib.Install(i)
	got, err := i.EvalString(context.Background(), `
error.throw_if_null(1)
error.throw_if_empty([1])
error.log("disk almost full")
"still running"`)
	if err != nil {
		t.Fatalf("EvalString() failed: %v", err)
	}
	if got.Inspect() != "still running" || stderr.String() != "Error: disk almost full\n" {
		t.Errorf("got %s, stderr %q", got.Inspect(), stderr.String())
	}
}
