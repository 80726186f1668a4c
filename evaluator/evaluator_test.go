package evaluator

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/podhmo/vsharp/fs"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/parser"
	"github.com/podhmo/vsharp/token"
)

// testEval parses and runs input as the file /main.vs.
func testEval(t *testing.T, input string) object.Object {
	t.Helper()
	return testEvalWith(t, New(Config{Stdout: &bytes.Buffer{}}), input)
}

func testEvalWith(t *testing.T, e *Evaluator, input string) object.Object {
	t.Helper()
	return runIn(t, e, object.NewEnvironment(), input)
}

func runIn(t *testing.T, e *Evaluator, env *object.Environment, input string) object.Object {
	t.Helper()
	prog, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", input, err)
	}
	return e.Run(context.Background(), prog, env, FileScopeOf("/main.vs"))
}

func expectInspect(t *testing.T, got object.Object, want string) {
	t.Helper()
	if err, ok := got.(*object.Error); ok {
		t.Fatalf("unexpected error: %s", err.Inspect())
	}
	if got.Inspect() != want {
		t.Errorf("got %s (%s), want %s", got.Inspect(), object.TypeName(got), want)
	}
}

func expectError(t *testing.T, got object.Object, kind object.ErrorKind) *object.Error {
	t.Helper()
	err, ok := got.(*object.Error)
	if !ok {
		t.Fatalf("expected a %s error, got %s", kind, got.Inspect())
	}
	if err.Kind != kind {
		t.Fatalf("expected a %s error, got %s", kind, err.Error())
	}
	return err
}

func TestScenarios(t *testing.T) {
	expectInspect(t, testEval(t, "set x = 1\nwhile (x < 3) { x = x + 1 }\nx"), "3")

	expectInspect(t, testEval(t, "func add(a, b) { return a + b }\nadd(2,3)"), "5")
	err := expectError(t, testEval(t, "func add(a, b) { return a + b }\nadd(1)"), object.ArgumentCount)
	if !strings.Contains(err.Message, "got=1, want=2") {
		t.Errorf("unexpected message %q", err.Message)
	}

	expectInspect(t, testEval(t, "type Pair = [a: int, b: int]\n({a: 1, b: 2}) is Pair"), "true")
	expectInspect(t, testEval(t, "type Pair = [a: int, b: int]\n({a: 1}) is Pair"), "false")
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2.5 == 3.5", "true"},
		{"1 + 2.5", "3.5"},
		{`"a" + 1 == "a1"`, "true"},
		{`1 + "a"`, "1a"},
		{`"a" + null`, "anull"},
		{"7 / 2", "3"},
		{"7.0 / 2", "3.5"},
		{"2 * 3 - 4 / 2", "4"},
		{"10 - 3 - 2", "9"},
		{"8 / 4 / 2", "4"},
		{"(10 - 3) - 2", "5"},
		{"-3 + 1", "-2"},
		{`"abc" < "abd"`, "true"},
		{"2 >= 2.0", "true"},
		{"!(1 < 2)", "false"},
		{"1 < 2 and 2 < 1", "false"},
		{"false or 3", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectInspect(t, testEval(t, tt.input), tt.want)
		})
	}
}

func TestArithmeticErrors(t *testing.T) {
	expectError(t, testEval(t, "5 / 0"), object.DivisionByZero)
	expectError(t, testEval(t, "5.0 / 0"), object.DivisionByZero)
	expectError(t, testEval(t, `"a" - 1`), object.TypeMismatch)
	expectError(t, testEval(t, "1 + true"), object.TypeMismatch)
	expectError(t, testEval(t, "null == null"), object.TypeMismatch)
	expectError(t, testEval(t, "true == true"), object.TypeMismatch)
	expectError(t, testEval(t, "-\"x\""), object.TypeMismatch)

	// the right operand of a short-circuited `and` is not evaluated
	expectInspect(t, testEval(t, "false and (1 / 0)"), "false")
}

func TestScopeMutation(t *testing.T) {
	input := `
set x = 1
func bump() {
  x = x + 1
}
bump()
bump()
x`
	expectInspect(t, testEval(t, input), "3")

	input = `
set y = 1
{
  set z = 5
  y = z
}
[y, z]`
	expectError(t, testEval(t, input), object.UnboundVariable)
}

func TestClosureCaptureIsByReference(t *testing.T) {
	input := `
set x = 1
set f = func() { x }
set g = func() { x }
x = 2
[f(), g()]`
	expectInspect(t, testEval(t, input), "[2, 2]")

	input = `
func counter() {
  set n = 0
  return func() {
    n = n + 1
    n
  }
}
set c = counter()
c()
c()
set d = counter()
[c(), d()]`
	expectInspect(t, testEval(t, input), "[3, 1]")
}

func TestControlFlow(t *testing.T) {
	input := `
func f() {
  set i = 0
  while (true) {
    i = i + 1
    if (i == 3) { break }
  }
  return i * 10
}
f()`
	expectInspect(t, testEval(t, input), "30")

	input = `
set total = 0
for (i in range(10)) {
  if (i == 2) { continue }
  if (i == 5) { break }
  total = total + i
}
total`
	expectInspect(t, testEval(t, input), "8")

	input = `
func find(xs, want) {
  for (x in xs) {
    if (x == want) { return "found" }
  }
  "missing"
}
[find([1, 2, 3], 2), find([1], 9)]`
	expectInspect(t, testEval(t, input), `["found", "missing"]`)

	expectError(t, testEval(t, "return 1"), object.ControlFlow)
	expectError(t, testEval(t, "break"), object.ControlFlow)
	expectError(t, testEval(t, "func f() { break }\nf()"), object.ControlFlow)
}

func TestIfAndBlockExpressions(t *testing.T) {
	expectInspect(t, testEval(t, "set x = if (1 < 2) { \"a\" } else { \"b\" }\nx"), "a")
	expectInspect(t, testEval(t, "if (false) { 1 }"), "null")
	expectInspect(t, testEval(t, "set v = 5\nif (v < 0) { \"neg\" } else if (v == 0) { \"zero\" } else { \"pos\" }"), "pos")
	expectInspect(t, testEval(t, "set y = {\n set a = 2\n a * 3\n}\ny"), "6")
}

func TestForIterables(t *testing.T) {
	input := `
set out = []
for (c in "héllo") { out.push(c) }
for (k in {a: 1, 2: "two"}) { out.push(k) }
out`
	e := New(Config{Stdout: &bytes.Buffer{}, Methods: map[object.ObjectType]map[string]*object.Builtin{
		object.ARRAY_OBJ: {"push": pushBuiltin},
	}})
	expectInspect(t, testEvalWith(t, e, input), `["h", "é", "l", "l", "o", "a", 2]`)

	expectError(t, testEval(t, "for (x in 3) { x }"), object.NotIterable)

	// ranges next to the int64 bounds neither wrap around nor get counted one by one
	input = `
set seen = []
for (i in range(9223372036854775806, 9223372036854775807, 2)) { seen.push(i) }
[seen, len(range(0, 9000000000000000000)), len(range(10, 0, -3)), 9223372036854775805 in range(0, 9223372036854775807, 5)]`
	expectInspect(t, testEvalWith(t, e, input), "[[9223372036854775806], 9000000000000000000, 4, true]")
}

var pushBuiltin = &object.Builtin{
	Name: "push",
	Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
		arr := args[0].(*object.Array)
		arr.Elements = append(arr.Elements, args[1:]...)
		return arr
	},
}

func TestObjectsAndMethods(t *testing.T) {
	input := `
set point = {x: 1, y: 2}
func point.sum() { return point.x + point.y }
point.x = 10
set point.z = 0
point.sum()`
	expectInspect(t, testEval(t, input), "12")

	input = `
set handlers = [null, null]
func handlers[1](v) { return v * 2 }
handlers[1](21)`
	expectInspect(t, testEval(t, input), "42")

	input = `
set o = {}
o["k"] = 1
o[3] = "three"
[o.k, o[3], "k" in o, "z" in o, 2 in [1, 2], "ell" in "hello", 4 in range(0, 10, 2)]`
	expectInspect(t, testEval(t, input), `[1, "three", true, false, true, true, true]`)

	expectError(t, testEval(t, "set o = {}\no.missing"), object.MissingMember)
	expectError(t, testEval(t, "set o = {}\no.missing()"), object.MissingMember)
	expectError(t, testEval(t, "[1, 2][5]"), object.IndexError)
	expectError(t, testEval(t, "3[0]"), object.IndexError)
	expectError(t, testEval(t, "nope"), object.UnboundVariable)
	expectError(t, testEval(t, "set x = 1\nx()"), object.NotCallable)
}

func TestTypeChecks(t *testing.T) {
	input := `
type Box<T> = [value: T]
[({value: 3}) is Box<int>, ({value: "x"}) is Box<int>, ({value: "x"}) is Box]`
	expectInspect(t, testEval(t, input), "[true, false, true]")

	expectInspect(t, testEval(t, "[1 is int | str, 1.5 is int, null is null, [1, 2] is [int]]"), "[true, false, true, true]")

	input = `
func greet(name: str): str { return "hi " + name }
greet("bob")`
	expectInspect(t, testEval(t, input), "hi bob")
	expectError(t, testEval(t, "func greet(name: str) { name }\ngreet(1)"), object.TypeMismatch)
	expectError(t, testEval(t, "func bad(): int { \"x\" }\nbad()"), object.TypeMismatch)
	expectError(t, testEval(t, "func f(a: Unknown) { a }\nf(1)"), object.InvalidType)
	expectError(t, testEval(t, "type T = Missing"), object.InvalidType)

	input = `
func first<T>(xs: [T]): T { return xs[0] }
first([7, 8])`
	expectInspect(t, testEval(t, input), "7")
}

func TestErrorsCarryCallStack(t *testing.T) {
	input := `
func inner() { return 1 / 0 }
func outer() { return inner() }
outer()`
	err := expectError(t, testEval(t, input), object.DivisionByZero)
	if len(err.CallStack) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(err.CallStack))
	}
	if err.CallStack[0].Function != "outer" || err.CallStack[1].Function != "inner" {
		t.Errorf("unexpected stack %v", err.CallStack)
	}
	if err.File != "/main.vs" {
		t.Errorf("File = %q, want /main.vs", err.File)
	}
	if !strings.Contains(err.Inspect(), "at inner") {
		t.Errorf("Inspect() should render frames: %s", err.Inspect())
	}
}

func TestUnboundedRecursionIsAnError(t *testing.T) {
	e := New(Config{Stdout: &bytes.Buffer{}})
	err := expectError(t, testEvalWith(t, e, "func f(n) { return f(n + 1) }\nf(0)"), object.ControlFlow)
	if !strings.Contains(err.Message, "maximum call depth exceeded") {
		t.Errorf("Message = %q", err.Message)
	}
	if len(err.CallStack) != MaxCallDepth {
		t.Errorf("expected %d frames, got %d", MaxCallDepth, len(err.CallStack))
	}

	// the stack unwinds, so bounded recursion still works afterwards
	expectInspect(t, testEvalWith(t, e, "func down(n) {\n  if (n == 0) { return 0 }\n  return down(n - 1)\n}\ndown(100)"), "0")
}

func TestBuiltins(t *testing.T) {
	var out bytes.Buffer
	e := New(Config{Stdout: &out})
	input := `
println("a", 1, [2])
print("b")
[len("héllo"), len([1, 2]), len({a: 1}), len(range(3)), str(1.5), int("42"), int(3.9), float(2), type_of({}), type_of(len)]`
	expectInspect(t, testEvalWith(t, e, input), `[5, 2, 1, 3, "1.5", 42, 3, 2, "object", "func"]`)
	if got := out.String(); got != "a 1 [2]\nb" {
		t.Errorf("output = %q", got)
	}

	expectError(t, testEval(t, `int("x")`), object.CoercionError)
	expectError(t, testEval(t, "range(1, 2, 0)"), object.TypeMismatch)
	expectError(t, testEval(t, "len(1)"), object.TypeMismatch)

	// scope bindings shadow builtins
	expectInspect(t, testEval(t, "set len = 3\nlen"), "3")
}

func TestImport(t *testing.T) {
	files := fs.NewMapFS(map[string]string{
		"/app/util.vs": `
set greeting = "hi"
set count = 0
func shout(s) { return s + "!" }
func bump() { count = count + 1 }`,
		"/app/lib/nested.vs": `import "../util.vs"
set twice = shout(greeting) + shout(greeting)`,
		"/a.vs": `import "b.vs"`,
		"/b.vs": `import "a"`,
	})
	newEval := func() *Evaluator { return New(Config{FS: files, Stdout: &bytes.Buffer{}}) }
	run := func(e *Evaluator, path, src string) object.Object {
		t.Helper()
		prog, err := parser.ParseString(src)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		return e.Run(context.Background(), prog, object.NewEnvironment(), FileScopeOf(path))
	}

	expectInspect(t, run(newEval(), "/app/main.vs", "import \"util.vs\" as u\nu.bump()\nu.bump()\n[u.shout(u.greeting), u.count]"), `["hi!", 2]`)
	expectInspect(t, run(newEval(), "/app/main.vs", "import \"util\"\nbump()\n[shout(greeting), count]"), `["hi!", 0]`)
	expectInspect(t, run(newEval(), "/app/main.vs", "import \"lib/nested.vs\" as n\nn.twice"), "hi!hi!")

	err := expectError(t, run(newEval(), "/a.vs", `import "b"`), object.ImportError)
	if !strings.Contains(err.Message, "cycle") {
		t.Errorf("unexpected message %q", err.Message)
	}
	expectError(t, run(newEval(), "/app/main.vs", `import "missing.vs"`), object.ImportError)
}

func TestRunStopsWhenContextIsDone(t *testing.T) {
	prog, err := parser.ParseString("set x = 1\nx = 2")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(Config{Stdout: &bytes.Buffer{}})
	got := e.Run(ctx, prog, object.NewEnvironment(), FileScopeOf("/main.vs"))
	err2 := expectError(t, got, object.ControlFlow)
	if !strings.Contains(err2.Message, "interrupted") {
		t.Errorf("unexpected message %q", err2.Message)
	}
}
