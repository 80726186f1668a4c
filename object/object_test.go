package object

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/podhmo/vsharp/token"
)

func TestEnvironmentSetDelegatesToOwner(t *testing.T) {
	root := NewEnvironment()
	middle := NewEnclosedEnvironment(root)
	leaf := NewEnclosedEnvironment(middle)

	root.Set("x", &Integer{Value: 1})
	leaf.Set("x", &Integer{Value: 2})

	got, ok := root.Get("x")
	if !ok {
		t.Fatalf("x not found at root")
	}
	if got.(*Integer).Value != 2 {
		t.Errorf("root view of x = %s, want 2", got.Inspect())
	}
	if _, ok := leaf.GetLocal("x"); ok {
		t.Errorf("assignment from the leaf must not create a local binding")
	}
	if _, ok := middle.GetLocal("x"); ok {
		t.Errorf("assignment from the leaf must not create a binding in the middle frame")
	}
}

func TestEnvironmentSetCreatesLocally(t *testing.T) {
	root := NewEnvironment()
	leaf := NewEnclosedEnvironment(root)

	leaf.Set("y", &String{Value: "v"})
	if _, ok := root.Get("y"); ok {
		t.Errorf("new names must not leak into the parent")
	}
	if _, ok := leaf.GetLocal("y"); !ok {
		t.Errorf("new name should be bound locally")
	}
}

func TestEnvironmentSetLocalShadows(t *testing.T) {
	root := NewEnvironment()
	root.Set("x", &Integer{Value: 1})
	leaf := NewEnclosedEnvironment(root)
	leaf.SetLocal("x", &Integer{Value: 5})
	leaf.Set("x", &Integer{Value: 6})

	v, _ := root.Get("x")
	if v.(*Integer).Value != 1 {
		t.Errorf("root x = %s, want 1", v.Inspect())
	}
	v, _ = leaf.Get("x")
	if v.(*Integer).Value != 6 {
		t.Errorf("leaf x = %s, want 6", v.Inspect())
	}
	if leaf.Assign("missing", NULL) {
		t.Errorf("Assign should report unknown names")
	}
}

func TestObjectEnvironmentWritesThrough(t *testing.T) {
	obj := NewDynamicObject()
	seed := NewEnvironment()
	seed.Set("print", &Builtin{Name: "print"})
	env := NewObjectEnvironment(obj, seed)

	env.Set("a", &Integer{Value: 1})
	env.Set("b", &Integer{Value: 2})
	env.Set("a", &Integer{Value: 3})

	if diff := cmp.Diff([]string{"a", "b"}, env.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if got := obj.Inspect(); got != "{a: 3, b: 2}" {
		t.Errorf("backing object = %s", got)
	}
	if _, ok := env.Get("print"); !ok {
		t.Errorf("outer bindings should stay visible")
	}
}

func TestDynamicObjectOrder(t *testing.T) {
	o := NewDynamicObject()
	o.Set(StrKey("z"), &Integer{Value: 1})
	o.Set(IntKey(0), &String{Value: "zero"})
	o.Set(StrKey("a"), TRUE)
	o.Set(StrKey("z"), &Integer{Value: 2})

	if got, want := o.Inspect(), `{z: 2, 0: "zero", a: true}`; got != want {
		t.Errorf("Inspect() = %s, want %s", got, want)
	}
	if !o.Delete(IntKey(0)) || o.Delete(IntKey(0)) {
		t.Errorf("Delete should report presence exactly once")
	}
	if got, want := o.Keys(), []Key{StrKey("z"), StrKey("a")}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if o.Has(StrKey("0")) {
		t.Errorf("string and integer keys are distinct")
	}
}

func TestInspect(t *testing.T) {
	tests := []struct {
		obj  Object
		want string
	}{
		{&Integer{Value: -3}, "-3"},
		{&Double{Value: 3.5}, "3.5"},
		{&Double{Value: 2}, "2"},
		{&String{Value: "s"}, "s"},
		{NULL, "null"},
		{&Array{Elements: []Object{&Integer{Value: 1}, &String{Value: "x"}}}, `[1, "x"]`},
		{&Range{Start: 0, Stop: 3, Step: 1}, "range(0, 3, 1)"},
	}
	for _, tt := range tests {
		if got := tt.obj.Inspect(); got != tt.want {
			t.Errorf("Inspect() = %q, want %q", got, tt.want)
		}
	}
}

func TestInspectCycles(t *testing.T) {
	arr := &Array{Elements: []Object{&Integer{Value: 1}}}
	arr.Elements = append(arr.Elements, arr)

	obj := NewDynamicObject()
	obj.Set(StrKey("name"), &String{Value: "n"})
	obj.Set(StrKey("self"), obj)
	obj.Set(StrKey("items"), arr)

	shared := &Array{Elements: []Object{&Integer{Value: 7}}}
	pair := &Array{Elements: []Object{shared, shared}}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"self-referencing array", arr.Inspect(), "[1, [...]]"},
		{"self-referencing object", obj.Inspect(), `{name: "n", self: {...}, items: [1, [...]]}`},
		{"repr of a cycle", Repr(obj), `{name: "n", self: {...}, items: [1, [...]]}`},
		{"shared but acyclic", pair.Inspect(), "[[7], [7]]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func collect(it Iterator) []string {
	var r []string
	for it.Next() {
		r = append(r, it.Current().Inspect())
	}
	return r
}

func TestIterables(t *testing.T) {
	if diff := cmp.Diff([]string{"0", "2", "4"}, collect((&Range{Start: 0, Stop: 5, Step: 2}).Iterate())); diff != "" {
		t.Errorf("range mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"3", "2", "1"}, collect((&Range{Start: 3, Stop: 0, Step: -1}).Iterate())); diff != "" {
		t.Errorf("descending range mismatch (-want +got):\n%s", diff)
	}
	r := &Range{Start: 0, Stop: 2, Step: 1}
	collect(r.Iterate())
	if diff := cmp.Diff([]string{"0", "1"}, collect(r.Iterate())); diff != "" {
		t.Errorf("iteration should restart per call (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "é"}, collect((&String{Value: "aé"}).Iterate())); diff != "" {
		t.Errorf("string mismatch (-want +got):\n%s", diff)
	}
}

func TestRangeNearInt64Bounds(t *testing.T) {
	const hi, lo = math.MaxInt64, math.MinInt64
	tests := []struct {
		name string
		r    *Range
		want []string
		len  uint64
	}{
		{"step past the maximum", &Range{Start: hi - 1, Stop: hi, Step: 2}, []string{"9223372036854775806"}, 1},
		{"last value is the maximum", &Range{Start: hi - 2, Stop: hi, Step: 1}, []string{"9223372036854775805", "9223372036854775806"}, 2},
		{"step past the minimum", &Range{Start: lo + 1, Stop: lo, Step: -3}, []string{"-9223372036854775807"}, 1},
		{"empty", &Range{Start: 5, Stop: 5, Step: 1}, nil, 0},
		{"wrong direction", &Range{Start: 0, Stop: 5, Step: -1}, nil, 0},
		{"uneven step", &Range{Start: 0, Stop: 10, Step: 3}, []string{"0", "3", "6", "9"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, collect(tt.r.Iterate())); diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
			if got := tt.r.Len(); got != tt.len {
				t.Errorf("Len() = %d, want %d", got, tt.len)
			}
		})
	}

	huge := &Range{Start: lo, Stop: hi, Step: 1}
	if got := huge.Len(); got != math.MaxUint64 {
		t.Errorf("Len() = %d, want %d", got, uint64(math.MaxUint64))
	}
	if !huge.Contains(hi-1) || huge.Contains(hi) {
		t.Errorf("Contains() is wrong at the upper bound")
	}
	if !(&Range{Start: lo, Stop: hi, Step: 2}).Contains(hi - 1) {
		t.Errorf("Contains() should handle a span wider than int64")
	}
}

type point struct {
	X, Y int
	name string
}

func (p *point) Sum() int            { return p.X + p.Y }
func (p *point) Scale(n int) *point  { return &point{X: p.X * n, Y: p.Y * n} }
func (p *point) Describe() string    { return "point" }
func (p *point) Fail() (int, error)  { return 0, errors.New("boom") }
func (p *point) Join(sep string, parts ...string) string {
	return strings.Join(parts, sep)
}

func TestHostProperty(t *testing.T) {
	p := reflect.ValueOf(&point{X: 1, Y: 2})
	v, ok := HostProperty(p, "x")
	if !ok || v.Inspect() != "1" {
		t.Errorf("HostProperty(x) = %v, %v", v, ok)
	}
	if _, ok := HostProperty(p, "name"); ok {
		t.Errorf("unexported fields must not be visible")
	}
	if _, ok := HostProperty(p, "missing"); ok {
		t.Errorf("missing property should not be found")
	}
	if err := SetHostProperty(p, "y", &Integer{Value: 10}, nil); err != nil {
		t.Fatalf("SetHostProperty() failed: %v", err)
	}
	if got := p.Interface().(*point).Y; got != 10 {
		t.Errorf("Y = %d, want 10", got)
	}
}

func TestCallHostMethod(t *testing.T) {
	p := reflect.ValueOf(&point{X: 1, Y: 2})

	got, err := CallHostMethod(p, "sum", nil, nil)
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	if got.Inspect() != "3" {
		t.Errorf("sum = %s, want 3", got.Inspect())
	}

	got, err = CallHostMethod(p, "join", []Object{&String{Value: "-"}, &String{Value: "a"}, &String{Value: "b"}}, nil)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if got.Inspect() != "a-b" {
		t.Errorf("join = %s", got.Inspect())
	}

	_, err = CallHostMethod(p, "scale", []Object{&String{Value: "x"}}, nil)
	if err == nil || err.Kind != CoercionError {
		t.Errorf("expected a coercion error, got %v", err)
	}
	_, err = CallHostMethod(p, "scale", nil, nil)
	if err == nil || err.Kind != ArgumentCount {
		t.Errorf("expected an argument count error, got %v", err)
	}
	_, err = CallHostMethod(p, "nope", nil, nil)
	if err == nil || err.Kind != MissingMember {
		t.Errorf("expected a missing member error, got %v", err)
	}

	got, err = CallHostMethod(p, "fail", nil, nil)
	if err != nil {
		t.Fatalf("fail resolution failed: %v", err)
	}
	if e, ok := got.(*Error); !ok || e.Kind != NativeError || e.Message != "boom" {
		t.Errorf("expected a native error, got %#v", got)
	}
}

func TestWrapFunction(t *testing.T) {
	add := WrapFunction("add", reflect.ValueOf(func(a, b int) int { return a + b }))
	if got := add.Fn(nil, token.NoPos, &Integer{Value: 2}, &Integer{Value: 3}); got.Inspect() != "5" {
		t.Errorf("add(2, 3) = %s", got.Inspect())
	}
	got := add.Fn(nil, token.NoPos, &Integer{Value: 2})
	if e, ok := got.(*Error); !ok || e.Kind != ArgumentCount {
		t.Errorf("expected an argument count error, got %s", got.Inspect())
	} else if !strings.Contains(e.Message, `"add" expects 2 arguments but got 1`) {
		t.Errorf("unexpected message %q", e.Message)
	}
	got = add.Fn(nil, token.NoPos, &Integer{Value: 2}, &String{Value: "x"})
	if e, ok := got.(*Error); !ok || e.Kind != CoercionError {
		t.Errorf("expected a coercion error, got %s", got.Inspect())
	}

	split := WrapFunction("split", reflect.ValueOf(strings.Split))
	got = split.Fn(nil, token.NoPos, &String{Value: "a,b"}, &String{Value: ","})
	if got.Inspect() != `["a", "b"]` {
		t.Errorf("split = %s", got.Inspect())
	}
}

func TestToReflectCallback(t *testing.T) {
	double := &Builtin{Name: "double", Fn: func(ctx *BuiltinContext, _ token.Pos, args ...Object) Object {
		return &Integer{Value: args[0].(*Integer).Value * 2}
	}}
	call := func(fn Object, args ...Object) Object { return fn.(*Builtin).Fn(nil, token.NoPos, args...) }
	v, err := ToReflect(double, reflect.TypeOf(func(int) int { return 0 }), call)
	if err != nil {
		t.Fatalf("ToReflect() failed: %v", err)
	}
	if got := v.Interface().(func(int) int)(21); got != 42 {
		t.Errorf("callback returned %d, want 42", got)
	}
}

func TestWrapFunctionCallbackResultMismatch(t *testing.T) {
	apply := WrapFunction("apply", reflect.ValueOf(func(f func(int) int, x int) int { return f(x) + 100 }))
	oops := &Builtin{Name: "oops", Fn: func(ctx *BuiltinContext, _ token.Pos, args ...Object) Object {
		return &String{Value: "oops"}
	}}
	ctx := &BuiltinContext{Call: func(fn Object, args ...Object) Object { return fn.(*Builtin).Fn(nil, token.NoPos, args...) }}
	pos := token.Pos{Line: 2, Col: 5}

	got := apply.Fn(ctx, pos, oops, &Integer{Value: 1})
	err, ok := got.(*Error)
	if !ok {
		t.Fatalf("expected an error, got %s", got.Inspect())
	}
	if err.Kind != CoercionError || err.Pos != pos {
		t.Errorf("got %s at %s, want CoercionError at %s", err.Kind, err.Pos, pos)
	}
	if !strings.Contains(err.Message, "callback result") {
		t.Errorf("message = %q", err.Message)
	}
}

func TestFromGo(t *testing.T) {
	obj := FromGo("m", map[string]any{"b": 1, "a": "x", "f": func() bool { return true }})
	d, ok := obj.(*DynamicObject)
	if !ok {
		t.Fatalf("expected a DynamicObject, got %T", obj)
	}
	f, _ := d.Get(StrKey("f"))
	if _, ok := f.(*Builtin); !ok {
		t.Errorf("functions should become builtins, got %T", f)
	}
	a, _ := d.Get(StrKey("a"))
	if a.Inspect() != "x" {
		t.Errorf("a = %s", a.Inspect())
	}
}
