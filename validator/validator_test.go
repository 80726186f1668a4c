package validator

import (
	"reflect"
	"testing"

	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/parser"
)

func parseType(t *testing.T, src string) (*ast.TypeDeclaration, ast.TypeExpr) {
	t.Helper()
	prog, err := parser.ParseString(src)
	if err != nil {
		t.Fatalf("ParseString(%q) failed: %v", src, err)
	}
	decl, ok := prog.Statements[0].(*ast.TypeDeclaration)
	if !ok {
		t.Fatalf("expected a type declaration, got %T", prog.Statements[0])
	}
	return decl, decl.Type
}

func genericsOf(decl *ast.TypeDeclaration) map[string]int {
	m := map[string]int{}
	for i, g := range decl.Generics {
		m[g.Name] = i
	}
	return m
}

func obj(kv ...any) *object.DynamicObject {
	o := object.NewDynamicObject()
	for i := 0; i < len(kv); i += 2 {
		o.Set(object.StrKey(kv[i].(string)), kv[i+1].(object.Object))
	}
	return o
}

func integer(v int64) object.Object { return &object.Integer{Value: v} }
func str(v string) object.Object    { return &object.String{Value: v} }

func TestGenericUnwind(t *testing.T) {
	decl, typ := parseType(t, `type Box<T> = [value: T]`)
	box, err := Compile(typ, &Types{}, genericsOf(decl))
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	intBox := box.Unwind([]object.Validator{primitives["int"]})

	if !intBox.IsValid(nil, obj("value", integer(3))) {
		t.Errorf("Box<int> should accept {value: 3}")
	}
	if intBox.IsValid(nil, obj("value", str("x"))) {
		t.Errorf("Box<int> should reject {value: \"x\"}")
	}
	if !box.IsValid(nil, obj("value", str("x"))) {
		t.Errorf("an unspecialized Box should accept any value field")
	}
	if box.IsValid(nil, obj()) {
		t.Errorf("missing fields are invalid even when unspecialized")
	}
}

func TestCompileResolvesScopeTypes(t *testing.T) {
	_, pairType := parseType(t, `type Pair = [a: int, b: int]`)
	pair, err := Compile(pairType, &Types{}, nil)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	geo := object.NewDynamicObject()
	geo.Set(object.StrKey("Pair"), pair)
	r := &Types{Scope: map[string]object.Object{"Pair": pair, "geo": geo}}

	_, listType := parseType(t, `type L = [Pair] | null`)
	list, err := Compile(listType, r, nil)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	good := &object.Array{Elements: []object.Object{obj("a", integer(1), "b", integer(2))}}
	bad := &object.Array{Elements: []object.Object{obj("a", integer(1))}}
	if !list.IsValid(nil, good) {
		t.Errorf("expected [Pair] to accept %s", good.Inspect())
	}
	if list.IsValid(nil, bad) {
		t.Errorf("expected [Pair] to reject %s", bad.Inspect())
	}
	if !list.IsValid(nil, object.NULL) {
		t.Errorf("expected null to be accepted")
	}

	_, dotted := parseType(t, `type D = geo.Pair`)
	if _, err := Compile(dotted, r, nil); err != nil {
		t.Errorf("dotted names should resolve through objects: %v", err)
	}

	_, unknown := parseType(t, `type U = geo.Missing`)
	_, err = Compile(unknown, r, nil)
	if err == nil || err.Error() != "invalid type signature `geo.Missing`" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestPrimitives(t *testing.T) {
	tests := []struct {
		name  string
		value object.Object
		want  bool
	}{
		{"int", integer(1), true},
		{"int", &object.Double{Value: 1}, false},
		{"i32", integer(1 << 40), false},
		{"i64", integer(1 << 40), true},
		{"f64", &object.Double{Value: 1.5}, true},
		{"str", str("s"), true},
		{"bool", object.TRUE, true},
		{"null", object.NULL, true},
		{"any", obj(), true},
	}
	for _, tt := range tests {
		p, _ := LookupPrimitive(tt.name)
		if got := p.IsValid(nil, tt.value); got != tt.want {
			t.Errorf("%s.IsValid(%s) = %v, want %v", tt.name, tt.value.Inspect(), got, tt.want)
		}
	}
}

func TestUnionAndIntersection(t *testing.T) {
	_, typ := parseType(t, `type T = [a: int] & [b: str]`)
	v, err := Compile(typ, &Types{}, nil)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if !v.IsValid(nil, obj("a", integer(1), "b", str("x"))) {
		t.Errorf("intersection should accept a value satisfying both")
	}
	if v.IsValid(nil, obj("a", integer(1))) {
		t.Errorf("intersection should reject a value satisfying one")
	}

	_, typ = parseType(t, `type T = int | str`)
	v, err = Compile(typ, &Types{}, nil)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if !v.IsValid(nil, str("x")) || v.IsValid(nil, object.TRUE) {
		t.Errorf("union membership is wrong")
	}
}

func TestFuncValidator(t *testing.T) {
	_, typ := parseType(t, `type F = func(int, int): int`)
	v, err := Compile(typ, &Types{}, nil)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	two := &object.Function{Params: []*ast.Param{{Name: &ast.Identifier{Name: "a"}}, {Name: &ast.Identifier{Name: "b"}}}}
	one := &object.Function{Params: []*ast.Param{{Name: &ast.Identifier{Name: "a"}}}}
	if !v.IsValid(nil, two) {
		t.Errorf("expected a two-parameter function to be accepted")
	}
	if v.IsValid(nil, one) {
		t.Errorf("expected a one-parameter function to be rejected")
	}
	if v.IsValid(nil, integer(1)) {
		t.Errorf("non-callables are rejected")
	}
}

type server struct {
	Addr string
}

func TestHostValues(t *testing.T) {
	r := &Types{Host: map[string]reflect.Type{"net.Server": reflect.TypeOf(server{})}}
	_, typ := parseType(t, `type S = net.Server`)
	nominal, err := Compile(typ, r, nil)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	hv := &object.GoValue{Value: reflect.ValueOf(&server{Addr: ":80"})}
	if !nominal.IsValid(nil, hv) {
		t.Errorf("a *server should satisfy the nominal server type")
	}

	_, typ = parseType(t, `type HasAddr = [addr: str]`)
	structural, err := Compile(typ, r, nil)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if !structural.IsValid(nil, hv) {
		t.Errorf("host values are checked structurally through their fields")
	}

	_, typ = parseType(t, `type HasPort = [port: int]`)
	missing, _ := Compile(typ, r, nil)
	if missing.IsValid(nil, hv) {
		t.Errorf("a missing host property makes the value invalid")
	}
}
