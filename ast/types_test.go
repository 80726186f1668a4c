package ast

import (
	"testing"
)

func named(name string) TypeExpr { return &NamedType{Names: []string{name}} }

func TestJoinFlattens(t *testing.T) {
	a, b, c := named("A"), named("B"), named("C")

	tests := []struct {
		name string
		got  TypeExpr
		want TypeExpr
	}{
		{"union then bare", Join(Join(a, b), c), &UnionType{Types: []TypeExpr{a, b, c}}},
		{"bare then union", Join(a, Join(b, c)), &UnionType{Types: []TypeExpr{a, b, c}}},
		{"union and union", Join(Join(a, b), Join(c, a)), &UnionType{Types: []TypeExpr{a, b, c}}},
		{"order does not matter", Join(c, Join(b, a)), &UnionType{Types: []TypeExpr{a, b, c}}},
		{"idempotent", Join(a, a), a},
		{"idempotent structural", Join(&ArrayType{Elem: named("int")}, &ArrayType{Elem: named("int")}), &ArrayType{Elem: named("int")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !TypeEqual(tt.got, tt.want) {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}

	if u, ok := Join(Join(a, b), Join(b, c)).(*UnionType); !ok || len(u.Types) != 3 {
		t.Errorf("expected a flat union of three members, got %#v", u)
	}
}

func TestIntersectFlattens(t *testing.T) {
	a, b, c := named("A"), named("B"), named("C")
	got := Intersect(Intersect(a, b), c)
	it, ok := got.(*IntersectionType)
	if !ok {
		t.Fatalf("expected *IntersectionType, got %T", got)
	}
	if len(it.Types) != 3 {
		t.Errorf("expected 3 members, got %d", len(it.Types))
	}
	if Intersect(b, b) != b {
		t.Errorf("Intersect(T, T) should be T")
	}
	// union members are not flattened into an intersection
	mixed := Intersect(Join(a, b), c)
	if it, ok := mixed.(*IntersectionType); !ok || len(it.Types) != 2 {
		t.Errorf("unexpected shape %s", mixed)
	}
}

func TestTypeEqual(t *testing.T) {
	obj1 := &ObjectType{Fields: []*TypeField{{Name: "a", Type: named("int")}, {Name: "b", Type: named("str")}}}
	obj2 := &ObjectType{Fields: []*TypeField{{Name: "b", Type: named("str")}, {Name: "a", Type: named("int")}}}
	if !TypeEqual(obj1, obj2) {
		t.Errorf("object types with the same fields should be equal")
	}
	f1 := &FuncType{Params: []TypeExpr{named("int")}, Result: named("bool")}
	f2 := &FuncType{Params: []TypeExpr{named("int")}}
	if TypeEqual(f1, f2) {
		t.Errorf("function types with different results should differ")
	}
	g1 := &NamedType{Names: []string{"Box"}, Args: []TypeExpr{named("int")}}
	g2 := &NamedType{Names: []string{"Box"}, Args: []TypeExpr{named("str")}}
	if TypeEqual(g1, g2) {
		t.Errorf("generic instances with different args should differ")
	}
}
