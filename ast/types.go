package ast

import (
	"strings"

	"github.com/podhmo/vsharp/token"
)

// TypeExpr is a parsed type annotation.
type TypeExpr interface {
	Node
	typeNode()
}

// NamedType is a dotted name with optional generic arguments, e.g. `geo.Box<int>`.
type NamedType struct {
	NamePos token.Pos
	Names   []string
	Args    []TypeExpr
}

func (t *NamedType) Pos() token.Pos { return t.NamePos }
func (t *NamedType) Name() string { return strings.Join(t.Names, ".") }
func (t *NamedType) String() string {
	if len(t.Args) == 0 {
		return t.Name()
	}
	return t.Name() + "<" + typeList(t.Args, ", ") + ">"
}

// ArrayType is `[T]`.
type ArrayType struct {
	Lbrack token.Pos
	Elem   TypeExpr
}

func (t *ArrayType) Pos() token.Pos { return t.Lbrack }
func (t *ArrayType) String() string { return "[" + t.Elem.String() + "]" }

type TypeField struct {
	Name string
	Type TypeExpr
}

// ObjectType is `[name: T, ...]`. Field order is source order.
type ObjectType struct {
	Lbrack token.Pos
	Fields []*TypeField
}

func (t *ObjectType) Pos() token.Pos { return t.Lbrack }
func (t *ObjectType) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.Name + ": " + f.Type.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FuncType is `func(T, ...): R`. Result is nil when omitted.
type FuncType struct {
	FuncPos token.Pos
	Params  []TypeExpr
	Result  TypeExpr
}

func (t *FuncType) Pos() token.Pos { return t.FuncPos }
func (t *FuncType) String() string {
	s := "func(" + typeList(t.Params, ", ") + ")"
	if t.Result != nil {
		s += ": " + t.Result.String()
	}
	return s
}

// UnionType holds at least two structurally distinct members, none of them unions.
type UnionType struct {
	Types []TypeExpr
}

func (t *UnionType) Pos() token.Pos { return t.Types[0].Pos() }
func (t *UnionType) String() string { return "(" + typeList(t.Types, " | ") + ")" }

// IntersectionType holds at least two structurally distinct members, none of them intersections.
type IntersectionType struct {
	Types []TypeExpr
}

func (t *IntersectionType) Pos() token.Pos { return t.Types[0].Pos() }
func (t *IntersectionType) String() string { return "(" + typeList(t.Types, " & ") + ")" }

func (*NamedType) typeNode()        {}
func (*ArrayType) typeNode()        {}
func (*ObjectType) typeNode()       {}
func (*FuncType) typeNode()         {}
func (*UnionType) typeNode()        {}
func (*IntersectionType) typeNode() {}

// Join returns the union of a and b, flattening nested unions and
// dropping duplicates. Join(T, T) is T.
func Join(a, b TypeExpr) TypeExpr {
	members := appendUnique(nil, unionMembers(a)...)
	members = appendUnique(members, unionMembers(b)...)
	if len(members) == 1 {
		return members[0]
	}
	return &UnionType{Types: members}
}

// Intersect returns the intersection of a and b with the same flattening
// rules as Join.
func Intersect(a, b TypeExpr) TypeExpr {
	members := appendUnique(nil, intersectionMembers(a)...)
	members = appendUnique(members, intersectionMembers(b)...)
	if len(members) == 1 {
		return members[0]
	}
	return &IntersectionType{Types: members}
}

func unionMembers(t TypeExpr) []TypeExpr {
	if u, ok := t.(*UnionType); ok {
		return u.Types
	}
	return []TypeExpr{t}
}

func intersectionMembers(t TypeExpr) []TypeExpr {
	if u, ok := t.(*IntersectionType); ok {
		return u.Types
	}
	return []TypeExpr{t}
}

func appendUnique(dst []TypeExpr, xs ...TypeExpr) []TypeExpr {
	for _, x := range xs {
		if !containsType(dst, x) {
			dst = append(dst, x)
		}
	}
	return dst
}

func containsType(set []TypeExpr, t TypeExpr) bool {
	for _, s := range set {
		if TypeEqual(s, t) {
			return true
		}
	}
	return false
}

// TypeEqual reports structural equality. Unions and intersections compare
// as sets.
func TypeEqual(a, b TypeExpr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case *NamedType:
		b, ok := b.(*NamedType)
		if !ok || a.Name() != b.Name() || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !TypeEqual(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case *ArrayType:
		b, ok := b.(*ArrayType)
		return ok && TypeEqual(a.Elem, b.Elem)
	case *ObjectType:
		b, ok := b.(*ObjectType)
		if !ok || len(a.Fields) != len(b.Fields) {
			return false
		}
		for _, fa := range a.Fields {
			found := false
			for _, fb := range b.Fields {
				if fa.Name == fb.Name {
					found = TypeEqual(fa.Type, fb.Type)
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case *FuncType:
		b, ok := b.(*FuncType)
		if !ok || len(a.Params) != len(b.Params) || !TypeEqual(a.Result, b.Result) {
			return false
		}
		for i := range a.Params {
			if !TypeEqual(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case *UnionType:
		b, ok := b.(*UnionType)
		return ok && sameSet(a.Types, b.Types)
	case *IntersectionType:
		b, ok := b.(*IntersectionType)
		return ok && sameSet(a.Types, b.Types)
	}
	return false
}

func sameSet(xs, ys []TypeExpr) bool {
	for _, x := range xs {
		if !containsType(ys, x) {
			return false
		}
	}
	for _, y := range ys {
		if !containsType(xs, y) {
			return false
		}
	}
	return true
}

func typeList(ts []TypeExpr, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}
