package validator

import (
	"fmt"
	"reflect"

	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/object"
)

// Resolver resolves the names a type expression refers to.
type Resolver interface {
	// Lookup finds a value bound in scope.
	Lookup(name string) (object.Object, bool)
	// HostType finds a registered host type by its dotted name.
	HostType(name string) (reflect.Type, bool)
}

// Compile turns t into a validator. generics maps the generic parameter
// names in scope to their index.
func Compile(t ast.TypeExpr, r Resolver, generics map[string]int) (object.Validator, error) {
	switch t := t.(type) {
	case *ast.NamedType:
		return compileNamed(t, r, generics)
	case *ast.ArrayType:
		elem, err := Compile(t.Elem, r, generics)
		if err != nil {
			return nil, err
		}
		return &Array{Elem: elem}, nil
	case *ast.ObjectType:
		o := &Object{Fields: make([]Field, len(t.Fields))}
		for i, f := range t.Fields {
			ft, err := Compile(f.Type, r, generics)
			if err != nil {
				return nil, err
			}
			o.Fields[i] = Field{Name: f.Name, Type: ft}
		}
		return o, nil
	case *ast.FuncType:
		fn := &Func{Params: make([]object.Validator, len(t.Params))}
		for i, p := range t.Params {
			pt, err := Compile(p, r, generics)
			if err != nil {
				return nil, err
			}
			fn.Params[i] = pt
		}
		if t.Result != nil {
			rt, err := Compile(t.Result, r, generics)
			if err != nil {
				return nil, err
			}
			fn.Result = rt
		}
		return fn, nil
	case *ast.UnionType:
		members, err := compileAll(t.Types, r, generics)
		if err != nil {
			return nil, err
		}
		return &Union{Members: members}, nil
	case *ast.IntersectionType:
		members, err := compileAll(t.Types, r, generics)
		if err != nil {
			return nil, err
		}
		return &Intersection{Members: members}, nil
	}
	return nil, fmt.Errorf("unsupported type expression %T", t)
}

func compileAll(ts []ast.TypeExpr, r Resolver, generics map[string]int) ([]object.Validator, error) {
	vs := make([]object.Validator, len(ts))
	for i, t := range ts {
		v, err := Compile(t, r, generics)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

// compileNamed resolves, in order: generic parameters, primitives,
// validators bound in scope (following dotted members of objects), and
// registered host types.
func compileNamed(t *ast.NamedType, r Resolver, generics map[string]int) (object.Validator, error) {
	name := t.Name()
	var base object.Validator

	if len(t.Names) == 1 {
		if idx, ok := generics[name]; ok {
			base = &Generic{Name: name, Index: idx}
		} else if p, ok := LookupPrimitive(name); ok {
			base = p
		}
	}
	if base == nil {
		if v, ok := lookupScope(t.Names, r); ok {
			base = v
		}
	}
	if base == nil {
		if ht, ok := r.HostType(name); ok {
			base = &Nominal{Name: name, HostType: ht}
		}
	}
	if base == nil {
		return nil, fmt.Errorf("invalid type signature `%s`", name)
	}

	if len(t.Args) == 0 {
		return base, nil
	}
	args, err := compileAll(t.Args, r, generics)
	if err != nil {
		return nil, err
	}
	return base.Unwind(args), nil
}

func lookupScope(names []string, r Resolver) (object.Validator, bool) {
	cur, ok := r.Lookup(names[0])
	if !ok {
		return nil, false
	}
	for _, n := range names[1:] {
		obj, ok := cur.(*object.DynamicObject)
		if !ok {
			return nil, false
		}
		if cur, ok = obj.Get(object.StrKey(n)); !ok {
			return nil, false
		}
	}
	v, ok := cur.(object.Validator)
	return v, ok
}

// Types is a Resolver over a plain map, mostly useful in tests and for
// host-side checks.
type Types struct {
	Scope map[string]object.Object
	Host  map[string]reflect.Type
}

func (ts *Types) Lookup(name string) (object.Object, bool) {
	v, ok := ts.Scope[name]
	return v, ok
}

func (ts *Types) HostType(name string) (reflect.Type, bool) {
	t, ok := ts.Host[name]
	return t, ok
}
