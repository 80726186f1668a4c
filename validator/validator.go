// Package validator compiles type expressions into runtime validators.
package validator

import (
	"math"
	"reflect"
	"strings"

	"github.com/podhmo/vsharp/object"
)

// Primitive checks the runtime kind of a value.
type Primitive struct {
	Name  string
	check func(object.Object) bool
}

var primitives = map[string]*Primitive{
	"str": {Name: "str", check: func(v object.Object) bool { _, ok := v.(*object.String); return ok }},
	"int": {Name: "int", check: isInteger},
	"i64": {Name: "i64", check: isInteger},
	"i32": {Name: "i32", check: func(v object.Object) bool {
		i, ok := v.(*object.Integer)
		return ok && i.Value >= math.MinInt32 && i.Value <= math.MaxInt32
	}},
	"bool": {Name: "bool", check: func(v object.Object) bool { _, ok := v.(*object.Boolean); return ok }},
	"f64":  {Name: "f64", check: isDouble},
	"f32":  {Name: "f32", check: isDouble},
	"null": {Name: "null", check: func(v object.Object) bool { _, ok := v.(*object.Null); return ok }},
	"any":  {Name: "any", check: func(object.Object) bool { return true }},
}

func isInteger(v object.Object) bool { _, ok := v.(*object.Integer); return ok }
func isDouble(v object.Object) bool  { _, ok := v.(*object.Double); return ok }

// LookupPrimitive returns the built-in validator named name.
func LookupPrimitive(name string) (*Primitive, bool) {
	p, ok := primitives[name]
	return p, ok
}

func (p *Primitive) Type() object.ObjectType { return object.VALIDATOR_OBJ }
func (p *Primitive) Inspect() string         { return p.Name }

func (p *Primitive) IsValid(_ []object.Validator, v object.Object) bool { return p.check(v) }
func (p *Primitive) Unwind([]object.Validator) object.Validator         { return p }

// Nominal accepts host values whose type is assignable to Type.
type Nominal struct {
	Name     string
	HostType reflect.Type
}

func (n *Nominal) Type() object.ObjectType { return object.VALIDATOR_OBJ }
func (n *Nominal) Inspect() string         { return n.Name }

func (n *Nominal) IsValid(_ []object.Validator, v object.Object) bool {
	g, ok := v.(*object.GoValue)
	if !ok || !g.Value.IsValid() {
		return false
	}
	t := g.Value.Type()
	if t.AssignableTo(n.HostType) {
		return true
	}
	return t.Kind() == reflect.Ptr && t.Elem().AssignableTo(n.HostType)
}

func (n *Nominal) Unwind([]object.Validator) object.Validator { return n }

// Array accepts arrays whose every element satisfies Elem.
type Array struct {
	Elem object.Validator
}

func (a *Array) Type() object.ObjectType { return object.VALIDATOR_OBJ }
func (a *Array) Inspect() string         { return "[" + a.Elem.Inspect() + "]" }

func (a *Array) IsValid(generics []object.Validator, v object.Object) bool {
	switch v := v.(type) {
	case *object.Array:
		for _, el := range v.Elements {
			if !a.Elem.IsValid(generics, el) {
				return false
			}
		}
		return true
	case *object.GoValue:
		it, ok := object.HostIterator(v.Value)
		if !ok {
			return false
		}
		k := reflect.Indirect(v.Value).Kind()
		if k != reflect.Slice && k != reflect.Array {
			return false
		}
		for it.Next() {
			if !a.Elem.IsValid(generics, it.Current()) {
				return false
			}
		}
		return true
	}
	return false
}

func (a *Array) Unwind(generics []object.Validator) object.Validator {
	return &Array{Elem: a.Elem.Unwind(generics)}
}

// Field is one named member of an Object validator.
type Field struct {
	Name string
	Type object.Validator
}

// Object accepts values that have every field. DynamicObjects are checked
// by key; other values through host introspection, where a missing
// property makes the value invalid instead of failing.
type Object struct {
	Fields []Field
}

func (o *Object) Type() object.ObjectType { return object.VALIDATOR_OBJ }
func (o *Object) Inspect() string {
	parts := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		parts[i] = f.Name + ": " + f.Type.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (o *Object) IsValid(generics []object.Validator, v object.Object) bool {
	for _, f := range o.Fields {
		member, ok := member(v, f.Name)
		if !ok || !f.Type.IsValid(generics, member) {
			return false
		}
	}
	return true
}

func member(v object.Object, name string) (object.Object, bool) {
	switch v := v.(type) {
	case *object.DynamicObject:
		return v.Get(object.StrKey(name))
	case *object.GoValue:
		return object.HostProperty(v.Value, name)
	}
	return nil, false
}

func (o *Object) Unwind(generics []object.Validator) object.Validator {
	fields := make([]Field, len(o.Fields))
	for i, f := range o.Fields {
		fields[i] = Field{Name: f.Name, Type: f.Type.Unwind(generics)}
	}
	return &Object{Fields: fields}
}

// Func accepts callables. Script functions must also have a matching arity.
type Func struct {
	Params []object.Validator
	Result object.Validator // nil when unspecified
}

func (f *Func) Type() object.ObjectType { return object.VALIDATOR_OBJ }
func (f *Func) Inspect() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.Inspect()
	}
	s := "func(" + strings.Join(parts, ", ") + ")"
	if f.Result != nil {
		s += ": " + f.Result.Inspect()
	}
	return s
}

func (f *Func) IsValid(_ []object.Validator, v object.Object) bool {
	switch v := v.(type) {
	case *object.Function:
		return len(v.Params) == len(f.Params)
	case *object.Builtin:
		return true
	case *object.GoValue:
		if v.Value.Kind() != reflect.Func {
			return false
		}
		t := v.Value.Type()
		return t.IsVariadic() || t.NumIn() == len(f.Params)
	}
	return false
}

func (f *Func) Unwind(generics []object.Validator) object.Validator {
	params := make([]object.Validator, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Unwind(generics)
	}
	var result object.Validator
	if f.Result != nil {
		result = f.Result.Unwind(generics)
	}
	return &Func{Params: params, Result: result}
}

// Union accepts a value when any member does.
type Union struct {
	Members []object.Validator
}

func (u *Union) Type() object.ObjectType { return object.VALIDATOR_OBJ }
func (u *Union) Inspect() string         { return join(u.Members, " | ") }

func (u *Union) IsValid(generics []object.Validator, v object.Object) bool {
	for _, m := range u.Members {
		if m.IsValid(generics, v) {
			return true
		}
	}
	return false
}

func (u *Union) Unwind(generics []object.Validator) object.Validator {
	return &Union{Members: unwindAll(u.Members, generics)}
}

// Intersection accepts a value when every member does.
type Intersection struct {
	Members []object.Validator
}

func (it *Intersection) Type() object.ObjectType { return object.VALIDATOR_OBJ }
func (it *Intersection) Inspect() string         { return join(it.Members, " & ") }

func (it *Intersection) IsValid(generics []object.Validator, v object.Object) bool {
	for _, m := range it.Members {
		if !m.IsValid(generics, v) {
			return false
		}
	}
	return true
}

func (it *Intersection) Unwind(generics []object.Validator) object.Validator {
	return &Intersection{Members: unwindAll(it.Members, generics)}
}

// Generic is a placeholder for the Index-th generic parameter. An
// unbound placeholder accepts any value.
type Generic struct {
	Name  string
	Index int
}

func (g *Generic) Type() object.ObjectType { return object.VALIDATOR_OBJ }
func (g *Generic) Inspect() string         { return g.Name }

func (g *Generic) IsValid(generics []object.Validator, v object.Object) bool {
	if g.Index < len(generics) && generics[g.Index] != nil {
		return generics[g.Index].IsValid(nil, v)
	}
	return true
}

func (g *Generic) Unwind(generics []object.Validator) object.Validator {
	if g.Index < len(generics) && generics[g.Index] != nil {
		return generics[g.Index]
	}
	return g
}

func unwindAll(vs []object.Validator, generics []object.Validator) []object.Validator {
	r := make([]object.Validator, len(vs))
	for i, v := range vs {
		r[i] = v.Unwind(generics)
	}
	return r
}

func join(vs []object.Validator, sep string) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.Inspect()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Check unwinds v with generics and tests value against the result.
func Check(v object.Validator, generics []object.Validator, value object.Object) bool {
	return v.Unwind(generics).IsValid(nil, value)
}
