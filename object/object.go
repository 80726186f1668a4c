package object

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/token"
)

// ObjectType is a string representation of an object's type.
type ObjectType string

const (
	NULL_OBJ         ObjectType = "NULL"
	BOOLEAN_OBJ      ObjectType = "BOOLEAN"
	INTEGER_OBJ      ObjectType = "INTEGER"
	DOUBLE_OBJ       ObjectType = "DOUBLE"
	STRING_OBJ       ObjectType = "STRING"
	ARRAY_OBJ        ObjectType = "ARRAY"
	OBJECT_OBJ       ObjectType = "OBJECT"
	FUNCTION_OBJ     ObjectType = "FUNCTION"
	BUILTIN_OBJ      ObjectType = "BUILTIN"
	GO_VALUE_OBJ     ObjectType = "GO_VALUE"
	RANGE_OBJ        ObjectType = "RANGE"
	VALIDATOR_OBJ    ObjectType = "TYPE"
	RETURN_VALUE_OBJ ObjectType = "RETURN_VALUE"
	BREAK_OBJ        ObjectType = "BREAK"
	CONTINUE_OBJ     ObjectType = "CONTINUE"
	ERROR_OBJ        ObjectType = "ERROR"
)

// Object is the interface that all value types in the interpreter implement.
type Object interface {
	// Type returns the type of the object.
	Type() ObjectType
	// Inspect returns a string representation of the object's value.
	Inspect() string
}

// Validator is the compiled, checkable form of a type expression.
type Validator interface {
	Object
	// IsValid reports whether v belongs to the type. generics supplies the
	// validators for generic parameters that were not unwound yet.
	IsValid(generics []Validator, v Object) bool
	// Unwind substitutes generic parameters with the given validators.
	Unwind(generics []Validator) Validator
}

var (
	NULL     = &Null{}
	TRUE     = &Boolean{Value: true}
	FALSE    = &Boolean{Value: false}
	CONTINUE = &ContinueSignal{}
)

// NativeBool returns the shared TRUE or FALSE instance.
func NativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// --- Null ---

type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }

// --- Boolean ---

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

// --- Integer ---

// Integer is a 64-bit signed integer.
type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

// --- Double ---

type Double struct {
	Value float64
}

func (d *Double) Type() ObjectType { return DOUBLE_OBJ }
func (d *Double) Inspect() string  { return strconv.FormatFloat(d.Value, 'g', -1, 64) }

// --- String ---

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// --- Array ---

// Array is reference-shared: every holder sees mutations.
type Array struct {
	Elements []Object
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }
func (a *Array) Inspect() string { return a.inspect(map[Object]bool{a: true}) }

func (a *Array) inspect(path map[Object]bool) string {
	parts := make([]string, len(a.Elements))
	for i, el := range a.Elements {
		parts[i] = repr(el, path)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// --- Function ---

// FileScope identifies the script a function was defined in. Relative
// imports resolve against Dir.
type FileScope struct {
	Path string
	Dir  string
}

// Function is a script-defined function. Env is captured by reference.
type Function struct {
	Name       string
	Params     []*ast.Param
	Generics   []*ast.Identifier
	ReturnType ast.TypeExpr
	Body       *ast.BlockExpression
	Env        *Environment
	FScope     *FileScope

	// compiled lazily on the first call
	Checked     bool
	ParamTypes  []Validator
	ResultType  Validator
	GenericArgs []Validator
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	name := f.Name
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("func %s(%s)", name, strings.Join(params, ", "))
}

// --- Builtin ---

// BuiltinContext gives native functions access to the interpreter.
type BuiltinContext struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// NewError creates an error carrying the current call stack.
	NewError func(pos token.Pos, kind ErrorKind, format string, args ...any) *Error
	// Call invokes a callable value with already evaluated arguments.
	Call func(fn Object, args ...Object) Object
}

// BuiltinFunction is the calling convention for native functions.
type BuiltinFunction func(ctx *BuiltinContext, pos token.Pos, args ...Object) Object

// Builtin is a native function.
type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string {
	if b.Name == "" {
		return "builtin function"
	}
	return "builtin function " + b.Name
}

// --- GoValue ---

// GoValue wraps a host value reached through reflection.
type GoValue struct {
	Value reflect.Value
}

func (g *GoValue) Type() ObjectType { return GO_VALUE_OBJ }
func (g *GoValue) Inspect() string {
	if !g.Value.IsValid() {
		return "<go value: invalid>"
	}
	if g.Value.CanInterface() {
		return fmt.Sprintf("<go value: %v>", g.Value.Interface())
	}
	return fmt.Sprintf("<go value: %s>", g.Value.Type())
}

// --- Range ---

// Range is a lazily produced integer sequence.
type Range struct {
	Start, Stop, Step int64
}

func (r *Range) Type() ObjectType { return RANGE_OBJ }
func (r *Range) Inspect() string {
	return fmt.Sprintf("range(%d, %d, %d)", r.Start, r.Stop, r.Step)
}

// Len returns how many values the range produces, ceil((Stop-Start)/Step).
// The span is computed in unsigned arithmetic so it cannot overflow.
func (r *Range) Len() uint64 {
	switch {
	case r.Step > 0 && r.Start < r.Stop:
		return (uint64(r.Stop)-uint64(r.Start)-1)/uint64(r.Step) + 1
	case r.Step < 0 && r.Start > r.Stop:
		return (uint64(r.Start)-uint64(r.Stop)-1)/(-uint64(r.Step)) + 1
	}
	return 0
}

// Contains reports whether v is one of the values the range produces.
func (r *Range) Contains(v int64) bool {
	switch {
	case r.Step > 0:
		return v >= r.Start && v < r.Stop && (uint64(v)-uint64(r.Start))%uint64(r.Step) == 0
	case r.Step < 0:
		return v <= r.Start && v > r.Stop && (uint64(r.Start)-uint64(v))%(-uint64(r.Step)) == 0
	}
	return false
}

// --- control flow signals ---

// ReturnValue is caught at the function call boundary.
type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }
func (rv *ReturnValue) Inspect() string  { return rv.Value.Inspect() }

// BreakValue is caught by the nearest enclosing loop.
type BreakValue struct {
	Value Object
}

func (bv *BreakValue) Type() ObjectType { return BREAK_OBJ }
func (bv *BreakValue) Inspect() string  { return "break" }

// ContinueSignal is caught by the nearest enclosing loop.
type ContinueSignal struct{}

func (cs *ContinueSignal) Type() ObjectType { return CONTINUE_OBJ }
func (cs *ContinueSignal) Inspect() string  { return "continue" }

// IsSignal reports whether obj interrupts normal sequencing.
func IsSignal(obj Object) bool {
	switch obj.(type) {
	case *ReturnValue, *BreakValue, *ContinueSignal, *Error:
		return true
	}
	return false
}

// IsCallable reports whether obj can be invoked.
func IsCallable(obj Object) bool {
	switch obj := obj.(type) {
	case *Function, *Builtin:
		return true
	case *GoValue:
		return obj.Value.Kind() == reflect.Func && !obj.Value.IsNil()
	}
	return false
}

// Repr is like Inspect but quotes strings, for use inside containers.
func Repr(obj Object) string { return repr(obj, map[Object]bool{}) }

// repr tracks the containers on the path from the root. A container met
// again on that path prints as [...] or {...}.
func repr(obj Object, path map[Object]bool) string {
	switch obj := obj.(type) {
	case *String:
		return strconv.Quote(obj.Value)
	case *Array:
		if path[obj] {
			return "[...]"
		}
		path[obj] = true
		defer delete(path, obj)
		return obj.inspect(path)
	case *DynamicObject:
		if path[obj] {
			return "{...}"
		}
		path[obj] = true
		defer delete(path, obj)
		return obj.inspect(path)
	}
	return obj.Inspect()
}

// TypeName returns the user-facing name of obj's type.
func TypeName(obj Object) string {
	switch obj := obj.(type) {
	case *Null:
		return "null"
	case *Boolean:
		return "bool"
	case *Integer:
		return "int"
	case *Double:
		return "f64"
	case *String:
		return "str"
	case *Array:
		return "array"
	case *DynamicObject:
		return "object"
	case *Function, *Builtin:
		return "func"
	case *GoValue:
		if obj.Value.IsValid() {
			return obj.Value.Type().String()
		}
		return "go value"
	case *Range:
		return "range"
	case Validator:
		return "type"
	}
	return strings.ToLower(string(obj.Type()))
}

// Equal reports value equality for primitives and identity for
// reference values.
func Equal(a, b Object) bool {
	switch a := a.(type) {
	case *Null:
		_, ok := b.(*Null)
		return ok
	case *Boolean:
		b, ok := b.(*Boolean)
		return ok && a.Value == b.Value
	case *Integer:
		switch b := b.(type) {
		case *Integer:
			return a.Value == b.Value
		case *Double:
			return float64(a.Value) == b.Value
		}
		return false
	case *Double:
		switch b := b.(type) {
		case *Integer:
			return a.Value == float64(b.Value)
		case *Double:
			return a.Value == b.Value
		}
		return false
	case *String:
		b, ok := b.(*String)
		return ok && a.Value == b.Value
	case *GoValue:
		b, ok := b.(*GoValue)
		if !ok || !a.Value.IsValid() || !b.Value.IsValid() {
			return false
		}
		if a.Value.Type() != b.Value.Type() || !a.Value.Type().Comparable() {
			return false
		}
		return a.Value.Equal(b.Value)
	}
	return a == b
}
