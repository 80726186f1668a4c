package object

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/podhmo/vsharp/token"
)

var (
	objectInterface = reflect.TypeOf((*Object)(nil)).Elem()
	errorInterface  = reflect.TypeOf((*error)(nil)).Elem()
	reflectTypeType = reflect.TypeOf((*reflect.Type)(nil)).Elem()
)

// CallFunc invokes a script callable. It is used when a script value is
// passed to a host parameter of function type.
type CallFunc func(fn Object, args ...Object) Object

// FromGo converts a host value given at registration time. Maps with string
// keys become DynamicObjects and functions become Builtins.
func FromGo(name string, v any) Object {
	switch v := v.(type) {
	case nil:
		return NULL
	case Object:
		return v
	case map[string]any:
		obj := NewDynamicObject()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			obj.Set(StrKey(k), FromGo(name+"."+k, v[k]))
		}
		return obj
	case reflect.Value:
		return FromReflect(v)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func {
		return WrapFunction(name, rv)
	}
	return FromReflect(rv)
}

// FromReflect converts a host value into a script value. Scalars and
// slices are copied; maps, structs and pointers stay host values.
func FromReflect(val reflect.Value) Object {
	if !val.IsValid() {
		return NULL
	}
	if val.Type().Implements(objectInterface) {
		if (val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface) && val.IsNil() {
			return NULL
		}
		return val.Interface().(Object)
	}
	switch val.Kind() {
	case reflect.Bool:
		return NativeBool(val.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Integer{Value: val.Int()}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &Integer{Value: int64(val.Uint())}
	case reflect.Float32, reflect.Float64:
		return &Double{Value: val.Float()}
	case reflect.String:
		return &String{Value: val.String()}
	case reflect.Interface:
		if val.IsNil() {
			return NULL
		}
		return FromReflect(val.Elem())
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan:
		if val.IsNil() {
			return NULL
		}
		if val.Kind() == reflect.Func {
			return WrapFunction("", val)
		}
		return &GoValue{Value: val}
	case reflect.Slice:
		if val.IsNil() {
			return &Array{}
		}
		fallthrough
	case reflect.Array:
		elements := make([]Object, val.Len())
		for i := range elements {
			elements[i] = FromReflect(val.Index(i))
		}
		return &Array{Elements: elements}
	}
	return &GoValue{Value: val}
}

// ToGo converts a script value into a plain host value.
func ToGo(obj Object) any {
	switch obj := obj.(type) {
	case *Null:
		return nil
	case *Boolean:
		return obj.Value
	case *Integer:
		return obj.Value
	case *Double:
		return obj.Value
	case *String:
		return obj.Value
	case *Array:
		s := make([]any, len(obj.Elements))
		for i, el := range obj.Elements {
			s[i] = ToGo(el)
		}
		return s
	case *DynamicObject:
		m := make(map[string]any, obj.Len())
		for _, k := range obj.keys {
			m[k.String()] = ToGo(obj.entries[k])
		}
		return m
	case *GoValue:
		if obj.Value.IsValid() && obj.Value.CanInterface() {
			return obj.Value.Interface()
		}
		return nil
	}
	return obj
}

// ToReflect converts a script value into a host value of type typ.
// call is used for script callables passed as host functions; it may be nil.
func ToReflect(obj Object, typ reflect.Type, call CallFunc) (reflect.Value, error) {
	if typ.Kind() == reflect.Interface && typ.NumMethod() == 0 {
		native := ToGo(obj)
		if native == nil {
			return reflect.Zero(typ), nil
		}
		return reflect.ValueOf(native), nil
	}
	if reflect.TypeOf(obj).AssignableTo(typ) {
		return reflect.ValueOf(obj), nil
	}
	if g, ok := obj.(*GoValue); ok {
		switch {
		case g.Value.Type().AssignableTo(typ):
			return g.Value, nil
		case g.Value.Kind() == reflect.Ptr && g.Value.Elem().Type().AssignableTo(typ):
			return g.Value.Elem(), nil
		case g.Value.Type().ConvertibleTo(typ):
			return g.Value.Convert(typ), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use %s as %s", g.Value.Type(), typ)
	}

	val := reflect.New(typ).Elem()
	switch o := obj.(type) {
	case *Null:
		switch typ.Kind() {
		case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
			return val, nil
		}
	case *Boolean:
		if typ.Kind() == reflect.Bool {
			val.SetBool(o.Value)
			return val, nil
		}
	case *String:
		if typ.Kind() == reflect.String {
			val.SetString(o.Value)
			return val, nil
		}
	case *Integer:
		switch typ.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if val.OverflowInt(o.Value) {
				return reflect.Value{}, fmt.Errorf("integer %d overflows %s", o.Value, typ)
			}
			val.SetInt(o.Value)
			return val, nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if o.Value < 0 || val.OverflowUint(uint64(o.Value)) {
				return reflect.Value{}, fmt.Errorf("integer %d overflows %s", o.Value, typ)
			}
			val.SetUint(uint64(o.Value))
			return val, nil
		case reflect.Float32, reflect.Float64:
			val.SetFloat(float64(o.Value))
			return val, nil
		}
	case *Double:
		switch typ.Kind() {
		case reflect.Float32, reflect.Float64:
			val.SetFloat(o.Value)
			return val, nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if o.Value == math.Trunc(o.Value) && !val.OverflowInt(int64(o.Value)) {
				val.SetInt(int64(o.Value))
				return val, nil
			}
		}
	case *Array:
		if typ.Kind() == reflect.Slice {
			s := reflect.MakeSlice(typ, len(o.Elements), len(o.Elements))
			for i, el := range o.Elements {
				v, err := ToReflect(el, typ.Elem(), call)
				if err != nil {
					return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
				}
				s.Index(i).Set(v)
			}
			return s, nil
		}
	case *DynamicObject:
		if typ.Kind() == reflect.Map && typ.Key().Kind() == reflect.String {
			m := reflect.MakeMapWithSize(typ, o.Len())
			for _, k := range o.keys {
				v, err := ToReflect(o.entries[k], typ.Elem(), call)
				if err != nil {
					return reflect.Value{}, fmt.Errorf("key %s: %w", k, err)
				}
				m.SetMapIndex(reflect.ValueOf(k.String()).Convert(typ.Key()), v)
			}
			return m, nil
		}
		if typ.Kind() == reflect.Struct {
			for _, k := range o.keys {
				if k.IsInt {
					continue
				}
				for _, n := range MemberNames(k.Name) {
					sf, ok := typ.FieldByName(n)
					if !ok || !sf.IsExported() {
						continue
					}
					v, err := ToReflect(o.entries[k], sf.Type, call)
					if err != nil {
						return reflect.Value{}, fmt.Errorf("field %s: %w", n, err)
					}
					val.FieldByIndex(sf.Index).Set(v)
					break
				}
			}
			return val, nil
		}
	case *Function, *Builtin:
		if typ.Kind() == reflect.Func && call != nil {
			return makeHostFunc(obj, typ, call), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", TypeName(obj), typ)
}

// makeHostFunc adapts a script callable to a host function type. Script
// errors surface as a panic carrying the *Error, which WrapFunction recovers.
func makeHostFunc(fn Object, typ reflect.Type, call CallFunc) reflect.Value {
	return reflect.MakeFunc(typ, func(in []reflect.Value) []reflect.Value {
		args := make([]Object, len(in))
		for i, v := range in {
			args[i] = FromReflect(v)
		}
		result := call(fn, args...)
		if err, ok := result.(*Error); ok {
			panic(err)
		}
		out := make([]reflect.Value, typ.NumOut())
		for i := range out {
			out[i] = reflect.Zero(typ.Out(i))
		}
		if len(out) > 0 {
			v, err := ToReflect(result, typ.Out(0), call)
			if err != nil {
				panic(Errorf(CoercionError, "callback result: %v", err))
			}
			out[0] = v
		}
		return out
	})
}

// WrapFunction projects a host function into a Builtin. Arguments are
// converted with ToReflect; a trailing error result becomes a NativeError.
func WrapFunction(name string, fn reflect.Value) *Builtin {
	ft := fn.Type()
	return &Builtin{
		Name: name,
		Fn: func(ctx *BuiltinContext, pos token.Pos, args ...Object) (ret Object) {
			defer func() {
				if r := recover(); r != nil {
					if err, ok := r.(*Error); ok {
						if err.Pos == token.NoPos {
							err.Pos = pos
						}
						ret = err
						return
					}
					ret = &Error{Kind: NativeError, Pos: pos, Message: fmt.Sprintf("panic in %s: %v", displayName(name), r)}
				}
			}()
			var call CallFunc
			if ctx != nil {
				call = ctx.Call
			}
			in, err := ConvertArgs(name, ft, args, call)
			if err != nil {
				err.Pos = pos
				return err
			}
			return FromResults(fn.Call(in), pos)
		},
	}
}

// ConvertArgs checks the argument count against ft and converts each argument.
func ConvertArgs(name string, ft reflect.Type, args []Object, call CallFunc) ([]reflect.Value, *Error) {
	numIn := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < numIn-1 {
			return nil, Errorf(ArgumentCount, "%s expects at least %d arguments but got %d", displayName(name), numIn-1, len(args))
		}
	} else if len(args) != numIn {
		return nil, Errorf(ArgumentCount, "%s expects %d arguments but got %d", displayName(name), numIn, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var typ reflect.Type
		if ft.IsVariadic() && i >= numIn-1 {
			typ = ft.In(numIn - 1).Elem()
		} else {
			typ = ft.In(i)
		}
		v, err := ToReflect(arg, typ, call)
		if err != nil {
			return nil, Errorf(CoercionError, "cannot convert argument %d of %s: %v", i+1, displayName(name), err)
		}
		in[i] = v
	}
	return in, nil
}

// FromResults converts host call results. A non-nil trailing error becomes
// a NativeError; multiple values become an Array.
func FromResults(results []reflect.Value, pos token.Pos) Object {
	if n := len(results); n > 0 && results[n-1].Type() == errorInterface {
		if !results[n-1].IsNil() {
			err := results[n-1].Interface().(error)
			var scriptErr *Error
			if errors.As(err, &scriptErr) {
				return scriptErr
			}
			return &Error{Kind: NativeError, Pos: pos, Message: err.Error()}
		}
		results = results[:n-1]
	}
	switch len(results) {
	case 0:
		return NULL
	case 1:
		return FromReflect(results[0])
	}
	elements := make([]Object, len(results))
	for i, r := range results {
		elements[i] = FromReflect(r)
	}
	return &Array{Elements: elements}
}

// IsReflectType reports whether v holds a reflect.Type.
func IsReflectType(v any) (reflect.Type, bool) {
	if v == nil {
		return nil, false
	}
	if reflect.TypeOf(v).Implements(reflectTypeType) {
		return v.(reflect.Type), true
	}
	return nil, false
}

func displayName(name string) string {
	if name == "" {
		return "function"
	}
	return strconv.Quote(name)
}
