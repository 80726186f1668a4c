package object

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/podhmo/vsharp/token"
)

// MemberNames returns the host names tried for a script member name:
// the name itself, its capitalized form and its snake_case to PascalCase form.
func MemberNames(name string) []string {
	names := []string{name}
	add := func(s string) {
		for _, n := range names {
			if n == s {
				return
			}
		}
		names = append(names, s)
	}
	add(capitalize(name))
	if strings.Contains(name, "_") {
		parts := strings.Split(name, "_")
		for i, p := range parts {
			parts[i] = capitalize(p)
		}
		add(strings.Join(parts, ""))
	}
	return names
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// HostProperty looks up a field, a string map key or a method of a host value.
func HostProperty(recv reflect.Value, name string) (Object, bool) {
	target := indirect(recv)
	for _, n := range MemberNames(name) {
		if target.IsValid() {
			switch target.Kind() {
			case reflect.Struct:
				if sf, ok := target.Type().FieldByName(n); ok && sf.IsExported() {
					return FromReflect(target.FieldByIndex(sf.Index)), true
				}
			case reflect.Map:
				if target.Type().Key().Kind() == reflect.String {
					v := target.MapIndex(reflect.ValueOf(n).Convert(target.Type().Key()))
					if v.IsValid() {
						return FromReflect(v), true
					}
				}
			}
		}
		if m := methodByName(recv, n); m.IsValid() {
			return WrapFunction(n, m), true
		}
	}
	return nil, false
}

// SetHostProperty writes a struct field or a string map key.
func SetHostProperty(recv reflect.Value, name string, val Object, call CallFunc) error {
	target := indirect(recv)
	if !target.IsValid() {
		return fmt.Errorf("cannot set %q on a nil value", name)
	}
	switch target.Kind() {
	case reflect.Struct:
		for _, n := range MemberNames(name) {
			sf, ok := target.Type().FieldByName(n)
			if !ok || !sf.IsExported() {
				continue
			}
			field := target.FieldByIndex(sf.Index)
			if !field.CanSet() {
				return fmt.Errorf("field %q of %s is not settable", n, target.Type())
			}
			v, err := ToReflect(val, field.Type(), call)
			if err != nil {
				return err
			}
			field.Set(v)
			return nil
		}
	case reflect.Map:
		if target.Type().Key().Kind() == reflect.String {
			v, err := ToReflect(val, target.Type().Elem(), call)
			if err != nil {
				return err
			}
			target.SetMapIndex(reflect.ValueOf(name).Convert(target.Type().Key()), v)
			return nil
		}
	}
	return fmt.Errorf("%s has no writable property %q", target.Type(), name)
}

// HostIndex reads an element of a host slice, array, string or map.
func HostIndex(recv reflect.Value, index Object) (Object, error) {
	target := indirect(recv)
	if !target.IsValid() {
		return nil, fmt.Errorf("cannot index a nil value")
	}
	switch target.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		i, ok := index.(*Integer)
		if !ok {
			return nil, fmt.Errorf("index must be an integer, got %s", TypeName(index))
		}
		if i.Value < 0 || i.Value >= int64(target.Len()) {
			return nil, fmt.Errorf("index out of range: %d (length %d)", i.Value, target.Len())
		}
		return FromReflect(target.Index(int(i.Value))), nil
	case reflect.Map:
		k, err := ToReflect(index, target.Type().Key(), nil)
		if err != nil {
			return nil, err
		}
		v := target.MapIndex(k)
		if !v.IsValid() {
			return nil, fmt.Errorf("key %s not found", Repr(index))
		}
		return FromReflect(v), nil
	}
	if s, ok := index.(*String); ok {
		if v, ok := HostProperty(recv, s.Value); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%s is not indexable", target.Type())
}

// SetHostIndex writes an element of a host slice, array or map.
func SetHostIndex(recv reflect.Value, index, val Object, call CallFunc) error {
	target := indirect(recv)
	if !target.IsValid() {
		return fmt.Errorf("cannot index a nil value")
	}
	switch target.Kind() {
	case reflect.Slice, reflect.Array:
		i, ok := index.(*Integer)
		if !ok {
			return fmt.Errorf("index must be an integer, got %s", TypeName(index))
		}
		if i.Value < 0 || i.Value >= int64(target.Len()) {
			return fmt.Errorf("index out of range: %d (length %d)", i.Value, target.Len())
		}
		el := target.Index(int(i.Value))
		if !el.CanSet() {
			return fmt.Errorf("element of %s is not settable", target.Type())
		}
		v, err := ToReflect(val, el.Type(), call)
		if err != nil {
			return err
		}
		el.Set(v)
		return nil
	case reflect.Map:
		k, err := ToReflect(index, target.Type().Key(), call)
		if err != nil {
			return err
		}
		v, err := ToReflect(val, target.Type().Elem(), call)
		if err != nil {
			return err
		}
		target.SetMapIndex(k, v)
		return nil
	}
	if s, ok := index.(*String); ok {
		return SetHostProperty(recv, s.Value, val, call)
	}
	return fmt.Errorf("%s does not support index assignment", target.Type())
}

// HostContains reports membership in a host slice, array or map.
func HostContains(recv reflect.Value, item Object) (bool, error) {
	target := indirect(recv)
	if !target.IsValid() {
		return false, nil
	}
	switch target.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < target.Len(); i++ {
			if Equal(FromReflect(target.Index(i)), item) {
				return true, nil
			}
		}
		return false, nil
	case reflect.Map:
		k, err := ToReflect(item, target.Type().Key(), nil)
		if err != nil {
			return false, nil
		}
		return target.MapIndex(k).IsValid(), nil
	}
	return false, fmt.Errorf("%s does not support membership tests", target.Type())
}

// HostIterator iterates a host slice, array, string or map (sorted keys).
func HostIterator(recv reflect.Value) (Iterator, bool) {
	target := indirect(recv)
	if !target.IsValid() {
		return nil, false
	}
	switch target.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		items := make([]Object, target.Len())
		for i := range items {
			items[i] = FromReflect(target.Index(i))
		}
		return SliceIterator(items), true
	case reflect.Map:
		keys := target.MapKeys()
		items := make([]Object, len(keys))
		for i, k := range keys {
			items[i] = FromReflect(k)
		}
		sortObjects(items)
		return SliceIterator(items), true
	}
	return nil, false
}

func sortObjects(items []Object) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Inspect() < items[j].Inspect() })
}

func methodByName(recv reflect.Value, name string) reflect.Value {
	if !recv.IsValid() {
		return reflect.Value{}
	}
	if m := recv.MethodByName(name); m.IsValid() {
		return m
	}
	if recv.Kind() != reflect.Ptr && recv.CanAddr() {
		return recv.Addr().MethodByName(name)
	}
	return reflect.Value{}
}

// CallHostMethod resolves name among the methods of recv and calls it.
// Candidates are kept when their parameter count matches len(args); the
// first one whose parameters accept every argument wins.
func CallHostMethod(recv reflect.Value, name string, args []Object, call CallFunc) (Object, *Error) {
	var candidates []reflect.Value
	var names []string
	for _, n := range MemberNames(name) {
		if m := methodByName(recv, n); m.IsValid() {
			candidates = append(candidates, m)
			names = append(names, n)
		}
	}
	if len(candidates) == 0 {
		return nil, Errorf(MissingMember, "no method %q on %s", name, recv.Type())
	}

	var lastErr *Error
	matched := false
	for i, m := range candidates {
		ft := m.Type()
		if ft.IsVariadic() {
			if len(args) < ft.NumIn()-1 {
				continue
			}
		} else if ft.NumIn() != len(args) {
			continue
		}
		matched = true
		in, err := ConvertArgs(recv.Type().String()+"."+names[i], ft, args, call)
		if err != nil {
			lastErr = err
			continue
		}
		return callRecover(names[i], m, in), nil
	}
	if !matched {
		return nil, Errorf(ArgumentCount, "method %q on %s does not accept %d arguments", name, recv.Type(), len(args))
	}
	return nil, lastErr
}

func callRecover(name string, fn reflect.Value, in []reflect.Value) (ret Object) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(*Error); ok {
				ret = err
				return
			}
			ret = Errorf(NativeError, "panic in %s: %v", name, r)
		}
	}()
	return FromResults(fn.Call(in), token.NoPos)
}
