// Package ffibridge projects Go values exported by native libraries into
// script values.
package ffibridge

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/podhmo/vsharp/object"
)

// Exports is the registration list of a native library: exported name to
// Go value. Values may be functions, struct types (as reflect.Type),
// struct pointers, nested maps or plain values.
type Exports map[string]any

// Project converts exports into a DynamicObject.
//
//   - a func becomes a native function
//   - a reflect.Type of a struct is instantiated once and its exported
//     methods are grouped under the export name
//   - a struct pointer has its exported methods grouped likewise
//   - a map[string]any becomes a nested object
//   - anything else is converted as a value
func Project(exports Exports) (*object.DynamicObject, error) {
	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	sort.Strings(names)

	obj := object.NewDynamicObject()
	for _, name := range names {
		v, err := project(name, exports[name])
		if err != nil {
			return nil, err
		}
		obj.Set(object.StrKey(name), v)
	}
	return obj, nil
}

func project(name string, v any) (object.Object, error) {
	switch v := v.(type) {
	case nil:
		return object.NULL, nil
	case object.Object:
		return v, nil
	case map[string]any:
		return Project(v)
	case Exports:
		return Project(v)
	case reflect.Type:
		return projectType(name, v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		return object.WrapFunction(name, rv), nil
	case reflect.Ptr:
		if !rv.IsNil() && rv.Elem().Kind() == reflect.Struct && rv.NumMethod() > 0 {
			return projectMethods(name, rv), nil
		}
	}
	return object.FromGo(name, v), nil
}

// projectType constructs one zero instance of t and projects its methods.
func projectType(name string, t reflect.Type) (object.Object, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("export %q: type %s is not a struct", name, t)
	}
	return projectMethods(name, reflect.New(t)), nil
}

func projectMethods(name string, recv reflect.Value) *object.DynamicObject {
	obj := object.NewDynamicObject()
	t := recv.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		obj.Set(object.StrKey(m.Name), object.WrapFunction(name+"."+m.Name, recv.Method(i)))
	}
	return obj
}
