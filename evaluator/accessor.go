package evaluator

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/token"
)

// hostError converts an error from the host interop layer. Errors that
// already are script errors keep their kind.
func (e *Evaluator) hostError(err error, kind object.ErrorKind, pos token.Pos) *object.Error {
	var oe *object.Error
	if errors.As(err, &oe) {
		return e.locate(oe, pos)
	}
	return e.newError(pos, kind, "%v", err)
}

func (e *Evaluator) lookupMethod(recv object.Object, name string) (*object.Builtin, bool) {
	table, ok := e.methods[recv.Type()]
	if !ok {
		return nil, false
	}
	m, ok := table[name]
	return m, ok
}

// bindMethod returns a callable with recv as its first argument.
func bindMethod(m *object.Builtin, recv object.Object) *object.Builtin {
	return &object.Builtin{
		Name: m.Name,
		Fn: func(ctx *object.BuiltinContext, pos token.Pos, args ...object.Object) object.Object {
			return m.Fn(ctx, pos, append([]object.Object{recv}, args...)...)
		},
	}
}

func (e *Evaluator) getProperty(target object.Object, name string, pos token.Pos) object.Object {
	switch t := target.(type) {
	case *object.DynamicObject:
		if v, ok := t.Get(object.StrKey(name)); ok {
			return v
		}
		return e.newError(pos, object.MissingMember, "object has no member %q", name)
	case *object.GoValue:
		v, err := e.interop.GetProperty(t, name)
		if err != nil {
			return e.hostError(err, object.MissingMember, pos)
		}
		return v
	}
	if m, ok := e.lookupMethod(target, name); ok {
		return bindMethod(m, target)
	}
	return e.newError(pos, object.MissingMember, "%s has no property %q", object.TypeName(target), name)
}

func (e *Evaluator) setProperty(target object.Object, name string, val object.Object, pos token.Pos) *object.Error {
	switch t := target.(type) {
	case *object.DynamicObject:
		t.Set(object.StrKey(name), val)
		return nil
	case *object.GoValue:
		if err := e.interop.SetProperty(t, name, val); err != nil {
			return e.hostError(err, object.MissingMember, pos)
		}
		return nil
	}
	return e.newError(pos, object.MissingMember, "cannot set property %q on %s", name, object.TypeName(target))
}

// callMethod dispatches `target.name(args)`. Methods of a DynamicObject
// are its entries; host values go through HostInterop; other values use
// the registered method tables with the receiver as first argument.
func (e *Evaluator) callMethod(target object.Object, name string, args []object.Object, pos token.Pos, fscope *object.FileScope) object.Object {
	switch t := target.(type) {
	case *object.DynamicObject:
		fn, ok := t.Get(object.StrKey(name))
		if !ok {
			return e.newError(pos, object.MissingMember, "object has no method %q", name)
		}
		return e.applyFunction(fn, args, pos, fscope)
	case *object.GoValue:
		v, err := e.interop.CallMethod(t, name, args)
		if err == nil {
			if oe, ok := v.(*object.Error); ok {
				return e.locate(oe, pos)
			}
			return v
		}
		var oe *object.Error
		if errors.As(err, &oe) && oe.Kind == object.MissingMember {
			// a field holding a function is callable like a method
			if prop, perr := e.interop.GetProperty(t, name); perr == nil && object.IsCallable(prop) {
				return e.applyFunction(prop, args, pos, fscope)
			}
		}
		return e.hostError(err, object.MissingMember, pos)
	}
	if m, ok := e.lookupMethod(target, name); ok {
		return e.applyBuiltin(m, append([]object.Object{target}, args...), pos)
	}
	return e.newError(pos, object.MissingMember, "no method %q on %s", name, object.TypeName(target))
}

func (e *Evaluator) index(target, index object.Object, pos token.Pos) object.Object {
	switch t := target.(type) {
	case *object.Array:
		i, errObj := e.checkIndex(index, len(t.Elements), pos)
		if errObj != nil {
			return errObj
		}
		return t.Elements[i]
	case *object.String:
		runes := []rune(t.Value)
		i, errObj := e.checkIndex(index, len(runes), pos)
		if errObj != nil {
			return errObj
		}
		return &object.String{Value: string(runes[i])}
	case *object.DynamicObject:
		k, ok := object.KeyOf(index)
		if !ok {
			return e.newError(pos, object.TypeMismatch, "object key must be str or int, got %s", object.TypeName(index))
		}
		if v, ok := t.Get(k); ok {
			return v
		}
		return e.newError(pos, object.IndexError, "key %s not found", object.Repr(index))
	case *object.GoValue:
		v, err := e.interop.Index(t, index)
		if err != nil {
			return e.hostError(err, object.IndexError, pos)
		}
		return v
	}
	return e.newError(pos, object.IndexError, "%s is not indexable", object.TypeName(target))
}

func (e *Evaluator) checkIndex(index object.Object, length int, pos token.Pos) (int, *object.Error) {
	i, ok := index.(*object.Integer)
	if !ok {
		return 0, e.newError(pos, object.TypeMismatch, "index must be int, got %s", object.TypeName(index))
	}
	if i.Value < 0 || i.Value >= int64(length) {
		return 0, e.newError(pos, object.IndexError, "index out of range: %d (length %d)", i.Value, length)
	}
	return int(i.Value), nil
}

func (e *Evaluator) setIndex(target, index, val object.Object, pos token.Pos) *object.Error {
	switch t := target.(type) {
	case *object.Array:
		i, errObj := e.checkIndex(index, len(t.Elements), pos)
		if errObj != nil {
			return errObj
		}
		t.Elements[i] = val
		return nil
	case *object.DynamicObject:
		k, ok := object.KeyOf(index)
		if !ok {
			return e.newError(pos, object.TypeMismatch, "object key must be str or int, got %s", object.TypeName(index))
		}
		t.Set(k, val)
		return nil
	case *object.GoValue:
		if err := e.interop.SetIndex(t, index, val); err != nil {
			return e.hostError(err, object.IndexError, pos)
		}
		return nil
	}
	return e.newError(pos, object.IndexError, "%s does not support index assignment", object.TypeName(target))
}

func (e *Evaluator) contains(container, item object.Object, pos token.Pos) object.Object {
	switch c := container.(type) {
	case *object.Array:
		for _, el := range c.Elements {
			if object.Equal(el, item) {
				return object.TRUE
			}
		}
		return object.FALSE
	case *object.DynamicObject:
		k, ok := object.KeyOf(item)
		return object.NativeBool(ok && c.Has(k))
	case *object.String:
		s, ok := item.(*object.String)
		if !ok {
			return e.newError(pos, object.TypeMismatch, "left operand of `in` str must be str, got %s", object.TypeName(item))
		}
		return object.NativeBool(strings.Contains(c.Value, s.Value))
	case *object.Range:
		i, ok := item.(*object.Integer)
		if !ok {
			return object.FALSE
		}
		return object.NativeBool(c.Contains(i.Value))
	case *object.GoValue:
		ok, err := e.interop.Contains(c, item)
		if err != nil {
			return e.hostError(err, object.TypeMismatch, pos)
		}
		return object.NativeBool(ok)
	}
	return e.newError(pos, object.TypeMismatch, "%s does not support `in`", object.TypeName(container))
}

func length(obj object.Object) (int, bool) {
	switch o := obj.(type) {
	case *object.Array:
		return len(o.Elements), true
	case *object.String:
		return utf8.RuneCountInString(o.Value), true
	case *object.DynamicObject:
		return o.Len(), true
	case *object.Range:
		if n := o.Len(); n <= math.MaxInt {
			return int(n), true
		}
	case *object.GoValue:
		if it, ok := object.HostIterator(o.Value); ok {
			n := 0
			for it.Next() {
				n++
			}
			return n, true
		}
	}
	return 0, false
}
