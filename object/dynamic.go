package object

import (
	"strconv"
	"strings"
)

// Key is a DynamicObject key: a name or an integer.
type Key struct {
	Name  string
	Index int64
	IsInt bool
}

// StrKey returns a name key.
func StrKey(name string) Key { return Key{Name: name} }

// IntKey returns an integer key.
func IntKey(i int64) Key { return Key{Index: i, IsInt: true} }

// KeyOf converts a script value into a key.
func KeyOf(obj Object) (Key, bool) {
	switch obj := obj.(type) {
	case *String:
		return StrKey(obj.Value), true
	case *Integer:
		return IntKey(obj.Value), true
	}
	return Key{}, false
}

func (k Key) String() string {
	if k.IsInt {
		return strconv.FormatInt(k.Index, 10)
	}
	return k.Name
}

// Object returns the key as a script value.
func (k Key) Object() Object {
	if k.IsInt {
		return &Integer{Value: k.Index}
	}
	return &String{Value: k.Name}
}

// DynamicObject is an insertion-ordered mapping used as the language's
// record type. Methods are entries holding callables.
type DynamicObject struct {
	entries map[Key]Object
	keys    []Key
}

// NewDynamicObject returns an empty object.
func NewDynamicObject() *DynamicObject {
	return &DynamicObject{entries: make(map[Key]Object)}
}

func (o *DynamicObject) Type() ObjectType { return OBJECT_OBJ }
func (o *DynamicObject) Inspect() string { return o.inspect(map[Object]bool{o: true}) }

func (o *DynamicObject) inspect(path map[Object]bool) string {
	parts := make([]string, len(o.keys))
	for i, k := range o.keys {
		parts[i] = k.String() + ": " + repr(o.entries[k], path)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Get returns the value stored under k.
func (o *DynamicObject) Get(k Key) (Object, bool) {
	v, ok := o.entries[k]
	return v, ok
}

// Has reports whether k is present.
func (o *DynamicObject) Has(k Key) bool {
	_, ok := o.entries[k]
	return ok
}

// Set stores v under k, keeping the original position of an existing key.
func (o *DynamicObject) Set(k Key, v Object) {
	if _, ok := o.entries[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.entries[k] = v
}

// Delete removes k and reports whether it was present.
func (o *DynamicObject) Delete(k Key) bool {
	if _, ok := o.entries[k]; !ok {
		return false
	}
	delete(o.entries, k)
	for i, existing := range o.keys {
		if existing == k {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (o *DynamicObject) Keys() []Key {
	return append([]Key(nil), o.keys...)
}

// Len returns the number of entries.
func (o *DynamicObject) Len() int { return len(o.keys) }
