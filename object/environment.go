package object

import "sort"

// Environment is one frame of the chained scope. A frame may be backed by
// a DynamicObject, in which case its bindings are the object's entries.
type Environment struct {
	store   map[string]Object
	backing *DynamicObject
	outer   *Environment
}

// NewEnvironment creates a new, top-level environment.
func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object)}
}

// NewEnclosedEnvironment creates a new environment that is enclosed by an outer one.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// NewObjectEnvironment creates an environment whose local frame reads and
// writes the entries of obj.
func NewObjectEnvironment(obj *DynamicObject, outer *Environment) *Environment {
	return &Environment{backing: obj, outer: outer}
}

// Outer returns the enclosing environment, or nil.
func (e *Environment) Outer() *Environment { return e.outer }

func (e *Environment) getLocal(name string) (Object, bool) {
	if e.backing != nil {
		return e.backing.Get(StrKey(name))
	}
	obj, ok := e.store[name]
	return obj, ok
}

func (e *Environment) setLocal(name string, val Object) {
	if e.backing != nil {
		e.backing.Set(StrKey(name), val)
		return
	}
	e.store[name] = val
}

// Get walks from the local frame outwards.
func (e *Environment) Get(name string) (Object, bool) {
	for env := e; env != nil; env = env.outer {
		if obj, ok := env.getLocal(name); ok {
			return obj, true
		}
	}
	return nil, false
}

// GetLocal looks only at the local frame.
func (e *Environment) GetLocal(name string) (Object, bool) {
	return e.getLocal(name)
}

// Set defines or assigns name. An existing local binding is overwritten;
// otherwise the write goes to the nearest ancestor that owns the name;
// otherwise the name is created locally.
func (e *Environment) Set(name string, val Object) Object {
	if _, ok := e.getLocal(name); ok {
		e.setLocal(name, val)
		return val
	}
	for env := e.outer; env != nil; env = env.outer {
		if _, ok := env.getLocal(name); ok {
			env.setLocal(name, val)
			return val
		}
	}
	e.setLocal(name, val)
	return val
}

// SetLocal always binds name in the local frame, shadowing outer bindings.
func (e *Environment) SetLocal(name string, val Object) Object {
	e.setLocal(name, val)
	return val
}

// Assign overwrites an existing binding anywhere in the chain. It reports
// whether the name was found.
func (e *Environment) Assign(name string, val Object) bool {
	for env := e; env != nil; env = env.outer {
		if _, ok := env.getLocal(name); ok {
			env.setLocal(name, val)
			return true
		}
	}
	return false
}

// Names returns the names bound in the local frame. Object-backed frames
// keep insertion order; plain frames are sorted.
func (e *Environment) Names() []string {
	if e.backing != nil {
		keys := e.backing.Keys()
		names := make([]string, 0, len(keys))
		for _, k := range keys {
			if !k.IsInt {
				names = append(names, k.Name)
			}
		}
		return names
	}
	names := make([]string, 0, len(e.store))
	for name := range e.store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll returns a copy of the local bindings.
func (e *Environment) GetAll() map[string]Object {
	all := make(map[string]Object)
	for _, name := range e.Names() {
		all[name], _ = e.getLocal(name)
	}
	return all
}
