package evaluator

import (
	"reflect"

	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/validator"
)

// scopeResolver resolves type names against a scope and the host types
// registered with the evaluator.
type scopeResolver struct {
	env       *object.Environment
	hostTypes map[string]reflect.Type
}

func (r *scopeResolver) Lookup(name string) (object.Object, bool) {
	return r.env.Get(name)
}

func (r *scopeResolver) HostType(name string) (reflect.Type, bool) {
	t, ok := r.hostTypes[name]
	return t, ok
}

func (e *Evaluator) resolver(env *object.Environment) validator.Resolver {
	return &scopeResolver{env: env, hostTypes: e.hostTypes}
}

// evalTypeDeclaration binds the unspecialized validator; generic
// parameters stay placeholders until a use site supplies arguments.
func (e *Evaluator) evalTypeDeclaration(n *ast.TypeDeclaration, env *object.Environment) object.Object {
	v, err := validator.Compile(n.Type, e.resolver(env), genericIndex(n.Generics))
	if err != nil {
		return e.newError(n.Pos(), object.InvalidType, "%v", err)
	}
	env.Set(n.Name.Name, v)
	return object.NULL
}

func (e *Evaluator) evalTypeTest(n *ast.TypeTest, item object.Object, env *object.Environment) object.Object {
	v, err := validator.Compile(n.Type, e.resolver(env), nil)
	if err != nil {
		return e.newError(n.Pos(), object.InvalidType, "%v", err)
	}
	return object.NativeBool(validator.Check(v, nil, item))
}
