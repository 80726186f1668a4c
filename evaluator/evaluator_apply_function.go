package evaluator

import (
	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/token"
	"github.com/podhmo/vsharp/validator"
)

// MaxCallDepth bounds nested script function calls.
const MaxCallDepth = 10000

func (e *Evaluator) applyFunction(fn object.Object, args []object.Object, pos token.Pos, fscope *object.FileScope) object.Object {
	switch f := fn.(type) {
	case *object.Function:
		return e.applyScriptFunction(f, args, pos, fscope)
	case *object.Builtin:
		return e.applyBuiltin(f, args, pos)
	case *object.GoValue:
		if object.IsCallable(f) {
			return e.applyBuiltin(object.WrapFunction("", f.Value), args, pos)
		}
	}
	return e.newError(pos, object.NotCallable, "%s is not callable", object.TypeName(fn))
}

func (e *Evaluator) applyBuiltin(b *object.Builtin, args []object.Object, pos token.Pos) object.Object {
	result := b.Fn(&e.BuiltinContext, pos, args...)
	if result == nil {
		return object.NULL
	}
	if err, ok := result.(*object.Error); ok {
		return e.locate(err, pos)
	}
	return result
}

func (e *Evaluator) applyScriptFunction(fn *object.Function, args []object.Object, pos token.Pos, fscope *object.FileScope) object.Object {
	if len(args) != len(fn.Params) {
		return e.newError(pos, object.ArgumentCount, "wrong number of arguments. got=%d, want=%d", len(args), len(fn.Params))
	}
	if errObj := e.compileSignature(fn, pos); errObj != nil {
		return errObj
	}
	for i, arg := range args {
		pt := fn.ParamTypes[i]
		if pt != nil && !validator.Check(pt, nil, arg) {
			return e.newError(pos, object.TypeMismatch, "argument %d of %s: expected %s, got %s",
				i+1, functionName(fn), pt.Inspect(), object.TypeName(arg))
		}
	}

	if len(e.callStack) >= MaxCallDepth {
		return e.newError(pos, object.ControlFlow, "maximum call depth exceeded in %s", functionName(fn))
	}
	frame := object.CallFrame{Pos: pos, Function: functionName(fn)}
	if fscope != nil {
		frame.File = fscope.Path
	}
	e.callStack = append(e.callStack, frame)
	defer func() { e.callStack = e.callStack[:len(e.callStack)-1] }()

	callEnv := object.NewEnclosedEnvironment(fn.Env)
	for i, g := range fn.Generics {
		callEnv.SetLocal(g.Name, &validator.Generic{Name: g.Name, Index: i})
	}
	for i, p := range fn.Params {
		callEnv.SetLocal(p.Name.Name, args[i])
	}

	result := e.evalBlock(fn.Body, callEnv, fn.FScope)
	switch r := result.(type) {
	case *object.ReturnValue:
		result = r.Value
	case *object.BreakValue:
		return e.newError(pos, object.ControlFlow, "break outside of loop in %s", functionName(fn))
	case *object.ContinueSignal:
		return e.newError(pos, object.ControlFlow, "continue outside of loop in %s", functionName(fn))
	case *object.Error:
		return r
	}

	if fn.ResultType != nil && !validator.Check(fn.ResultType, nil, result) {
		return e.newError(pos, object.TypeMismatch, "return value of %s: expected %s, got %s",
			functionName(fn), fn.ResultType.Inspect(), object.TypeName(result))
	}
	return result
}

func functionName(fn *object.Function) string {
	if fn.Name == "" {
		return "<anonymous>"
	}
	return fn.Name
}

// compileSignature compiles the declared parameter and return types of fn
// on its first call. Names resolve in the scope the function captured.
func (e *Evaluator) compileSignature(fn *object.Function, pos token.Pos) *object.Error {
	if fn.Checked {
		return nil
	}
	generics := genericIndex(fn.Generics)
	r := e.resolver(fn.Env)
	paramTypes := make([]object.Validator, len(fn.Params))
	for i, p := range fn.Params {
		if p.Type == nil {
			continue
		}
		v, err := validator.Compile(p.Type, r, generics)
		if err != nil {
			return e.newError(pos, object.InvalidType, "%v", err)
		}
		paramTypes[i] = v
	}
	var resultType object.Validator
	if fn.ReturnType != nil {
		v, err := validator.Compile(fn.ReturnType, r, generics)
		if err != nil {
			return e.newError(pos, object.InvalidType, "%v", err)
		}
		resultType = v
	}
	fn.ParamTypes = paramTypes
	fn.ResultType = resultType
	fn.Checked = true
	return nil
}

func genericIndex(ids []*ast.Identifier) map[string]int {
	if len(ids) == 0 {
		return nil
	}
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id.Name] = i
	}
	return m
}
