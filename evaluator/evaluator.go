package evaluator

import (
	"context"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/cache"
	"github.com/podhmo/vsharp/ffibridge"
	"github.com/podhmo/vsharp/fs"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/token"
)

// Evaluator is a tree-walking interpreter. The only state it carries
// between calls is the call stack used for diagnostics and the set of
// files currently being imported.
type Evaluator struct {
	object.BuiltinContext
	logger    *slog.Logger
	fs        fs.FS
	cache     *cache.ProgramCache
	seed      func() *object.Environment
	hostTypes map[string]reflect.Type
	methods   map[object.ObjectType]map[string]*object.Builtin
	libs      *ffibridge.Loader
	interop   HostInterop
	callStack []object.CallFrame
	importing map[string]bool
}

type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// FS and Cache are used by `import`.
	FS    fs.FS
	Cache *cache.ProgramCache
	// Seed returns a fresh scope holding the registered globals. Every
	// imported module runs in a child of a new seed.
	Seed func() *object.Environment
	// HostTypes are host types usable in type expressions by name.
	HostTypes map[string]reflect.Type
	// Methods are the per-type method tables of non-object values.
	Methods map[object.ObjectType]map[string]*object.Builtin
	// Libraries resolves `lib` statements.
	Libraries *ffibridge.Loader
	// Interop handles member access on host values. A reflection based
	// implementation is used when nil.
	Interop HostInterop
}

func New(cfg Config) *Evaluator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	fsys := cfg.FS
	if fsys == nil {
		fsys = fs.NewOSFS()
	}
	pc := cfg.Cache
	if pc == nil {
		pc = cache.NewProgramCache(fsys)
	}
	seed := cfg.Seed
	if seed == nil {
		seed = object.NewEnvironment
	}
	libs := cfg.Libraries
	if libs == nil {
		libs = ffibridge.NewLoader(logger)
	}
	e := &Evaluator{
		logger:    logger,
		fs:        fsys,
		cache:     pc,
		seed:      seed,
		hostTypes: cfg.HostTypes,
		methods:   cfg.Methods,
		libs:      libs,
		interop:   cfg.Interop,
		importing: make(map[string]bool),
	}
	e.BuiltinContext = object.BuiltinContext{
		Stdin:  cfg.Stdin,
		Stdout: cfg.Stdout,
		Stderr: cfg.Stderr,
		Logger: logger,
		NewError: func(pos token.Pos, kind object.ErrorKind, format string, args ...any) *object.Error {
			return e.newError(pos, kind, format, args...)
		},
		Call: func(fn object.Object, args ...object.Object) object.Object {
			return e.applyFunction(fn, args, token.NoPos, nil)
		},
	}
	if e.Stdin == nil {
		e.Stdin = os.Stdin
	}
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Stderr == nil {
		e.Stderr = os.Stderr
	}
	if e.interop == nil {
		e.interop = &reflectInterop{call: e.Call, logger: logger}
	}
	return e
}

func (e *Evaluator) newError(pos token.Pos, kind object.ErrorKind, format string, args ...any) *object.Error {
	err := object.Errorf(kind, format, args...)
	err.Pos = pos
	err.CallStack = e.stack()
	return err
}

func (e *Evaluator) stack() []object.CallFrame {
	stackCopy := make([]object.CallFrame, len(e.callStack))
	copy(stackCopy, e.callStack)
	return stackCopy
}

// locate fills in the position and call stack of an error created
// without them, e.g. by a native function.
func (e *Evaluator) locate(err *object.Error, pos token.Pos) *object.Error {
	if !err.Pos.IsValid() {
		err.Pos = pos
	}
	if err.CallStack == nil {
		err.CallStack = e.stack()
	}
	return err
}

func isError(obj object.Object) bool {
	if obj != nil {
		return obj.Type() == object.ERROR_OBJ
	}
	return false
}

// isSignal reports whether obj must stop the evaluation of the enclosing
// expression: an error or a return/break/continue signal.
func isSignal(obj object.Object) bool {
	return obj != nil && object.IsSignal(obj)
}

func isTruthy(obj object.Object) bool {
	switch o := obj.(type) {
	case *object.Boolean:
		return o.Value
	case *object.Null:
		return false
	default:
		return true
	}
}

// Run executes prog in env. ctx is checked between top-level statements.
func (e *Evaluator) Run(ctx context.Context, prog *ast.Program, env *object.Environment, fscope *object.FileScope) object.Object {
	return e.evalProgram(ctx, prog, env, fscope)
}

// Apply invokes a callable value with already evaluated arguments.
func (e *Evaluator) Apply(fn object.Object, args []object.Object) object.Object {
	return e.applyFunction(fn, args, token.NoPos, nil)
}

func (e *Evaluator) evalProgram(ctx context.Context, prog *ast.Program, env *object.Environment, fscope *object.FileScope) object.Object {
	var result object.Object = object.NULL
	for _, stmt := range prog.Statements {
		if err := ctx.Err(); err != nil {
			return e.attachFile(e.newError(stmt.Pos(), object.ControlFlow, "interrupted: %v", err), fscope)
		}
		result = e.Eval(stmt, env, fscope)
		switch r := result.(type) {
		case *object.Error:
			return e.attachFile(r, fscope)
		case *object.ReturnValue:
			return e.attachFile(e.newError(stmt.Pos(), object.ControlFlow, "return outside of function"), fscope)
		case *object.BreakValue:
			return e.attachFile(e.newError(stmt.Pos(), object.ControlFlow, "break outside of loop"), fscope)
		case *object.ContinueSignal:
			return e.attachFile(e.newError(stmt.Pos(), object.ControlFlow, "continue outside of loop"), fscope)
		}
	}
	return result
}

func (e *Evaluator) attachFile(err *object.Error, fscope *object.FileScope) *object.Error {
	if err.File == "" && fscope != nil {
		err.File = fscope.Path
	}
	return err
}

// Eval evaluates node in env. Statements and expressions both produce a
// value; control flow is signaled through ReturnValue, BreakValue,
// CONTINUE and *object.Error results.
func (e *Evaluator) Eval(node ast.Node, env *object.Environment, fscope *object.FileScope) object.Object {
	switch n := node.(type) {
	case *ast.Program:
		return e.evalProgram(context.Background(), n, env, fscope)

	// statements
	case *ast.ExpressionStatement:
		return e.Eval(n.Expr, env, fscope)
	case *ast.SetStatement:
		val := e.Eval(n.Value, env, fscope)
		if isSignal(val) {
			return val
		}
		env.Set(n.Name.Name, val)
		return val
	case *ast.WhileStatement:
		return e.evalWhileStatement(n, env, fscope)
	case *ast.ForStatement:
		return e.evalForStatement(n, env, fscope)
	case *ast.FuncDeclaration:
		return e.evalFuncDeclaration(n, env, fscope)
	case *ast.ReturnStatement:
		val := e.evalOptional(n.Value, env, fscope)
		if isSignal(val) {
			return val
		}
		return &object.ReturnValue{Value: val}
	case *ast.BreakStatement:
		val := e.evalOptional(n.Value, env, fscope)
		if isSignal(val) {
			return val
		}
		return &object.BreakValue{Value: val}
	case *ast.ContinueStatement:
		return object.CONTINUE
	case *ast.TypeDeclaration:
		return e.evalTypeDeclaration(n, env)
	case *ast.ImportStatement:
		return e.evalImportStatement(n, env, fscope)
	case *ast.LibStatement:
		return e.evalLibStatement(n, env, fscope)
	case *ast.PropertyAssign:
		target := e.Eval(n.Target, env, fscope)
		if isSignal(target) {
			return target
		}
		val := e.Eval(n.Value, env, fscope)
		if isSignal(val) {
			return val
		}
		if err := e.setProperty(target, n.Name.Name, val, n.Name.Pos()); err != nil {
			return err
		}
		return val
	case *ast.IndexAssign:
		target := e.Eval(n.Target, env, fscope)
		if isSignal(target) {
			return target
		}
		index := e.Eval(n.Index, env, fscope)
		if isSignal(index) {
			return index
		}
		val := e.Eval(n.Value, env, fscope)
		if isSignal(val) {
			return val
		}
		if err := e.setIndex(target, index, val, n.Pos()); err != nil {
			return err
		}
		return val

	// expressions
	case *ast.IntegerLiteral:
		return &object.Integer{Value: n.Value}
	case *ast.DoubleLiteral:
		return &object.Double{Value: n.Value}
	case *ast.BooleanLiteral:
		return object.NativeBool(n.Value)
	case *ast.StringLiteral:
		return &object.String{Value: n.Value}
	case *ast.NullLiteral:
		return object.NULL
	case *ast.Identifier:
		return e.evalIdentifier(n, env)
	case *ast.BinaryExpression:
		left := e.Eval(n.Left, env, fscope)
		if isSignal(left) {
			return left
		}
		right := e.Eval(n.Right, env, fscope)
		if isSignal(right) {
			return right
		}
		return e.evalBinaryExpression(n.OpPos, n.Op, left, right)
	case *ast.LogicalExpression:
		return e.evalLogicalExpression(n, env, fscope)
	case *ast.NotExpression:
		x := e.Eval(n.X, env, fscope)
		if isSignal(x) {
			return x
		}
		return object.NativeBool(!isTruthy(x))
	case *ast.NegExpression:
		x := e.Eval(n.X, env, fscope)
		if isSignal(x) {
			return x
		}
		return e.evalNegation(n.MinusPos, x)
	case *ast.IfExpression:
		return e.evalIfExpression(n, env, fscope)
	case *ast.BlockExpression:
		return e.evalBlock(n, object.NewEnclosedEnvironment(env), fscope)
	case *ast.ArrayLiteral:
		items, errObj := e.evalExpressions(n.Items, env, fscope)
		if errObj != nil {
			return errObj
		}
		return &object.Array{Elements: items}
	case *ast.ObjectLiteral:
		return e.evalObjectLiteral(n, env, fscope)
	case *ast.FunctionLiteral:
		return newFunction(n, "", env, fscope)
	case *ast.PropertyAccess:
		target := e.Eval(n.Target, env, fscope)
		if isSignal(target) {
			return target
		}
		return e.getProperty(target, n.Name.Name, n.Name.Pos())
	case *ast.MethodCall:
		target := e.Eval(n.Target, env, fscope)
		if isSignal(target) {
			return target
		}
		args, errObj := e.evalExpressions(n.Args, env, fscope)
		if errObj != nil {
			return errObj
		}
		return e.callMethod(target, n.Name.Name, args, n.Name.Pos(), fscope)
	case *ast.Invoke:
		fn := e.Eval(n.Target, env, fscope)
		if isSignal(fn) {
			return fn
		}
		args, errObj := e.evalExpressions(n.Args, env, fscope)
		if errObj != nil {
			return errObj
		}
		return e.applyFunction(fn, args, n.Pos(), fscope)
	case *ast.Indexing:
		target := e.Eval(n.Target, env, fscope)
		if isSignal(target) {
			return target
		}
		index := e.Eval(n.Index, env, fscope)
		if isSignal(index) {
			return index
		}
		return e.index(target, index, n.Pos())
	case *ast.Membership:
		item := e.Eval(n.Item, env, fscope)
		if isSignal(item) {
			return item
		}
		container := e.Eval(n.Container, env, fscope)
		if isSignal(container) {
			return container
		}
		return e.contains(container, item, n.Pos())
	case *ast.TypeTest:
		item := e.Eval(n.Item, env, fscope)
		if isSignal(item) {
			return item
		}
		return e.evalTypeTest(n, item, env)
	}
	return e.newError(node.Pos(), object.SyntaxError, "unsupported node %T", node)
}

func (e *Evaluator) evalOptional(expr ast.Expression, env *object.Environment, fscope *object.FileScope) object.Object {
	if expr == nil {
		return object.NULL
	}
	return e.Eval(expr, env, fscope)
}

func (e *Evaluator) evalIdentifier(n *ast.Identifier, env *object.Environment) object.Object {
	if val, ok := env.Get(n.Name); ok {
		return val
	}
	if b, ok := builtins[n.Name]; ok {
		return b
	}
	return e.newError(n.Pos(), object.UnboundVariable, "identifier not found: %s", n.Name)
}

// evalBlock runs the statements of block in env, which the caller has
// already created. The value is that of the last statement.
func (e *Evaluator) evalBlock(block *ast.BlockExpression, env *object.Environment, fscope *object.FileScope) object.Object {
	var result object.Object = object.NULL
	for _, stmt := range block.Statements {
		result = e.Eval(stmt, env, fscope)
		if isSignal(result) {
			return result
		}
	}
	return result
}

func (e *Evaluator) evalExpressions(exprs []ast.Expression, env *object.Environment, fscope *object.FileScope) ([]object.Object, object.Object) {
	result := make([]object.Object, 0, len(exprs))
	for _, x := range exprs {
		v := e.Eval(x, env, fscope)
		if isSignal(v) {
			return nil, v
		}
		result = append(result, v)
	}
	return result, nil
}

func (e *Evaluator) evalIfExpression(n *ast.IfExpression, env *object.Environment, fscope *object.FileScope) object.Object {
	cond := e.Eval(n.Cond, env, fscope)
	if isSignal(cond) {
		return cond
	}
	if isTruthy(cond) {
		return e.evalBlock(n.Then, object.NewEnclosedEnvironment(env), fscope)
	}
	if n.Else != nil {
		return e.Eval(n.Else, env, fscope)
	}
	return object.NULL
}

// loopBody runs one iteration. It reports whether the loop must stop and
// the value to return from the loop in that case.
func (e *Evaluator) loopBody(body *ast.BlockExpression, env *object.Environment, fscope *object.FileScope) (bool, object.Object) {
	r := e.evalBlock(body, env, fscope)
	switch r := r.(type) {
	case *object.BreakValue:
		return true, object.NULL
	case *object.ContinueSignal:
		return false, nil
	case *object.ReturnValue, *object.Error:
		return true, r
	}
	return false, nil
}

func (e *Evaluator) evalWhileStatement(n *ast.WhileStatement, env *object.Environment, fscope *object.FileScope) object.Object {
	for {
		cond := e.Eval(n.Cond, env, fscope)
		if isSignal(cond) {
			return cond
		}
		if !isTruthy(cond) {
			return object.NULL
		}
		if stop, r := e.loopBody(n.Body, object.NewEnclosedEnvironment(env), fscope); stop {
			return r
		}
	}
}

func (e *Evaluator) evalForStatement(n *ast.ForStatement, env *object.Environment, fscope *object.FileScope) object.Object {
	iterable := e.Eval(n.Iterable, env, fscope)
	if isSignal(iterable) {
		return iterable
	}
	it, ok := e.iterate(iterable)
	if !ok {
		return e.newError(n.Iterable.Pos(), object.NotIterable, "cannot iterate over %s", object.TypeName(iterable))
	}
	for it.Next() {
		iterEnv := object.NewEnclosedEnvironment(env)
		iterEnv.SetLocal(n.Item.Name, it.Current())
		if stop, r := e.loopBody(n.Body, iterEnv, fscope); stop {
			return r
		}
	}
	return object.NULL
}

func (e *Evaluator) iterate(v object.Object) (object.Iterator, bool) {
	switch v := v.(type) {
	case object.Iterable:
		return v.Iterate(), true
	case *object.GoValue:
		return e.interop.Iterate(v)
	}
	return nil, false
}

func (e *Evaluator) evalObjectLiteral(n *ast.ObjectLiteral, env *object.Environment, fscope *object.FileScope) object.Object {
	obj := object.NewDynamicObject()
	for _, ent := range n.Entries {
		var val object.Object
		if lit, ok := ent.Value.(*ast.FunctionLiteral); ok {
			val = newFunction(lit, ent.KeyString(), env, fscope)
		} else {
			val = e.Eval(ent.Value, env, fscope)
			if isSignal(val) {
				return val
			}
		}
		if ent.IsInt {
			obj.Set(object.IntKey(ent.Index), val)
		} else {
			obj.Set(object.StrKey(ent.Name), val)
		}
	}
	return obj
}

func newFunction(lit *ast.FunctionLiteral, name string, env *object.Environment, fscope *object.FileScope) *object.Function {
	return &object.Function{
		Name:       name,
		Params:     lit.Params,
		Generics:   lit.Generics,
		ReturnType: lit.ReturnType,
		Body:       lit.Body,
		Env:        env,
		FScope:     fscope,
	}
}

// evalFuncDeclaration binds a function according to the shape of the
// declared target: a variable, a property or an index slot.
func (e *Evaluator) evalFuncDeclaration(n *ast.FuncDeclaration, env *object.Environment, fscope *object.FileScope) object.Object {
	switch target := n.Target.(type) {
	case *ast.Identifier:
		env.Set(target.Name, newFunction(n.Func, target.Name, env, fscope))
		return object.NULL
	case *ast.PropertyAccess:
		recv := e.Eval(target.Target, env, fscope)
		if isSignal(recv) {
			return recv
		}
		fn := newFunction(n.Func, target.Name.Name, env, fscope)
		if err := e.setProperty(recv, target.Name.Name, fn, target.Pos()); err != nil {
			return err
		}
		return object.NULL
	case *ast.Indexing:
		recv := e.Eval(target.Target, env, fscope)
		if isSignal(recv) {
			return recv
		}
		index := e.Eval(target.Index, env, fscope)
		if isSignal(index) {
			return index
		}
		fn := newFunction(n.Func, target.String(), env, fscope)
		if err := e.setIndex(recv, index, fn, target.Pos()); err != nil {
			return err
		}
		return object.NULL
	}
	return e.newError(n.Pos(), object.SyntaxError, "cannot declare a function on %s", n.Target)
}
