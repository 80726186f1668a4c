package evaluator

import (
	"context"
	"path/filepath"

	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/object"
)

// SourceExt is the file extension of scripts.
const SourceExt = ".vs"

func (e *Evaluator) evalPath(expr ast.Expression, env *object.Environment, fscope *object.FileScope) (string, object.Object) {
	v := e.Eval(expr, env, fscope)
	if isSignal(v) {
		return "", v
	}
	s, ok := v.(*object.String)
	if !ok {
		return "", e.newError(expr.Pos(), object.TypeMismatch, "path must be a str, got %s", object.TypeName(v))
	}
	return s.Value, nil
}

func baseDir(fscope *object.FileScope) string {
	if fscope == nil || fscope.Dir == "" {
		return "."
	}
	return fscope.Dir
}

// resolveImport resolves path against the importing file's
// directory. The extension may be omitted.
func (e *Evaluator) resolveImport(path string, fscope *object.FileScope) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir(fscope), path)
	}
	path = filepath.Clean(path)
	if _, err := e.fs.Stat(path); err != nil && filepath.Ext(path) != SourceExt {
		if _, err := e.fs.Stat(path + SourceExt); err == nil {
			return path + SourceExt
		}
	}
	return path
}

func (e *Evaluator) evalImportStatement(n *ast.ImportStatement, env *object.Environment, fscope *object.FileScope) object.Object {
	raw, errObj := e.evalPath(n.Path, env, fscope)
	if errObj != nil {
		return errObj
	}
	path := e.resolveImport(raw, fscope)
	if e.importing[path] {
		return e.newError(n.Pos(), object.ImportError, "import cycle detected: %s", path)
	}
	prog, err := e.cache.Load(path)
	if err != nil {
		return e.newError(n.Pos(), object.ImportError, "cannot import %q: %v", raw, err)
	}
	e.logger.Debug("import", "path", path, "alias", aliasName(n.Alias))

	modScope := &object.FileScope{Path: path, Dir: filepath.Dir(path)}
	var modEnv *object.Environment
	if n.Alias != nil {
		obj := object.NewDynamicObject()
		env.Set(n.Alias.Name, obj)
		modEnv = object.NewObjectEnvironment(obj, e.seed())
	} else {
		modEnv = object.NewEnclosedEnvironment(e.seed())
	}

	e.importing[path] = true
	defer delete(e.importing, path)
	if r := e.evalProgram(context.Background(), prog, modEnv, modScope); isError(r) {
		return r
	}

	if n.Alias == nil {
		for _, name := range modEnv.Names() {
			v, _ := modEnv.GetLocal(name)
			env.Set(name, v)
		}
	}
	return object.NULL
}

func (e *Evaluator) evalLibStatement(n *ast.LibStatement, env *object.Environment, fscope *object.FileScope) object.Object {
	path, errObj := e.evalPath(n.Path, env, fscope)
	if errObj != nil {
		return errObj
	}
	lib, err := e.libs.Load(path, baseDir(fscope))
	if err != nil {
		return e.newError(n.Pos(), object.LibError, "cannot load library %q: %v", path, err)
	}
	e.logger.Debug("lib", "path", path, "alias", aliasName(n.Alias))

	if n.Alias != nil {
		env.Set(n.Alias.Name, lib)
		return object.NULL
	}
	for _, k := range lib.Keys() {
		v, _ := lib.Get(k)
		env.Set(k.String(), v)
	}
	return object.NULL
}

func aliasName(id *ast.Identifier) string {
	if id == nil {
		return ""
	}
	return id.Name
}

// FileScopeOf returns the file scope of a script at path.
func FileScopeOf(path string) *object.FileScope {
	if path == "" {
		return &object.FileScope{Dir: "."}
	}
	return &object.FileScope{Path: path, Dir: filepath.Dir(path)}
}
