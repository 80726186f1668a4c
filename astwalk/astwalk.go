package astwalk

import (
	"github.com/podhmo/vsharp/ast"
)

// ToplevelImports returns an iterator function for the top-level import
// statements of prog whose path is a string literal.
// This function is designed to be used with Go 1.23's range-over-function feature.
// Example:
//
//	for imp, path := range ToplevelImports(prog) {
//		// use imp and path
//	}
func ToplevelImports(prog *ast.Program) func(yield func(*ast.ImportStatement, string) bool) {
	return func(yield func(*ast.ImportStatement, string) bool) {
		if prog == nil {
			return
		}
		for _, stmt := range prog.Statements {
			imp, ok := stmt.(*ast.ImportStatement)
			if !ok {
				continue
			}
			lit, ok := imp.Path.(*ast.StringLiteral)
			if !ok {
				continue
			}
			if !yield(imp, lit.Value) {
				return
			}
		}
	}
}

// ToplevelFuncs returns an iterator function for the functions declared by
// name at the top level of prog, e.g. `func f() {}` but not `func o.m() {}`.
func ToplevelFuncs(prog *ast.Program) func(yield func(string, *ast.FuncDeclaration) bool) {
	return func(yield func(string, *ast.FuncDeclaration) bool) {
		if prog == nil {
			return
		}
		for _, stmt := range prog.Statements {
			decl, ok := stmt.(*ast.FuncDeclaration)
			if !ok {
				continue
			}
			ident, ok := decl.Target.(*ast.Identifier)
			if !ok {
				continue
			}
			if !yield(ident.Name, decl) {
				return
			}
		}
	}
}
