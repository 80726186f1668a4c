package evaluator

import (
	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/token"
)

// evalBinaryExpression applies an arithmetic or comparison operator. The
// supported operand pairs are (str, str), (str, any) and (any, str) for
// `+` only, (int, int), (f64, f64), and mixed int/f64 where the int side
// is promoted. Everything else is a type mismatch.
func (e *Evaluator) evalBinaryExpression(pos token.Pos, op token.Kind, left, right object.Object) object.Object {
	ls, lok := left.(*object.String)
	rs, rok := right.(*object.String)
	switch {
	case lok && rok:
		return e.evalStringInfixExpression(pos, op, ls.Value, rs.Value)
	case lok || rok:
		if op == token.PLUS {
			return &object.String{Value: left.Inspect() + right.Inspect()}
		}
		return e.mismatch(pos, op, left, right)
	}

	switch l := left.(type) {
	case *object.Integer:
		switch r := right.(type) {
		case *object.Integer:
			return e.evalIntegerInfixExpression(pos, op, l.Value, r.Value)
		case *object.Double:
			return e.evalDoubleInfixExpression(pos, op, float64(l.Value), r.Value)
		}
	case *object.Double:
		switch r := right.(type) {
		case *object.Integer:
			return e.evalDoubleInfixExpression(pos, op, l.Value, float64(r.Value))
		case *object.Double:
			return e.evalDoubleInfixExpression(pos, op, l.Value, r.Value)
		}
	}
	return e.mismatch(pos, op, left, right)
}

func (e *Evaluator) mismatch(pos token.Pos, op token.Kind, left, right object.Object) *object.Error {
	return e.newError(pos, object.TypeMismatch, "unsupported operand types for %s: %s and %s",
		op, object.TypeName(left), object.TypeName(right))
}

func (e *Evaluator) evalStringInfixExpression(pos token.Pos, op token.Kind, l, r string) object.Object {
	switch op {
	case token.PLUS:
		return &object.String{Value: l + r}
	case token.EQ:
		return object.NativeBool(l == r)
	case token.NOT_EQ:
		return object.NativeBool(l != r)
	case token.LT:
		return object.NativeBool(l < r)
	case token.LE:
		return object.NativeBool(l <= r)
	case token.GT:
		return object.NativeBool(l > r)
	case token.GE:
		return object.NativeBool(l >= r)
	}
	return e.newError(pos, object.TypeMismatch, "unsupported operator for str: %s", op)
}

func (e *Evaluator) evalIntegerInfixExpression(pos token.Pos, op token.Kind, l, r int64) object.Object {
	switch op {
	case token.PLUS:
		return &object.Integer{Value: l + r}
	case token.MINUS:
		return &object.Integer{Value: l - r}
	case token.ASTERISK:
		return &object.Integer{Value: l * r}
	case token.SLASH:
		if r == 0 {
			return e.newError(pos, object.DivisionByZero, "division by zero")
		}
		return &object.Integer{Value: l / r}
	case token.EQ:
		return object.NativeBool(l == r)
	case token.NOT_EQ:
		return object.NativeBool(l != r)
	case token.LT:
		return object.NativeBool(l < r)
	case token.LE:
		return object.NativeBool(l <= r)
	case token.GT:
		return object.NativeBool(l > r)
	case token.GE:
		return object.NativeBool(l >= r)
	}
	return e.newError(pos, object.TypeMismatch, "unsupported operator for int: %s", op)
}

func (e *Evaluator) evalDoubleInfixExpression(pos token.Pos, op token.Kind, l, r float64) object.Object {
	switch op {
	case token.PLUS:
		return &object.Double{Value: l + r}
	case token.MINUS:
		return &object.Double{Value: l - r}
	case token.ASTERISK:
		return &object.Double{Value: l * r}
	case token.SLASH:
		if r == 0 {
			return e.newError(pos, object.DivisionByZero, "division by zero")
		}
		return &object.Double{Value: l / r}
	case token.EQ:
		return object.NativeBool(l == r)
	case token.NOT_EQ:
		return object.NativeBool(l != r)
	case token.LT:
		return object.NativeBool(l < r)
	case token.LE:
		return object.NativeBool(l <= r)
	case token.GT:
		return object.NativeBool(l > r)
	case token.GE:
		return object.NativeBool(l >= r)
	}
	return e.newError(pos, object.TypeMismatch, "unsupported operator for f64: %s", op)
}

func (e *Evaluator) evalLogicalExpression(n *ast.LogicalExpression, env *object.Environment, fscope *object.FileScope) object.Object {
	left := e.Eval(n.Left, env, fscope)
	if isSignal(left) {
		return left
	}
	switch n.Op {
	case token.AND:
		if !isTruthy(left) {
			return object.FALSE
		}
	case token.OR:
		if isTruthy(left) {
			return object.TRUE
		}
	default:
		return e.newError(n.Pos(), object.SyntaxError, "unsupported logical operator %s", n.Op)
	}
	right := e.Eval(n.Right, env, fscope)
	if isSignal(right) {
		return right
	}
	return object.NativeBool(isTruthy(right))
}

func (e *Evaluator) evalNegation(pos token.Pos, x object.Object) object.Object {
	switch x := x.(type) {
	case *object.Integer:
		return &object.Integer{Value: -x.Value}
	case *object.Double:
		return &object.Double{Value: -x.Value}
	}
	return e.newError(pos, object.TypeMismatch, "unsupported operand type for -: %s", object.TypeName(x))
}
