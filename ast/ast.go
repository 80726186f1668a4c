// Package ast declares the syntax tree of vsharp programs.
package ast

import (
	"strconv"
	"strings"

	"github.com/podhmo/vsharp/token"
)

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() token.Pos
	String() string
}

// Statement nodes.
type Statement interface {
	Node
	stmtNode()
}

// Expression nodes.
type Expression interface {
	Node
	exprNode()
}

// Program is a parsed compilation unit.
type Program struct {
	Statements []Statement
}

func (p *Program) Pos() token.Pos {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return token.NoPos
}

func (p *Program) String() string {
	lines := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}

// ----------------------------------------
// Statements

// SetStatement binds Name in the current scope.
type SetStatement struct {
	SetPos token.Pos
	Name   *Identifier
	Value  Expression
}

func (s *SetStatement) Pos() token.Pos { return s.SetPos }
func (s *SetStatement) String() string { return "set " + s.Name.String() + " = " + s.Value.String() }

type WhileStatement struct {
	WhilePos token.Pos
	Cond     Expression
	Body     *BlockExpression
}

func (s *WhileStatement) Pos() token.Pos { return s.WhilePos }
func (s *WhileStatement) String() string {
	return "while (" + s.Cond.String() + ") " + s.Body.String()
}

type ForStatement struct {
	ForPos   token.Pos
	Item     *Identifier
	Iterable Expression
	Body     *BlockExpression
}

func (s *ForStatement) Pos() token.Pos { return s.ForPos }
func (s *ForStatement) String() string {
	return "for (" + s.Item.String() + " in " + s.Iterable.String() + ") " + s.Body.String()
}

// FuncDeclaration is `func target(params) {...}`. Target is an *Identifier,
// a *PropertyAccess or an *Indexing.
type FuncDeclaration struct {
	FuncPos token.Pos
	Target  Expression
	Func    *FunctionLiteral
}

func (s *FuncDeclaration) Pos() token.Pos { return s.FuncPos }
func (s *FuncDeclaration) String() string {
	return "func " + s.Target.String() + s.Func.signature() + " " + s.Func.Body.String()
}

type ReturnStatement struct {
	ReturnPos token.Pos
	Value     Expression // may be nil
}

func (s *ReturnStatement) Pos() token.Pos { return s.ReturnPos }
func (s *ReturnStatement) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

type BreakStatement struct {
	BreakPos token.Pos
	Value    Expression // may be nil
}

func (s *BreakStatement) Pos() token.Pos { return s.BreakPos }
func (s *BreakStatement) String() string {
	if s.Value == nil {
		return "break"
	}
	return "break " + s.Value.String()
}

type ContinueStatement struct {
	ContinuePos token.Pos
}

func (s *ContinueStatement) Pos() token.Pos { return s.ContinuePos }
func (s *ContinueStatement) String() string { return "continue" }

// TypeDeclaration is `type Name<T, ...> = TypeExpr`.
type TypeDeclaration struct {
	TypePos  token.Pos
	Name     *Identifier
	Generics []*Identifier
	Type     TypeExpr
}

func (s *TypeDeclaration) Pos() token.Pos { return s.TypePos }
func (s *TypeDeclaration) String() string {
	return "type " + s.Name.String() + genericList(s.Generics) + " = " + s.Type.String()
}

type ImportStatement struct {
	ImportPos token.Pos
	Path      Expression
	Alias     *Identifier // may be nil
}

func (s *ImportStatement) Pos() token.Pos { return s.ImportPos }
func (s *ImportStatement) String() string {
	return "import " + s.Path.String() + aliasSuffix(s.Alias)
}

// LibStatement loads a native library.
type LibStatement struct {
	LibPos token.Pos
	Path   Expression
	Alias  *Identifier // may be nil
}

func (s *LibStatement) Pos() token.Pos { return s.LibPos }
func (s *LibStatement) String() string { return "lib " + s.Path.String() + aliasSuffix(s.Alias) }

type PropertyAssign struct {
	Target Expression
	Name   *Identifier
	Value  Expression
}

func (s *PropertyAssign) Pos() token.Pos { return s.Target.Pos() }
func (s *PropertyAssign) String() string {
	return s.Target.String() + "." + s.Name.String() + " = " + s.Value.String()
}

type IndexAssign struct {
	Target Expression
	Index  Expression
	Value  Expression
}

func (s *IndexAssign) Pos() token.Pos { return s.Target.Pos() }
func (s *IndexAssign) String() string {
	return s.Target.String() + "[" + s.Index.String() + "] = " + s.Value.String()
}

type ExpressionStatement struct {
	Expr Expression
}

func (s *ExpressionStatement) Pos() token.Pos { return s.Expr.Pos() }
func (s *ExpressionStatement) String() string { return s.Expr.String() }

func (*SetStatement) stmtNode()        {}
func (*WhileStatement) stmtNode()      {}
func (*ForStatement) stmtNode()        {}
func (*FuncDeclaration) stmtNode()     {}
func (*ReturnStatement) stmtNode()     {}
func (*BreakStatement) stmtNode()      {}
func (*ContinueStatement) stmtNode()   {}
func (*TypeDeclaration) stmtNode()     {}
func (*ImportStatement) stmtNode()     {}
func (*LibStatement) stmtNode()        {}
func (*PropertyAssign) stmtNode()      {}
func (*IndexAssign) stmtNode()         {}
func (*ExpressionStatement) stmtNode() {}

// ----------------------------------------
// Expressions

type IntegerLiteral struct {
	ValuePos token.Pos
	Value    int64
}

func (e *IntegerLiteral) Pos() token.Pos { return e.ValuePos }
func (e *IntegerLiteral) String() string { return strconv.FormatInt(e.Value, 10) }

type DoubleLiteral struct {
	ValuePos token.Pos
	Value    float64
}

func (e *DoubleLiteral) Pos() token.Pos { return e.ValuePos }
func (e *DoubleLiteral) String() string { return strconv.FormatFloat(e.Value, 'g', -1, 64) }

type BooleanLiteral struct {
	ValuePos token.Pos
	Value    bool
}

func (e *BooleanLiteral) Pos() token.Pos { return e.ValuePos }
func (e *BooleanLiteral) String() string { return strconv.FormatBool(e.Value) }

type StringLiteral struct {
	ValuePos token.Pos
	Value    string
}

func (e *StringLiteral) Pos() token.Pos { return e.ValuePos }
func (e *StringLiteral) String() string { return `"` + e.Value + `"` }

type NullLiteral struct {
	ValuePos token.Pos
}

func (e *NullLiteral) Pos() token.Pos { return e.ValuePos }
func (e *NullLiteral) String() string { return "null" }

type Identifier struct {
	NamePos token.Pos
	Name    string
}

func (e *Identifier) Pos() token.Pos { return e.NamePos }
func (e *Identifier) String() string { return e.Name }

// BinaryExpression is an arithmetic or comparison operation.
type BinaryExpression struct {
	Left  Expression
	Op    token.Kind
	OpPos token.Pos
	Right Expression
}

func (e *BinaryExpression) Pos() token.Pos { return e.Left.Pos() }
func (e *BinaryExpression) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

// LogicalExpression is `and` / `or`.
type LogicalExpression struct {
	Left  Expression
	Op    token.Kind
	Right Expression
}

func (e *LogicalExpression) Pos() token.Pos { return e.Left.Pos() }
func (e *LogicalExpression) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

type NotExpression struct {
	BangPos token.Pos
	X       Expression
}

func (e *NotExpression) Pos() token.Pos { return e.BangPos }
func (e *NotExpression) String() string { return "!" + e.X.String() }

type NegExpression struct {
	MinusPos token.Pos
	X        Expression
}

func (e *NegExpression) Pos() token.Pos { return e.MinusPos }
func (e *NegExpression) String() string { return "(-" + e.X.String() + ")" }

// IfExpression yields the value of the branch that ran, or null.
// Else is nil, a *BlockExpression or another *IfExpression.
type IfExpression struct {
	IfPos token.Pos
	Cond  Expression
	Then  *BlockExpression
	Else  Expression
}

func (e *IfExpression) Pos() token.Pos { return e.IfPos }
func (e *IfExpression) String() string {
	s := "if (" + e.Cond.String() + ") " + e.Then.String()
	if e.Else != nil {
		s += " else " + e.Else.String()
	}
	return s
}

// BlockExpression evaluates to the value of its last statement.
type BlockExpression struct {
	Lbrace     token.Pos
	Statements []Statement
}

func (e *BlockExpression) Pos() token.Pos { return e.Lbrace }
func (e *BlockExpression) String() string {
	if len(e.Statements) == 0 {
		return "{ }"
	}
	parts := make([]string, len(e.Statements))
	for i, s := range e.Statements {
		parts[i] = s.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

type ArrayLiteral struct {
	Lbrack token.Pos
	Items  []Expression
}

func (e *ArrayLiteral) Pos() token.Pos { return e.Lbrack }
func (e *ArrayLiteral) String() string { return "[" + exprList(e.Items) + "]" }

// ObjectEntry is one `key: value` pair of an object literal.
// The key is either a name (identifier or string) or an integer.
type ObjectEntry struct {
	KeyPos token.Pos
	Name   string
	Index  int64
	IsInt  bool
	Value  Expression
}

func (e *ObjectEntry) KeyString() string {
	if e.IsInt {
		return strconv.FormatInt(e.Index, 10)
	}
	return e.Name
}

type ObjectLiteral struct {
	Lbrace  token.Pos
	Entries []*ObjectEntry
}

func (e *ObjectLiteral) Pos() token.Pos { return e.Lbrace }
func (e *ObjectLiteral) String() string {
	parts := make([]string, len(e.Entries))
	for i, ent := range e.Entries {
		parts[i] = ent.KeyString() + ": " + ent.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Param is a function parameter with an optional declared type.
type Param struct {
	Name *Identifier
	Type TypeExpr // may be nil
}

func (p *Param) String() string {
	if p.Type == nil {
		return p.Name.String()
	}
	return p.Name.String() + ": " + p.Type.String()
}

type FunctionLiteral struct {
	FuncPos    token.Pos
	Generics   []*Identifier
	Params     []*Param
	ReturnType TypeExpr // may be nil
	Body       *BlockExpression
}

func (e *FunctionLiteral) Pos() token.Pos { return e.FuncPos }
func (e *FunctionLiteral) String() string {
	return "func" + e.signature() + " " + e.Body.String()
}

func (e *FunctionLiteral) signature() string {
	params := make([]string, len(e.Params))
	for i, p := range e.Params {
		params[i] = p.String()
	}
	s := genericList(e.Generics) + "(" + strings.Join(params, ", ") + ")"
	if e.ReturnType != nil {
		s += ": " + e.ReturnType.String()
	}
	return s
}

type PropertyAccess struct {
	Target Expression
	Name   *Identifier
}

func (e *PropertyAccess) Pos() token.Pos { return e.Name.NamePos }
func (e *PropertyAccess) String() string { return e.Target.String() + "." + e.Name.String() }

type MethodCall struct {
	Target Expression
	Name   *Identifier
	Args   []Expression
}

func (e *MethodCall) Pos() token.Pos { return e.Name.NamePos }
func (e *MethodCall) String() string {
	return e.Target.String() + "." + e.Name.String() + "(" + exprList(e.Args) + ")"
}

type Invoke struct {
	Target Expression
	Lparen token.Pos
	Args   []Expression
}

func (e *Invoke) Pos() token.Pos { return e.Lparen }
func (e *Invoke) String() string { return e.Target.String() + "(" + exprList(e.Args) + ")" }

type Indexing struct {
	Target Expression
	Lbrack token.Pos
	Index  Expression
}

func (e *Indexing) Pos() token.Pos { return e.Lbrack }
func (e *Indexing) String() string { return e.Target.String() + "[" + e.Index.String() + "]" }

// Membership is `item in container`.
type Membership struct {
	Item      Expression
	InPos     token.Pos
	Container Expression
}

func (e *Membership) Pos() token.Pos { return e.InPos }
func (e *Membership) String() string {
	return "(" + e.Item.String() + " in " + e.Container.String() + ")"
}

// TypeTest is `item is Type`.
type TypeTest struct {
	Item  Expression
	IsPos token.Pos
	Type  TypeExpr
}

func (e *TypeTest) Pos() token.Pos { return e.IsPos }
func (e *TypeTest) String() string { return "(" + e.Item.String() + " is " + e.Type.String() + ")" }

func (*IntegerLiteral) exprNode()    {}
func (*DoubleLiteral) exprNode()     {}
func (*BooleanLiteral) exprNode()    {}
func (*StringLiteral) exprNode()     {}
func (*NullLiteral) exprNode()       {}
func (*Identifier) exprNode()        {}
func (*BinaryExpression) exprNode()  {}
func (*LogicalExpression) exprNode() {}
func (*NotExpression) exprNode()     {}
func (*NegExpression) exprNode()     {}
func (*IfExpression) exprNode()      {}
func (*BlockExpression) exprNode()   {}
func (*ArrayLiteral) exprNode()      {}
func (*ObjectLiteral) exprNode()     {}
func (*FunctionLiteral) exprNode()   {}
func (*PropertyAccess) exprNode()    {}
func (*MethodCall) exprNode()        {}
func (*Invoke) exprNode()            {}
func (*Indexing) exprNode()          {}
func (*Membership) exprNode()        {}
func (*TypeTest) exprNode()          {}

func exprList(xs []Expression) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = x.String()
	}
	return strings.Join(parts, ", ")
}

func genericList(ids []*Identifier) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.Name
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func aliasSuffix(alias *Identifier) string {
	if alias == nil {
		return ""
	}
	return " as " + alias.Name
}
