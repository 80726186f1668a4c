// Package parser implements a recursive-descent parser for vsharp source.
package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/lexer"
	"github.com/podhmo/vsharp/token"
)

// SyntaxError reports the first malformed token of a compilation unit.
type SyntaxError struct {
	Pos      token.Pos
	Expected string
	Got      token.Token
	Msg      string
}

func (e *SyntaxError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: syntax error: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s: syntax error: expected %s, got %s", e.Pos, e.Expected, e.Got)
}

// IsIncomplete reports whether err was caused by the input ending before
// a construct was closed, so that more input could still make it parse.
func IsIncomplete(err error) bool {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se.Got.Kind == token.EOF
	}
	var le *lexer.Error
	return errors.As(err, &le) && le.Msg == "unterminated string literal"
}

// bailout is used to unwind the parser on the first error.
type bailout struct{ err *SyntaxError }

type parser struct {
	toks []token.Token
	pos  int
}

// ParseString tokenizes and parses src.
func ParseString(src string) (*ast.Program, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return ParseProgram(toks)
}

// ParseProgram parses a token sequence that ends with EOF.
func ParseProgram(toks []token.Token) (prog *ast.Program, err error) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		toks = append(toks, token.Token{Kind: token.EOF})
	}
	p := &parser{toks: toks}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			prog, err = nil, b.err
		}
	}()

	prog = &ast.Program{}
	for p.cur().Kind != token.EOF {
		prog.Statements = append(prog.Statements, p.parseStatement())
	}
	return prog, nil
}

// ----------------------------------------
// token helpers

func (p *parser) cur() token.Token { return p.peek(0) }

func (p *parser) peek(n int) token.Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token.Token {
	tok := p.cur()
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

// sameLine reports whether the current token starts on the line of the
// previous one.
func (p *parser) sameLine() bool {
	return p.pos == 0 || p.toks[p.pos-1].Pos.Line == p.cur().Pos.Line
}

func (p *parser) got(k token.Kind) bool {
	if p.cur().Kind == k {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(k token.Kind) token.Token {
	tok := p.cur()
	if tok.Kind != k {
		p.fail(&SyntaxError{Pos: tok.Pos, Expected: strconv.Quote(k.String()), Got: tok})
	}
	return p.next()
}

func (p *parser) errorf(pos token.Pos, format string, args ...any) {
	p.fail(&SyntaxError{Pos: pos, Got: p.cur(), Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) fail(err *SyntaxError) { panic(bailout{err: err}) }

func (p *parser) ident() *ast.Identifier {
	tok := p.expect(token.IDENT)
	return &ast.Identifier{NamePos: tok.Pos, Name: tok.Literal}
}

// ----------------------------------------
// statements

func (p *parser) parseStatement() ast.Statement {
	tok := p.cur()
	switch tok.Kind {
	case token.SET:
		p.next()
		lhs := p.parseExpression()
		p.expect(token.ASSIGN)
		return p.assignment(lhs, p.parseExpression())
	case token.WHILE:
		p.next()
		cond := p.parseExpression()
		return &ast.WhileStatement{WhilePos: tok.Pos, Cond: cond, Body: p.parseBlock()}
	case token.FOR:
		return p.parseFor()
	case token.FUNC:
		if k := p.peek(1).Kind; k != token.LPAREN && k != token.LT {
			return p.parseFuncDeclaration()
		}
	case token.RETURN:
		p.next()
		return &ast.ReturnStatement{ReturnPos: tok.Pos, Value: p.parseOptionalValue()}
	case token.BREAK:
		p.next()
		return &ast.BreakStatement{BreakPos: tok.Pos, Value: p.parseOptionalValue()}
	case token.CONTINUE:
		p.next()
		return &ast.ContinueStatement{ContinuePos: tok.Pos}
	case token.TYPE:
		return p.parseTypeDeclaration()
	case token.IMPORT:
		p.next()
		path := p.parseExpression()
		return &ast.ImportStatement{ImportPos: tok.Pos, Path: path, Alias: p.parseAlias()}
	case token.LIB:
		p.next()
		path := p.parseExpression()
		return &ast.LibStatement{LibPos: tok.Pos, Path: path, Alias: p.parseAlias()}
	}

	expr := p.parseExpression()
	if p.got(token.ASSIGN) {
		return p.assignment(expr, p.parseExpression())
	}
	return &ast.ExpressionStatement{Expr: expr}
}

// assignment classifies the left-hand side of `lhs = value`.
func (p *parser) assignment(lhs, value ast.Expression) ast.Statement {
	switch lhs := lhs.(type) {
	case *ast.Identifier:
		return &ast.SetStatement{SetPos: lhs.NamePos, Name: lhs, Value: value}
	case *ast.PropertyAccess:
		return &ast.PropertyAssign{Target: lhs.Target, Name: lhs.Name, Value: value}
	case *ast.Indexing:
		return &ast.IndexAssign{Target: lhs.Target, Index: lhs.Index, Value: value}
	}
	p.errorf(lhs.Pos(), "cannot assign to the given expression")
	return nil
}

func (p *parser) parseOptionalValue() ast.Expression {
	switch p.cur().Kind {
	case token.RBRACE, token.EOF:
		return nil
	}
	return p.parseExpression()
}

func (p *parser) parseAlias() *ast.Identifier {
	if p.got(token.AS) {
		return p.ident()
	}
	return nil
}

func (p *parser) parseFor() ast.Statement {
	forTok := p.expect(token.FOR)
	p.expect(token.LPAREN)
	item := p.ident()
	p.expect(token.IN)
	iterable := p.parseExpression()
	p.expect(token.RPAREN)
	return &ast.ForStatement{ForPos: forTok.Pos, Item: item, Iterable: iterable, Body: p.parseBlock()}
}

// parseFuncDeclaration parses `func target<T>(params): R { body }` where
// target is a name, a property chain or an index slot.
func (p *parser) parseFuncDeclaration() ast.Statement {
	funcTok := p.expect(token.FUNC)
	target := p.parseDeclTarget()
	lit := p.parseFunctionRest(funcTok.Pos)
	return &ast.FuncDeclaration{FuncPos: funcTok.Pos, Target: target, Func: lit}
}

func (p *parser) parseDeclTarget() ast.Expression {
	var x ast.Expression = p.ident()
	for {
		switch p.cur().Kind {
		case token.DOT:
			p.next()
			x = &ast.PropertyAccess{Target: x, Name: p.ident()}
		case token.LBRACKET:
			lbrack := p.next()
			index := p.parseExpression()
			p.expect(token.RBRACKET)
			x = &ast.Indexing{Target: x, Lbrack: lbrack.Pos, Index: index}
		default:
			return x
		}
	}
}

func (p *parser) parseTypeDeclaration() ast.Statement {
	typeTok := p.expect(token.TYPE)
	name := p.ident()
	generics := p.parseGenericParams()
	p.expect(token.ASSIGN)
	return &ast.TypeDeclaration{TypePos: typeTok.Pos, Name: name, Generics: generics, Type: p.parseType()}
}

func (p *parser) parseGenericParams() []*ast.Identifier {
	if !p.got(token.LT) {
		return nil
	}
	var ids []*ast.Identifier
	for {
		ids = append(ids, p.ident())
		if !p.got(token.COMMA) {
			break
		}
	}
	p.expect(token.GT)
	return ids
}

func (p *parser) parseBlock() *ast.BlockExpression {
	lbrace := p.expect(token.LBRACE)
	block := &ast.BlockExpression{Lbrace: lbrace.Pos}
	for p.cur().Kind != token.RBRACE {
		if p.cur().Kind == token.EOF {
			p.expect(token.RBRACE)
		}
		block.Statements = append(block.Statements, p.parseStatement())
	}
	p.expect(token.RBRACE)
	return block
}

// ----------------------------------------
// expressions

func (p *parser) parseExpression() ast.Expression { return p.parseLogical() }

func (p *parser) parseLogical() ast.Expression {
	x := p.parseComparison()
	for {
		op := p.cur().Kind
		if op != token.AND && op != token.OR {
			return x
		}
		p.next()
		x = &ast.LogicalExpression{Left: x, Op: op, Right: p.parseComparison()}
	}
}

// parseComparison accepts at most one comparison operator.
func (p *parser) parseComparison() ast.Expression {
	x := p.parseAdditive()
	switch op := p.cur(); op.Kind {
	case token.EQ, token.NOT_EQ, token.LT, token.LE, token.GT, token.GE:
		p.next()
		return &ast.BinaryExpression{Left: x, Op: op.Kind, OpPos: op.Pos, Right: p.parseAdditive()}
	}
	return x
}

// parseAdditive and parseMultiplicative recurse on the right operand, so
// `10 - 3 - 2` is `10 - (3 - 2)`.
func (p *parser) parseAdditive() ast.Expression {
	x := p.parseMultiplicative()
	op := p.cur()
	if op.Kind != token.PLUS && op.Kind != token.MINUS {
		return x
	}
	p.next()
	return &ast.BinaryExpression{Left: x, Op: op.Kind, OpPos: op.Pos, Right: p.parseAdditive()}
}

func (p *parser) parseMultiplicative() ast.Expression {
	x := p.parseUnary()
	op := p.cur()
	if op.Kind != token.ASTERISK && op.Kind != token.SLASH {
		return x
	}
	p.next()
	return &ast.BinaryExpression{Left: x, Op: op.Kind, OpPos: op.Pos, Right: p.parseMultiplicative()}
}

func (p *parser) parseUnary() ast.Expression {
	switch tok := p.cur(); tok.Kind {
	case token.BANG:
		p.next()
		return &ast.NotExpression{BangPos: tok.Pos, X: p.parseUnary()}
	case token.MINUS:
		p.next()
		return &ast.NegExpression{MinusPos: tok.Pos, X: p.parseUnary()}
	}
	return p.parsePostfix()
}

// parsePostfix consumes `.name`, `.name(args)`, `(args)`, `[index]`,
// `in expr` and `is Type` in any order. A call or index must start on
// the line its target ends on; otherwise it begins a new statement.
func (p *parser) parsePostfix() ast.Expression {
	x := p.parsePrimary()
	for {
		tok := p.cur()
		if (tok.Kind == token.LPAREN || tok.Kind == token.LBRACKET) && !p.sameLine() {
			return x
		}
		switch tok.Kind {
		case token.DOT:
			p.next()
			name := p.ident()
			if p.cur().Kind == token.LPAREN {
				x = &ast.MethodCall{Target: x, Name: name, Args: p.parseArgs()}
			} else {
				x = &ast.PropertyAccess{Target: x, Name: name}
			}
		case token.LPAREN:
			x = &ast.Invoke{Target: x, Lparen: tok.Pos, Args: p.parseArgs()}
		case token.LBRACKET:
			p.next()
			index := p.parseExpression()
			p.expect(token.RBRACKET)
			x = &ast.Indexing{Target: x, Lbrack: tok.Pos, Index: index}
		case token.IN:
			p.next()
			x = &ast.Membership{Item: x, InPos: tok.Pos, Container: p.parsePostfix()}
		case token.IS:
			p.next()
			x = &ast.TypeTest{Item: x, IsPos: tok.Pos, Type: p.parseType()}
		default:
			return x
		}
	}
}

func (p *parser) parseArgs() []ast.Expression {
	p.expect(token.LPAREN)
	var args []ast.Expression
	for p.cur().Kind != token.RPAREN {
		args = append(args, p.parseExpression())
		if !p.got(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return args
}

func (p *parser) parsePrimary() ast.Expression {
	tok := p.cur()
	switch tok.Kind {
	case token.INT:
		p.next()
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.errorf(tok.Pos, "invalid integer literal %s", tok.Literal)
		}
		return &ast.IntegerLiteral{ValuePos: tok.Pos, Value: v}
	case token.FLOAT:
		p.next()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.errorf(tok.Pos, "invalid number literal %s", tok.Literal)
		}
		return &ast.DoubleLiteral{ValuePos: tok.Pos, Value: v}
	case token.STRING:
		p.next()
		return &ast.StringLiteral{ValuePos: tok.Pos, Value: tok.Literal}
	case token.TRUE, token.FALSE:
		p.next()
		return &ast.BooleanLiteral{ValuePos: tok.Pos, Value: tok.Kind == token.TRUE}
	case token.NULL:
		p.next()
		return &ast.NullLiteral{ValuePos: tok.Pos}
	case token.IDENT:
		p.next()
		return &ast.Identifier{NamePos: tok.Pos, Name: tok.Literal}
	case token.LPAREN:
		p.next()
		x := p.parseExpression()
		p.expect(token.RPAREN)
		return x
	case token.LBRACKET:
		if isKeyToken(p.peek(1).Kind) && p.peek(2).Kind == token.ASSIGN {
			return p.parseObjectLiteral(token.LBRACKET, token.ASSIGN, token.RBRACKET)
		}
		return p.parseArrayLiteral()
	case token.LBRACE:
		if p.peek(1).Kind == token.RBRACE || (isKeyToken(p.peek(1).Kind) && p.peek(2).Kind == token.COLON) {
			return p.parseObjectLiteral(token.LBRACE, token.COLON, token.RBRACE)
		}
		return p.parseBlock()
	case token.IF:
		return p.parseIf()
	case token.FUNC:
		funcTok := p.next()
		return p.parseFunctionRest(funcTok.Pos)
	}
	p.fail(&SyntaxError{Pos: tok.Pos, Expected: "expression", Got: tok})
	return nil
}

func isKeyToken(k token.Kind) bool {
	return k == token.IDENT || k == token.STRING || k == token.INT
}

func (p *parser) parseArrayLiteral() ast.Expression {
	lbrack := p.expect(token.LBRACKET)
	lit := &ast.ArrayLiteral{Lbrack: lbrack.Pos}
	for p.cur().Kind != token.RBRACKET {
		lit.Items = append(lit.Items, p.parseExpression())
		if !p.got(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACKET)
	return lit
}

// parseObjectLiteral handles both `{k: v}` and `[k = v]`.
func (p *parser) parseObjectLiteral(open, sep, close token.Kind) ast.Expression {
	lbrace := p.expect(open)
	lit := &ast.ObjectLiteral{Lbrace: lbrace.Pos}
	for p.cur().Kind != close {
		key := p.next()
		entry := &ast.ObjectEntry{KeyPos: key.Pos}
		switch key.Kind {
		case token.IDENT, token.STRING:
			entry.Name = key.Literal
		case token.INT:
			v, err := strconv.ParseInt(key.Literal, 10, 64)
			if err != nil {
				p.errorf(key.Pos, "invalid integer key %s", key.Literal)
			}
			entry.Index, entry.IsInt = v, true
		default:
			p.fail(&SyntaxError{Pos: key.Pos, Expected: "object key", Got: key})
		}
		p.expect(sep)
		entry.Value = p.parseExpression()
		lit.Entries = append(lit.Entries, entry)
		if !p.got(token.COMMA) {
			break
		}
	}
	p.expect(close)
	return lit
}

func (p *parser) parseIf() ast.Expression {
	ifTok := p.expect(token.IF)
	x := &ast.IfExpression{IfPos: ifTok.Pos, Cond: p.parseExpression()}
	x.Then = p.parseBlock()
	if p.got(token.ELSE) {
		if p.cur().Kind == token.IF {
			x.Else = p.parseIf()
		} else {
			x.Else = p.parseBlock()
		}
	}
	return x
}

// parseFunctionRest parses everything after the `func` keyword (and the
// declaration target, if any).
func (p *parser) parseFunctionRest(pos token.Pos) *ast.FunctionLiteral {
	lit := &ast.FunctionLiteral{FuncPos: pos}
	lit.Generics = p.parseGenericParams()
	p.expect(token.LPAREN)
	for p.cur().Kind != token.RPAREN {
		param := &ast.Param{Name: p.ident()}
		if p.got(token.COLON) {
			param.Type = p.parseType()
		}
		lit.Params = append(lit.Params, param)
		if !p.got(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	if p.got(token.COLON) {
		lit.ReturnType = p.parseType()
	}
	lit.Body = p.parseBlock()
	return lit
}
