package parser

import (
	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/token"
)

// parseType parses a type expression. `|` and `&` are right-recursive and
// folded with ast.Join / ast.Intersect.
func (p *parser) parseType() ast.TypeExpr {
	t := p.parseTypeAtom()
	switch {
	case p.got(token.PIPE):
		return ast.Join(t, p.parseType())
	case p.got(token.AMP):
		return ast.Intersect(t, p.parseType())
	}
	return t
}

func (p *parser) parseTypeAtom() ast.TypeExpr {
	tok := p.cur()
	switch tok.Kind {
	case token.LBRACKET:
		// `[name: T, ...]` is an object type, `[T]` an array type and `[]` the empty object type.
		if p.peek(1).Kind == token.RBRACKET {
			p.next()
			p.next()
			return &ast.ObjectType{Lbrack: tok.Pos}
		}
		if k := p.peek(1).Kind; (k == token.IDENT || k == token.STRING) && p.peek(2).Kind == token.COLON {
			return p.parseObjectType()
		}
		p.next()
		elem := p.parseType()
		p.expect(token.RBRACKET)
		return &ast.ArrayType{Lbrack: tok.Pos, Elem: elem}
	case token.FUNC:
		p.next()
		ft := &ast.FuncType{FuncPos: tok.Pos}
		p.expect(token.LPAREN)
		for p.cur().Kind != token.RPAREN {
			ft.Params = append(ft.Params, p.parseType())
			if !p.got(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
		if p.got(token.COLON) {
			ft.Result = p.parseType()
		}
		return ft
	case token.LPAREN:
		p.next()
		t := p.parseType()
		p.expect(token.RPAREN)
		return t
	case token.NULL:
		p.next()
		return &ast.NamedType{NamePos: tok.Pos, Names: []string{"null"}}
	case token.IDENT:
		return p.parseNamedType()
	}
	p.fail(&SyntaxError{Pos: tok.Pos, Expected: "type", Got: tok})
	return nil
}

func (p *parser) parseObjectType() ast.TypeExpr {
	lbrack := p.expect(token.LBRACKET)
	ot := &ast.ObjectType{Lbrack: lbrack.Pos}
	for p.cur().Kind != token.RBRACKET {
		name := p.next()
		if name.Kind != token.IDENT && name.Kind != token.STRING {
			p.fail(&SyntaxError{Pos: name.Pos, Expected: "field name", Got: name})
		}
		p.expect(token.COLON)
		ot.Fields = append(ot.Fields, &ast.TypeField{Name: name.Literal, Type: p.parseType()})
		if !p.got(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACKET)
	return ot
}

func (p *parser) parseNamedType() ast.TypeExpr {
	first := p.expect(token.IDENT)
	nt := &ast.NamedType{NamePos: first.Pos, Names: []string{first.Literal}}
	for p.cur().Kind == token.DOT {
		p.next()
		nt.Names = append(nt.Names, p.expect(token.IDENT).Literal)
	}
	if p.got(token.LT) {
		for {
			nt.Args = append(nt.Args, p.parseType())
			if !p.got(token.COMMA) {
				break
			}
		}
		p.expect(token.GT)
	}
	return nt
}
