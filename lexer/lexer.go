// Package lexer turns vsharp source text into a flat token sequence.
package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/podhmo/vsharp/token"
)

// Error is a fatal lexical error.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: syntax error: %s", e.Pos, e.Msg)
}

// Lexer scans source text one token at a time.
type Lexer struct {
	src  []rune
	off  int
	line int
	col  int
}

// New returns a Lexer reading src.
func New(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1}
}

// Tokenize scans the whole input. The result always ends with an EOF token.
func Tokenize(src string) ([]token.Token, error) {
	l := New(src)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) peek(n int) rune {
	if l.off+n < len(l.src) {
		return l.src[l.off+n]
	}
	return 0
}

func (l *Lexer) advance() rune {
	ch := l.src[l.off]
	l.off++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) eof() bool { return l.off >= len(l.src) }

func (l *Lexer) skipSpaceAndComments() {
	for !l.eof() {
		ch := l.peek(0)
		switch {
		case unicode.IsSpace(ch):
			l.advance()
		case ch == '/' && l.peek(1) == '/':
			for !l.eof() && l.peek(0) != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// Next returns the next token.
func (l *Lexer) Next() (token.Token, error) {
	l.skipSpaceAndComments()
	pos := token.Pos{Line: l.line, Col: l.col}
	if l.eof() {
		return token.Token{Kind: token.EOF, Pos: pos}, nil
	}

	ch := l.peek(0)
	switch {
	case unicode.IsLetter(ch):
		return l.scanIdent(pos), nil
	case isDigit(ch):
		return l.scanNumber(pos)
	case ch == '"':
		return l.scanString(pos)
	}

	l.advance()
	tok := func(k token.Kind) (token.Token, error) {
		return token.Token{Kind: k, Literal: k.String(), Pos: pos}, nil
	}
	// two-character operators are checked before their one-character prefix
	twoOrOne := func(two, one token.Kind) (token.Token, error) {
		if l.peek(0) == '=' {
			l.advance()
			return tok(two)
		}
		return tok(one)
	}

	switch ch {
	case '+':
		return tok(token.PLUS)
	case '-':
		return tok(token.MINUS)
	case '*':
		return tok(token.ASTERISK)
	case '/':
		return tok(token.SLASH)
	case '=':
		return twoOrOne(token.EQ, token.ASSIGN)
	case '!':
		return twoOrOne(token.NOT_EQ, token.BANG)
	case '<':
		return twoOrOne(token.LE, token.LT)
	case '>':
		return twoOrOne(token.GE, token.GT)
	case '|':
		return tok(token.PIPE)
	case '&':
		return tok(token.AMP)
	case '(':
		return tok(token.LPAREN)
	case ')':
		return tok(token.RPAREN)
	case '{':
		return tok(token.LBRACE)
	case '}':
		return tok(token.RBRACE)
	case '[':
		return tok(token.LBRACKET)
	case ']':
		return tok(token.RBRACKET)
	case ',':
		return tok(token.COMMA)
	case '.':
		return tok(token.DOT)
	case ':':
		return tok(token.COLON)
	}
	return token.Token{}, &Error{Pos: pos, Msg: fmt.Sprintf("unexpected character %q", ch)}
}

func (l *Lexer) scanIdent(pos token.Pos) token.Token {
	var sb strings.Builder
	for !l.eof() {
		ch := l.peek(0)
		if !unicode.IsLetter(ch) && !isDigit(ch) && ch != '_' {
			break
		}
		sb.WriteRune(l.advance())
	}
	lit := sb.String()
	return token.Token{Kind: token.Lookup(lit), Literal: lit, Pos: pos}
}

func (l *Lexer) scanNumber(pos token.Pos) (token.Token, error) {
	var sb strings.Builder
	seenDot := false
	for !l.eof() {
		ch := l.peek(0)
		if ch == '.' {
			if seenDot {
				return token.Token{}, &Error{Pos: pos, Msg: "invalid number format: multiple decimal points"}
			}
			seenDot = true
		} else if !isDigit(ch) {
			break
		}
		sb.WriteRune(l.advance())
	}
	kind := token.INT
	if seenDot {
		kind = token.FLOAT
	}
	return token.Token{Kind: kind, Literal: sb.String(), Pos: pos}, nil
}

func (l *Lexer) scanString(pos token.Pos) (token.Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.eof() {
			return token.Token{}, &Error{Pos: pos, Msg: "unterminated string literal"}
		}
		ch := l.advance()
		if ch == '"' {
			break
		}
		sb.WriteRune(ch)
	}
	return token.Token{Kind: token.STRING, Literal: sb.String(), Pos: pos}, nil
}

func isDigit(ch rune) bool { return '0' <= ch && ch <= '9' }
