// Package token defines the lexical tokens of the vsharp language.
package token

import "fmt"

// Kind is the set of lexical token kinds.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	IDENT
	INT
	FLOAT
	STRING

	// operators
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	ASSIGN   // =
	EQ       // ==
	NOT_EQ   // !=
	LT       // <
	LE       // <=
	GT       // >
	GE       // >=
	BANG     // !
	PIPE     // |
	AMP      // &

	// punctuation
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	DOT
	COLON

	keywordBeg
	SET
	IF
	ELSE
	WHILE
	FOR
	FUNC
	IN
	RETURN
	BREAK
	CONTINUE
	TRUE
	FALSE
	NULL
	TYPE
	IS
	IMPORT
	LIB
	AS
	AND
	OR
	keywordEnd
)

var names = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:  "IDENT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",

	PLUS:     "+",
	MINUS:    "-",
	ASTERISK: "*",
	SLASH:    "/",
	ASSIGN:   "=",
	EQ:       "==",
	NOT_EQ:   "!=",
	LT:       "<",
	LE:       "<=",
	GT:       ">",
	GE:       ">=",
	BANG:     "!",
	PIPE:     "|",
	AMP:      "&",

	LPAREN:   "(",
	RPAREN:   ")",
	LBRACE:   "{",
	RBRACE:   "}",
	LBRACKET: "[",
	RBRACKET: "]",
	COMMA:    ",",
	DOT:      ".",
	COLON:    ":",

	SET:      "set",
	IF:       "if",
	ELSE:     "else",
	WHILE:    "while",
	FOR:      "for",
	FUNC:     "func",
	IN:       "in",
	RETURN:   "return",
	BREAK:    "break",
	CONTINUE: "continue",
	TRUE:     "true",
	FALSE:    "false",
	NULL:     "null",
	TYPE:     "type",
	IS:       "is",
	IMPORT:   "import",
	LIB:      "lib",
	AS:       "as",
	AND:      "and",
	OR:       "or",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(names) && names[k] != "" {
		return names[k]
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool { return keywordBeg < k && k < keywordEnd }

var keywords map[string]Kind

func init() {
	keywords = make(map[string]Kind, keywordEnd-keywordBeg)
	for k := keywordBeg + 1; k < keywordEnd; k++ {
		keywords[names[k]] = k
	}
}

// Lookup maps an identifier to its keyword kind, or IDENT.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}

// Pos is a 1-based line/column position in a source file.
type Pos struct {
	Line int
	Col  int
}

// NoPos is the zero position.
var NoPos = Pos{}

// IsValid reports whether the position is known.
func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is a lexical token.
type Token struct {
	Kind    Kind
	Literal string
	Pos     Pos
}

func (t Token) String() string {
	switch t.Kind {
	case IDENT, INT, FLOAT:
		return fmt.Sprintf("%s %q", t.Kind, t.Literal)
	case STRING:
		return fmt.Sprintf("STRING %q", t.Literal)
	case EOF:
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Kind.String())
}
