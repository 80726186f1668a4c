package object

import (
	"fmt"
	"strings"

	"github.com/podhmo/vsharp/token"
)

// ErrorKind classifies fatal runtime errors.
type ErrorKind string

const (
	SyntaxError     ErrorKind = "SyntaxError"
	UnboundVariable ErrorKind = "UnboundVariable"
	ArgumentCount   ErrorKind = "ArgumentCount"
	TypeMismatch    ErrorKind = "TypeMismatch"
	DivisionByZero  ErrorKind = "DivisionByZero"
	IndexError      ErrorKind = "IndexError"
	MissingMember   ErrorKind = "MissingMember"
	CoercionError   ErrorKind = "CoercionError"
	InvalidType     ErrorKind = "InvalidType"
	NotIterable     ErrorKind = "NotIterable"
	NotCallable     ErrorKind = "NotCallable"
	ControlFlow     ErrorKind = "ControlFlow"
	ImportError     ErrorKind = "ImportError"
	LibError        ErrorKind = "LibError"
	NativeError     ErrorKind = "NativeError"
	Raised          ErrorKind = "Raised"
	Exit            ErrorKind = "Exit"
)

// CallFrame represents a single frame in the call stack.
type CallFrame struct {
	Pos      token.Pos
	Function string
	File     string
}

func (cf CallFrame) String() string {
	name := cf.Function
	if name == "" {
		name = "<script>"
	}
	if cf.File != "" {
		return fmt.Sprintf("\tat %s (%s:%s)", name, cf.File, cf.Pos)
	}
	return fmt.Sprintf("\tat %s (%s)", name, cf.Pos)
}

// Error is a fatal runtime error. It is both a script value and a Go error.
type Error struct {
	Kind      ErrorKind
	Pos       token.Pos
	File      string
	Message   string
	CallStack []CallFrame
	Code      int // exit status, for Exit
}

// Errorf creates an error without position information.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }

// Inspect returns the message followed by the call stack, innermost first.
func (e *Error) Inspect() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	for i := len(e.CallStack) - 1; i >= 0; i-- {
		sb.WriteString("\n")
		sb.WriteString(e.CallStack[i].String())
	}
	return sb.String()
}

func (e *Error) Error() string {
	var loc string
	switch {
	case e.File != "" && e.Pos.IsValid():
		loc = e.File + ":" + e.Pos.String() + ": "
	case e.File != "":
		loc = e.File + ": "
	case e.Pos.IsValid():
		loc = e.Pos.String() + ": "
	}
	return fmt.Sprintf("%s%s: %s", loc, e.Kind, e.Message)
}
