// Package diag defines the interpreter's error taxonomy and the
// diagnostic values that flow out of every pipeline stage.
package diag

import (
	"fmt"
	"strings"

	errors "gopkg.in/src-d/go-errors.v1"
)

// Severity orders the error kinds. Recovery policy depends only on this:
// everything up to Exec/User recovers by skipping to the next command,
// Lib and worse abort the session.
type Severity int

const (
	Lex Severity = iota
	Syn
	Sem
	Type
	Exec
	User
	Lib
	Fatal
	Intern
)

func (s Severity) String() string {
	switch s {
	case Lex:
		return "lexical error"
	case Syn:
		return "syntax error"
	case Sem:
		return "semantic error"
	case Type:
		return "type error"
	case Exec:
		return "evaluation error"
	case User:
		return "error"
	case Lib:
		return "library error"
	case Fatal:
		return "fatal error"
	default:
		return "internal error"
	}
}

// One kind per taxonomy row; messages are formatted into the kind so that
// errors.Is classification works across package boundaries.
var (
	ErrLex    = errors.NewKind("%s")
	ErrSyn    = errors.NewKind("%s")
	ErrSem    = errors.NewKind("%s")
	ErrType   = errors.NewKind("%s")
	ErrExec   = errors.NewKind("%s")
	ErrUser   = errors.NewKind("%s")
	ErrLib    = errors.NewKind("%s")
	ErrFatal  = errors.NewKind("%s")
	ErrIntern = errors.NewKind("%s")
)

func kindOf(s Severity) *errors.Kind {
	switch s {
	case Lex:
		return ErrLex
	case Syn:
		return ErrSyn
	case Sem:
		return ErrSem
	case Type:
		return ErrType
	case Exec:
		return ErrExec
	case User:
		return ErrUser
	case Lib:
		return ErrLib
	case Fatal:
		return ErrFatal
	default:
		return ErrIntern
	}
}

// Error is a positioned diagnostic. Detail lines (sub-expressions with
// their inferred types, match-failure arguments) precede the message when
// the error is rendered.
type Error struct {
	Severity Severity
	Module   string // "" at the interactive level
	Line     int    // 0 when no position is known
	Message  string
	Detail   []string
	cause    *errors.Error
}

// New creates a diagnostic of the given severity.
func New(s Severity, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Severity: s, Message: msg, cause: kindOf(s).New(msg)}
}

// WithPos attaches a source position.
func (e *Error) WithPos(module string, line int) *Error {
	e.Module = module
	e.Line = line
	return e
}

// WithDetail prepends explanatory lines, most significant first.
func (e *Error) WithDetail(lines ...string) *Error {
	e.Detail = append(e.Detail, lines...)
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	for _, d := range e.Detail {
		b.WriteString("  ")
		b.WriteString(d)
		b.WriteString("\n")
	}
	if e.Module != "" {
		fmt.Fprintf(&b, "module %s, ", e.Module)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	b.WriteString(e.Severity.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Recoverable reports whether the session continues after this error
// (by skipping to the next command).
func (e *Error) Recoverable() bool { return e.Severity <= User }

// AsError coerces an arbitrary error to a diagnostic, wrapping unknown
// errors as internal ones.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if de, ok := err.(*Error); ok {
		return de
	}
	return New(Intern, "%s", err.Error())
}
