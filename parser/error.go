package parser

import (
	"fmt"

	"github.com/tmplc/tmplc/syntax"
)

// ErrorKind describes the type of parse error.
type ErrorKind int

const (
	ErrSyntax ErrorKind = iota
	ErrUnclosed
	ErrUnknownTag
	ErrUnexpectedTag
	ErrNameMismatch
	ErrLoopContext
	ErrReservedName
	ErrExtendsWhitespace
	ErrTooDeep
	ErrCommentDepth
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "syntax error"
	case ErrUnclosed:
		return "unclosed construct"
	case ErrUnknownTag:
		return "unknown tag"
	case ErrUnexpectedTag:
		return "unexpected tag"
	case ErrNameMismatch:
		return "name mismatch"
	case ErrLoopContext:
		return "loop context"
	case ErrReservedName:
		return "reserved name"
	case ErrExtendsWhitespace:
		return "whitespace control"
	case ErrTooDeep:
		return "too deep"
	case ErrCommentDepth:
		return "comment nesting"
	default:
		return "error"
	}
}

// Error is returned by Parse. Construct names the tag or construct the
// error was found in, when there is one.
type Error struct {
	Kind      ErrorKind
	Construct string
	Detail    string
	Path      string
	Source    string
	Span      Span
	Err       error
}

func (e *Error) Error() string {
	pos := e.Position()
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s:%s)", e.Kind, e.Detail, e.Path, pos)
	}
	return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Detail, pos)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so callers can
// write errors.Is(err, &parser.Error{Kind: parser.ErrUnclosed}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && (t.Construct == "" || t.Construct == e.Construct)
}

// Position returns the 1-based line and column of the error.
func (e *Error) Position() syntax.Position {
	return e.Span.Start(e.Source)
}
