package tmplc

import (
	"fmt"
)

// ErrorKind describes the type of a session error.
type ErrorKind int

const (
	ErrClosed ErrorKind = iota
	ErrConfig
	ErrTemplateNotFound
	ErrIO
	ErrParse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrClosed:
		return "session closed"
	case ErrConfig:
		return "config error"
	case ErrTemplateNotFound:
		return "template not found"
	case ErrIO:
		return "io error"
	case ErrParse:
		return "parse error"
	default:
		return "error"
	}
}

// ErrSessionClosed is returned by every Session method called after Close.
var ErrSessionClosed = NewError(ErrClosed, "session is closed")

// Error is returned by Session operations. The underlying config, lookup
// or parse error is available through errors.As.
type Error struct {
	Kind    ErrorKind
	Message string
	Name    string // template name or file
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (in %s)", e.Kind, msg, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError creates a new error.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WithName adds the template name to an error.
func (e *Error) WithName(name string) *Error {
	e.Name = name
	return e
}

// WithCause sets the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

func wrapError(kind ErrorKind, name string, err error) *Error {
	return &Error{Kind: kind, Name: name, Err: err}
}
