package config

import (
	"errors"

	"github.com/tmplc/tmplc/syntax"
)

var (
	// ErrDuplicateSyntaxName is matched by errors for a [[syntax]] name that
	// is declared twice.
	ErrDuplicateSyntaxName = errors.New("duplicate syntax name")
	// ErrMissingSyntaxName is matched by errors for a [[syntax]] entry
	// without a name.
	ErrMissingSyntaxName = errors.New("missing syntax name")
	// ErrUnknownDefaultSyntax is matched by errors for a default_syntax that
	// names no declared syntax.
	ErrUnknownDefaultSyntax = errors.New("unknown default syntax")
	// ErrConfigNotFound is matched by errors for an explicit config file
	// that does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrInvalidWhitespace is matched by errors for an unknown whitespace
	// policy name.
	ErrInvalidWhitespace = syntax.ErrInvalidWhitespace
)

// Error is returned for every configuration failure.
type Error struct {
	// Path is the config file, when one was read.
	Path string
	// Msg overrides the message of Err when set.
	Msg string
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		return e.Path + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
