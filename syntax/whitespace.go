package syntax

import (
	"errors"
	"fmt"
)

// Whitespace is a whitespace control directive. It is attached to tag edges
// by the parser and used as the global policy by the configuration.
type Whitespace int

const (
	// Preserve keeps adjacent whitespace. Mark: '+'.
	Preserve Whitespace = iota
	// Suppress removes all adjacent whitespace. Mark: '-'.
	Suppress
	// Minimize collapses adjacent whitespace to a single newline or space.
	// Mark: '~'.
	Minimize
)

// ErrInvalidWhitespace matches every *WhitespaceError via errors.Is.
var ErrInvalidWhitespace = errors.New("invalid whitespace value")

// WhitespaceError reports an unknown policy name.
type WhitespaceError struct {
	Value string
}

func (e *WhitespaceError) Error() string {
	return fmt.Sprintf("invalid value for `whitespace`: %q", e.Value)
}

// Is reports whether target is ErrInvalidWhitespace.
func (e *WhitespaceError) Is(target error) bool {
	return target == ErrInvalidWhitespace
}

// WhitespaceFromMark returns the directive for a mark byte.
func WhitespaceFromMark(c byte) (Whitespace, bool) {
	switch c {
	case '+':
		return Preserve, true
	case '-':
		return Suppress, true
	case '~':
		return Minimize, true
	}
	return 0, false
}

// ParseWhitespace parses a policy name as used in configuration files.
func ParseWhitespace(s string) (Whitespace, error) {
	switch s {
	case "preserve":
		return Preserve, nil
	case "suppress":
		return Suppress, nil
	case "minimize":
		return Minimize, nil
	}
	return 0, &WhitespaceError{Value: s}
}

// Mark returns the mark byte of w.
func (w Whitespace) Mark() byte {
	switch w {
	case Suppress:
		return '-'
	case Minimize:
		return '~'
	}
	return '+'
}

func (w Whitespace) String() string {
	switch w {
	case Preserve:
		return "preserve"
	case Suppress:
		return "suppress"
	case Minimize:
		return "minimize"
	}
	return fmt.Sprintf("Whitespace(%d)", int(w))
}

// MarshalText implements encoding.TextMarshaler.
func (w Whitespace) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Whitespace) UnmarshalText(text []byte) error {
	v, err := ParseWhitespace(string(text))
	if err != nil {
		return err
	}
	*w = v
	return nil
}
