// Package syntax defines the delimiters of the template language and the
// whitespace control policy shared by the parser and the configuration.
package syntax

import (
	"fmt"
	"strings"
	"unicode"
)

// Default delimiters.
const (
	DefaultBlockStart   = "{%"
	DefaultBlockEnd     = "%}"
	DefaultExprStart    = "{{"
	DefaultExprEnd      = "}}"
	DefaultCommentStart = "{#"
	DefaultCommentEnd   = "#}"
)

// Syntax holds the six delimiters of a template syntax. Values are only
// produced by Build and Default and must not be modified afterwards.
type Syntax struct {
	BlockStart   string `json:"block_start" yaml:"block_start"`
	BlockEnd     string `json:"block_end" yaml:"block_end"`
	ExprStart    string `json:"expr_start" yaml:"expr_start"`
	ExprEnd      string `json:"expr_end" yaml:"expr_end"`
	CommentStart string `json:"comment_start" yaml:"comment_start"`
	CommentEnd   string `json:"comment_end" yaml:"comment_end"`
}

// Overrides replaces individual default delimiters. Empty fields keep the
// default.
type Overrides struct {
	BlockStart   string `toml:"block_start" yaml:"block_start,omitempty"`
	BlockEnd     string `toml:"block_end" yaml:"block_end,omitempty"`
	ExprStart    string `toml:"expr_start" yaml:"expr_start,omitempty"`
	ExprEnd      string `toml:"expr_end" yaml:"expr_end,omitempty"`
	CommentStart string `toml:"comment_start" yaml:"comment_start,omitempty"`
	CommentEnd   string `toml:"comment_end" yaml:"comment_end,omitempty"`
}

var defaultSyntax = &Syntax{
	BlockStart:   DefaultBlockStart,
	BlockEnd:     DefaultBlockEnd,
	ExprStart:    DefaultExprStart,
	ExprEnd:      DefaultExprEnd,
	CommentStart: DefaultCommentStart,
	CommentEnd:   DefaultCommentEnd,
}

// Default returns the shared default syntax.
func Default() *Syntax {
	return defaultSyntax
}

// ErrorKind classifies a SyntaxError.
type ErrorKind int

const (
	// TooShort means a delimiter is shorter than two bytes.
	TooShort ErrorKind = iota + 1
	// ContainsWhitespace means a delimiter contains a white space character.
	ContainsWhitespace
	// AmbiguousPrefix means one opening delimiter is a prefix of another.
	AmbiguousPrefix
)

func (k ErrorKind) String() string {
	switch k {
	case TooShort:
		return "delimiter too short"
	case ContainsWhitespace:
		return "delimiter contains whitespace"
	case AmbiguousPrefix:
		return "ambiguous delimiter prefix"
	}
	return "unknown syntax error"
}

// SyntaxError describes a malformed delimiter definition.
type SyntaxError struct {
	Kind      ErrorKind
	Delimiter string
	// Other is the colliding delimiter for AmbiguousPrefix.
	Other string
}

func (e *SyntaxError) Error() string {
	switch e.Kind {
	case TooShort:
		return fmt.Sprintf("delimiters must be at least two characters long: %q", e.Delimiter)
	case ContainsWhitespace:
		return fmt.Sprintf("delimiters may not contain white spaces: %q", e.Delimiter)
	case AmbiguousPrefix:
		return fmt.Sprintf("a delimiter may not be the prefix of another delimiter: %q vs %q", e.Delimiter, e.Other)
	}
	return e.Kind.String()
}

// Build applies o on top of the default delimiters and validates the result.
func Build(o Overrides) (*Syntax, error) {
	s := &Syntax{
		BlockStart:   pick(o.BlockStart, DefaultBlockStart),
		BlockEnd:     pick(o.BlockEnd, DefaultBlockEnd),
		ExprStart:    pick(o.ExprStart, DefaultExprStart),
		ExprEnd:      pick(o.ExprEnd, DefaultExprEnd),
		CommentStart: pick(o.CommentStart, DefaultCommentStart),
		CommentEnd:   pick(o.CommentEnd, DefaultCommentEnd),
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func pick(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (s *Syntax) validate() error {
	for _, d := range s.Delimiters() {
		if len(d) < 2 {
			return &SyntaxError{Kind: TooShort, Delimiter: d}
		}
		if strings.IndexFunc(d, unicode.IsSpace) >= 0 {
			return &SyntaxError{Kind: ContainsWhitespace, Delimiter: d}
		}
	}

	// End delimiters are only searched for after their opening tag, so
	// only the opening ones must be distinguishable by prefix.
	pairs := [...][2]string{
		{s.BlockStart, s.ExprStart},
		{s.BlockStart, s.CommentStart},
		{s.ExprStart, s.CommentStart},
	}
	for _, p := range pairs {
		if strings.HasPrefix(p[1], p[0]) {
			return &SyntaxError{Kind: AmbiguousPrefix, Delimiter: p[0], Other: p[1]}
		}
		if strings.HasPrefix(p[0], p[1]) {
			return &SyntaxError{Kind: AmbiguousPrefix, Delimiter: p[1], Other: p[0]}
		}
	}
	return nil
}

// Delimiters returns the six delimiters in the order block, expression,
// comment with the start of each pair first.
func (s *Syntax) Delimiters() [6]string {
	return [6]string{s.BlockStart, s.BlockEnd, s.ExprStart, s.ExprEnd, s.CommentStart, s.CommentEnd}
}

func (s *Syntax) String() string {
	return fmt.Sprintf("%s %s %s %s %s %s", s.BlockStart, s.BlockEnd, s.ExprStart, s.ExprEnd, s.CommentStart, s.CommentEnd)
}
