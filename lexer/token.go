// Package lexer tokenizes the payload of template tags: expressions,
// patterns and argument lists. Template text and delimiters are handled by
// the parser, which hands the scanner an offset inside a tag.
package lexer

import (
	"fmt"

	"github.com/tmplc/tmplc/syntax"
)

// TokenType represents the type of a token.
type TokenType int

const (
	// TokenInvalid is returned for bytes that do not start any token. It is
	// not an error by itself: the text may be a closing delimiter.
	TokenInvalid TokenType = iota

	// Literals
	TokenIdent   // identifier
	TokenString  // "string" or 'string'
	TokenInteger // 123 (fits in u64)
	TokenInt128  // big integers (> u64)
	TokenFloat   // 123.45

	// Operators
	TokenPlus     // +
	TokenMinus    // -
	TokenMul      // *
	TokenDiv      // /
	TokenFloorDiv // //
	TokenMod      // %
	TokenPow      // **
	TokenTilde    // ~

	// Comparison
	TokenEq // ==
	TokenNe // !=
	TokenLt // <
	TokenLe // <=
	TokenGt // >
	TokenGe // >=

	TokenAssign // =

	// Punctuation
	TokenDot          // .
	TokenDotDot       // ..
	TokenComma        // ,
	TokenColon        // :
	TokenPathSep      // ::
	TokenPipe         // |
	TokenBang         // !
	TokenParenOpen    // (
	TokenParenClose   // )
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenBraceOpen    // {
	TokenBraceClose   // }

	TokenEOF
)

// Token represents a single token from the scanner.
type Token struct {
	Type  TokenType
	Value string // The token value (for idents, strings, numbers)
	Span  syntax.Span
}

// String returns a debug representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}

// Is reports whether t is the identifier kw.
func (t Token) Is(kw string) bool {
	return t.Type == TokenIdent && t.Value == kw
}

var tokenTypeNames = map[TokenType]string{
	TokenInvalid:      "Invalid",
	TokenIdent:        "Ident",
	TokenString:       "Str",
	TokenInteger:      "Int",
	TokenInt128:       "Int128",
	TokenFloat:        "Float",
	TokenPlus:         "Plus",
	TokenMinus:        "Minus",
	TokenMul:          "Mul",
	TokenDiv:          "Div",
	TokenFloorDiv:     "FloorDiv",
	TokenMod:          "Mod",
	TokenPow:          "Pow",
	TokenTilde:        "Tilde",
	TokenEq:           "Eq",
	TokenNe:           "Ne",
	TokenLt:           "Lt",
	TokenLe:           "Le",
	TokenGt:           "Gt",
	TokenGe:           "Ge",
	TokenAssign:       "Assign",
	TokenDot:          "Dot",
	TokenDotDot:       "DotDot",
	TokenComma:        "Comma",
	TokenColon:        "Colon",
	TokenPathSep:      "PathSep",
	TokenPipe:         "Pipe",
	TokenBang:         "Bang",
	TokenParenOpen:    "ParenOpen",
	TokenParenClose:   "ParenClose",
	TokenBracketOpen:  "BracketOpen",
	TokenBracketClose: "BracketClose",
	TokenBraceOpen:    "BraceOpen",
	TokenBraceClose:   "BraceClose",
	TokenEOF:          "EOF",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// FormatForSnapshot formats a token together with the source it covers.
func (t Token) FormatForSnapshot(source string) string {
	tokenSource := t.Span.Text(source)
	switch t.Type {
	case TokenIdent, TokenString:
		return fmt.Sprintf("%s(%q)\n  %q", t.Type, t.Value, tokenSource)
	case TokenInteger, TokenInt128, TokenFloat:
		return fmt.Sprintf("%s(%s)\n  %q", t.Type, t.Value, tokenSource)
	default:
		return fmt.Sprintf("%s\n  %q", t.Type, tokenSource)
	}
}
