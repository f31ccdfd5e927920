package lexer

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tmplc/tmplc/syntax"
)

// Error is a fatal tokenization error, such as an unterminated string.
type Error struct {
	Msg    string
	Offset int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (at offset %d)", e.Msg, e.Offset)
}

// Scanner produces tokens on demand from an offset inside source. It never
// looks past the token it is asked for, so the caller decides where a tag
// payload ends.
type Scanner struct {
	source string
	pos    int
	start  int
}

// New creates a scanner positioned at pos.
func New(source string, pos int) *Scanner {
	return &Scanner{source: source, pos: pos}
}

// Source returns the full source text.
func (l *Scanner) Source() string {
	return l.source
}

// Pos returns the current byte offset.
func (l *Scanner) Pos() int {
	return l.pos
}

// Reset moves the scanner back (or forward) to pos.
func (l *Scanner) Reset(pos int) {
	l.pos = pos
}

// Peek returns the next token without consuming it.
func (l *Scanner) Peek() (Token, error) {
	pos := l.pos
	tok, err := l.Next()
	l.pos = pos
	return tok, err
}

// Next skips whitespace and returns the next token. Bytes that do not
// start a token yield TokenInvalid and are not consumed.
func (l *Scanner) Next() (Token, error) {
	l.SkipWhitespace()
	l.markStart()
	if l.atEnd() {
		return l.makeToken(TokenEOF, ""), nil
	}

	rest := l.rest()

	if len(rest) >= 2 {
		var typ TokenType
		switch rest[:2] {
		case "//":
			typ = TokenFloorDiv
		case "**":
			typ = TokenPow
		case "==":
			typ = TokenEq
		case "!=":
			typ = TokenNe
		case ">=":
			typ = TokenGe
		case "<=":
			typ = TokenLe
		case "::":
			typ = TokenPathSep
		case "..":
			typ = TokenDotDot
		}
		if typ != TokenInvalid {
			l.advance(2)
			return l.makeToken(typ, rest[:2]), nil
		}
	}

	ch := rest[0]
	var typ TokenType
	switch ch {
	case '+':
		typ = TokenPlus
	case '-':
		typ = TokenMinus
	case '*':
		typ = TokenMul
	case '/':
		typ = TokenDiv
	case '%':
		typ = TokenMod
	case '~':
		typ = TokenTilde
	case '<':
		typ = TokenLt
	case '>':
		typ = TokenGt
	case '=':
		typ = TokenAssign
	case '.':
		typ = TokenDot
	case ',':
		typ = TokenComma
	case ':':
		typ = TokenColon
	case '|':
		typ = TokenPipe
	case '!':
		typ = TokenBang
	case '(':
		typ = TokenParenOpen
	case ')':
		typ = TokenParenClose
	case '[':
		typ = TokenBracketOpen
	case ']':
		typ = TokenBracketClose
	case '{':
		typ = TokenBraceOpen
	case '}':
		typ = TokenBraceClose
	case '"', '\'':
		return l.lexString(ch)
	}
	if typ != TokenInvalid {
		l.advance(1)
		return l.makeToken(typ, rest[:1]), nil
	}

	if isDigit(ch) {
		return l.lexNumber()
	}

	if r, _ := utf8.DecodeRuneInString(rest); isIdentStart(r) {
		return l.lexIdent(), nil
	}

	return l.makeToken(TokenInvalid, ""), nil
}

// lexString lexes a string literal.
func (l *Scanner) lexString(quote byte) (Token, error) {
	l.advance(1) // skip opening quote

	var sb strings.Builder
	for !l.atEnd() {
		ch := l.rest()[0]
		if ch == quote {
			l.advance(1)
			return l.makeToken(TokenString, sb.String()), nil
		}
		if ch != '\\' {
			sb.WriteByte(ch)
			l.advance(1)
			continue
		}

		l.advance(1)
		if l.atEnd() {
			break
		}
		escaped := l.rest()[0]
		l.advance(1)
		switch escaped {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\', '\'', '"':
			sb.WriteByte(escaped)
		case '0':
			sb.WriteByte(0)
		case 'x':
			if err := l.hexEscape(&sb, 2, 8); err != nil {
				return Token{}, err
			}
		case 'u':
			if err := l.hexEscape(&sb, 4, 32); err != nil {
				return Token{}, err
			}
		case 'U':
			if err := l.hexEscape(&sb, 8, 32); err != nil {
				return Token{}, err
			}
		default:
			// Unknown escape, keep both characters
			sb.WriteByte('\\')
			sb.WriteByte(escaped)
		}
	}

	return Token{}, l.syntaxError("unexpected end of string")
}

func (l *Scanner) hexEscape(sb *strings.Builder, digits, bits int) error {
	if len(l.rest()) < digits {
		return l.syntaxError("invalid escape sequence")
	}
	val, err := strconv.ParseUint(l.rest()[:digits], 16, bits)
	if err != nil {
		return l.syntaxError("invalid escape sequence")
	}
	if bits == 8 {
		sb.WriteByte(byte(val))
	} else {
		sb.WriteRune(rune(val))
	}
	l.advance(digits)
	return nil
}

// lexNumber lexes an integer or float literal, including hex, octal, binary, and underscores.
func (l *Scanner) lexNumber() (Token, error) {
	rest := l.rest()

	radix := 10
	prefixLen := 0
	if len(rest) >= 2 {
		switch rest[:2] {
		case "0b", "0B":
			radix, prefixLen = 2, 2
		case "0o", "0O":
			radix, prefixLen = 8, 2
		case "0x", "0X":
			radix, prefixLen = 16, 2
		}
	}

	type numState int
	const (
		stateRadixInt numState = iota // after 0x, 0b, 0o
		stateInt
		stateFraction // after .
		stateExponent // after e/E
		stateExpSign  // after e+/e-
	)

	state := stateInt
	if radix != 10 {
		state = stateRadixInt
	}

	numLen := prefixLen
	hasUnderscore := false

scan:
	for i := prefixLen; i < len(rest); i++ {
		c := rest[i]
		switch state {
		case stateRadixInt:
			switch {
			case isDigitForRadix(c, radix):
			case c == '_':
				hasUnderscore = true
			default:
				break scan
			}
		case stateInt:
			switch {
			case isDigit(c):
			case c == '_':
				hasUnderscore = true
			case c == '.' && i+1 < len(rest) && isDigit(rest[i+1]):
				state = stateFraction
			case c == 'e' || c == 'E':
				state = stateExponent
			default:
				break scan
			}
		case stateFraction:
			switch {
			case isDigit(c):
			case c == '_':
				hasUnderscore = true
			case c == 'e' || c == 'E':
				state = stateExponent
			default:
				break scan
			}
		case stateExponent:
			switch {
			case c == '+' || c == '-' || isDigit(c):
				state = stateExpSign
			case c == '_':
				hasUnderscore = true
				state = stateExpSign
			default:
				break scan
			}
		case stateExpSign:
			switch {
			case isDigit(c):
			case c == '_':
				hasUnderscore = true
			default:
				break scan
			}
		}
		numLen++
	}

	isFloat := state == stateFraction || state == stateExponent || state == stateExpSign

	numStr := rest[:numLen]
	l.advance(numLen)

	if hasUnderscore && strings.HasSuffix(numStr, "_") {
		return Token{}, l.syntaxError("'_' may not occur at end of number")
	}
	if prefixLen > 0 && numLen == prefixLen {
		return Token{}, l.syntaxError("missing digits after integer base prefix")
	}

	cleanNum := strings.ReplaceAll(numStr, "_", "")

	if isFloat {
		floatVal, err := strconv.ParseFloat(cleanNum, 64)
		if err != nil {
			return Token{}, l.syntaxError("invalid float")
		}
		floatStr := strconv.FormatFloat(floatVal, 'f', -1, 64)
		if !strings.Contains(floatStr, ".") {
			floatStr += ".0"
		}
		return l.makeToken(TokenFloat, floatStr), nil
	}

	parseStr := cleanNum[prefixLen:]
	value, err := strconv.ParseUint(parseStr, radix, 64)
	if err != nil {
		// Too large for u64: keep the decimal digits for a big integer.
		bigVal, ok := new(big.Int).SetString(parseStr, radix)
		if !ok {
			return Token{}, l.syntaxError("invalid integer")
		}
		return l.makeToken(TokenInt128, bigVal.String()), nil
	}

	return l.makeToken(TokenInteger, strconv.FormatUint(value, 10)), nil
}

func isDigitForRadix(c byte, radix int) bool {
	switch radix {
	case 2:
		return c == '0' || c == '1'
	case 8:
		return c >= '0' && c <= '7'
	case 10:
		return isDigit(c)
	case 16:
		return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	}
	return false
}

// lexIdent lexes an identifier.
func (l *Scanner) lexIdent() Token {
	rest := l.rest()
	end := len(rest)
	for i, r := range rest {
		if !isIdentPart(r) {
			end = i
			break
		}
	}
	l.advance(end)
	return l.makeToken(TokenIdent, rest[:end])
}

// Helper methods

func (l *Scanner) atEnd() bool {
	return l.pos >= len(l.source)
}

func (l *Scanner) rest() string {
	if l.pos >= len(l.source) {
		return ""
	}
	return l.source[l.pos:]
}

func (l *Scanner) advance(n int) {
	l.pos += n
	if l.pos > len(l.source) {
		l.pos = len(l.source)
	}
}

func (l *Scanner) markStart() {
	l.start = l.pos
}

func (l *Scanner) makeToken(typ TokenType, value string) Token {
	return Token{
		Type:  typ,
		Value: value,
		Span:  syntax.MakeSpan(l.start, l.pos),
	}
}

// SkipWhitespace advances past any white space.
func (l *Scanner) SkipWhitespace() {
	for !l.atEnd() {
		r, size := utf8.DecodeRuneInString(l.rest())
		if !unicode.IsSpace(r) {
			return
		}
		l.advance(size)
	}
}

func (l *Scanner) syntaxError(msg string) error {
	return &Error{Msg: msg, Offset: l.start}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// IsIdent reports whether s is a single identifier.
func IsIdent(s string) bool {
	for i, r := range s {
		if i == 0 && !isIdentStart(r) || !isIdentPart(r) {
			return false
		}
	}
	return s != ""
}
