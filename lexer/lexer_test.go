package lexer

import (
	"errors"
	"strings"
	"testing"
)

// scanAll collects tokens until EOF or the first invalid byte.
func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	l := New(src, 0)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Type == TokenEOF || tok.Type == TokenInvalid {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func stringifyTokens(tokens []Token, source string) string {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.FormatForSnapshot(source))
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestScannerBasic(t *testing.T) {
	input := `foo::bar(1, "x\n") | e ~ 2.5 // 0x10 ** ..`
	tokens := scanAll(t, input)

	expected := []struct {
		typ   TokenType
		value string
	}{
		{TokenIdent, "foo"},
		{TokenPathSep, "::"},
		{TokenIdent, "bar"},
		{TokenParenOpen, "("},
		{TokenInteger, "1"},
		{TokenComma, ","},
		{TokenString, "x\n"},
		{TokenParenClose, ")"},
		{TokenPipe, "|"},
		{TokenIdent, "e"},
		{TokenTilde, "~"},
		{TokenFloat, "2.5"},
		{TokenFloorDiv, "//"},
		{TokenInteger, "16"},
		{TokenPow, "**"},
		{TokenDotDot, ".."},
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, exp := range expected {
		if tokens[i].Type != exp.typ || tokens[i].Value != exp.value {
			t.Errorf("token %d: expected %s(%q), got %s(%q)",
				i, exp.typ, exp.value, tokens[i].Type, tokens[i].Value)
		}
	}
}

func TestScannerStopsAtInvalid(t *testing.T) {
	src := "name $} tail"
	l := New(src, 0)
	tok, err := l.Next()
	if err != nil || !tok.Is("name") {
		t.Fatalf("unexpected first token %v, %v", tok, err)
	}
	tok, err = l.Next()
	if err != nil || tok.Type != TokenInvalid {
		t.Fatalf("expected invalid token, got %v, %v", tok, err)
	}
	if l.Pos() != 5 {
		t.Errorf("invalid byte must not be consumed, pos = %d", l.Pos())
	}
}

func TestScannerPeekAndReset(t *testing.T) {
	l := New("  a b", 0)
	tok, _ := l.Peek()
	if !tok.Is("a") || l.Pos() != 0 {
		t.Fatalf("peek consumed input: %v at %d", tok, l.Pos())
	}
	l.Next()
	mark := l.Pos()
	l.Next()
	l.Reset(mark)
	tok, _ = l.Next()
	if !tok.Is("b") {
		t.Errorf("expected b after reset, got %v", tok)
	}
}

func TestScannerNumbers(t *testing.T) {
	tests := []struct {
		src  string
		typ  TokenType
		want string
	}{
		{"42", TokenInteger, "42"},
		{"1_000", TokenInteger, "1000"},
		{"0b101", TokenInteger, "5"},
		{"0o17", TokenInteger, "15"},
		{"1e3", TokenFloat, "1000.0"},
		{"1.5e-1", TokenFloat, "0.15"},
		{"340282366920938463463374607431768211455", TokenInt128, "340282366920938463463374607431768211455"},
		{"0xffffffffffffffffff", TokenInt128, "4722366482869645213695"},
	}
	for _, tt := range tests {
		tokens := scanAll(t, tt.src)
		if len(tokens) != 1 || tokens[0].Type != tt.typ || tokens[0].Value != tt.want {
			t.Errorf("%s: got %v", tt.src, tokens)
		}
	}
}

func TestScannerErrors(t *testing.T) {
	for _, src := range []string{`"open`, `1_`, `0x`, `"\u12"`} {
		l := New(src, 0)
		_, err := l.Next()
		var lerr *Error
		if !errors.As(err, &lerr) {
			t.Errorf("%q: expected *Error, got %v", src, err)
		}
	}
}

func TestFormatForSnapshot(t *testing.T) {
	src := `x == 'y'`
	got := stringifyTokens(scanAll(t, src), src)
	want := "Ident(\"x\")\n  \"x\"\nEq\n  \"==\"\nStr(\"y\")\n  \"'y'\"\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIsIdent(t *testing.T) {
	for s, want := range map[string]bool{"a": true, "_x1": true, "1a": false, "": false, "a-b": false, "ünï": true} {
		if got := IsIdent(s); got != want {
			t.Errorf("IsIdent(%q) = %v", s, got)
		}
	}
}
