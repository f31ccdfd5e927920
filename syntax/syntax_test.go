package syntax

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"unicode"
)

func TestBuildDefaults(t *testing.T) {
	s, err := Build(Overrides{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *s != *Default() {
		t.Errorf("got %v, want %v", s, Default())
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		o    Overrides
		kind ErrorKind
		msg  string
	}{
		{
			name: "too short",
			o:    Overrides{BlockStart: "<"},
			kind: TooShort,
			msg:  `delimiters must be at least two characters long: "<"`,
		},
		{
			name: "too short end",
			o:    Overrides{CommentEnd: "#"},
			kind: TooShort,
			msg:  `delimiters must be at least two characters long: "#"`,
		},
		{
			name: "whitespace",
			o:    Overrides{ExprStart: "{ {"},
			kind: ContainsWhitespace,
			msg:  `delimiters may not contain white spaces: "{ {"`,
		},
		{
			name: "ambiguous",
			o:    Overrides{BlockStart: "{{", ExprStart: "{{$"},
			kind: AmbiguousPrefix,
			msg:  `a delimiter may not be the prefix of another delimiter: "{{" vs "{{$"`,
		},
		{
			name: "ambiguous reverse",
			o:    Overrides{CommentStart: "{%%"},
			kind: AmbiguousPrefix,
			msg:  `a delimiter may not be the prefix of another delimiter: "{%" vs "{%%"`,
		},
		{
			name: "equal",
			o:    Overrides{ExprStart: "<<", CommentStart: "<<"},
			kind: AmbiguousPrefix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.o)
			var serr *SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("expected *SyntaxError, got %v", err)
			}
			if serr.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", serr.Kind, tt.kind)
			}
			if tt.msg != "" && err.Error() != tt.msg {
				t.Errorf("message = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestBuildEndDelimitersMayOverlap(t *testing.T) {
	s, err := Build(Overrides{BlockEnd: "}}", ExprEnd: "}}}"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.BlockEnd != "}}" || s.ExprEnd != "}}}" {
		t.Errorf("unexpected delimiters: %v", s)
	}
}

func TestBuildGeneratedOverrides(t *testing.T) {
	pieces := []string{"", "{", "}", "%", "#", "<", ">", "$", "@", " ", "\t", "{{", "{%", "<%", "%>", "[[", "]]"}
	gen := func(r *rand.Rand) string {
		var sb strings.Builder
		for n := r.Intn(3); n >= 0; n-- {
			sb.WriteString(pieces[r.Intn(len(pieces))])
		}
		return sb.String()
	}

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		o := Overrides{
			BlockStart:   gen(r),
			BlockEnd:     gen(r),
			ExprStart:    gen(r),
			ExprEnd:      gen(r),
			CommentStart: gen(r),
			CommentEnd:   gen(r),
		}
		s, err := Build(o)
		if err != nil {
			var serr *SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("%+v: unexpected error type %T", o, err)
			}
			continue
		}
		for _, d := range s.Delimiters() {
			if len(d) < 2 {
				t.Fatalf("%+v: delimiter %q too short", o, d)
			}
			if strings.IndexFunc(d, unicode.IsSpace) >= 0 {
				t.Fatalf("%+v: delimiter %q has whitespace", o, d)
			}
		}
		starts := []string{s.BlockStart, s.ExprStart, s.CommentStart}
		for a := range starts {
			for b := range starts {
				if a != b && strings.HasPrefix(starts[a], starts[b]) {
					t.Fatalf("%+v: %q is a prefix of %q", o, starts[b], starts[a])
				}
			}
		}
	}
}

func TestWhitespace(t *testing.T) {
	for _, w := range []Whitespace{Preserve, Suppress, Minimize} {
		got, err := ParseWhitespace(w.String())
		if err != nil || got != w {
			t.Errorf("ParseWhitespace(%q) = %v, %v", w.String(), got, err)
		}
		m, ok := WhitespaceFromMark(w.Mark())
		if !ok || m != w {
			t.Errorf("WhitespaceFromMark(%q) = %v, %v", w.Mark(), m, ok)
		}
	}

	_, err := ParseWhitespace("trim")
	if !errors.Is(err, ErrInvalidWhitespace) {
		t.Fatalf("expected ErrInvalidWhitespace, got %v", err)
	}
	if want := "invalid value for `whitespace`: \"trim\""; err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if _, ok := WhitespaceFromMark('*'); ok {
		t.Error("'*' must not be a mark")
	}
}

func TestSpanPosition(t *testing.T) {
	src := "ab\ncdé\nf"
	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{1, 1}},
		{2, Position{1, 3}},
		{3, Position{2, 1}},
		{7, Position{2, 4}},
		{9, Position{3, 2}},
		{100, Position{3, 2}},
	}
	for _, tt := range tests {
		if got := PositionAt(src, tt.offset); got != tt.want {
			t.Errorf("PositionAt(%d) = %v, want %v", tt.offset, got, tt.want)
		}
	}

	sp := MakeSpan(3, 5)
	if sp.Text(src) != "cd" || sp.Len() != 2 {
		t.Errorf("unexpected span text %q", sp.Text(src))
	}
}
