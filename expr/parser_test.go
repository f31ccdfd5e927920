package expr

import (
	"errors"
	"strings"
	"testing"
)

func TestParseExpr(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`a + b * c`, `Add(Var(a), Mul(Var(b), Var(c)))`},
		{`(a + b) * c`, `Mul(Add(Var(a), Var(b)), Var(c))`},
		{`not a and b`, `ScAnd(Not(Var(a)), Var(b))`},
		{`a or b and c`, `ScOr(Var(a), ScAnd(Var(b), Var(c)))`},
		{`a not in b`, `Not(In(Var(a), Var(b)))`},
		{`a == 1 ~ "x"`, `Eq(Var(a), Concat(Const(1), Const("x")))`},
		{`2 ** -x // 3 % 4`, `Rem(FloorDiv(Pow(Const(2), Neg(Var(x))), Const(3)), Const(4))`},
		{`x|upper|replace("a", "b")`, `Filter(replace, Filter(upper, Var(x)), Const("a"), Const("b"))`},
		{`x is divisibleby 3`, `Test(divisibleby, Var(x), Const(3))`},
		{`x is not defined`, `Not(Test(defined, Var(x)))`},
		{`a.b[0](c, d=1)`, `Call(GetItem(GetAttr(Var(a), b), Const(0)), Var(c), d=Const(1))`},
		{`f(*args, **kwargs)`, `Call(Var(f), *Var(args), **Var(kwargs))`},
		{`tuple.0`, `GetAttr(Var(tuple), 0)`},
		{`Kind::Leaf`, `Path(Kind::Leaf)`},
		{`(1,)`, `Tuple(Const(1))`},
		{`()`, `Tuple()`},
		{`0..10`, `Range(Const(0)..Const(10))`},
		{`a..=b`, `Range(Var(a)..=Var(b))`},
		{`..n`, `Range(..Var(n))`},
		{`{"k": [1, 2.5]}`, `Map{Const("k"): List[Const(1), Const(2.5)]}`},
		{`x[1:2]`, `Slice(Var(x), Const(1):Const(2):)`},
		{`x[::2]`, `Slice(Var(x), ::Const(2))`},
		{`"a" "b"`, `Const("ab")`},
		{`true or None`, `ScOr(Const(true), Const(none))`},
		{`99999999999999999999`, `Const(99999999999999999999)`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p := NewParser(tt.src, 0, 0)
			e, err := p.Expr()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := DebugString(e); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if p.Pos() != len(tt.src) {
				t.Errorf("stopped at %d of %d", p.Pos(), len(tt.src))
			}
		})
	}
}

func TestParseExprStopsBeforeMarks(t *testing.T) {
	tests := []struct {
		src  string
		want string
		pos  int
	}{
		{`a -}}`, `Var(a)`, 1},
		{`a ~%}`, `Var(a)`, 1},
		{`a +}}`, `Var(a)`, 1},
		{`a %}`, `Var(a)`, 1},
		{`a + b -%}`, `Add(Var(a), Var(b))`, 5},
		{`a > b >>`, `Gt(Var(a), Var(b))`, 5},
		{`x is defined -%}`, `Test(defined, Var(x))`, 12},
		{`items if x`, `Var(items)`, 5},
	}
	for _, tt := range tests {
		p := NewParser(tt.src, 0, 0)
		e, err := p.Expr()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.src, err)
		}
		if got := DebugString(e); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.src, got, tt.want)
		}
		if p.Pos() != tt.pos {
			t.Errorf("%s: pos = %d, want %d", tt.src, p.Pos(), tt.pos)
		}
	}
}

func TestParseExprOffset(t *testing.T) {
	src := "{{ user.name }}"
	p := NewParser(src, 2, 0)
	e, err := p.Expr()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := e.Span().Text(src); got != "user.name" {
		t.Errorf("span text = %q", got)
	}
	if p.Pos() != 12 {
		t.Errorf("pos = %d", p.Pos())
	}
}

func TestParseExprErrors(t *testing.T) {
	tests := []struct {
		src   string
		fatal bool
		msg   string
	}{
		{`}}`, false, "expected expression"},
		{`(a`, true, "expected `)`"},
		{`a.`, true, "expected identifier"},
		{`"open`, true, "unexpected end of string"},
		{`f(a=1, b)`, true, "non-keyword arg after keyword arg"},
		{`[1, 2`, true, "expected `,`"},
		{`x|`, true, "expected filter name"},
		{`a..=`, true, "expected expression"},
	}
	for _, tt := range tests {
		_, err := NewParser(tt.src, 0, 0).Expr()
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("%s: expected *Error, got %v", tt.src, err)
		}
		if perr.Fatal != tt.fatal {
			t.Errorf("%s: fatal = %v, want %v", tt.src, perr.Fatal, tt.fatal)
		}
		if !strings.Contains(perr.Msg, tt.msg) {
			t.Errorf("%s: message %q does not contain %q", tt.src, perr.Msg, tt.msg)
		}
	}
}

func TestParseExprDepth(t *testing.T) {
	src := strings.Repeat("(", 200) + "a" + strings.Repeat(")", 200)
	_, err := NewParser(src, 0, 0).Expr()
	if !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}

	// the starting level counts against the limit
	_, err = NewParser("(((a)))", 0, MaxDepth-2).Expr()
	if !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep with a high level, got %v", err)
	}
	if _, err := NewParser("(((a)))", 0, 10).Expr(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`x`, `Name(x)`},
		{`_`, `_`},
		{`(a, b)`, `Tuple(Name(a), Name(b))`},
		{`(a)`, `Name(a)`},
		{`(a,)`, `Tuple(Name(a))`},
		{`Some(x)`, `Tuple[Some](Name(x))`},
		{`Point { x, y: (a, ..) }`, `Struct[Point]{x: Name(x), y: Tuple(Name(a), ..)}`},
		{`1 | 2`, `Or(Lit(1) | Lit(2))`},
		{`[a, ..]`, `Array[Name(a), ..]`},
		{`None`, `Path(None)`},
		{`shape::Kind::Leaf`, `Path(shape::Kind::Leaf)`},
		{`-1`, `Lit(-1)`},
		{`"s"`, `Lit("s")`},
		{`true`, `Lit(true)`},
	}
	for _, tt := range tests {
		p := NewParser(tt.src, 0, 0)
		target, err := p.Target()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.src, err)
		}
		if got := DebugString(target); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.src, got, tt.want)
		}
		if p.Pos() != len(tt.src) {
			t.Errorf("%s: stopped at %d", tt.src, p.Pos())
		}
	}
}

func TestParseTargetErrors(t *testing.T) {
	for _, src := range []string{`(a`, `Foo { 1 }`, `-x`, `%}`} {
		if _, err := NewParser(src, 0, 0).Target(); err == nil {
			t.Errorf("%s: expected error", src)
		}
	}
}

func TestIdentifierAndString(t *testing.T) {
	p := NewParser(`name "path.html" as`, 0, 0)
	name, _, err := p.Identifier()
	if err != nil || name != "name" {
		t.Fatalf("Identifier() = %q, %v", name, err)
	}
	s, span, err := p.StringLit()
	if err != nil || s != "path.html" {
		t.Fatalf("StringLit() = %q, %v", s, err)
	}
	if span.StartOffset != 5 || span.EndOffset != 16 {
		t.Errorf("unexpected span %+v", span)
	}
	if p.PeekIdent() != "as" || !p.SkipKeyword("as") {
		t.Error("expected keyword as")
	}
	if _, _, err := p.Identifier(); err == nil {
		t.Error("expected error at end of input")
	}
}
