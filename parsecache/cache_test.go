package parsecache

import (
	"errors"
	"sync"
	"testing"

	"github.com/tmplc/tmplc/parser"
	"github.com/tmplc/tmplc/syntax"
)

func TestParseReturnsSameTemplate(t *testing.T) {
	c := New(nil)
	a, err := c.Parse("Hello {{ name }}", "a.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := c.Parse("Hello {{ name }}", "a.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Error("expected the same *Template for a repeated key")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestKeyIncludesPath(t *testing.T) {
	c := New(nil)
	a, _ := c.Parse("x", "a.html")
	b, _ := c.Parse("x", "b.html")
	if a == b {
		t.Error("different paths must not share an entry")
	}
	if b.Path != "b.html" {
		t.Errorf("path = %q", b.Path)
	}

	// the length prefix keeps path/source boundaries apart
	d, _ := c.Parse("b", "a")
	e, _ := c.Parse("", "ab")
	if d == e {
		t.Error("keys with the same concatenation must stay distinct")
	}
}

func TestFailureIsNotCached(t *testing.T) {
	c := New(nil)
	_, err := c.Parse("{% if x %}", "t.html")
	var perr *parser.Error
	if !errors.As(err, &perr) || perr.Kind != parser.ErrUnclosed {
		t.Fatalf("expected an unclosed error, got %v", err)
	}
	if c.Cached("{% if x %}", "t.html") || c.Len() != 0 {
		t.Fatal("failed parse must not be stored")
	}

	tmpl, err := c.Parse("{% if x %}{% endif %}", "t.html")
	if err != nil {
		t.Fatalf("corrected template should parse: %v", err)
	}
	if len(tmpl.Nodes) != 1 {
		t.Errorf("expected one node, got %d", len(tmpl.Nodes))
	}
}

func TestConcurrentParse(t *testing.T) {
	c := New(nil)
	const n = 32
	results := make([]*parser.Template, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tmpl, err := c.Parse("{% for x in xs %}{{ x }}{% endfor %}", "loop.html")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = tmpl
		}()
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("caller %d got a different template", i)
		}
	}
}

func TestCacheUsesItsSyntax(t *testing.T) {
	s, err := syntax.Build(syntax.Overrides{ExprStart: "${", ExprEnd: "}$"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	custom := New(s)
	def := New(nil)

	src := "${ a }$ {{ a }}"
	ct, err := custom.Parse(src, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dt, err := def.Parse(src, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ct.Nodes[0].(*parser.Expr); !ok {
		t.Errorf("custom syntax: first node is %T", ct.Nodes[0])
	}
	if _, ok := dt.Nodes[0].(*parser.Lit); !ok {
		t.Errorf("default syntax: first node is %T", dt.Nodes[0])
	}
	if custom.Syntax() != s || def.Syntax() != syntax.Default() {
		t.Error("unexpected cache syntax")
	}

	custom.Reset()
	if custom.Len() != 0 {
		t.Errorf("Len() after Reset = %d", custom.Len())
	}
}
