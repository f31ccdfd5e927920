package diag

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tmplc/tmplc/parser"
)

func TestRenderParseError(t *testing.T) {
	_, err := parser.Parse("a\n{% for x in xs %}", "tpl/page.html", nil)
	if err == nil {
		t.Fatal("expected a parse error")
	}

	var buf bytes.Buffer
	Render(&buf, fmt.Errorf("loading: %w", err), Options{})

	dashes := strings.Repeat("-", 34)
	want := strings.Join([]string{
		`error: unclosed construct: unclosed for, missing "{% endfor %}"`,
		"  --> tpl/page.html:2:1",
		dashes + " page.html " + dashes,
		"   1 | a",
		"   2 > {% for x in xs %}",
		"     i ^^ unclosed construct",
		strings.Repeat("~", 79),
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderCaretAlignment(t *testing.T) {
	_, err := parser.Parse("日本 {% macro type() %}{% endmacro %}\nnext", "", nil)
	var buf bytes.Buffer
	Render(&buf, err, Options{Context: 1})

	lines := strings.Split(buf.String(), "\n")
	var caret string
	for _, l := range lines {
		if strings.HasPrefix(l, "     i ") {
			caret = l
		}
	}
	// two wide runes take four columns, then " {% macro " takes ten more
	if caret != "     i "+strings.Repeat(" ", 14)+"^^^^ reserved name" {
		t.Errorf("unexpected caret line %q", caret)
	}
	if !strings.Contains(buf.String(), "   2 | next") {
		t.Errorf("expected a trailing context line:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "--> <string>:1:13") {
		t.Errorf("expected the location line:\n%s", buf.String())
	}
}

func TestRenderPlainError(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, errors.New("boom"), Options{})
	if buf.String() != "error: boom\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestUseColor(t *testing.T) {
	if !UseColor("on", nil) || UseColor("off", nil) || UseColor("auto", nil) {
		t.Error("unexpected color decision")
	}
}

func TestCenterLine(t *testing.T) {
	if got := centerLine(" x ", '-', 9); got != "--- x ---" {
		t.Errorf("centerLine = %q", got)
	}
	if got := templateTitle(`a\b/c.html`); got != "c.html" {
		t.Errorf("templateTitle = %q", got)
	}
}
