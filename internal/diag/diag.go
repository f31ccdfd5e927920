// Package diag renders errors for terminals, with a source excerpt and a
// caret line for errors that point into a template.
package diag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/tmplc/tmplc/parser"
)

const width = 79

// DefaultContext is the number of lines shown around the error line.
const DefaultContext = 3

// Options controls rendering.
type Options struct {
	Color   bool
	Context int
}

type palette struct {
	err, caret, gutter, title *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		caret:  color.New(color.FgRed),
		gutter: color.New(color.FgBlue),
		title:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.err, p.caret, p.gutter, p.title} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// UseColor decides whether output to f is colored. mode is "on", "off" or
// "auto"; auto colors terminals unless NO_COLOR is set.
func UseColor(mode string, f *os.File) bool {
	switch mode {
	case "on", "always":
		return true
	case "off", "never":
		return false
	}
	return !color.NoColor && f != nil && term.IsTerminal(int(f.Fd()))
}

// Render writes err to w. A parse error anywhere in the chain of err is
// shown with its location and an excerpt of the template source.
func Render(w io.Writer, err error, opts Options) {
	p := newPalette(opts.Color)

	var perr *parser.Error
	if !errors.As(err, &perr) || perr.Source == "" {
		_, _ = fmt.Fprintf(w, "%s %s\n", p.err.Sprint("error:"), err)
		return
	}

	pos := perr.Position()
	_, _ = fmt.Fprintf(w, "%s %s: %s\n", p.err.Sprint("error:"), perr.Kind, perr.Detail)
	_, _ = fmt.Fprintf(w, "  %s %s:%d:%d\n", p.gutter.Sprint("-->"), locationName(perr.Path), pos.Line, pos.Col)
	renderExcerpt(w, perr, opts, p)
}

func renderExcerpt(w io.Writer, perr *parser.Error, opts Options, p palette) {
	context := opts.Context
	if context <= 0 {
		context = DefaultContext
	}

	src := perr.Source
	lines := strings.Split(src, "\n")
	pos := perr.Position()
	lineIdx := min(max(pos.Line-1, 0), len(lines)-1)

	_, _ = fmt.Fprintln(w, p.title.Sprint(centerLine(" "+templateTitle(perr.Path)+" ", '-', width)))

	for idx := max(lineIdx-context, 0); idx < lineIdx; idx++ {
		_, _ = fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%4d |", idx+1), lines[idx])
	}
	line := lines[lineIdx]
	_, _ = fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%4d >", lineIdx+1), line)

	start := int(perr.Span.StartOffset)
	lineStart := strings.LastIndexByte(src[:min(start, len(src))], '\n') + 1
	startInLine := min(start-lineStart, len(line))
	endInLine := min(int(perr.Span.EndOffset)-lineStart, len(line))
	_, _ = fmt.Fprintf(w, "     i %s%s %s\n",
		strings.Repeat(" ", runewidth.StringWidth(line[:startInLine])),
		p.caret.Sprint(strings.Repeat("^", caretWidth(line, startInLine, endInLine))),
		perr.Kind,
	)

	for idx := lineIdx + 1; idx <= lineIdx+context && idx < len(lines); idx++ {
		_, _ = fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%4d |", idx+1), lines[idx])
	}
	_, _ = fmt.Fprintln(w, p.title.Sprint(strings.Repeat("~", width)))
}

// caretWidth is the display width of line[start:end], at least one column.
func caretWidth(line string, start, end int) int {
	if end <= start {
		return 1
	}
	return max(runewidth.StringWidth(line[start:end]), 1)
}

func locationName(path string) string {
	if path == "" {
		return "<string>"
	}
	return path
}

func templateTitle(name string) string {
	if name == "" {
		return "Template Source"
	}
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' })
	if len(parts) == 0 {
		return "Template Source"
	}
	return parts[len(parts)-1]
}

func centerLine(title string, fill rune, width int) string {
	tw := runewidth.StringWidth(title)
	if tw >= width {
		return title
	}
	pad := width - tw
	left := pad / 2
	right := pad - left
	return strings.Repeat(string(fill), left) + title + strings.Repeat(string(fill), right)
}
