package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tmplc/tmplc/expr"
	"github.com/tmplc/tmplc/syntax"
)

// DebugString returns an indented representation of the template tree.
// Node spans are shown as 1-based line:column ranges.
func DebugString(t *Template) string {
	d := &debugWriter{src: t.Source}
	d.nodeList(t.Nodes)
	return d.sb.String()
}

// FormatSpan formats a span of source for debug output.
func FormatSpan(source string, s Span) string {
	return fmt.Sprintf(" @ %s-%s", s.Start(source), s.End(source))
}

type debugWriter struct {
	sb     strings.Builder
	src    string
	indent int
}

func (d *debugWriter) line(format string, args ...any) {
	d.sb.WriteString(strings.Repeat("    ", d.indent))
	fmt.Fprintf(&d.sb, format, args...)
	d.sb.WriteByte('\n')
}

func (d *debugWriter) open(name string) {
	d.line("%s {", name)
	d.indent++
}

func (d *debugWriter) close(span Span) {
	d.indent--
	d.line("}%s", FormatSpan(d.src, span))
}

func (d *debugWriter) nodeList(nodes []Node) {
	for _, n := range nodes {
		d.node(n)
	}
}

func (d *debugWriter) body(name string, nodes []Node) {
	if len(nodes) == 0 {
		d.line("%s: []", name)
		return
	}
	d.line("%s: [", name)
	d.indent++
	d.nodeList(nodes)
	d.indent--
	d.line("]")
}

func (d *debugWriter) node(n Node) {
	switch v := n.(type) {
	case *Lit:
		d.open("Lit")
		d.line("lws: %q", v.Lws)
		d.line("val: %q", v.Val)
		d.line("rws: %q", v.Rws)
		d.close(v.span)

	case *Comment:
		d.open("Comment")
		d.line("ws: %s", formatWs(v.Ws))
		d.line("content: %q", v.Content)
		d.close(v.span)

	case *Expr:
		d.open("Expr")
		d.line("ws: %s", formatWs(v.Ws))
		d.line("expr: %s", expr.DebugString(v.Expr))
		d.close(v.span)

	case *Call:
		d.open("Call")
		d.line("ws: %s", formatWs(v.Ws))
		if v.Scope != "" {
			d.line("scope: %s", v.Scope)
		}
		d.line("name: %s", v.Name)
		d.line("args: %s", formatArgs(v.Args))
		d.close(v.span)

	case *Let:
		d.open("Let")
		d.line("ws: %s", formatWs(v.Ws))
		d.line("target: %s", expr.DebugString(v.Target))
		if v.Value != nil {
			d.line("value: %s", expr.DebugString(v.Value))
		}
		d.close(v.span)

	case *If:
		d.open("If")
		for _, c := range v.Branches {
			d.open("Cond")
			d.line("ws: %s", formatWs(c.Ws))
			if c.Test != nil {
				if c.Test.Target != nil {
					d.line("target: %s", expr.DebugString(c.Test.Target))
				}
				d.line("test: %s", expr.DebugString(c.Test.Expr))
			}
			d.body("nodes", c.Nodes)
			d.close(c.span)
		}
		d.line("ws: %s", formatWs(v.Ws))
		d.close(v.span)

	case *Loop:
		d.open("Loop")
		d.line("ws1: %s", formatWs(v.Ws1))
		d.line("target: %s", expr.DebugString(v.Target))
		d.line("iter: %s", expr.DebugString(v.Iter))
		if v.Cond != nil {
			d.line("cond: %s", expr.DebugString(v.Cond))
		}
		d.body("body", v.Body)
		d.line("ws2: %s", formatWs(v.Ws2))
		d.body("else", v.ElseNodes)
		d.line("ws3: %s", formatWs(v.Ws3))
		d.close(v.span)

	case *Match:
		d.open("Match")
		d.line("ws1: %s", formatWs(v.Ws1))
		d.line("expr: %s", expr.DebugString(v.Expr))
		for _, arm := range v.Arms {
			d.open("When")
			d.line("ws: %s", formatWs(arm.Ws))
			d.line("target: %s", expr.DebugString(arm.Target))
			d.body("nodes", arm.Nodes)
			d.close(arm.span)
		}
		d.line("ws2: %s", formatWs(v.Ws2))
		d.close(v.span)

	case *Extends:
		d.open("Extends")
		d.line("path: %s", strconv.Quote(v.Path))
		d.close(v.span)

	case *BlockDef:
		d.open("BlockDef")
		d.line("ws1: %s", formatWs(v.Ws1))
		d.line("name: %s", v.Name)
		d.body("nodes", v.Nodes)
		d.line("ws2: %s", formatWs(v.Ws2))
		d.close(v.span)

	case *Include:
		d.open("Include")
		d.line("ws: %s", formatWs(v.Ws))
		d.line("path: %s", strconv.Quote(v.Path))
		d.close(v.span)

	case *Import:
		d.open("Import")
		d.line("ws: %s", formatWs(v.Ws))
		d.line("path: %s", strconv.Quote(v.Path))
		d.line("scope: %s", v.Scope)
		d.close(v.span)

	case *Macro:
		d.open("Macro")
		d.line("ws1: %s", formatWs(v.Ws1))
		d.line("name: %s", v.Name)
		d.line("params: [%s]", strings.Join(v.Params, ", "))
		d.body("nodes", v.Nodes)
		d.line("ws2: %s", formatWs(v.Ws2))
		d.close(v.span)

	case *Raw:
		d.open("Raw")
		d.line("ws1: %s", formatWs(v.Ws1))
		d.node(v.Lit)
		d.line("ws2: %s", formatWs(v.Ws2))
		d.close(v.span)

	case *Break:
		d.line("Break(%s)%s", formatWs(v.Ws), FormatSpan(d.src, v.span))

	case *Continue:
		d.line("Continue(%s)%s", formatWs(v.Ws), FormatSpan(d.src, v.span))

	case *FilterBlock:
		d.open("FilterBlock")
		d.line("ws1: %s", formatWs(v.Ws1))
		d.line("filters: %s", expr.DebugString(v.Filters))
		d.body("nodes", v.Nodes)
		d.line("ws2: %s", formatWs(v.Ws2))
		d.close(v.span)

	default:
		d.line("%T", n)
	}
}

func formatWs(ws Ws) string {
	return "Ws(" + formatMark(ws.Left) + ", " + formatMark(ws.Right) + ")"
}

func formatMark(w *syntax.Whitespace) string {
	if w == nil {
		return "_"
	}
	return string(w.Mark())
}

func formatArgs(args []expr.CallArg) string {
	return "(" + expr.DebugArgs(args) + ")"
}

// FormatResult formats the outcome of Parse for snapshot tests.
func FormatResult(t *Template, err error) string {
	if err != nil {
		if perr, ok := err.(*Error); ok {
			pos := perr.Position()
			return fmt.Sprintf("Err(%s, %q) @ %s\n", perr.Kind, perr.Detail, pos)
		}
		return fmt.Sprintf("Err(%s)\n", err)
	}
	return DebugString(t)
}
