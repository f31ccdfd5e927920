package parser

import (
	"github.com/tmplc/tmplc/expr"
	"github.com/tmplc/tmplc/syntax"
)

// Span represents a location range in source code.
type Span = syntax.Span

// Ws holds the whitespace marks written on the left and right edge of a
// tag. A nil side defers to the configured policy.
type Ws struct {
	Left  *syntax.Whitespace
	Right *syntax.Whitespace
}

// Template is a parsed template. It keeps the source so spans can be
// turned back into positions and excerpts.
type Template struct {
	Source string
	Path   string
	Nodes  []Node
}

// Node represents a top-level or body node.
type Node interface {
	node()
	Span() Span
}

// Lit is a run of template data. Lws and Rws hold the surrounding
// whitespace, Val the rest.
type Lit struct {
	Lws  string
	Val  string
	Rws  string
	span Span
}

func (l *Lit) node()      {}
func (l *Lit) Span() Span { return l.span }

// Text returns the literal as it appeared in the source.
func (l *Lit) Text() string { return l.Lws + l.Val + l.Rws }

// Comment is a possibly nested comment. Content excludes the delimiters
// and the whitespace marks.
type Comment struct {
	Ws      Ws
	Content string
	span    Span
}

func (c *Comment) node()      {}
func (c *Comment) Span() Span { return c.span }

// Expr is an expression tag (`{{ ... }}`).
type Expr struct {
	Ws   Ws
	Expr expr.Expr
	span Span
}

func (e *Expr) node()      {}
func (e *Expr) Span() Span { return e.span }

// Call invokes a macro, optionally from an imported scope.
type Call struct {
	Ws    Ws
	Scope string // empty when unscoped
	Name  string
	Args  []expr.CallArg
	span  Span
}

func (c *Call) node()      {}
func (c *Call) Span() Span { return c.span }

// Let declares or assigns a variable. Value is nil for a bare declaration.
type Let struct {
	Ws     Ws
	Target expr.Target
	Value  expr.Expr
	span   Span
}

func (l *Let) node()      {}
func (l *Let) Span() Span { return l.span }

// If is a conditional chain. Ws belongs to the `endif` tag.
type If struct {
	Ws       Ws
	Branches []*Cond
	span     Span
}

func (i *If) node()      {}
func (i *If) Span() Span { return i.span }

// Cond is one branch of an If. Test is nil for the final `else`.
type Cond struct {
	Ws    Ws
	Test  *CondTest
	Nodes []Node
	span  Span
}

func (c *Cond) Span() Span { return c.span }

// CondTest is a branch condition. A non-nil Target makes it a pattern
// test: `if let Some(x) = value`.
type CondTest struct {
	Target expr.Target
	Expr   expr.Expr
}

// Loop is a `for` block.
//
// Ws1 covers the `for` tag. Ws2 joins the left mark of the tag closing
// the body with the right mark of `else`. Ws3 covers `endfor`, its left
// mark only set when an else block exists.
type Loop struct {
	Ws1       Ws
	Target    expr.Target
	Iter      expr.Expr
	Cond      expr.Expr // optional
	Body      []Node
	Ws2       Ws
	ElseNodes []Node
	Ws3       Ws
	span      Span
}

func (l *Loop) node()      {}
func (l *Loop) Span() Span { return l.span }

// Match is a pattern match block. A trailing `else` arm is stored as a
// When with a placeholder target.
type Match struct {
	Ws1  Ws
	Expr expr.Expr
	Arms []*When
	Ws2  Ws
	span Span
}

func (m *Match) node()      {}
func (m *Match) Span() Span { return m.span }

// When is one arm of a Match.
type When struct {
	Ws     Ws
	Target expr.Target
	Nodes  []Node
	span   Span
}

func (w *When) Span() Span { return w.span }

// Extends names the parent template.
type Extends struct {
	Path string
	span Span
}

func (e *Extends) node()      {}
func (e *Extends) Span() Span { return e.span }

// BlockDef defines an overridable block.
type BlockDef struct {
	Ws1   Ws
	Name  string
	Nodes []Node
	Ws2   Ws
	span  Span
}

func (b *BlockDef) node()      {}
func (b *BlockDef) Span() Span { return b.span }

// Include inlines another template.
type Include struct {
	Ws   Ws
	Path string
	span Span
}

func (i *Include) node()      {}
func (i *Include) Span() Span { return i.span }

// Import makes the macros of another template available under Scope.
type Import struct {
	Ws    Ws
	Path  string
	Scope string
	span  Span
}

func (i *Import) node()      {}
func (i *Import) Span() Span { return i.span }

// Macro defines a macro.
type Macro struct {
	Ws1    Ws
	Name   string
	Params []string
	Nodes  []Node
	Ws2    Ws
	span   Span
}

func (m *Macro) node()      {}
func (m *Macro) Span() Span { return m.span }

// Raw holds text emitted verbatim.
type Raw struct {
	Ws1  Ws
	Lit  *Lit
	Ws2  Ws
	span Span
}

func (r *Raw) node()      {}
func (r *Raw) Span() Span { return r.span }

// Break leaves the innermost loop.
type Break struct {
	Ws   Ws
	span Span
}

func (b *Break) node()      {}
func (b *Break) Span() Span { return b.span }

// Continue skips to the next iteration of the innermost loop.
type Continue struct {
	Ws   Ws
	span Span
}

func (c *Continue) node()      {}
func (c *Continue) Span() Span { return c.span }

// FilterBlock applies a filter chain to its body. Filters is the
// outermost filter; the innermost one takes an *expr.FilterSource as its
// input.
type FilterBlock struct {
	Ws1     Ws
	Filters *expr.Filter
	Nodes   []Node
	Ws2     Ws
	span    Span
}

func (f *FilterBlock) node()      {}
func (f *FilterBlock) Span() Span { return f.span }

// SplitLit splits s into leading whitespace, value and trailing
// whitespace. The parts concatenate back to s.
func SplitLit(s string) (lws, val, rws string) {
	trimmed := trimLeftSpace(s)
	lws = s[:len(s)-len(trimmed)]
	val = trimRightSpace(trimmed)
	rws = trimmed[len(val):]
	return lws, val, rws
}
