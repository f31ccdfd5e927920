// Package expr parses the expressions, patterns and argument lists found
// inside template tags.
package expr

import (
	"math/big"

	"github.com/tmplc/tmplc/syntax"
)

// Span represents a location range in source code.
type Span = syntax.Span

// Node is implemented by expressions and targets.
type Node interface {
	node()
	Span() Span
}

// Expr represents an expression node.
type Expr interface {
	Node
	expr()
}

// Target represents a binding pattern: the variable part of `for`, `let`,
// `when` and `if let`.
type Target interface {
	Node
	target()
}

// --- Expression Types ---

// Var represents a variable reference.
type Var struct {
	Name string
	span Span
}

func (v *Var) node()      {}
func (v *Var) expr()      {}
func (v *Var) Span() Span { return v.span }

// Path represents a qualified name such as `Kind::Leaf`.
type Path struct {
	Segments []string
	span     Span
}

func (p *Path) node()      {}
func (p *Path) expr()      {}
func (p *Path) Span() Span { return p.span }

// Const represents a constant value.
type Const struct {
	Value any // string, int64, *BigInt, float64, bool, or nil
	span  Span
}

func (c *Const) node()      {}
func (c *Const) expr()      {}
func (c *Const) Span() Span { return c.span }

// BigInt wraps integers that do not fit into 64 bits.
type BigInt struct {
	*big.Int
}

// UnaryOpKind represents the type of unary operator.
type UnaryOpKind int

const (
	UnaryNot UnaryOpKind = iota
	UnaryNeg
)

func (k UnaryOpKind) String() string {
	switch k {
	case UnaryNot:
		return "Not"
	case UnaryNeg:
		return "Neg"
	}
	return "?"
}

// UnaryOp represents a unary operation.
type UnaryOp struct {
	Op   UnaryOpKind
	Expr Expr
	span Span
}

func (u *UnaryOp) node()      {}
func (u *UnaryOp) expr()      {}
func (u *UnaryOp) Span() Span { return u.span }

// BinOpKind represents the type of binary operator.
type BinOpKind int

const (
	BinOpEq BinOpKind = iota
	BinOpNe
	BinOpLt
	BinOpLte
	BinOpGt
	BinOpGte
	BinOpScAnd
	BinOpScOr
	BinOpAdd
	BinOpSub
	BinOpMul
	BinOpDiv
	BinOpFloorDiv
	BinOpRem
	BinOpPow
	BinOpConcat
	BinOpIn
)

var binOpNames = [...]string{
	BinOpEq:       "Eq",
	BinOpNe:       "Ne",
	BinOpLt:       "Lt",
	BinOpLte:      "Lte",
	BinOpGt:       "Gt",
	BinOpGte:      "Gte",
	BinOpScAnd:    "ScAnd",
	BinOpScOr:     "ScOr",
	BinOpAdd:      "Add",
	BinOpSub:      "Sub",
	BinOpMul:      "Mul",
	BinOpDiv:      "Div",
	BinOpFloorDiv: "FloorDiv",
	BinOpRem:      "Rem",
	BinOpPow:      "Pow",
	BinOpConcat:   "Concat",
	BinOpIn:       "In",
}

func (k BinOpKind) String() string {
	if int(k) < len(binOpNames) {
		return binOpNames[k]
	}
	return "?"
}

// BinOp represents a binary operation.
type BinOp struct {
	Op    BinOpKind
	Left  Expr
	Right Expr
	span  Span
}

func (b *BinOp) node()      {}
func (b *BinOp) expr()      {}
func (b *BinOp) Span() Span { return b.span }

// Range represents `start..end` or `start..=end`. Either bound may be nil.
type Range struct {
	Start     Expr
	End       Expr
	Inclusive bool
	span      Span
}

func (r *Range) node()      {}
func (r *Range) expr()      {}
func (r *Range) Span() Span { return r.span }

// Filter represents a filter application. The filtered value is the first
// positional argument.
type Filter struct {
	Name string
	Args []CallArg
	span Span
}

func (f *Filter) node()      {}
func (f *Filter) expr()      {}
func (f *Filter) Span() Span { return f.span }

// Input returns the filtered value.
func (f *Filter) Input() Expr {
	if len(f.Args) == 0 {
		return nil
	}
	return f.Args[0].Value
}

// FilterSource stands for the body of a filter block, the innermost input of
// its filter chain.
type FilterSource struct {
	span Span
}

func (f *FilterSource) node()      {}
func (f *FilterSource) expr()      {}
func (f *FilterSource) Span() Span { return f.span }

// NewFilterSource returns a FilterSource placeholder located at span.
func NewFilterSource(span Span) *FilterSource {
	return &FilterSource{span: span}
}

// NewFilter builds a filter application located at span.
func NewFilter(name string, args []CallArg, span Span) *Filter {
	return &Filter{Name: name, Args: args, span: span}
}

// Test represents a test expression (`x is defined`).
type Test struct {
	Name string
	Expr Expr
	Args []CallArg
	span Span
}

func (t *Test) node()      {}
func (t *Test) expr()      {}
func (t *Test) Span() Span { return t.span }

// GetAttr represents attribute access (x.y).
type GetAttr struct {
	Expr Expr
	Name string
	span Span
}

func (g *GetAttr) node()      {}
func (g *GetAttr) expr()      {}
func (g *GetAttr) Span() Span { return g.span }

// GetItem represents subscript access (x[y]).
type GetItem struct {
	Expr          Expr
	SubscriptExpr Expr
	span          Span
}

func (g *GetItem) node()      {}
func (g *GetItem) expr()      {}
func (g *GetItem) Span() Span { return g.span }

// Slice represents a slice operation.
type Slice struct {
	Expr  Expr
	Start Expr // optional
	Stop  Expr // optional
	Step  Expr // optional
	span  Span
}

func (s *Slice) node()      {}
func (s *Slice) expr()      {}
func (s *Slice) Span() Span { return s.span }

// Call represents a function/method call.
type Call struct {
	Expr Expr
	Args []CallArg
	span Span
}

func (c *Call) node()      {}
func (c *Call) expr()      {}
func (c *Call) Span() Span { return c.span }

// CallArgKind represents the type of call argument.
type CallArgKind int

const (
	CallArgPos CallArgKind = iota
	CallArgKwarg
	CallArgPosSplat
	CallArgKwargSplat
)

// CallArg represents a function call argument.
type CallArg struct {
	Kind  CallArgKind
	Name  string // for kwargs
	Value Expr
}

// List represents a list literal.
type List struct {
	Items []Expr
	span  Span
}

func (l *List) node()      {}
func (l *List) expr()      {}
func (l *List) Span() Span { return l.span }

// Tuple represents a parenthesized tuple, `()` and `(a,)` included.
type Tuple struct {
	Items []Expr
	span  Span
}

func (t *Tuple) node()      {}
func (t *Tuple) expr()      {}
func (t *Tuple) Span() Span { return t.span }

// Map represents a map/dict literal.
type Map struct {
	Keys   []Expr
	Values []Expr
	span   Span
}

func (m *Map) node()      {}
func (m *Map) expr()      {}
func (m *Map) Span() Span { return m.span }

// --- Target Types ---

// Name binds a single variable.
type Name struct {
	Name string
	span Span
}

func (n *Name) node()      {}
func (n *Name) target()    {}
func (n *Name) Span() Span { return n.span }

// Placeholder is `_`, matching anything without binding.
type Placeholder struct {
	span Span
}

func (p *Placeholder) node()      {}
func (p *Placeholder) target()    {}
func (p *Placeholder) Span() Span { return p.span }

// NewPlaceholder returns a `_` target located at span.
func NewPlaceholder(span Span) *Placeholder {
	return &Placeholder{span: span}
}

// Rest is `..` inside tuple, array and struct patterns.
type Rest struct {
	span Span
}

func (r *Rest) node()      {}
func (r *Rest) target()    {}
func (r *Rest) Span() Span { return r.span }

// LitTarget matches a literal value.
type LitTarget struct {
	Value any // same value set as Const
	span  Span
}

func (l *LitTarget) node()      {}
func (l *LitTarget) target()    {}
func (l *LitTarget) Span() Span { return l.span }

// PathTarget matches a unit variant or constant such as `Kind::Leaf`.
type PathTarget struct {
	Segments []string
	span     Span
}

func (p *PathTarget) node()      {}
func (p *PathTarget) target()    {}
func (p *PathTarget) Span() Span { return p.span }

// TupleTarget destructures `(a, b)` or, with a path, `Some(a)`.
type TupleTarget struct {
	Path  []string // nil for plain tuples
	Elems []Target
	span  Span
}

func (t *TupleTarget) node()      {}
func (t *TupleTarget) target()    {}
func (t *TupleTarget) Span() Span { return t.span }

// FieldTarget is one field of a StructTarget.
type FieldTarget struct {
	Name   string
	Target Target // a *Name for shorthand fields, a *Rest for `..`
}

// StructTarget destructures `Point { x, y: other }`.
type StructTarget struct {
	Path   []string
	Fields []FieldTarget
	span   Span
}

func (s *StructTarget) node()      {}
func (s *StructTarget) target()    {}
func (s *StructTarget) Span() Span { return s.span }

// ArrayTarget destructures `[a, b, ..]`.
type ArrayTarget struct {
	Elems []Target
	span  Span
}

func (a *ArrayTarget) node()      {}
func (a *ArrayTarget) target()    {}
func (a *ArrayTarget) Span() Span { return a.span }

// OrTarget matches any of its alternatives.
type OrTarget struct {
	Alts []Target
	span Span
}

func (o *OrTarget) node()      {}
func (o *OrTarget) target()    {}
func (o *OrTarget) Span() Span { return o.span }
