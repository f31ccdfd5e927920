package parser

import (
	"github.com/tmplc/tmplc/expr"
)

// OutlineNode is a serializable summary of a node, used by the CLI to
// print templates as YAML or JSON.
type OutlineNode struct {
	Kind     string         `json:"kind" yaml:"kind"`
	Start    string         `json:"start" yaml:"start"`
	End      string         `json:"end" yaml:"end"`
	Label    string         `json:"label,omitempty" yaml:"label,omitempty"`
	Children []*OutlineNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Outline summarizes t. Branch and arm nodes of if and match appear as
// children with kinds "cond" and "when".
func Outline(t *Template) []*OutlineNode {
	o := outliner{src: t.Source}
	return o.list(t.Nodes)
}

type outliner struct {
	src string
}

func (o outliner) list(nodes []Node) []*OutlineNode {
	out := make([]*OutlineNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, o.node(n))
	}
	return out
}

func (o outliner) make(kind string, span Span, label string, children []*OutlineNode) *OutlineNode {
	return &OutlineNode{
		Kind:     kind,
		Start:    span.Start(o.src).String(),
		End:      span.End(o.src).String(),
		Label:    label,
		Children: children,
	}
}

func (o outliner) node(n Node) *OutlineNode {
	switch v := n.(type) {
	case *Lit:
		return o.make("lit", v.span, v.Val, nil)
	case *Comment:
		return o.make("comment", v.span, "", nil)
	case *Expr:
		return o.make("expr", v.span, expr.DebugString(v.Expr), nil)
	case *Call:
		name := v.Name
		if v.Scope != "" {
			name = v.Scope + "::" + name
		}
		return o.make("call", v.span, name, nil)
	case *Let:
		return o.make("let", v.span, expr.DebugString(v.Target), nil)
	case *If:
		var children []*OutlineNode
		for _, c := range v.Branches {
			label := "else"
			if c.Test != nil {
				label = expr.DebugString(c.Test.Expr)
			}
			children = append(children, o.make("cond", c.span, label, o.list(c.Nodes)))
		}
		return o.make("if", v.span, "", children)
	case *Loop:
		children := o.list(v.Body)
		if len(v.ElseNodes) > 0 {
			children = append(children, &OutlineNode{Kind: "else", Children: o.list(v.ElseNodes)})
		}
		return o.make("for", v.span, expr.DebugString(v.Target), children)
	case *Match:
		var children []*OutlineNode
		for _, arm := range v.Arms {
			children = append(children, o.make("when", arm.span, expr.DebugString(arm.Target), o.list(arm.Nodes)))
		}
		return o.make("match", v.span, expr.DebugString(v.Expr), children)
	case *Extends:
		return o.make("extends", v.span, v.Path, nil)
	case *BlockDef:
		return o.make("block", v.span, v.Name, o.list(v.Nodes))
	case *Include:
		return o.make("include", v.span, v.Path, nil)
	case *Import:
		return o.make("import", v.span, v.Path+" as "+v.Scope, nil)
	case *Macro:
		return o.make("macro", v.span, v.Name, o.list(v.Nodes))
	case *Raw:
		return o.make("raw", v.span, v.Lit.Text(), nil)
	case *Break:
		return o.make("break", v.span, "", nil)
	case *Continue:
		return o.make("continue", v.span, "", nil)
	case *FilterBlock:
		return o.make("filter", v.span, expr.DebugString(v.Filters), o.list(v.Nodes))
	}
	return o.make("unknown", n.Span(), "", nil)
}
