package parser

// Walk calls fn for every node in nodes in source order, descending into
// bodies. When fn returns false the children of that node are skipped.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		switch v := n.(type) {
		case *If:
			for _, c := range v.Branches {
				Walk(c.Nodes, fn)
			}
		case *Loop:
			Walk(v.Body, fn)
			Walk(v.ElseNodes, fn)
		case *Match:
			for _, arm := range v.Arms {
				Walk(arm.Nodes, fn)
			}
		case *BlockDef:
			Walk(v.Nodes, fn)
		case *Macro:
			Walk(v.Nodes, fn)
		case *FilterBlock:
			Walk(v.Nodes, fn)
		}
	}
}

// Dependencies returns the template paths referenced by extends, include
// and import tags, in source order and without duplicates.
func (t *Template) Dependencies() []string {
	var deps []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			deps = append(deps, p)
		}
	}
	Walk(t.Nodes, func(n Node) bool {
		switch v := n.(type) {
		case *Extends:
			add(v.Path)
		case *Include:
			add(v.Path)
		case *Import:
			add(v.Path)
		}
		return true
	})
	return deps
}
