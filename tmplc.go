// Package tmplc is the compile-time front end of a template-to-code
// compiler for a Jinja-like template language.
//
// It turns template source into a syntax tree that a code generator can
// walk, and caches the expensive parts so that compiling many templates
// that share configuration and sources stays cheap.
//
// # Quick Start
//
//	sess := tmplc.NewSession(tmplc.WithRoot("."))
//	defer sess.Close()
//
//	cfg, _ := sess.LoadConfig("", nil) // reads ./tmplc.toml when present
//	tmpl, err := sess.Load(cfg, "hello.html")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(parser.DebugString(tmpl))
//
// # Template Syntax
//
// The default delimiters are:
//   - Blocks: {% if condition %}...{% endif %}
//   - Expressions: {{ user.name|upper }}
//   - Comments: {# comment #}, which may nest
//
// A mark directly inside a delimiter controls the whitespace next to it:
// `-` suppresses it, `~` minimizes it and `+` preserves it:
//
//	{%- if x ~%}
//
// Supported tags are if/elif/else, for (with an optional filter and an
// else branch), match/when, block, extends, include, import, macro, call,
// let/set, filter, raw, break and continue.
//
// # Configuration
//
// A tmplc.toml at the project root selects template dirs, named
// delimiter sets, the whitespace policy and escapers:
//
//	[general]
//	dirs = ["templates"]
//	default_syntax = "angle"
//	whitespace = "suppress"
//
//	[[syntax]]
//	name = "angle"
//	block_start = "<%"
//	block_end = "%>"
//
//	[[escaper]]
//	path = "escape.JS"
//	extensions = ["js"]
//
// # Caching
//
// A Session memoizes resolved configurations and parsed templates. The
// same source, path and syntax always yield the same *parser.Template, and
// concurrent requests parse once. Failures are never cached, so a fixed
// template parses on the next request.
//
// # Error Handling
//
// Session methods return *Error. The cause keeps its own type:
//
//	_, err := sess.Load(cfg, "broken.html")
//	var perr *parser.Error
//	if errors.As(err, &perr) {
//	    pos := perr.Position()
//	    fmt.Printf("%s:%d:%d: %s\n", perr.Path, pos.Line, pos.Col, perr.Detail)
//	}
//
// # See Also
//
//   - syntax: delimiter sets and whitespace policies
//   - parser: the node parser and syntax tree
//   - expr: expressions and patterns inside tags
//   - config: tmplc.toml resolution and template lookup
//   - parsecache: per-syntax parse caches
package tmplc

import (
	"github.com/tmplc/tmplc/config"
	"github.com/tmplc/tmplc/parser"
	"github.com/tmplc/tmplc/syntax"
)

// Template is a parsed template.
type Template = parser.Template

// Config is a resolved configuration.
type Config = config.Config

// Syntax is a validated delimiter set.
type Syntax = syntax.Syntax

// Whitespace policies
const (
	Preserve = syntax.Preserve
	Suppress = syntax.Suppress
	Minimize = syntax.Minimize
)
