// Package parser turns template source into a tree of nodes. Tag payloads
// (expressions, patterns and argument lists) are handed to package expr.
package parser

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tmplc/tmplc/expr"
	"github.com/tmplc/tmplc/internal/ident"
	"github.com/tmplc/tmplc/syntax"
)

// terminators end the body of the enclosing block tag. Outside of any
// block they are reported as unexpected.
var terminators = map[string]bool{
	"else":      true,
	"elif":      true,
	"endif":     true,
	"endfor":    true,
	"when":      true,
	"endmatch":  true,
	"endblock":  true,
	"endmacro":  true,
	"endfilter": true,
	"endcall":   true,
}

// parser holds the state threaded through the recursive descent: the
// block nesting level and whether `break` and `continue` are allowed.
type parser struct {
	src     string
	path    string
	syn     *syntax.Syntax
	openers string
	pos     int
	level   int
	inLoop  bool
}

// Parse parses source using the delimiters of s, or the default delimiters
// when s is nil. path is only used to annotate errors. The returned error
// is always an *Error.
func Parse(source, path string, s *syntax.Syntax) (*Template, error) {
	if s == nil {
		s = syntax.Default()
	}
	if err := syntax.CheckSize(source); err != nil {
		return nil, &Error{Kind: ErrSyntax, Detail: err.Error(), Path: path, Err: err}
	}

	p := &parser{src: source, path: path, syn: s}
	for _, d := range []string{s.BlockStart, s.ExprStart, s.CommentStart} {
		r, _ := utf8.DecodeRuneInString(d)
		p.openers += string(r)
	}

	nodes, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		// parseNodes only stops early in front of a terminator tag
		kw := p.peekBlockKeyword()
		return nil, p.errorf(ErrUnexpectedTag, kw, p.spanLen(p.pos, len(p.syn.BlockStart)),
			"unexpected `%s` tag", kw)
	}
	return &Template{Source: source, Path: path, Nodes: nodes}, nil
}

// parseNodes parses nodes until the end of input or a terminator tag,
// which is left unconsumed.
func (p *parser) parseNodes() ([]Node, *Error) {
	var nodes []Node
	for p.pos < len(p.src) {
		switch {
		case p.at(p.syn.CommentStart):
			c, err := p.parseComment()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, c)

		case p.at(p.syn.ExprStart):
			e, err := p.parseExprTag()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, e)

		case p.at(p.syn.BlockStart):
			kw := p.peekBlockKeyword()
			if terminators[kw] {
				return nodes, nil
			}
			n, err := p.parseBlockTag(kw)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)

		default:
			nodes = append(nodes, p.parseLit())
		}
	}
	return nodes, nil
}

// --- Literals and comments ---

func (p *parser) parseLit() *Lit {
	start := p.pos
	p.pos = p.nextOpener(start)
	lws, val, rws := SplitLit(p.src[start:p.pos])
	return &Lit{Lws: lws, Val: val, Rws: rws, span: syntax.MakeSpan(start, p.pos)}
}

// nextOpener returns the offset of the first opening delimiter at or after
// from, or the end of the source.
func (p *parser) nextOpener(from int) int {
	for i := from; i < len(p.src); i++ {
		j := strings.IndexAny(p.src[i:], p.openers)
		if j < 0 {
			break
		}
		i += j
		rest := p.src[i:]
		if strings.HasPrefix(rest, p.syn.BlockStart) ||
			strings.HasPrefix(rest, p.syn.ExprStart) ||
			strings.HasPrefix(rest, p.syn.CommentStart) {
			return i
		}
	}
	return len(p.src)
}

func (p *parser) parseComment() (*Comment, *Error) {
	start := p.pos
	open, close := p.syn.CommentStart, p.syn.CommentEnd
	p.pos += len(open)
	pws := p.leftMark()
	contentStart := p.pos

	depth := 0
	for i := p.pos; ; {
		o := strings.Index(p.src[i:], open)
		c := strings.Index(p.src[i:], close)
		switch {
		case c < 0:
			return nil, p.unclosed("comment", close, p.spanLen(start, len(open)))

		case o >= 0 && o <= c:
			if depth == math.MaxInt {
				return nil, p.errorf(ErrCommentDepth, "comment", p.spanLen(i+o, len(open)),
					"too deeply nested comments")
			}
			depth++
			i += o + len(open)

		case depth > 0:
			depth--
			i += c + len(close)

		default:
			content := p.src[contentStart : i+c]
			var nws *syntax.Whitespace
			if n := len(content); n > 0 {
				if ws, ok := syntax.WhitespaceFromMark(content[n-1]); ok {
					nws = &ws
					content = content[:n-1]
				}
			}
			p.pos = i + c + len(close)
			return &Comment{Ws: Ws{pws, nws}, Content: content, span: p.spanFrom(start)}, nil
		}
	}
}

// --- Expression tags ---

func (p *parser) parseExprTag() (*Expr, *Error) {
	start := p.pos
	p.pos += len(p.syn.ExprStart)
	pws := p.leftMark()

	ep := p.sub()
	e, err := ep.Expr()
	if err != nil {
		return nil, p.exprError(err, "expression")
	}
	p.pos = ep.Pos()

	nws := p.rightMark(p.syn.ExprEnd)
	if err := p.closeTag(p.syn.ExprEnd, "expression", start); err != nil {
		return nil, err
	}
	return &Expr{Ws: Ws{pws, nws}, Expr: e, span: p.spanFrom(start)}, nil
}

// --- Block tags ---

func (p *parser) parseBlockTag(kw string) (Node, *Error) {
	start := p.pos
	p.level++
	defer func() { p.level-- }()
	if p.level > expr.MaxDepth {
		return nil, p.errorf(ErrTooDeep, kw, p.spanLen(start, len(p.syn.BlockStart)), "%s", expr.ErrTooDeep)
	}

	p.pos += len(p.syn.BlockStart)
	pws := p.leftMark()
	if kw == "" {
		p.skipSpace()
		return nil, p.errorf(ErrUnknownTag, "", p.spanLen(start, len(p.syn.BlockStart)),
			"expected a tag keyword, found %s", p.found())
	}
	p.skipKeyword(kw)

	switch kw {
	case "call":
		return node(p.parseCall(start, pws))
	case "let", "set":
		return node(p.parseLet(start, pws))
	case "if":
		return node(p.parseIf(start, pws))
	case "for":
		return node(p.parseLoop(start, pws))
	case "match":
		return node(p.parseMatch(start, pws))
	case "extends":
		return node(p.parseExtends(start, pws))
	case "include":
		return node(p.parseInclude(start, pws))
	case "import":
		return node(p.parseImport(start, pws))
	case "block":
		return node(p.parseBlockDef(start, pws))
	case "macro":
		return node(p.parseMacro(start, pws))
	case "raw":
		return node(p.parseRaw(start, pws))
	case "break", "continue":
		return p.parseLoopControl(start, pws, kw)
	case "filter":
		return node(p.parseFilterBlock(start, pws))
	}
	return nil, p.errorf(ErrUnknownTag, kw, syntax.MakeSpan(start, p.pos), "unknown tag `%s`", kw)
}

// node converts the result of a construct parser, keeping a nil Node on
// error.
func node[T Node](n T, err *Error) (Node, *Error) {
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseCall(start int, pws *syntax.Whitespace) (*Call, *Error) {
	ep := p.sub()
	name, _, err := ep.Identifier()
	if err != nil {
		return nil, p.exprError(err, "call")
	}
	var scope string
	if ep.SkipToken("::") {
		scope = name
		if name, _, err = ep.Identifier(); err != nil {
			return nil, p.exprError(err, "call")
		}
	}
	var args []expr.CallArg
	if ep.Peek("(") {
		if args, err = ep.Arguments(); err != nil {
			return nil, p.exprError(err, "call")
		}
	}
	p.pos = ep.Pos()

	n := &Call{Scope: scope, Name: name, Args: args}
	n.Ws = Ws{pws, p.rightMark(p.syn.BlockEnd)}
	if err := p.finish(start, &n.span); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseLet(start int, pws *syntax.Whitespace) (*Let, *Error) {
	ep := p.sub()
	target, err := ep.Target()
	if err != nil {
		return nil, p.exprError(err, "let")
	}
	var value expr.Expr
	if ep.SkipToken("=") {
		if value, err = ep.Expr(); err != nil {
			return nil, p.exprError(err, "let")
		}
	}
	p.pos = ep.Pos()

	n := &Let{Target: target, Value: value}
	n.Ws = Ws{pws, p.rightMark(p.syn.BlockEnd)}
	if err := p.finish(start, &n.span); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseCondTest() (*CondTest, *Error) {
	ep := p.sub()
	test := &CondTest{}
	if ep.SkipKeyword("let") || ep.SkipKeyword("set") {
		target, err := ep.Target()
		if err != nil {
			return nil, p.exprError(err, "if")
		}
		if !ep.SkipToken("=") {
			p.pos = ep.Pos()
			return nil, p.expected("`=`", "if")
		}
		test.Target = target
	}
	e, err := ep.Expr()
	if err != nil {
		return nil, p.exprError(err, "if")
	}
	p.pos = ep.Pos()
	test.Expr = e
	return test, nil
}

func (p *parser) parseIf(start int, pws *syntax.Whitespace) (*If, *Error) {
	test, err := p.parseCondTest()
	if err != nil {
		return nil, err
	}
	nws := p.rightMark(p.syn.BlockEnd)
	if err := p.closeBlock(start); err != nil {
		return nil, err
	}
	body, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	n := &If{Branches: []*Cond{{
		Ws:    Ws{pws, nws},
		Test:  test,
		Nodes: body,
		span:  p.spanFrom(start),
	}}}

	sawElse := false
	for {
		condStart := p.pos
		kw, cpws, err := p.endTag("if", start, "elif", "else", "endif")
		if err != nil {
			return nil, err
		}
		if kw == "endif" {
			n.Ws = Ws{cpws, p.rightMark(p.syn.BlockEnd)}
			break
		}
		if sawElse {
			return nil, p.errorf(ErrUnexpectedTag, kw, syntax.MakeSpan(condStart, p.pos),
				"unexpected `%s` after `else` in `if` block", kw)
		}

		var test *CondTest
		if kw == "elif" || p.skipKeyword("if") {
			if test, err = p.parseCondTest(); err != nil {
				return nil, err
			}
		} else {
			sawElse = true
		}
		cnws := p.rightMark(p.syn.BlockEnd)
		if err := p.closeBlock(condStart); err != nil {
			return nil, err
		}
		nodes, err := p.parseNodes()
		if err != nil {
			return nil, err
		}
		n.Branches = append(n.Branches, &Cond{
			Ws:    Ws{cpws, cnws},
			Test:  test,
			Nodes: nodes,
			span:  p.spanFrom(condStart),
		})
	}

	if err := p.finish(start, &n.span); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseLoop(start int, pws *syntax.Whitespace) (*Loop, *Error) {
	ep := p.sub()
	target, err := ep.Target()
	if err != nil {
		return nil, p.exprError(err, "for")
	}
	if !ep.SkipKeyword("in") {
		p.pos = ep.Pos()
		return nil, p.expected("`in`", "for")
	}
	iter, err := ep.Expr()
	if err != nil {
		return nil, p.exprError(err, "for")
	}
	var cond expr.Expr
	if ep.SkipKeyword("if") {
		if cond, err = ep.Expr(); err != nil {
			return nil, p.exprError(err, "for")
		}
	}
	p.pos = ep.Pos()

	n := &Loop{Target: target, Iter: iter, Cond: cond}
	n.Ws1 = Ws{pws, p.rightMark(p.syn.BlockEnd)}
	if err := p.closeBlock(start); err != nil {
		return nil, err
	}

	outer := p.inLoop
	p.inLoop = true
	body, perr := p.parseNodes()
	p.inLoop = outer
	if perr != nil {
		return nil, perr
	}
	n.Body = body

	kw, pws2, perr := p.endTag("for", start, "else", "endfor")
	if perr != nil {
		return nil, perr
	}
	n.Ws2.Left = pws2
	if kw == "else" {
		elseStart := p.pos
		n.Ws2.Right = p.rightMark(p.syn.BlockEnd)
		if err := p.closeBlock(elseStart); err != nil {
			return nil, err
		}
		if n.ElseNodes, perr = p.parseNodes(); perr != nil {
			return nil, perr
		}
		if _, n.Ws3.Left, perr = p.endTag("for", start, "endfor"); perr != nil {
			return nil, perr
		}
	}
	n.Ws3.Right = p.rightMark(p.syn.BlockEnd)

	if err := p.finish(start, &n.span); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseMatch(start int, pws *syntax.Whitespace) (*Match, *Error) {
	ep := p.sub()
	scrutinee, err := ep.Expr()
	if err != nil {
		return nil, p.exprError(err, "match")
	}
	p.pos = ep.Pos()

	n := &Match{Expr: scrutinee}
	n.Ws1 = Ws{pws, p.rightMark(p.syn.BlockEnd)}
	if err := p.closeBlock(start); err != nil {
		return nil, err
	}
	if err := p.skipSpaceAndComments(); err != nil {
		return nil, err
	}

	for {
		armStart := p.pos
		want := []string{"when", "else", "endmatch"}
		if len(n.Arms) == 0 {
			want = want[:1]
		}
		kw, apws, err := p.endTag("match", start, want...)
		if err != nil {
			return nil, err
		}
		if kw == "endmatch" {
			n.Ws2 = Ws{apws, p.rightMark(p.syn.BlockEnd)}
			break
		}

		arm := &When{Ws: Ws{Left: apws}}
		if kw == "when" {
			ep := p.sub()
			if arm.Target, err = p.target(ep, "match"); err != nil {
				return nil, err
			}
			p.pos = ep.Pos()
		} else {
			arm.Target = expr.NewPlaceholder(syntax.MakeSpan(armStart, p.pos))
		}
		arm.Ws.Right = p.rightMark(p.syn.BlockEnd)
		if err := p.closeBlock(armStart); err != nil {
			return nil, err
		}
		if arm.Nodes, err = p.parseNodes(); err != nil {
			return nil, err
		}
		arm.span = p.spanFrom(armStart)
		n.Arms = append(n.Arms, arm)

		if kw == "else" {
			_, pws2, err := p.endTag("match", start, "endmatch")
			if err != nil {
				return nil, err
			}
			n.Ws2 = Ws{pws2, p.rightMark(p.syn.BlockEnd)}
			break
		}
	}

	if err := p.finish(start, &n.span); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseExtends(start int, pws *syntax.Whitespace) (*Extends, *Error) {
	ep := p.sub()
	path, _, err := ep.StringLit()
	if err != nil {
		return nil, p.exprError(err, "extends")
	}
	p.pos = ep.Pos()
	if nws := p.rightMark(p.syn.BlockEnd); pws != nil || nws != nil {
		return nil, p.errorf(ErrExtendsWhitespace, "extends", syntax.MakeSpan(start, p.pos),
			"whitespace control is not allowed on `extends`")
	}

	n := &Extends{Path: path}
	if err := p.finish(start, &n.span); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseInclude(start int, pws *syntax.Whitespace) (*Include, *Error) {
	ep := p.sub()
	path, _, err := ep.StringLit()
	if err != nil {
		return nil, p.exprError(err, "include")
	}
	p.pos = ep.Pos()

	n := &Include{Path: path}
	n.Ws = Ws{pws, p.rightMark(p.syn.BlockEnd)}
	if err := p.finish(start, &n.span); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseImport(start int, pws *syntax.Whitespace) (*Import, *Error) {
	ep := p.sub()
	path, _, err := ep.StringLit()
	if err != nil {
		return nil, p.exprError(err, "import")
	}
	if !ep.SkipKeyword("as") {
		p.pos = ep.Pos()
		return nil, p.expected("`as`", "import")
	}
	scope, _, err := ep.Identifier()
	if err != nil {
		return nil, p.exprError(err, "import")
	}
	p.pos = ep.Pos()

	n := &Import{Path: path, Scope: scope}
	n.Ws = Ws{pws, p.rightMark(p.syn.BlockEnd)}
	if err := p.finish(start, &n.span); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseBlockDef(start int, pws *syntax.Whitespace) (*BlockDef, *Error) {
	ep := p.sub()
	name, _, ierr := ep.Identifier()
	if ierr != nil {
		return nil, p.exprError(ierr, "block")
	}
	p.pos = ep.Pos()

	n := &BlockDef{Name: name}
	n.Ws1 = Ws{pws, p.rightMark(p.syn.BlockEnd)}
	if err := p.closeBlock(start); err != nil {
		return nil, err
	}
	nodes, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	n.Nodes = nodes

	_, pws2, err := p.endTag("block", start, "endblock")
	if err != nil {
		return nil, err
	}
	if err := p.checkEndName(name, "block"); err != nil {
		return nil, err
	}
	n.Ws2 = Ws{pws2, p.rightMark(p.syn.BlockEnd)}
	if err := p.finish(start, &n.span); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseMacro(start int, pws *syntax.Whitespace) (*Macro, *Error) {
	ep := p.sub()
	name, nameSpan, err := ep.Identifier()
	if err != nil {
		return nil, p.exprError(err, "macro")
	}
	if ident.IsReserved(name) {
		return nil, p.errorf(ErrReservedName, "macro", nameSpan, "'%s' is not a valid name for a macro", name)
	}

	var params []string
	if ep.SkipToken("(") {
		for !ep.SkipToken(")") {
			param, span, err := ep.Identifier()
			if err != nil {
				return nil, p.exprError(err, "macro")
			}
			if ident.IsReserved(param) {
				return nil, p.errorf(ErrReservedName, "macro", span,
					"'%s' is not a valid name for a macro parameter", param)
			}
			params = append(params, param)
			if !ep.SkipToken(",") {
				if !ep.SkipToken(")") {
					p.pos = ep.Pos()
					return nil, p.expected("`,` or `)`", "macro")
				}
				break
			}
		}
	}
	p.pos = ep.Pos()

	n := &Macro{Name: name, Params: params}
	n.Ws1 = Ws{pws, p.rightMark(p.syn.BlockEnd)}
	if err := p.closeBlock(start); err != nil {
		return nil, err
	}
	nodes, perr := p.parseNodes()
	if perr != nil {
		return nil, perr
	}
	n.Nodes = nodes

	_, pws2, perr := p.endTag("macro", start, "endmacro")
	if perr != nil {
		return nil, perr
	}
	if err := p.checkEndName(name, "macro"); err != nil {
		return nil, err
	}
	n.Ws2 = Ws{pws2, p.rightMark(p.syn.BlockEnd)}
	if err := p.finish(start, &n.span); err != nil {
		return nil, err
	}
	return n, nil
}

// checkEndName consumes the optional name written after an end tag.
func (p *parser) checkEndName(name, kind string) *Error {
	ep := p.sub()
	if ep.PeekIdent() == "" {
		return nil
	}
	end, span, _ := ep.Identifier()
	p.pos = ep.Pos()
	if end == name {
		return nil
	}
	return p.errorf(ErrNameMismatch, kind, span,
		"expected name `%s` in `end%s` tag, found `%s`", name, kind, end)
}

func (p *parser) parseRaw(start int, pws *syntax.Whitespace) (*Raw, *Error) {
	n := &Raw{}
	n.Ws1 = Ws{pws, p.rightMark(p.syn.BlockEnd)}
	if err := p.closeBlock(start); err != nil {
		return nil, err
	}

	bodyStart := p.pos
	for i := bodyStart; ; i++ {
		j := strings.Index(p.src[i:], p.syn.BlockStart)
		if j < 0 {
			return nil, p.unclosed("raw", p.endTagText("endraw"), p.spanLen(start, len(p.syn.BlockStart)))
		}
		i += j
		p.pos = i + len(p.syn.BlockStart)
		pws2 := p.leftMark()
		if !p.skipKeyword("endraw") {
			continue
		}
		nws2 := p.rightMark(p.syn.BlockEnd)
		if !p.at(p.syn.BlockEnd) {
			continue
		}

		lws, val, rws := SplitLit(p.src[bodyStart:i])
		n.Lit = &Lit{Lws: lws, Val: val, Rws: rws, span: syntax.MakeSpan(bodyStart, i)}
		n.Ws2 = Ws{pws2, nws2}
		if err := p.finish(start, &n.span); err != nil {
			return nil, err
		}
		return n, nil
	}
}

func (p *parser) parseLoopControl(start int, pws *syntax.Whitespace, kw string) (Node, *Error) {
	ws := Ws{pws, p.rightMark(p.syn.BlockEnd)}
	if !p.inLoop {
		return nil, p.errorf(ErrLoopContext, kw, syntax.MakeSpan(start, p.pos),
			"you can only `%s` inside a `for` loop", kw)
	}
	if err := p.closeBlock(start); err != nil {
		return nil, err
	}
	if kw == "break" {
		return &Break{Ws: ws, span: p.spanFrom(start)}, nil
	}
	return &Continue{Ws: ws, span: p.spanFrom(start)}, nil
}

func (p *parser) parseFilterBlock(start int, pws *syntax.Whitespace) (*FilterBlock, *Error) {
	ep := p.sub()
	var filter expr.Expr = expr.NewFilterSource(syntax.MakeSpan(start, start))
	first := -1
	for {
		name, span, err := ep.Identifier()
		if err != nil {
			return nil, p.exprError(err, "filter")
		}
		if first < 0 {
			first = int(span.StartOffset)
		}
		args := []expr.CallArg{{Kind: expr.CallArgPos, Value: filter}}
		if ep.Peek("(") {
			more, err := ep.Arguments()
			if err != nil {
				return nil, p.exprError(err, "filter")
			}
			args = append(args, more...)
		}
		filter = expr.NewFilter(name, args, syntax.MakeSpan(first, ep.Pos()))
		if !ep.SkipToken("|") {
			break
		}
	}
	p.pos = ep.Pos()

	n := &FilterBlock{Filters: filter.(*expr.Filter)}
	n.Ws1 = Ws{pws, p.rightMark(p.syn.BlockEnd)}
	if err := p.closeBlock(start); err != nil {
		return nil, err
	}
	nodes, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	n.Nodes = nodes

	_, pws2, err := p.endTag("filter", start, "endfilter")
	if err != nil {
		return nil, err
	}
	n.Ws2 = Ws{pws2, p.rightMark(p.syn.BlockEnd)}
	if err := p.finish(start, &n.span); err != nil {
		return nil, err
	}
	return n, nil
}

// --- Helpers ---

func (p *parser) sub() *expr.Parser {
	return expr.NewParser(p.src, p.pos, p.level)
}

func (p *parser) target(ep *expr.Parser, construct string) (expr.Target, *Error) {
	t, err := ep.Target()
	if err != nil {
		return nil, p.exprError(err, construct)
	}
	return t, nil
}

func (p *parser) at(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *parser) skipSpaceAndComments() *Error {
	for {
		p.skipSpace()
		if !p.at(p.syn.CommentStart) {
			return nil
		}
		if _, err := p.parseComment(); err != nil {
			return err
		}
	}
}

func (p *parser) skipKeyword(kw string) bool {
	ep := p.sub()
	if !ep.SkipKeyword(kw) {
		return false
	}
	p.pos = ep.Pos()
	return true
}

// peekBlockKeyword returns the keyword of the block tag starting at the
// current offset.
func (p *parser) peekBlockKeyword() string {
	i := p.pos + len(p.syn.BlockStart)
	if i < len(p.src) {
		if _, ok := syntax.WhitespaceFromMark(p.src[i]); ok {
			i++
		}
	}
	return expr.NewParser(p.src, i, p.level).PeekIdent()
}

// leftMark consumes a whitespace mark directly after an opening delimiter.
func (p *parser) leftMark() *syntax.Whitespace {
	if p.pos < len(p.src) {
		if ws, ok := syntax.WhitespaceFromMark(p.src[p.pos]); ok {
			p.pos++
			return &ws
		}
	}
	return nil
}

// rightMark consumes a whitespace mark directly followed by delim.
func (p *parser) rightMark(delim string) *syntax.Whitespace {
	p.skipSpace()
	if p.pos+1 < len(p.src) && strings.HasPrefix(p.src[p.pos+1:], delim) {
		if ws, ok := syntax.WhitespaceFromMark(p.src[p.pos]); ok {
			p.pos++
			return &ws
		}
	}
	return nil
}

func (p *parser) closeTag(delim, construct string, start int) *Error {
	p.skipSpace()
	if p.at(delim) {
		p.pos += len(delim)
		return nil
	}
	if p.pos >= len(p.src) {
		opener := p.syn.BlockStart
		if delim == p.syn.ExprEnd {
			opener = p.syn.ExprStart
		}
		return p.unclosed(construct, delim, p.spanLen(start, len(opener)))
	}
	return p.expected(fmt.Sprintf("%q", delim), construct)
}

func (p *parser) closeBlock(start int) *Error {
	return p.closeTag(p.syn.BlockEnd, "block", start)
}

// finish closes the last tag of a block construct and records its span.
func (p *parser) finish(start int, span *Span) *Error {
	if err := p.closeBlock(start); err != nil {
		return err
	}
	*span = p.spanFrom(start)
	return nil
}

// endTag consumes the opening of the tag that ends a body of construct,
// through its keyword, which must be one of want. The last keyword in want
// is the one named in the error when the body is not closed.
func (p *parser) endTag(construct string, start int, want ...string) (string, *syntax.Whitespace, *Error) {
	if p.at(p.syn.BlockStart) {
		if kw := p.peekBlockKeyword(); slices.Contains(want, kw) {
			p.pos += len(p.syn.BlockStart)
			pws := p.leftMark()
			p.skipKeyword(kw)
			return kw, pws, nil
		}
	}
	missing := p.endTagText(want[len(want)-1])
	return "", nil, p.unclosed(construct, missing, p.spanLen(start, len(p.syn.BlockStart)))
}

func (p *parser) endTagText(kw string) string {
	return p.syn.BlockStart + " " + kw + " " + p.syn.BlockEnd
}

func (p *parser) spanFrom(start int) Span {
	return syntax.MakeSpan(start, p.pos)
}

func (p *parser) spanLen(start, n int) Span {
	return syntax.MakeSpan(start, min(start+n, len(p.src)))
}

// found describes the text at the current offset for error messages.
func (p *parser) found() string {
	if p.pos >= len(p.src) {
		return "end of input"
	}
	rest := p.src[p.pos:]
	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end < 0 {
		end = len(rest)
	}
	if n := utf8.RuneCountInString(rest[:end]); n > 12 {
		end = len(string([]rune(rest[:end])[:12]))
	}
	return fmt.Sprintf("%q", rest[:end])
}

// --- Errors ---

func (p *parser) errorf(kind ErrorKind, construct string, span Span, format string, args ...any) *Error {
	return &Error{
		Kind:      kind,
		Construct: construct,
		Detail:    fmt.Sprintf(format, args...),
		Path:      p.path,
		Source:    p.src,
		Span:      span,
	}
}

func (p *parser) unclosed(construct, missing string, span Span) *Error {
	return p.errorf(ErrUnclosed, construct, span, "unclosed %s, missing %q", construct, missing)
}

func (p *parser) expected(what, construct string) *Error {
	p.skipSpace()
	return p.errorf(ErrSyntax, construct, p.spanLen(p.pos, 1), "expected %s, found %s", what, p.found())
}

func (p *parser) exprError(err error, construct string) *Error {
	kind := ErrSyntax
	if errors.Is(err, expr.ErrTooDeep) {
		kind = ErrTooDeep
	}
	span := syntax.MakeSpan(p.pos, p.pos)
	var eerr *expr.Error
	if errors.As(err, &eerr) {
		span = eerr.Span
	}
	e := p.errorf(kind, construct, span, "%s", err)
	e.Err = err
	return e
}

func trimLeftSpace(s string) string {
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}

func trimRightSpace(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
