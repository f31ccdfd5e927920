package expr

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/tmplc/tmplc/lexer"
)

// Target parses a binding pattern, including `|` alternatives.
func (p *Parser) Target() (Target, error) {
	t, err := p.parseTarget()
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Parser) parseTarget() (Target, *Error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	start := p.startOf()
	first, err := p.parseSingleTarget()
	if err != nil {
		return nil, err
	}
	if !p.matches(lexer.TokenPipe) {
		return first, nil
	}
	alts := []Target{first}
	for p.skip(lexer.TokenPipe) {
		alt, err := p.parseSingleTarget()
		if err != nil {
			return nil, p.fatal(err)
		}
		alts = append(alts, alt)
	}
	return &OrTarget{Alts: alts, span: p.spanFrom(start)}, nil
}

func (p *Parser) parseSingleTarget() (Target, *Error) {
	tok := p.peek()
	start := int(tok.Span.StartOffset)

	switch tok.Type {
	case lexer.TokenParenOpen:
		p.advance()
		elems, trailingComma, err := p.parseTargetList(lexer.TokenParenClose, "`)`")
		if err != nil {
			return nil, err
		}
		if len(elems) == 1 && !trailingComma {
			if _, isRest := elems[0].(*Rest); !isRest {
				return elems[0], nil
			}
		}
		return &TupleTarget{Elems: elems, span: p.spanFrom(start)}, nil

	case lexer.TokenBracketOpen:
		p.advance()
		elems, _, err := p.parseTargetList(lexer.TokenBracketClose, "`]`")
		if err != nil {
			return nil, err
		}
		return &ArrayTarget{Elems: elems, span: p.spanFrom(start)}, nil

	case lexer.TokenDotDot:
		p.advance()
		return &Rest{span: tok.Span}, nil

	case lexer.TokenString:
		p.advance()
		return &LitTarget{Value: tok.Value, span: tok.Span}, nil

	case lexer.TokenInteger, lexer.TokenInt128:
		p.advance()
		return &LitTarget{Value: intValue(tok), span: tok.Span}, nil

	case lexer.TokenFloat:
		p.advance()
		val, _ := strconv.ParseFloat(tok.Value, 64)
		return &LitTarget{Value: val, span: tok.Span}, nil

	case lexer.TokenMinus:
		p.advance()
		num := p.peek()
		switch num.Type {
		case lexer.TokenInteger, lexer.TokenInt128:
			p.advance()
			var v any
			switch n := intValue(num).(type) {
			case int64:
				v = -n
			case *BigInt:
				n.Neg(n.Int)
				v = n
			}
			return &LitTarget{Value: v, span: p.spanFrom(start)}, nil
		case lexer.TokenFloat:
			p.advance()
			val, _ := strconv.ParseFloat(num.Value, 64)
			return &LitTarget{Value: -val, span: p.spanFrom(start)}, nil
		}
		return nil, p.fatal(p.unexpected(num, "number"))

	case lexer.TokenIdent:
		return p.parseNamedTarget()
	}
	return nil, p.unexpected(tok, "pattern")
}

// parseTargetList parses comma separated patterns up to and including end.
func (p *Parser) parseTargetList(end lexer.TokenType, endDesc string) ([]Target, bool, *Error) {
	var elems []Target
	trailingComma := false
	for {
		if p.skip(end) {
			return elems, trailingComma, nil
		}
		if len(elems) > 0 {
			if _, err := p.expect(lexer.TokenComma, "`,` or "+endDesc); err != nil {
				return nil, false, err
			}
			trailingComma = true
			if p.skip(end) {
				return elems, trailingComma, nil
			}
		}
		trailingComma = false
		elem, err := p.parseTarget()
		if err != nil {
			return nil, false, p.fatal(err)
		}
		elems = append(elems, elem)
	}
}

func (p *Parser) parseNamedTarget() (Target, *Error) {
	tok := p.advance()
	start := int(tok.Span.StartOffset)

	switch tok.Value {
	case "_":
		return &Placeholder{span: tok.Span}, nil
	case "true", "True":
		return &LitTarget{Value: true, span: tok.Span}, nil
	case "false", "False":
		return &LitTarget{Value: false, span: tok.Span}, nil
	}

	path := []string{tok.Value}
	for p.skip(lexer.TokenPathSep) {
		seg, err := p.expectIdent("path segment")
		if err != nil {
			return nil, err
		}
		path = append(path, seg.Value)
	}

	switch {
	case p.skip(lexer.TokenParenOpen):
		elems, _, err := p.parseTargetList(lexer.TokenParenClose, "`)`")
		if err != nil {
			return nil, err
		}
		return &TupleTarget{Path: path, Elems: elems, span: p.spanFrom(start)}, nil

	case p.skip(lexer.TokenBraceOpen):
		fields, err := p.parseFieldTargets()
		if err != nil {
			return nil, err
		}
		return &StructTarget{Path: path, Fields: fields, span: p.spanFrom(start)}, nil
	}

	if len(path) > 1 || startsUpper(tok.Value) {
		return &PathTarget{Segments: path, span: p.spanFrom(start)}, nil
	}
	return &Name{Name: tok.Value, span: tok.Span}, nil
}

func (p *Parser) parseFieldTargets() ([]FieldTarget, *Error) {
	var fields []FieldTarget
	for {
		if p.skip(lexer.TokenBraceClose) {
			return fields, nil
		}
		if len(fields) > 0 {
			if _, err := p.expect(lexer.TokenComma, "`,` or `}`"); err != nil {
				return nil, err
			}
			if p.skip(lexer.TokenBraceClose) {
				return fields, nil
			}
		}
		if rest := p.peek(); rest.Type == lexer.TokenDotDot {
			p.advance()
			fields = append(fields, FieldTarget{Target: &Rest{span: rest.Span}})
			continue
		}
		name, err := p.expectIdent("field name")
		if err != nil {
			return nil, err
		}
		if !p.skip(lexer.TokenColon) {
			fields = append(fields, FieldTarget{Name: name.Value, Target: &Name{Name: name.Value, span: name.Span}})
			continue
		}
		t, err := p.parseTarget()
		if err != nil {
			return nil, p.fatal(err)
		}
		fields = append(fields, FieldTarget{Name: name.Value, Target: t})
	}
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
