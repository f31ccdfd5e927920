package expr

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/tmplc/tmplc/lexer"
	"github.com/tmplc/tmplc/syntax"
)

// MaxDepth bounds the nesting of expressions and block tags.
const MaxDepth = 128

// ErrTooDeep is wrapped by errors caused by exceeding MaxDepth.
var ErrTooDeep = errors.New("template exceeds maximum recursion limits")

// Error represents an expression parse error.
//
// A non-fatal error means nothing matched at Span: callers may backtrack
// and try another interpretation. Fatal errors are reported as they are.
type Error struct {
	Msg   string
	Span  Span
	Fatal bool
	Err   error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Parser parses expressions starting at an offset inside a source text.
// After a successful call Pos reports the offset right after the last
// consumed token; trailing whitespace is left to the caller.
type Parser struct {
	scan   *lexer.Scanner
	level  int
	lexErr error
}

// NewParser returns a parser positioned at pos. level is the nesting depth
// already used by the caller.
func NewParser(source string, pos, level int) *Parser {
	return &Parser{scan: lexer.New(source, pos), level: level}
}

// Pos returns the current offset.
func (p *Parser) Pos() int {
	return p.scan.Pos()
}

// Expr parses an expression.
func (p *Parser) Expr() (Expr, error) {
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Arguments parses a parenthesized argument list.
func (p *Parser) Arguments() ([]CallArg, error) {
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	return args, nil
}

// Identifier parses a single identifier.
func (p *Parser) Identifier() (string, Span, error) {
	tok := p.peek()
	if tok.Type != lexer.TokenIdent {
		return "", tok.Span, p.unexpected(tok, "identifier")
	}
	p.advance()
	return tok.Value, tok.Span, nil
}

// StringLit parses a string literal and returns its unescaped value.
func (p *Parser) StringLit() (string, Span, error) {
	tok := p.peek()
	if tok.Type != lexer.TokenString {
		return "", tok.Span, p.unexpected(tok, "string literal")
	}
	p.advance()
	return tok.Value, tok.Span, nil
}

// PeekIdent returns the next identifier without consuming it, or "".
func (p *Parser) PeekIdent() string {
	tok := p.peek()
	if tok.Type != lexer.TokenIdent {
		return ""
	}
	return tok.Value
}

// SkipKeyword consumes kw if it is the next token.
func (p *Parser) SkipKeyword(kw string) bool {
	return p.skipKeyword(kw)
}

// SkipToken consumes the next token if its text is s, for punctuation such
// as "=", "::" and ",".
func (p *Parser) SkipToken(s string) bool {
	tok := p.peek()
	if tok.Type == lexer.TokenInvalid || tok.Type == lexer.TokenEOF || tok.Value != s {
		return false
	}
	switch tok.Type {
	case lexer.TokenIdent, lexer.TokenString, lexer.TokenInteger, lexer.TokenInt128, lexer.TokenFloat:
		return false
	}
	p.advance()
	return true
}

// Peek reports whether the next token is the punctuation s.
func (p *Parser) Peek(s string) bool {
	mark := p.Pos()
	ok := p.SkipToken(s)
	p.scan.Reset(mark)
	return ok
}

// --- token helpers ---

func (p *Parser) peek() lexer.Token {
	tok, err := p.scan.Peek()
	p.lexErr = err
	if err != nil {
		return lexer.Token{Type: lexer.TokenInvalid, Span: syntax.MakeSpan(p.Pos(), p.Pos())}
	}
	return tok
}

func (p *Parser) advance() lexer.Token {
	tok, _ := p.scan.Next()
	return tok
}

func (p *Parser) matches(typ lexer.TokenType) bool {
	return p.peek().Type == typ
}

func (p *Parser) skip(typ lexer.TokenType) bool {
	if p.matches(typ) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchesKeyword(kw string) bool {
	return p.peek().Is(kw)
}

func (p *Parser) skipKeyword(kw string) bool {
	if p.matchesKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(typ lexer.TokenType, expected string) (lexer.Token, *Error) {
	tok := p.peek()
	if tok.Type != typ {
		return tok, p.fatal(p.unexpected(tok, expected))
	}
	p.advance()
	return tok, nil
}

func (p *Parser) expectIdent(expected string) (lexer.Token, *Error) {
	return p.expect(lexer.TokenIdent, expected)
}

func (p *Parser) mark() int {
	return p.scan.Pos()
}

func (p *Parser) reset(pos int) {
	p.scan.Reset(pos)
}

func (p *Parser) spanFrom(start int) Span {
	return syntax.MakeSpan(start, p.Pos())
}

// startOf returns the offset where the next token begins.
func (p *Parser) startOf() int {
	return int(p.peek().Span.StartOffset)
}

func (p *Parser) unexpected(tok lexer.Token, expected string) *Error {
	if p.lexErr != nil {
		var lerr *lexer.Error
		span := tok.Span
		if errors.As(p.lexErr, &lerr) {
			span = syntax.MakeSpan(lerr.Offset, lerr.Offset+1)
			return &Error{Msg: lerr.Msg, Span: span, Fatal: true, Err: p.lexErr}
		}
		return &Error{Msg: p.lexErr.Error(), Span: span, Fatal: true, Err: p.lexErr}
	}
	return &Error{
		Msg:  fmt.Sprintf("expected %s, found %s", expected, tokenDescription(tok)),
		Span: tok.Span,
	}
}

func (p *Parser) fatal(err *Error) *Error {
	err.Fatal = true
	return err
}

func (p *Parser) enter() *Error {
	p.level++
	if p.level > MaxDepth {
		return &Error{Msg: ErrTooDeep.Error(), Span: syntax.MakeSpan(p.Pos(), p.Pos()), Fatal: true, Err: ErrTooDeep}
	}
	return nil
}

func (p *Parser) leave() {
	p.level--
}

func tokenDescription(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokenIdent:
		return fmt.Sprintf("`%s`", tok.Value)
	case lexer.TokenString:
		return "string"
	case lexer.TokenInteger, lexer.TokenInt128:
		return "integer"
	case lexer.TokenFloat:
		return "float"
	case lexer.TokenEOF:
		return "end of input"
	case lexer.TokenInvalid:
		return "unexpected character"
	default:
		return fmt.Sprintf("`%s`", tok.Value)
	}
}

// --- Expression Parsing ---

func (p *Parser) parseExpr() (Expr, *Error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	return p.parseRange()
}

// binary parses `operand (op operand)*` where match consumes an operator.
// An operator whose right operand does not even start is given back: the
// text may be a whitespace mark or the start of a closing delimiter.
func (p *Parser) binary(operand func() (Expr, *Error), match func() (BinOpKind, bool)) (Expr, *Error) {
	start := p.startOf()
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		before := p.mark()
		op, ok := match()
		if !ok {
			return left, nil
		}
		right, err := operand()
		if err != nil {
			if err.Fatal {
				return nil, err
			}
			p.reset(before)
			return left, nil
		}
		left = &BinOp{Op: op, Left: left, Right: right, span: p.spanFrom(start)}
	}
}

func (p *Parser) parseRange() (Expr, *Error) {
	start := p.startOf()
	var left Expr
	if !p.matches(lexer.TokenDotDot) {
		var err *Error
		left, err = p.parseOr()
		if err != nil {
			return nil, err
		}
	}
	if !p.skip(lexer.TokenDotDot) {
		return left, nil
	}
	inclusive := p.skip(lexer.TokenAssign)
	afterOp := p.mark()
	right, err := p.parseOr()
	if err != nil {
		if err.Fatal || inclusive {
			return nil, p.fatal(err)
		}
		// Open ended range.
		p.reset(afterOp)
		right = nil
	}
	return &Range{Start: left, End: right, Inclusive: inclusive, span: p.spanFrom(start)}, nil
}

func (p *Parser) parseOr() (Expr, *Error) {
	return p.binary(p.parseAnd, func() (BinOpKind, bool) {
		return BinOpScOr, p.skipKeyword("or")
	})
}

func (p *Parser) parseAnd() (Expr, *Error) {
	return p.binary(p.parseNot, func() (BinOpKind, bool) {
		return BinOpScAnd, p.skipKeyword("and")
	})
}

func (p *Parser) parseNot() (Expr, *Error) {
	start := p.startOf()
	if p.skipKeyword("not") {
		expr, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: UnaryNot, Expr: expr, span: p.spanFrom(start)}, nil
	}
	return p.parseCompare()
}

func (p *Parser) parseCompare() (Expr, *Error) {
	start := p.startOf()
	expr, err := p.parseMath1()
	if err != nil {
		return nil, err
	}

	for {
		before := p.mark()
		var op BinOpKind
		negated := false

		tok := p.peek()
		switch tok.Type {
		case lexer.TokenEq:
			op = BinOpEq
		case lexer.TokenNe:
			op = BinOpNe
		case lexer.TokenLt:
			op = BinOpLt
		case lexer.TokenLe:
			op = BinOpLte
		case lexer.TokenGt:
			op = BinOpGt
		case lexer.TokenGe:
			op = BinOpGte
		case lexer.TokenIdent:
			switch tok.Value {
			case "in":
				op = BinOpIn
			case "not":
				p.advance()
				if !p.matchesKeyword("in") {
					p.reset(before)
					return expr, nil
				}
				op = BinOpIn
				negated = true
			default:
				return expr, nil
			}
		default:
			return expr, nil
		}
		p.advance()

		right, err := p.parseMath1()
		if err != nil {
			if err.Fatal {
				return nil, err
			}
			p.reset(before)
			return expr, nil
		}
		expr = &BinOp{Op: op, Left: expr, Right: right, span: p.spanFrom(start)}
		if negated {
			expr = &UnaryOp{Op: UnaryNot, Expr: expr, span: p.spanFrom(start)}
		}
	}
}

func (p *Parser) parseMath1() (Expr, *Error) {
	return p.binary(p.parseConcat, func() (BinOpKind, bool) {
		switch {
		case p.skip(lexer.TokenPlus):
			return BinOpAdd, true
		case p.skip(lexer.TokenMinus):
			return BinOpSub, true
		}
		return 0, false
	})
}

func (p *Parser) parseConcat() (Expr, *Error) {
	return p.binary(p.parseMath2, func() (BinOpKind, bool) {
		return BinOpConcat, p.skip(lexer.TokenTilde)
	})
}

func (p *Parser) parseMath2() (Expr, *Error) {
	return p.binary(p.parsePow, func() (BinOpKind, bool) {
		switch {
		case p.skip(lexer.TokenMul):
			return BinOpMul, true
		case p.skip(lexer.TokenDiv):
			return BinOpDiv, true
		case p.skip(lexer.TokenFloorDiv):
			return BinOpFloorDiv, true
		case p.skip(lexer.TokenMod):
			return BinOpRem, true
		}
		return 0, false
	})
}

func (p *Parser) parsePow() (Expr, *Error) {
	return p.binary(p.parseUnary, func() (BinOpKind, bool) {
		return BinOpPow, p.skip(lexer.TokenPow)
	})
}

func (p *Parser) parseUnary() (Expr, *Error) {
	start := p.startOf()
	expr, err := p.parseUnaryOnly()
	if err != nil {
		return nil, err
	}
	expr, err = p.parsePostfix(expr, start)
	if err != nil {
		return nil, err
	}
	return p.parseFilterExpr(expr, start)
}

func (p *Parser) parseUnaryOnly() (Expr, *Error) {
	start := p.startOf()
	if p.skip(lexer.TokenMinus) {
		expr, err := p.parseUnaryOnly()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: UnaryNeg, Expr: expr, span: p.spanFrom(start)}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePostfix(expr Expr, start int) (Expr, *Error) {
	for {
		switch {
		case p.skip(lexer.TokenDot):
			tok := p.peek()
			if tok.Type != lexer.TokenIdent && tok.Type != lexer.TokenInteger {
				return nil, p.fatal(p.unexpected(tok, "identifier"))
			}
			p.advance()
			expr = &GetAttr{Expr: expr, Name: tok.Value, span: p.spanFrom(start)}

		case p.skip(lexer.TokenBracketOpen):
			var begin, stop, step Expr
			var isSlice bool
			var err *Error

			if !p.matches(lexer.TokenColon) && !p.matches(lexer.TokenPathSep) {
				begin, err = p.parseCommitted()
				if err != nil {
					return nil, err
				}
			}
			if p.skip(lexer.TokenPathSep) {
				// `x[a::step]` lexes the two colons as one token
				isSlice = true
				if !p.matches(lexer.TokenBracketClose) {
					step, err = p.parseCommitted()
					if err != nil {
						return nil, err
					}
				}
			} else if p.skip(lexer.TokenColon) {
				isSlice = true
				if !p.matches(lexer.TokenBracketClose) && !p.matches(lexer.TokenColon) {
					stop, err = p.parseCommitted()
					if err != nil {
						return nil, err
					}
				}
				if p.skip(lexer.TokenColon) && !p.matches(lexer.TokenBracketClose) {
					step, err = p.parseCommitted()
					if err != nil {
						return nil, err
					}
				}
			}
			if _, err := p.expect(lexer.TokenBracketClose, "`]`"); err != nil {
				return nil, err
			}

			if !isSlice {
				expr = &GetItem{Expr: expr, SubscriptExpr: begin, span: p.spanFrom(start)}
			} else {
				expr = &Slice{Expr: expr, Start: begin, Stop: stop, Step: step, span: p.spanFrom(start)}
			}

		case p.matches(lexer.TokenParenOpen):
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			expr = &Call{Expr: expr, Args: args, span: p.spanFrom(start)}

		default:
			return expr, nil
		}
	}
}

// parseCommitted parses an expression after an opening bracket, where
// nothing else may follow.
func (p *Parser) parseCommitted() (Expr, *Error) {
	e, err := p.parseExpr()
	if err != nil {
		return nil, p.fatal(err)
	}
	return e, nil
}

func (p *Parser) parseFilterExpr(expr Expr, start int) (Expr, *Error) {
	for {
		switch {
		case p.skip(lexer.TokenPipe):
			name, err := p.expectIdent("filter name")
			if err != nil {
				return nil, err
			}
			args := []CallArg{{Kind: CallArgPos, Value: expr}}
			if p.matches(lexer.TokenParenOpen) {
				more, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				args = append(args, more...)
			}
			expr = &Filter{Name: name.Value, Args: args, span: p.spanFrom(start)}

		case p.skipKeyword("is"):
			negated := p.skipKeyword("not")
			name, err := p.expectIdent("test name")
			if err != nil {
				return nil, err
			}
			var args []CallArg
			if p.matches(lexer.TokenParenOpen) {
				args, err = p.parseArgs()
				if err != nil {
					return nil, err
				}
			} else if p.startsTestArg() {
				before := p.mark()
				argStart := p.startOf()
				arg, err := p.parsePrimary()
				if err == nil {
					arg, err = p.parsePostfix(arg, argStart)
				}
				switch {
				case err == nil:
					args = []CallArg{{Kind: CallArgPos, Value: arg}}
				case err.Fatal:
					return nil, err
				default:
					p.reset(before)
				}
			}
			expr = &Test{Name: name.Value, Expr: expr, Args: args, span: p.spanFrom(start)}
			if negated {
				expr = &UnaryOp{Op: UnaryNot, Expr: expr, span: p.spanFrom(start)}
			}

		default:
			return expr, nil
		}
	}
}

// startsTestArg reports whether the next token can be the single unparenthesized
// argument of a test, as in `x is divisibleby 3`.
func (p *Parser) startsTestArg() bool {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenString, lexer.TokenInteger, lexer.TokenInt128, lexer.TokenFloat,
		lexer.TokenBracketOpen, lexer.TokenBraceOpen:
		return true
	case lexer.TokenIdent:
		switch tok.Value {
		case "and", "or", "else", "is", "if", "in", "not":
			return false
		}
		return true
	}
	return false
}

func (p *Parser) parseArgs() ([]CallArg, *Error) {
	var args []CallArg
	hasKwargs := false

	if _, err := p.expect(lexer.TokenParenOpen, "`(`"); err != nil {
		return nil, err
	}

	for {
		if p.skip(lexer.TokenParenClose) {
			break
		}
		if len(args) > 0 {
			if _, err := p.expect(lexer.TokenComma, "`,`"); err != nil {
				return nil, err
			}
			if p.skip(lexer.TokenParenClose) {
				break
			}
		}

		kind := CallArgPos
		if p.skip(lexer.TokenPow) {
			kind = CallArgKwargSplat
		} else if p.skip(lexer.TokenMul) {
			kind = CallArgPosSplat
		}

		expr, err := p.parseCommitted()
		if err != nil {
			return nil, err
		}

		switch kind {
		case CallArgPos:
			if v, ok := expr.(*Var); ok && p.skip(lexer.TokenAssign) {
				hasKwargs = true
				value, err := p.parseCommitted()
				if err != nil {
					return nil, err
				}
				args = append(args, CallArg{Kind: CallArgKwarg, Name: v.Name, Value: value})
			} else if hasKwargs {
				return nil, &Error{Msg: "non-keyword arg after keyword arg", Span: expr.Span(), Fatal: true}
			} else {
				args = append(args, CallArg{Kind: CallArgPos, Value: expr})
			}
		case CallArgKwargSplat:
			hasKwargs = true
			fallthrough
		default:
			args = append(args, CallArg{Kind: kind, Value: expr})
		}

		if len(args) > 2000 {
			return nil, &Error{Msg: "too many arguments in function call", Span: expr.Span(), Fatal: true}
		}
	}

	return args, nil
}

func (p *Parser) parsePrimary() (Expr, *Error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.peek()
	span := tok.Span
	start := int(span.StartOffset)

	switch tok.Type {
	case lexer.TokenIdent:
		p.advance()
		switch tok.Value {
		case "true", "True":
			return &Const{Value: true, span: span}, nil
		case "false", "False":
			return &Const{Value: false, span: span}, nil
		case "none", "None":
			return &Const{Value: nil, span: span}, nil
		}
		if !p.matches(lexer.TokenPathSep) {
			return &Var{Name: tok.Value, span: span}, nil
		}
		segments := []string{tok.Value}
		for p.skip(lexer.TokenPathSep) {
			seg, err := p.expectIdent("path segment")
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg.Value)
		}
		return &Path{Segments: segments, span: p.spanFrom(start)}, nil

	case lexer.TokenString:
		p.advance()
		val := tok.Value
		for p.matches(lexer.TokenString) {
			val += p.advance().Value
		}
		return &Const{Value: val, span: p.spanFrom(start)}, nil

	case lexer.TokenInteger, lexer.TokenInt128:
		p.advance()
		return &Const{Value: intValue(tok), span: span}, nil

	case lexer.TokenFloat:
		p.advance()
		val, _ := strconv.ParseFloat(tok.Value, 64)
		return &Const{Value: val, span: span}, nil

	case lexer.TokenParenOpen:
		p.advance()
		return p.parseTupleOrExpr(start)

	case lexer.TokenBracketOpen:
		p.advance()
		return p.parseListExpr(start)

	case lexer.TokenBraceOpen:
		p.advance()
		return p.parseMapExpr(start)
	}
	return nil, p.unexpected(tok, "expression")
}

// intValue returns an int64 when the literal fits and a BigInt otherwise.
func intValue(tok lexer.Token) any {
	if tok.Type == lexer.TokenInteger {
		if val, err := strconv.ParseInt(tok.Value, 10, 64); err == nil {
			return val
		}
	}
	bi, _ := new(big.Int).SetString(tok.Value, 10)
	return &BigInt{bi}
}

func (p *Parser) parseTupleOrExpr(start int) (Expr, *Error) {
	if p.skip(lexer.TokenParenClose) {
		return &Tuple{span: p.spanFrom(start)}, nil
	}

	expr, err := p.parseCommitted()
	if err != nil {
		return nil, err
	}

	if !p.matches(lexer.TokenComma) {
		if _, err := p.expect(lexer.TokenParenClose, "`)`"); err != nil {
			return nil, err
		}
		return expr, nil
	}

	items := []Expr{expr}
	for {
		if p.skip(lexer.TokenParenClose) {
			break
		}
		if _, err := p.expect(lexer.TokenComma, "`,`"); err != nil {
			return nil, err
		}
		if p.skip(lexer.TokenParenClose) {
			break
		}
		item, err := p.parseCommitted()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &Tuple{Items: items, span: p.spanFrom(start)}, nil
}

func (p *Parser) parseListExpr(start int) (Expr, *Error) {
	var items []Expr
	for {
		if p.skip(lexer.TokenBracketClose) {
			break
		}
		if len(items) > 0 {
			if _, err := p.expect(lexer.TokenComma, "`,`"); err != nil {
				return nil, err
			}
			if p.skip(lexer.TokenBracketClose) {
				break
			}
		}
		item, err := p.parseCommitted()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &List{Items: items, span: p.spanFrom(start)}, nil
}

func (p *Parser) parseMapExpr(start int) (Expr, *Error) {
	var keys, values []Expr
	for {
		if p.skip(lexer.TokenBraceClose) {
			break
		}
		if len(keys) > 0 {
			if _, err := p.expect(lexer.TokenComma, "`,`"); err != nil {
				return nil, err
			}
			if p.skip(lexer.TokenBraceClose) {
				break
			}
		}
		key, err := p.parseCommitted()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenColon, "`:`"); err != nil {
			return nil, err
		}
		value, err := p.parseCommitted()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		values = append(values, value)
	}
	return &Map{Keys: keys, Values: values, span: p.spanFrom(start)}, nil
}
