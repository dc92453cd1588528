package expr

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-claimform/pkg/answers"
)

type parser struct {
	source string
	tokens []token
	pos    int
	refs   []string
	seen   map[string]struct{}
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) match(kinds ...tokenKind) (token, bool) {
	tok, ok := p.peek()
	if !ok {
		return token{}, false
	}
	for _, kind := range kinds {
		if tok.kind == kind {
			p.pos++
			return tok, true
		}
	}
	return token{}, false
}

func (p *parser) endPos() int {
	return len(p.source)
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.match(tokenOr); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.match(tokenAnd); !ok {
			return left, nil
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
}

func (p *parser) parseEquality() (node, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.match(tokenEq, tokenNeq, tokenStrictEq, tokenStrictNeq)
		if !ok {
			return left, nil
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = compareNode{op: op.kind, left: left, right: right}
	}
}

func (p *parser) parseRelational() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.match(tokenLt, tokenLte, tokenGt, tokenGte)
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = compareNode{op: op.kind, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if _, ok := p.match(tokenNot); ok {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, newError(p.source, p.endPos(), "unexpected end of expression")
	}
	p.pos++

	switch tok.kind {
	case tokenLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, ok := p.match(tokenRParen); !ok {
			return nil, newError(p.source, tok.pos, "missing closing ')'")
		}
		return inner, nil
	case tokenIdentifier:
		if next, ok := p.peek(); ok && next.kind == tokenLParen {
			return nil, newError(p.source, next.pos, fmt.Sprintf("function call %q is not supported", tok.raw))
		}
		p.addRef(tok.raw)
		return refNode{path: tok.raw}, nil
	case tokenString:
		return literalNode{value: answers.String(tok.raw)}, nil
	case tokenNumber:
		f, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return nil, newError(p.source, tok.pos, fmt.Sprintf("invalid number literal %q", tok.raw))
		}
		return literalNode{value: answers.Number(f)}, nil
	case tokenTrue:
		return literalNode{value: answers.Bool(true)}, nil
	case tokenFalse:
		return literalNode{value: answers.Bool(false)}, nil
	case tokenNull:
		return literalNode{value: answers.Null()}, nil
	case tokenUndefined:
		return literalNode{value: answers.Absent()}, nil
	default:
		return nil, newError(p.source, tok.pos, fmt.Sprintf("expected operand, got %q", tok.raw))
	}
}

func (p *parser) addRef(path string) {
	if p.seen == nil {
		p.seen = make(map[string]struct{})
	}
	if _, ok := p.seen[path]; ok {
		return
	}
	p.seen[path] = struct{}{}
	p.refs = append(p.refs, path)
}
