package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenTrue
	tokenFalse
	tokenNull
	tokenUndefined
	tokenEq
	tokenNeq
	tokenStrictEq
	tokenStrictNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
	pos  int
}

func (t token) isOperand() bool {
	switch t.kind {
	case tokenIdentifier, tokenString, tokenNumber, tokenTrue, tokenFalse, tokenNull, tokenUndefined, tokenRParen:
		return true
	default:
		return false
	}
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	peekAt := func(offset int) byte {
		if i+offset >= len(input) {
			return 0
		}
		return input[i+offset]
	}

	emit := func(kind tokenKind, raw string, start int) {
		tokens = append(tokens, token{kind: kind, raw: raw, pos: start})
	}

	lastIsOperand := func() bool {
		return len(tokens) > 0 && tokens[len(tokens)-1].isOperand()
	}

	for i < len(input) {
		ch := input[i]
		start := i

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			i++
			emit(tokenLParen, "(", start)
		case ch == ')':
			i++
			emit(tokenRParen, ")", start)
		case ch == '!':
			switch {
			case peekAt(1) == '=' && peekAt(2) == '=':
				i += 3
				emit(tokenStrictNeq, "!==", start)
			case peekAt(1) == '=':
				i += 2
				emit(tokenNeq, "!=", start)
			default:
				i++
				emit(tokenNot, "!", start)
			}
		case ch == '=':
			switch {
			case peekAt(1) == '=' && peekAt(2) == '=':
				i += 3
				emit(tokenStrictEq, "===", start)
			case peekAt(1) == '=':
				i += 2
				emit(tokenEq, "==", start)
			default:
				return nil, newError(input, start, "assignment is not supported; use '=='")
			}
		case ch == '<':
			if peekAt(1) == '=' {
				i += 2
				emit(tokenLte, "<=", start)
			} else {
				i++
				emit(tokenLt, "<", start)
			}
		case ch == '>':
			if peekAt(1) == '=' {
				i += 2
				emit(tokenGte, ">=", start)
			} else {
				i++
				emit(tokenGt, ">", start)
			}
		case ch == '&':
			if peekAt(1) != '&' {
				return nil, newError(input, start, "unexpected '&'; use '&&'")
			}
			i += 2
			emit(tokenAnd, "&&", start)
		case ch == '|':
			if peekAt(1) != '|' {
				return nil, newError(input, start, "filters and bitwise '|' are not supported; use '||'")
			}
			i += 2
			emit(tokenOr, "||", start)
		case ch == '"' || ch == '\'':
			value, next, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			i = next
			emit(tokenString, value, start)
		case isDigit(ch) || (ch == '.' && isDigit(peekAt(1))):
			raw, err := scanNumber(input, i)
			if err != nil {
				return nil, err
			}
			i += len(raw)
			emit(tokenNumber, raw, start)
		case ch == '-' && !lastIsOperand() && (isDigit(peekAt(1)) || peekAt(1) == '.'):
			raw, err := scanNumber(input, i+1)
			if err != nil {
				return nil, err
			}
			i += 1 + len(raw)
			emit(tokenNumber, "-"+raw, start)
		case isIdentStart(ch):
			raw, err := scanIdentifier(input, i)
			if err != nil {
				return nil, err
			}
			i += len(raw)
			switch raw {
			case "true":
				emit(tokenTrue, raw, start)
			case "false":
				emit(tokenFalse, raw, start)
			case "null":
				emit(tokenNull, raw, start)
			case "undefined":
				emit(tokenUndefined, raw, start)
			default:
				emit(tokenIdentifier, raw, start)
			}
		case ch == '[':
			return nil, newError(input, start, "indexing is not supported")
		case strings.IndexByte("+-*/%", ch) >= 0:
			return nil, newError(input, start, fmt.Sprintf("arithmetic operator %q is not supported", string(ch)))
		default:
			return nil, newError(input, start, fmt.Sprintf("unexpected character %q", string(ch)))
		}
	}

	return tokens, nil
}

func scanString(input string, start int) (string, int, error) {
	quote := input[start]
	var b strings.Builder
	i := start + 1
	for i < len(input) {
		c := input[i]
		switch {
		case c == '\\':
			if i+1 >= len(input) {
				return "", 0, newError(input, i, "unterminated escape sequence")
			}
			next := input[i+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(next)
			}
			i += 2
		case c == quote:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, newError(input, start, "unterminated string literal")
}

func scanNumber(input string, start int) (string, error) {
	i := start
	for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
		i++
	}
	if i < len(input) && (input[i] == 'e' || input[i] == 'E') {
		i++
		if i < len(input) && (input[i] == '+' || input[i] == '-') {
			i++
		}
		for i < len(input) && isDigit(input[i]) {
			i++
		}
	}
	raw := input[start:i]
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return "", newError(input, start, fmt.Sprintf("invalid number literal %q", raw))
	}
	if i < len(input) && isIdentStart(input[i]) {
		return "", newError(input, i, "identifier cannot start immediately after a number")
	}
	return raw, nil
}

// scanIdentifier reads a dotted reference such as model.address.city. Every
// segment must be a valid identifier.
func scanIdentifier(input string, start int) (string, error) {
	i := start
	for {
		if i >= len(input) || !isIdentStart(input[i]) {
			return "", newError(input, i, "expected identifier after '.'")
		}
		i++
		for i < len(input) && isIdentPart(input[i]) {
			i++
		}
		if i < len(input) && input[i] == '.' {
			i++
			continue
		}
		break
	}
	return input[start:i], nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '$'
}

func isIdentPart(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }
