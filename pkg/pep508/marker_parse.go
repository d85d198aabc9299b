package pep508

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/pyproject/pkg/errors"
)

type tokenKind int

const (
	tokLParen tokenKind = iota
	tokRParen
	tokString
	tokVariable
	tokOp
	tokAnd
	tokOr
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(src[i+1:], c)
			if end < 0 {
				return nil, markerError(src, i, "unterminated string")
			}
			toks = append(toks, token{tokString, src[i+1 : i+1+end], i})
			i += end + 2
		case strings.ContainsRune("<>=!~", rune(c)):
			op := ""
			for _, candidate := range operators {
				if strings.HasPrefix(src[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				return nil, markerError(src, i, "invalid operator")
			}
			toks = append(toks, token{tokOp, op, i})
			i += len(op)
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			word := src[i:j]
			switch word {
			case "and":
				toks = append(toks, token{tokAnd, word, i})
			case "or":
				toks = append(toks, token{tokOr, word, i})
			case "in":
				toks = append(toks, token{tokOp, "in", i})
			case "not":
				// "not" is only valid as part of "not in".
				k := j
				for k < len(src) && (src[k] == ' ' || src[k] == '\t') {
					k++
				}
				if k == j || !strings.HasPrefix(src[k:], "in") || (k+2 < len(src) && isIdentChar(src[k+2])) {
					return nil, markerError(src, i, `expected "not in"`)
				}
				toks = append(toks, token{tokOp, "not in", i})
				j = k + 2
			default:
				name := word
				if canonical, ok := legacyVariables[word]; ok {
					name = canonical
				}
				if !slices.Contains(Variables, name) {
					return nil, markerError(src, i, fmt.Sprintf("unknown variable %q", word))
				}
				toks = append(toks, token{tokVariable, name, i})
			}
			i = j
		default:
			return nil, markerError(src, i, fmt.Sprintf("unexpected character %q", c))
		}
	}
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c == '.' || (c >= '0' && c <= '9')
}

func markerError(src string, pos int, msg string) error {
	return errors.New(errors.ErrCodeInvalidMarker, "invalid marker %q at position %d: %s", src, pos, msg)
}

type markerParser struct {
	toks []token
	pos  int
	src  string
}

func (p *markerParser) done() bool { return p.pos >= len(p.toks) }

func (p *markerParser) peek() token {
	if p.done() {
		return token{kind: -1, pos: len(p.src)}
	}
	return p.toks[p.pos]
}

func (p *markerParser) errorf(format string, args ...any) error {
	return markerError(p.src, p.peek().pos, fmt.Sprintf(format, args...))
}

func (p *markerParser) parseOr() (expr, error) {
	return p.parseLogical("or", tokOr, p.parseAnd)
}

func (p *markerParser) parseAnd() (expr, error) {
	return p.parseLogical("and", tokAnd, p.parseAtom)
}

func (p *markerParser) parseLogical(op string, kind tokenKind, next func() (expr, error)) (expr, error) {
	first, err := next()
	if err != nil {
		return nil, err
	}
	items := []expr{first}
	for !p.done() && p.peek().kind == kind {
		p.pos++
		item, err := next()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 1 {
		return first, nil
	}
	return &logical{op: op, items: items}, nil
}

func (p *markerParser) parseAtom() (expr, error) {
	if p.peek().kind == tokLParen {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, p.errorf("expected closing parenthesis")
		}
		p.pos++
		return inner, nil
	}

	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokOp {
		return nil, p.errorf("expected operator")
	}
	op := p.peek().text
	p.pos++
	rhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &comparison{lhs: lhs, rhs: rhs, op: op}, nil
}

func (p *markerParser) parseOperand() (operand, error) {
	tok := p.peek()
	switch tok.kind {
	case tokVariable:
		p.pos++
		return operand{variable: tok.text}, nil
	case tokString:
		p.pos++
		return operand{value: tok.text}, nil
	}
	if p.done() {
		return operand{}, p.errorf("unexpected end of marker")
	}
	return operand{}, p.errorf("expected variable or string, got %q", tok.text)
}
