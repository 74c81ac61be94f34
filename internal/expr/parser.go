package expr

import (
	"fmt"

	"github.com/roach88/tester/internal/value"
)

type parser struct {
	toks []token
	pos  int
}

// Parse parses src into an expression tree.
func Parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.unexpected(tok)
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, &SyntaxError{Pos: tok.pos, Message: fmt.Sprintf("expected %s, found %s", kind, describe(tok))}
	}
	return tok, nil
}

func (p *parser) unexpected(tok token) error {
	return &SyntaxError{Pos: tok.pos, Message: fmt.Sprintf("unexpected %s", describe(tok))}
}

func describe(tok token) string {
	switch tok.kind {
	case tokEOF:
		return tok.kind.String()
	case tokString:
		return fmt.Sprintf("string %q", tok.text)
	}
	return fmt.Sprintf("%s %q", tok.kind, tok.text)
}

func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokPlus {
		op := p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Concat{Left: left, Right: right, At: op.pos}
	}
	return left, nil
}

func (p *parser) parseTerm() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parseSuffixes(n)
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokRef:
		return &Ref{Name: tok.text, At: tok.pos}, nil
	case tokString:
		return &Literal{Value: tok.text, At: tok.pos}, nil
	case tokNumber:
		return &Literal{Value: tok.num, At: tok.pos}, nil
	case tokIdent:
		switch tok.text {
		case "true":
			return &Literal{Value: true, At: tok.pos}, nil
		case "false":
			return &Literal{Value: false, At: tok.pos}, nil
		case "null":
			return &Literal{Value: nil, At: tok.pos}, nil
		case "undefined":
			return &Literal{Value: value.Undefined, At: tok.pos}, nil
		}
		return nil, &SyntaxError{Pos: tok.pos, Message: fmt.Sprintf("unknown identifier %q (references start with \"$\")", tok.text)}
	case tokLParen:
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, p.unexpected(tok)
}

func (p *parser) parseSuffixes(n Node) (Node, error) {
	for {
		switch p.peek().kind {
		case tokDot:
			dot := p.next()
			name, err := p.parsePropertyName()
			if err != nil {
				return nil, err
			}
			n = &Member{Object: n, Property: name, At: dot.pos}
		case tokLBracket:
			open := p.next()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRBracket); err != nil {
				return nil, err
			}
			n = &Index{Object: n, Index: idx, At: open.pos}
		case tokLParen:
			open := p.next()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			n = &Call{Func: n, Args: args, At: open.pos}
		default:
			return n, nil
		}
	}
}

// parsePropertyName reads the name after ".": an identifier or a run of
// digits (array index).
func (p *parser) parsePropertyName() (string, error) {
	tok := p.next()
	switch tok.kind {
	case tokIdent, tokNumber:
		return tok.text, nil
	}
	return "", &SyntaxError{Pos: tok.pos, Message: fmt.Sprintf("expected property name, found %s", describe(tok))}
}

func (p *parser) parseArgs() ([]Node, error) {
	var args []Node
	if p.peek().kind == tokRParen {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		tok := p.next()
		switch tok.kind {
		case tokComma:
			continue
		case tokRParen:
			return args, nil
		}
		return nil, &SyntaxError{Pos: tok.pos, Message: fmt.Sprintf("expected \",\" or \")\", found %s", describe(tok))}
	}
}
