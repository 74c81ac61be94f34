package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// tokenKind classifies lexer tokens.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokRef
	tokIdent
	tokNumber
	tokString
	tokDot
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokComma
	tokPlus
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of expression"
	case tokRef:
		return "reference"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokDot:
		return `"."`
	case tokLBracket:
		return `"["`
	case tokRBracket:
		return `"]"`
	case tokLParen:
		return `"("`
	case tokRParen:
		return `")"`
	case tokComma:
		return `","`
	case tokPlus:
		return `"+"`
	}
	return "unknown"
}

type token struct {
	kind tokenKind
	text string // raw text; decoded contents for strings
	num  float64
	pos  int
}

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Pos     int
	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Message)
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// lex splits src into tokens. A number directly after "." never takes a
// fraction so that "$a.0.1" reads as two index segments.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '$':
			start := i
			i++
			for i < len(src) && isWordChar(src[i]) {
				i++
			}
			if i == start+1 {
				return nil, &SyntaxError{Pos: start, Message: `"$" must be followed by a name`}
			}
			toks = append(toks, token{kind: tokRef, text: src[start:i], pos: start})
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			start := i
			for i < len(src) && isWordChar(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		case isDigit(c):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			afterDot := len(toks) > 0 && toks[len(toks)-1].kind == tokDot
			if !afterDot && i+1 < len(src) && src[i] == '.' && isDigit(src[i+1]) {
				i++
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			n, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, &SyntaxError{Pos: start, Message: fmt.Sprintf("invalid number %q", src[start:i])}
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], num: n, pos: start})
		case c == '"' || c == '\'':
			s, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, pos: i})
			i = next
		default:
			kind, ok := punctuation[c]
			if !ok {
				return nil, &SyntaxError{Pos: i, Message: fmt.Sprintf("unexpected character %q", c)}
			}
			toks = append(toks, token{kind: kind, text: string(c), pos: i})
			i++
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

var punctuation = map[byte]tokenKind{
	'.': tokDot,
	'[': tokLBracket,
	']': tokRBracket,
	'(': tokLParen,
	')': tokRParen,
	',': tokComma,
	'+': tokPlus,
}

// lexString decodes a quoted string starting at src[start]. Returns the
// decoded contents and the offset just past the closing quote.
func lexString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	for i := start + 1; i < len(src); i++ {
		c := src[i]
		switch c {
		case quote:
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(src) {
				return "", 0, &SyntaxError{Pos: i, Message: "unterminated escape"}
			}
			i++
			switch src[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(src[i])
			default:
				return "", 0, &SyntaxError{Pos: i, Message: fmt.Sprintf("unknown escape \\%c", src[i])}
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, &SyntaxError{Pos: start, Message: "unterminated string"}
}
