package expr

import (
	"fmt"

	"github.com/roach88/tester/internal/value"
)

// Path is a parsed property path.
type Path []string

// ParsePath parses an assertion key such as "foo", "foo.bar",
// "items[0].name" or `["odd key"]`. The empty string is the empty path.
func ParsePath(key string) (Path, error) {
	if key == "" {
		return Path{}, nil
	}
	toks, err := lex(key)
	if err != nil {
		return nil, err
	}

	var path Path
	i := 0
	// The first segment is bare: "foo" rather than ".foo".
	switch toks[0].kind {
	case tokIdent, tokNumber:
		path = append(path, toks[0].text)
		i = 1
	case tokLBracket:
	default:
		return nil, &SyntaxError{Pos: toks[0].pos, Message: fmt.Sprintf("path cannot start with %s", describe(toks[0]))}
	}

	for toks[i].kind != tokEOF {
		switch toks[i].kind {
		case tokDot:
			name := toks[i+1]
			if name.kind != tokIdent && name.kind != tokNumber {
				return nil, &SyntaxError{Pos: name.pos, Message: fmt.Sprintf("expected property name, found %s", describe(name))}
			}
			path = append(path, name.text)
			i += 2
		case tokLBracket:
			seg := toks[i+1]
			if seg.kind != tokString && seg.kind != tokNumber {
				return nil, &SyntaxError{Pos: seg.pos, Message: fmt.Sprintf("expected string or number in brackets, found %s", describe(seg))}
			}
			if toks[i+2].kind != tokRBracket {
				return nil, &SyntaxError{Pos: toks[i+2].pos, Message: fmt.Sprintf("expected %s, found %s", tokRBracket, describe(toks[i+2]))}
			}
			if seg.kind == tokNumber {
				path = append(path, formatNumber(seg.num))
			} else {
				path = append(path, seg.text)
			}
			i += 3
		default:
			return nil, &SyntaxError{Pos: toks[i].pos, Message: fmt.Sprintf("unexpected %s", describe(toks[i]))}
		}
	}
	return path, nil
}

// Lookup walks path from root. A segment that cannot be followed yields
// value.Undefined; Lookup never fails on data.
func Lookup(root any, path Path) any {
	cur := root
	for _, seg := range path {
		next, err := property(cur, seg, 0)
		if err != nil {
			return value.Undefined
		}
		cur = next
	}
	return cur
}
