package harness

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter decides whether a case runs.
type Filter interface {
	Match(id TestID) bool
}

// RegexFilters selects cases by ID patterns. A case runs when it matches
// some MustMatch pattern (or none are defined) and no MustNotMatch pattern.
type RegexFilters struct {
	MustMatch    TestIDPatternList
	MustNotMatch TestIDPatternList
}

func (r RegexFilters) Match(id TestID) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(id, true)) &&
		!r.MustNotMatch.AnyMatch(id, false)
}

// IsDefined reports whether any pattern is set.
func (r RegexFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

// TestIDPattern holds one regular expression per ID component.
type TestIDPattern []*regexp.Regexp

// Match tests id component-wise. A pattern longer than id matches only when
// includeParents is set, so "a/b" selects group "a" on the way to "a/b".
func (p TestIDPattern) Match(id TestID, includeParents bool) bool {
	n := len(p)
	if n > len(id) {
		if !includeParents {
			return false
		}
		n = len(id)
	}
	for i := 0; i < n; i++ {
		if !p[i].MatchString(id[i]) {
			return false
		}
	}
	return true
}

func (p TestIDPattern) String() string {
	ss := make([]string, 0, len(p))
	for _, c := range p {
		ss = append(ss, c.String())
	}
	return strings.Join(ss, "/")
}

// ParseTestIDPattern splits s on "/" and compiles each part.
func ParseTestIDPattern(s string) (TestIDPattern, error) {
	parts := strings.Split(s, "/")
	ret := make(TestIDPattern, 0, len(parts))
	for _, part := range parts {
		rx, err := regexp.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", part, err)
		}
		ret = append(ret, rx)
	}
	return ret, nil
}

// TestIDPatternList is a set of alternative patterns.
type TestIDPatternList []TestIDPattern

func (l TestIDPatternList) String() string {
	ss := make([]string, 0, len(l))
	for _, p := range l {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set parses value and appends it.
func (l *TestIDPatternList) Set(value string) error {
	p, err := ParseTestIDPattern(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

func (l TestIDPatternList) IsDefined() bool {
	return len(l) != 0
}

func (l TestIDPatternList) AnyMatch(id TestID, includeParents bool) bool {
	for _, p := range l {
		if p.Match(id, includeParents) {
			return true
		}
	}
	return false
}

// NewRegexFilters builds filters from --run and --skip style patterns.
func NewRegexFilters(run, skip []string) (RegexFilters, error) {
	var f RegexFilters
	for _, r := range run {
		if err := f.MustMatch.Set(r); err != nil {
			return RegexFilters{}, err
		}
	}
	for _, s := range skip {
		if err := f.MustNotMatch.Set(s); err != nil {
			return RegexFilters{}, err
		}
	}
	return f, nil
}
