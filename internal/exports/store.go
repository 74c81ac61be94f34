// Package exports holds the named results that completed testcases publish
// for later testcases to reference.
package exports

import (
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/tester/internal/fault"
)

// Sigil prefixes every key so exports cannot collide with ordinary object
// properties during expression evaluation.
const Sigil = "$"

// validIdentifier matches exportData identifiers.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_]\w*$`)

// ValidIdentifier reports whether name is a legal exportData identifier.
func ValidIdentifier(name string) bool {
	return validIdentifier.MatchString(name)
}

// Key returns the store key for an export name.
func Key(name string) string {
	return Sigil + name
}

// ValidateIdentifier returns a framework error when name is not a legal
// exportData identifier.
func ValidateIdentifier(name string) error {
	if !ValidIdentifier(name) {
		return fault.New(fault.CodeInvalidExport, name,
			"exportData %q is invalid: must match pattern %s", name, validIdentifier.String())
	}
	return nil
}

// Store is the export table for one test run.
//
// Entries are never deleted; a later write under the same name replaces the
// earlier value. Leaves run one at a time, so Store does no locking.
type Store struct {
	entries map[string]any
}

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[string]any)}
}

// Write stores value under name. The identifier is validated first and the
// store is left untouched when it is invalid.
func (s *Store) Write(name string, value any) error {
	if err := ValidateIdentifier(name); err != nil {
		return err
	}
	s.entries[Key(name)] = value
	return nil
}

// Has reports whether key (sigil included) has been written.
func (s *Store) Has(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Read returns the value stored under key (sigil included).
func (s *Store) Read(key string) (any, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Lookup implements expr.Env.
func (s *Store) Lookup(key string) (any, bool) {
	if !strings.HasPrefix(key, Sigil) {
		return nil, false
	}
	return s.Read(key)
}

// Keys returns all stored keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a shallow copy of the table.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.entries)
}
