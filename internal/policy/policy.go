package policy

import (
	"strings"

	"github.com/spec-kit/school-auth/internal/domain"
)

// Rule binds a group of path patterns to the roles allowed to call them.
// An empty Methods slice matches any HTTP method; an empty Roles slice
// marks the group public.
type Rule struct {
	Patterns []string
	Methods  []string
	Roles    []domain.Role
}

// Decision is the outcome of matching a request against the table.
type Decision struct {
	Matched bool
	Public  bool
	Roles   []domain.Role
}

// Table is an ordered rule list evaluated top to bottom. The first rule
// whose pattern and method match decides; later rules are never consulted.
// Immutable after construction.
type Table struct {
	rules         []Rule
	defaultPermit bool
}

// NewTable builds a table preserving the exact configured rule order.
func NewTable(rules []Rule, defaultPermit bool) *Table {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Table{rules: copied, defaultPermit: defaultPermit}
}

// Match evaluates the table for a method/path pair. Requests no rule
// matches fall through to the configured default; the permit-all default
// in this deployment is a deliberate policy choice, not an accident.
func (t *Table) Match(method, path string) Decision {
	for _, rule := range t.rules {
		if !rule.matchesMethod(method) {
			continue
		}
		for _, pattern := range rule.Patterns {
			if MatchPattern(pattern, path) {
				return Decision{Matched: true, Public: len(rule.Roles) == 0, Roles: rule.Roles}
			}
		}
	}
	return Decision{Matched: false, Public: t.defaultPermit}
}

func (r Rule) matchesMethod(method string) bool {
	if len(r.Methods) == 0 {
		return true
	}
	for _, m := range r.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// MatchPattern reports whether a path matches a pattern. Two forms are
// supported: an exact path, and "/prefix/**" which matches "/prefix"
// itself and anything beneath it.
func MatchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		if path == prefix {
			return true
		}
		return strings.HasPrefix(path, prefix+"/")
	}
	return path == pattern
}
