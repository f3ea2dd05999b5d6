package policy

import (
	"net/http"

	"github.com/spec-kit/school-auth/internal/domain"
)

// DefaultRules is the role-gated route table of the school API. Order is
// significant: a GET to /api/attendance is decided by whichever attendance
// rule appears first, so moving rows changes behavior.
func DefaultRules() []Rule {
	return []Rule{
		{
			Patterns: []string{"/api/teacher/**"},
			Roles:    []domain.Role{domain.RoleTeacher, domain.RoleAdmin},
		},
		{
			Patterns: []string{"/api/attendance"},
			Methods:  []string{http.MethodPost, http.MethodPut},
			Roles:    []domain.Role{domain.RoleTeacher, domain.RoleAdmin},
		},
		{
			Patterns: []string{"/api/student/**", "/api/meal/**"},
			Roles:    []domain.Role{domain.RoleStudent},
		},
		{
			Patterns: []string{"/api/admin/**"},
			Roles:    []domain.Role{domain.RoleAdmin},
		},
		{
			Patterns: []string{"/api/mypage/**", "/api/timetable", "/api/subject/**", "/api/logout"},
			Roles:    []domain.Role{domain.RoleTeacher, domain.RoleStudent},
		},
		{
			Patterns: []string{"/api/attendance"},
			Methods:  []string{http.MethodGet},
			Roles:    []domain.Role{domain.RoleTeacher, domain.RoleStudent},
		},
		{
			Patterns: []string{"/api/schedule"},
			Roles:    []domain.Role{domain.RoleTeacher, domain.RoleAdmin},
		},
		{
			Patterns: []string{"/api/side", "/api/header/**"},
			Roles:    []domain.Role{domain.RoleTeacher, domain.RoleStudent, domain.RoleAdmin},
		},
	}
}

// PublicPaths enumerates routes reachable without a bearer token:
// documentation, static assets, sign-in/sign-up, mail and code
// confirmation, and the refresh endpoints. The list is exact, never
// inferred from the policy table.
type PublicPaths struct {
	patterns []publicPattern
}

type publicPattern struct {
	pattern string
	method  string // empty = any
}

// DefaultPublicPaths returns the public allow-list of this deployment.
func DefaultPublicPaths() *PublicPaths {
	return &PublicPaths{patterns: []publicPattern{
		{pattern: "/"},
		{pattern: "/index.html"},
		{pattern: "/static/**"},
		{pattern: "/swagger.html"},
		{pattern: "/swagger-ui/**"},
		{pattern: "/v3/api-docs/**"},
		{pattern: "/health/**"},
		{pattern: "/api/sign-in"},
		{pattern: "/api/sign-up"},
		{pattern: "/api/admin/sign-in"},
		{pattern: "/api/admin/sign-up"},
		{pattern: "/api/mail-confirm"},
		{pattern: "/api/code-confirm"},
		{pattern: "/api/refresh-token", method: http.MethodPost},
		{pattern: "/api/admin/refresh-token", method: http.MethodPost},
	}}
}

// Contains reports whether the method/path pair is on the allow-list.
func (p *PublicPaths) Contains(method, path string) bool {
	for _, entry := range p.patterns {
		if entry.method != "" && entry.method != method {
			continue
		}
		if MatchPattern(entry.pattern, path) {
			return true
		}
	}
	return false
}
