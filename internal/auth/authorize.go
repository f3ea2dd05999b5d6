package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/school-auth/internal/events"
	"github.com/spec-kit/school-auth/internal/policy"
	apperrors "github.com/spec-kit/school-auth/pkg/util"
)

// Authorizer permits or denies a request using the resolved principal and
// the ordered policy table. Runs after AuthMiddleware, before any
// application handler. Stateless; a single shared instance serves every
// request.
type Authorizer struct {
	table      *policy.Table
	public     *policy.PublicPaths
	dispatcher events.Dispatcher
}

// NewAuthorizer constructs the decision point.
func NewAuthorizer(table *policy.Table, public *policy.PublicPaths, dispatcher events.Dispatcher) *Authorizer {
	return &Authorizer{table: table, public: public, dispatcher: dispatcher}
}

// Handle enforces the policy table. The public allow-list is consulted
// first, matching the configured rule order where permit-all entries
// precede every role-gated group.
func (a *Authorizer) Handle(c *fiber.Ctx) error {
	if a.public.Contains(c.Method(), c.Path()) {
		return c.Next()
	}

	decision := a.table.Match(c.Method(), c.Path())
	if decision.Public {
		return c.Next()
	}

	principal, ok := PrincipalFromContext(c)
	if !ok || principal.Anonymous() {
		a.publishDenied(c, "", apperrors.CodeUnauthenticated)
		return WireError(ErrUnauthenticated)
	}

	if !principal.Role.In(decision.Roles) {
		a.publishDenied(c, principal.Subject, apperrors.CodeForbidden)
		roles := make([]string, len(decision.Roles))
		for i, role := range decision.Roles {
			roles[i] = string(role)
		}
		return apperrors.NewAuthorizationFailure(
			fmt.Sprintf("role %s may not access %s", principal.Role, c.Path()),
			map[string]any{"required_roles": roles},
		)
	}

	return c.Next()
}

func (a *Authorizer) publishDenied(c *fiber.Ctx, subject, code string) {
	if a.dispatcher == nil {
		return
	}
	_ = a.dispatcher.Publish(c.UserContext(), events.NewAuthDenied(subject, c.Method(), c.Path(), code))
}
