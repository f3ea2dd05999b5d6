package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/school-auth/internal/domain"
)

const principalKey = "auth_principal"

// Principal is the per-request resolved identity. It is derived only from
// a successfully validated, non-revoked token, lives in the request
// context and is never persisted.
type Principal struct {
	Subject string
	Role    domain.Role
	TokenID string

	anonymous bool
}

// Anonymous reports whether the request carried no validated token.
func (p *Principal) Anonymous() bool {
	return p == nil || p.anonymous
}

// AnonymousPrincipal marks a request on a public path with no identity.
func AnonymousPrincipal() *Principal {
	return &Principal{anonymous: true}
}

// StorePrincipal attaches the principal to the request context.
func StorePrincipal(c *fiber.Ctx, principal *Principal) {
	c.Locals(principalKey, principal)
}

// PrincipalFromContext retrieves the resolved identity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
