package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/school-auth/internal/domain"
	"github.com/spec-kit/school-auth/internal/policy"
	"github.com/spec-kit/school-auth/internal/revocation"
	apperrors "github.com/spec-kit/school-auth/pkg/util"
)

// AuthMiddleware validates bearer tokens and resolves principals.
type AuthMiddleware struct {
	tokens *TokenProvider
	store  revocation.Store
	public *policy.PublicPaths
	logger *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenProvider, store revocation.Store, public *policy.PublicPaths, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, store: store, public: public, logger: logger}
}

// Handle authenticates every request. Public paths pass through with an
// anonymous principal; everything else needs a valid, non-revoked bearer
// token.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if m.public.Contains(c.Method(), c.Path()) {
		StorePrincipal(c, AnonymousPrincipal())
		return c.Next()
	}

	tokenStr, err := ExtractBearer(c)
	if err != nil {
		return WireError(err)
	}

	claims, err := m.tokens.Validate(tokenStr)
	if err != nil {
		return WireError(err)
	}
	if claims.TokenType != domain.TokenTypeAccess {
		// refresh tokens only ever reach the refresh endpoint
		return WireError(ErrMalformed)
	}

	revoked, err := m.store.IsBlacklisted(c.UserContext(), claims.ID)
	if err != nil {
		// Access tokens are short-lived; when the store cannot answer we
		// fall open to expiry-only validation instead of rejecting every
		// request during a cache outage.
		m.logger.Warn("blacklist check unavailable, trusting token expiry",
			zap.String("subject", claims.Subject), zap.Error(err))
	} else if revoked {
		return WireError(ErrRevoked)
	}

	StorePrincipal(c, &Principal{Subject: claims.Subject, Role: claims.Role, TokenID: claims.ID})
	return c.Next()
}

// ExtractBearer pulls the token out of the Authorization header.
func ExtractBearer(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrMalformed
	}
	return parts[1], nil
}

// WireError maps auth sentinels to wire errors, wherever they surface:
// the middleware, the refresh rotation or logout. Key and signature
// detail never reaches the client.
func WireError(err error) error {
	switch {
	case errors.Is(err, ErrMissingToken):
		return apperrors.NewAuthenticationFailure(apperrors.CodeMissingToken, "authorization header required")
	case errors.Is(err, ErrExpired):
		return apperrors.NewAuthenticationFailure(apperrors.CodeExpired, "token expired")
	case errors.Is(err, ErrRevoked):
		return apperrors.NewAuthenticationFailure(apperrors.CodeRevoked, "token revoked")
	case errors.Is(err, ErrMalformed):
		return apperrors.NewAuthenticationFailure(apperrors.CodeMalformed, "invalid token")
	case errors.Is(err, ErrUnauthenticated):
		return apperrors.NewAuthenticationFailure(apperrors.CodeUnauthenticated, "authentication required")
	default:
		return apperrors.MapError(err)
	}
}
