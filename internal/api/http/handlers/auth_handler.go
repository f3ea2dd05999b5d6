package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/school-auth/internal/api/dto"
	"github.com/spec-kit/school-auth/internal/auth"
	"github.com/spec-kit/school-auth/internal/domain"
	"github.com/spec-kit/school-auth/internal/service"
	apperrors "github.com/spec-kit/school-auth/pkg/util"
)

const refreshTokenHeader = "X-Refresh-Token"

// AuthHandler exposes the refresh and logout endpoints.
type AuthHandler struct {
	tokens   *service.TokenService
	provider *auth.TokenProvider
}

// NewAuthHandler returns a new handler instance.
func NewAuthHandler(tokens *service.TokenService, provider *auth.TokenProvider) *AuthHandler {
	return &AuthHandler{tokens: tokens, provider: provider}
}

// Refresh rotates a refresh token into a new access/refresh pair. The
// route is public: the refresh token itself is the credential, taken from
// the X-Refresh-Token header or the request body.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Get(refreshTokenHeader)
	if refreshToken == "" {
		var req dto.RefreshRequest
		if err := c.BodyParser(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		return apperrors.NewAuthenticationFailure(apperrors.CodeMissingToken, "refresh token required")
	}

	pair, err := h.tokens.Refresh(c.UserContext(), refreshToken)
	if err != nil {
		return auth.WireError(err)
	}
	return c.JSON(tokenPairResponse(pair))
}

// Logout blacklists the caller's access token and drops the refresh entry
// when the refresh token is presented.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Anonymous() {
		return apperrors.NewAuthenticationFailure(apperrors.CodeUnauthenticated, "authentication required")
	}

	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		req = dto.LogoutRequest{}
	}
	if req.RefreshToken == "" {
		req.RefreshToken = c.Get(refreshTokenHeader)
	}

	claims, err := h.accessClaims(c)
	if err != nil {
		return err
	}
	if err := h.tokens.Logout(c.UserContext(), claims.Token(), req.RefreshToken); err != nil {
		return auth.WireError(err)
	}
	return c.JSON(fiber.Map{"status": "logged_out"})
}

// accessClaims re-reads the bearer token for its id and expiry; the
// middleware already proved it valid.
func (h *AuthHandler) accessClaims(c *fiber.Ctx) (*auth.Claims, error) {
	tokenStr, err := auth.ExtractBearer(c)
	if err != nil {
		return nil, apperrors.NewAuthenticationFailure(apperrors.CodeMissingToken, "authorization header required")
	}
	claims, err := h.provider.Validate(tokenStr)
	if err != nil {
		return nil, apperrors.NewAuthenticationFailure(apperrors.CodeMalformed, "invalid token")
	}
	return claims, nil
}

func tokenPairResponse(pair *domain.TokenPair) dto.TokenPairResponse {
	return dto.TokenPairResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
