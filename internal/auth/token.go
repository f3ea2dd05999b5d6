package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/school-auth/internal/domain"
)

// TokenProvider issues and validates signed JWT tokens. The secret is
// loaded once at startup and immutable afterwards; the signing algorithm
// is pinned to HS256 and never taken from the token header.
type TokenProvider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenProvider builds a provider.
func NewTokenProvider(secret string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 14 * 24 * time.Hour
	}
	return &TokenProvider{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Claims describes the JWT payload.
type Claims struct {
	Role      domain.Role      `json:"role"`
	TokenType domain.TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Token converts the claims back into issued-token metadata.
func (c *Claims) Token() domain.Token {
	token := domain.Token{
		ID:      c.ID,
		Subject: c.Subject,
		Role:    c.Role,
		Type:    c.TokenType,
	}
	if c.IssuedAt != nil {
		token.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		token.ExpiresAt = c.ExpiresAt.Time
	}
	return token
}

// Issue builds and signs a token for the subject. The token id is fresh
// per issuance so individual tokens can be revoked.
func (p *TokenProvider) Issue(subject string, role domain.Role, tokenType domain.TokenType) (string, *domain.Token, error) {
	ttl := p.accessTTL
	if tokenType == domain.TokenTypeRefresh {
		ttl = p.refreshTTL
	}

	issuedAt := p.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	token := claims.Token()
	return signed, &token, nil
}

// Validate verifies the signature and expiry and returns the claims.
// Expired tokens fail with ErrExpired; every other defect, including a
// signature from a foreign key or an unexpected algorithm, is ErrMalformed.
func (p *TokenProvider) Validate(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if _, err := domain.ParseRole(string(claims.Role)); err != nil {
		return nil, ErrMalformed
	}
	switch claims.TokenType {
	case domain.TokenTypeAccess, domain.TokenTypeRefresh:
	default:
		return nil, ErrMalformed
	}
	return claims, nil
}

// RefreshTTL exposes the refresh token lifetime for store TTL alignment.
func (p *TokenProvider) RefreshTTL() time.Duration {
	return p.refreshTTL
}
