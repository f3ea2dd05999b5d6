package auth_test

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/school-auth/internal/auth"
	"github.com/spec-kit/school-auth/internal/domain"
)

const testSecret = "unit-test-secret"

func newProvider() *auth.TokenProvider {
	return auth.NewTokenProvider(testSecret, 30*time.Minute, 14*24*time.Hour)
}

func TestIssueValidateRoundTrip(t *testing.T) {
	provider := newProvider()

	tokenStr, token, err := provider.Issue("student-7", domain.RoleStudent, domain.TokenTypeAccess)
	require.NoError(t, err)
	require.NotEmpty(t, token.ID)
	assert.True(t, token.ExpiresAt.After(token.IssuedAt))

	claims, err := provider.Validate(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "student-7", claims.Subject)
	assert.Equal(t, domain.RoleStudent, claims.Role)
	assert.Equal(t, domain.TokenTypeAccess, claims.TokenType)
	assert.Equal(t, token.ID, claims.ID)
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	provider := newProvider()

	_, access, err := provider.Issue("teacher-1", domain.RoleTeacher, domain.TokenTypeAccess)
	require.NoError(t, err)
	_, refresh, err := provider.Issue("teacher-1", domain.RoleTeacher, domain.TokenTypeRefresh)
	require.NoError(t, err)

	assert.True(t, refresh.ExpiresAt.After(access.ExpiresAt))
}

func TestValidateExpiredToken(t *testing.T) {
	expired := signTestToken(t, testSecret, jwt.SigningMethodHS256, auth.Claims{
		Role:      domain.RoleStudent,
		TokenType: domain.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "expired-id",
			Subject:   "student-7",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := newProvider().Validate(expired)
	assert.ErrorIs(t, err, auth.ErrExpired)
}

func TestValidateForeignKey(t *testing.T) {
	foreign := signTestToken(t, "some-other-secret", jwt.SigningMethodHS256, validTestClaims())

	_, err := newProvider().Validate(foreign)
	assert.ErrorIs(t, err, auth.ErrMalformed)
}

func TestValidateRejectsUnexpectedAlgorithm(t *testing.T) {
	// same secret, different HMAC variant: the pinned algorithm must win
	confused := signTestToken(t, testSecret, jwt.SigningMethodHS512, validTestClaims())

	_, err := newProvider().Validate(confused)
	assert.ErrorIs(t, err, auth.ErrMalformed)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := newProvider().Validate("not.a.token")
	assert.ErrorIs(t, err, auth.ErrMalformed)
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	claims := validTestClaims()
	claims.Role = "JANITOR"
	tokenStr := signTestToken(t, testSecret, jwt.SigningMethodHS256, claims)

	_, err := newProvider().Validate(tokenStr)
	assert.ErrorIs(t, err, auth.ErrMalformed)
}

func TestValidateRejectsUnknownTokenType(t *testing.T) {
	claims := validTestClaims()
	claims.TokenType = "SESSION"
	tokenStr := signTestToken(t, testSecret, jwt.SigningMethodHS256, claims)

	_, err := newProvider().Validate(tokenStr)
	assert.ErrorIs(t, err, auth.ErrMalformed)
}

func validTestClaims() auth.Claims {
	return auth.Claims{
		Role:      domain.RoleAdmin,
		TokenType: domain.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "claims-id",
			Subject:   "admin-1",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func signTestToken(t *testing.T, secret string, method jwt.SigningMethod, claims auth.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, &claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}
