package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/school-auth/internal/api/dto"
	httptransport "github.com/spec-kit/school-auth/internal/api/http"
	"github.com/spec-kit/school-auth/internal/api/http/handlers"
	"github.com/spec-kit/school-auth/internal/auth"
	"github.com/spec-kit/school-auth/internal/config"
	"github.com/spec-kit/school-auth/internal/domain"
	"github.com/spec-kit/school-auth/internal/events"
	"github.com/spec-kit/school-auth/internal/observability"
	"github.com/spec-kit/school-auth/internal/policy"
	"github.com/spec-kit/school-auth/internal/revocation"
	"github.com/spec-kit/school-auth/internal/service"
)

const (
	testOrigin = "https://school.example"
	testSecret = "transport-test-secret"
)

type testEnv struct {
	app     *fiber.App
	service *service.TokenService
	metrics *observability.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		App:    config.AppConfig{Name: "school-auth", Version: "test", RequestTimeoutSeconds: 5},
		CORS:   config.CORSConfig{AllowedOrigins: []string{testOrigin}},
		Policy: config.PolicyConfig{DefaultPermit: true},
	}

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	provider := auth.NewTokenProvider(testSecret, 30*time.Minute, 24*time.Hour)
	store := revocation.NewMemoryStore()
	tokenService := service.NewTokenService(provider, store, events.NewInMemoryDispatcher(), logger)

	publicPaths := policy.DefaultPublicPaths()
	table := policy.NewTable(policy.DefaultRules(), cfg.Policy.DefaultPermit)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, nil),
		Auth:           handlers.NewAuthHandler(tokenService, provider),
		AuthMiddleware: auth.NewAuthMiddleware(provider, store, publicPaths, logger),
		Authorizer:     auth.NewAuthorizer(table, publicPaths, events.NewInMemoryDispatcher()),
	})

	// stand-ins for application controllers behind the auth pipeline
	app.Get("/api/teacher/classes", okHandler)
	app.Post("/api/sign-in", okHandler)

	return &testEnv{app: app, service: tokenService, metrics: metrics}
}

func okHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func TestPreflightSkipsAuthentication(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/teacher/classes", nil)
	req.Header.Set(fiber.HeaderOrigin, testOrigin)
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, http.MethodGet)

	resp, err := env.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderAccessControlAllowMethods))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderAccessControlAllowHeaders))
}

func TestWildcardOriginDisablesCredentials(t *testing.T) {
	cfg := &config.Config{
		App:    config.AppConfig{Name: "school-auth", Version: "test"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true},
		Policy: config.PolicyConfig{DefaultPermit: true},
	}
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/anything", nil)
	req.Header.Set(fiber.HeaderOrigin, testOrigin)
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, http.MethodGet)

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(fiber.HeaderAccessControlAllowCredentials))
}

func TestAccessLogRecordsRenderedStatus(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/teacher/classes", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// the request counter carries the status the client saw, not a
	// pre-rendering 200
	assert.Equal(t, int64(1), env.metrics.Requests("/api/teacher/classes", http.MethodGet, http.StatusUnauthorized))
	assert.Zero(t, env.metrics.Requests("/api/teacher/classes", http.MethodGet, http.StatusOK))
}

func TestNonAuthErrorsSkipAuthFailureCounters(t *testing.T) {
	env := newTestEnv(t)

	pair, err := env.service.IssuePair(context.Background(), "student-7", domain.RoleStudent)
	require.NoError(t, err)

	// authenticated request to an unmapped path: default-permit lets it
	// through and the router 404s
	req := httptest.NewRequest(http.MethodGet, "/api/uncharted", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+pair.AccessToken)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Zero(t, env.metrics.AuthFailures("/api/uncharted", http.MethodGet, "REQUEST_FAILED"))
	assert.Equal(t, int64(1), env.metrics.Requests("/api/uncharted", http.MethodGet, http.StatusNotFound))
}

func TestAuthFailureStillCarriesCORSHeaders(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/teacher/classes", nil)
	req.Header.Set(fiber.HeaderOrigin, testOrigin)

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Contains(t, string(body), "MISSING_TOKEN")
}

func TestFailureBodyShape(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/teacher/classes", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer junk")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var parsed struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, "MALFORMED", parsed.Error.Code)
	assert.NotEmpty(t, parsed.Error.Message)
	assert.Equal(t, int64(1), env.metrics.AuthFailures("/api/teacher/classes", http.MethodGet, "MALFORMED"))
}

func TestRefreshEndpointRotatesPair(t *testing.T) {
	env := newTestEnv(t)

	pair, err := env.service.IssuePair(context.Background(), "student-7", domain.RoleStudent)
	require.NoError(t, err)

	// refresh without an access token: the route is public
	resp := env.postRefresh(t, pair.RefreshToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated dto.TokenPairResponse
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &rotated))
	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// the rotated-out refresh token is spent
	resp = env.postRefresh(t, pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "REVOKED")
}

func TestRefreshEndpointReportsExpiredToken(t *testing.T) {
	env := newTestEnv(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		Role:      domain.RoleStudent,
		TokenType: domain.TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "expired-refresh",
			Subject:   "student-7",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	resp := env.postRefresh(t, signed)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "EXPIRED")
}

func TestRefreshEndpointRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)

	pair, err := env.service.IssuePair(context.Background(), "student-7", domain.RoleStudent)
	require.NoError(t, err)

	// an access token in the refresh slot is a malformed credential, not a 500
	resp := env.postRefresh(t, pair.AccessToken)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "MALFORMED")
}

func TestRefreshEndpointRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh-token", bytes.NewReader([]byte("{}")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "MISSING_TOKEN")
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	env := newTestEnv(t)

	pair, err := env.service.IssuePair(context.Background(), "student-7", domain.RoleStudent)
	require.NoError(t, err)

	// student may call /api/logout per the policy table
	logoutBody, err := json.Marshal(dto.LogoutRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/logout", bytes.NewReader(logoutBody))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+pair.AccessToken)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the blacklisted access token is now refused everywhere
	req = httptest.NewRequest(http.MethodGet, "/api/teacher/classes", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+pair.AccessToken)
	resp, err = env.app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "REVOKED")

	// and the refresh entry is gone with it
	resp = env.postRefresh(t, pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPublicSignInReachesDownstreamHandler(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodPost, "/api/sign-in", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")
}

func (env *testEnv) postRefresh(t *testing.T, refreshToken string) *http.Response {
	t.Helper()
	payload, err := json.Marshal(dto.RefreshRequest{RefreshToken: refreshToken})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/refresh-token", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	return resp
}
