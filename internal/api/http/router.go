package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/school-auth/internal/api/http/handlers"
	"github.com/spec-kit/school-auth/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	Authorizer     *auth.Authorizer
}

// RegisterRoutes wires the auth pipeline and its endpoints. The
// authentication and authorization stages guard every route; downstream
// application handlers mount behind them.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.AuthMiddleware.Handle)
	app.Use(cfg.Authorizer.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/refresh-token", cfg.Auth.Refresh)
	api.Post("/admin/refresh-token", cfg.Auth.Refresh)
	api.Post("/logout", cfg.Auth.Logout)
}
