package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/school-auth/internal/api/http"
	"github.com/spec-kit/school-auth/internal/api/http/handlers"
	"github.com/spec-kit/school-auth/internal/auth"
	"github.com/spec-kit/school-auth/internal/config"
	"github.com/spec-kit/school-auth/internal/events"
	"github.com/spec-kit/school-auth/internal/observability"
	"github.com/spec-kit/school-auth/internal/persistence"
	"github.com/spec-kit/school-auth/internal/policy"
	"github.com/spec-kit/school-auth/internal/revocation"
	"github.com/spec-kit/school-auth/internal/service"
	"github.com/spec-kit/school-auth/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := revocation.NewRedisStore(redis, cfg.Auth.RevocationTimeout(), logger)
	tokenProvider := auth.NewTokenProvider(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, logger)

	tokenService := service.NewTokenService(tokenProvider, store, dispatcher, logger)

	publicPaths := policy.DefaultPublicPaths()
	table := policy.NewTable(policy.DefaultRules(), cfg.Policy.DefaultPermit)

	authMiddleware := auth.NewAuthMiddleware(tokenProvider, store, publicPaths, logger)
	authorizer := auth.NewAuthorizer(table, publicPaths, dispatcher)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis),
		Auth:           handlers.NewAuthHandler(tokenService, tokenProvider),
		AuthMiddleware: authMiddleware,
		Authorizer:     authorizer,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
