package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/anvaya/identity-service/internal/api/handler"
	"github.com/anvaya/identity-service/internal/api/middleware"
	"github.com/anvaya/identity-service/internal/core/domain"
	"github.com/anvaya/identity-service/internal/core/ports"
	"github.com/anvaya/identity-service/internal/core/service"
	"github.com/anvaya/identity-service/internal/infrastructure/config"
	mongoident "github.com/anvaya/identity-service/internal/infrastructure/db/mongo"
	redisinfra "github.com/anvaya/identity-service/internal/infrastructure/db/redis"
	"github.com/anvaya/identity-service/internal/infrastructure/http/handlers"
	"github.com/anvaya/identity-service/pkg/hash"
	"github.com/anvaya/identity-service/pkg/token"
)

// NewRouter builds and returns the Echo instance with all routes
// registered. Every dependency is passed in explicitly; nothing is
// resolved from ambient globals.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, audit ports.AuditRecorder, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Dependencies ---
	store := mongoident.NewIdentityRepository(db)
	hasher := hash.New(cfg.BcryptCost)
	codec := token.NewCodec(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	throttle := redisinfra.NewLoginThrottle(rdb)
	identityService := service.NewIdentityService(store, hasher, codec, throttle, audit, log)
	authHandler := handler.NewAuthHandler(identityService)

	accessGuard := middleware.Auth(codec, store)
	refreshGuard := middleware.RefreshAuth(codec, store, hasher)

	// --- Auth routes; roles requirements attached at registration ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/profile", authHandler.Profile, accessGuard, middleware.RequireRoles())
	e.POST("/auth/refresh", authHandler.Refresh, refreshGuard)
	e.POST("/auth/logout", authHandler.Logout, accessGuard)
	e.GET("/auth/admin-only-data", authHandler.AdminOnly, accessGuard, middleware.RequireRoles(domain.RoleAdmin))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
