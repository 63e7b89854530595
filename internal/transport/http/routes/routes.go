package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/config"
	"github.com/jahid-csedu/iam-system-sub000/internal/transport/http/handlers"
	"github.com/jahid-csedu/iam-system-sub000/internal/transport/http/middleware"
	"github.com/jahid-csedu/iam-system-sub000/internal/usecase"
)

// The management API itself is a protected service in the permission catalog.
const managementService = "IAM"

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Registration  *usecase.RegistrationService
	Roles         *usecase.RoleService
	Permissions   *usecase.PermissionService
	PasswordReset *usecase.PasswordResetService
	Authorizer    *usecase.Authorizer
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Auth)
	readGuard := middleware.RequirePermission(deps.Services.Authorizer, managementService, domain.ActionRead)
	writeGuard := middleware.RequirePermission(deps.Services.Authorizer, managementService, domain.ActionWrite)

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.Registration, deps.Config.JWT.AccessTokenTTL)
		authHandler.RegisterRoutes(authGroup, buildLoginMiddlewares(deps)...)

		passwordGroup := api.Group("/password")
		if resetMiddlewares := buildPasswordResetMiddlewares(deps); len(resetMiddlewares) > 0 {
			passwordGroup.Use(resetMiddlewares...)
		}
		passwordHandler := handlers.NewPasswordHandler(deps.Services.PasswordReset)
		passwordHandler.RegisterRoutes(passwordGroup)

		roleGroup := api.Group("/roles", authMiddleware)
		roleHandler := handlers.NewRoleHandler(deps.Services.Roles)
		roleHandler.RegisterRoutes(roleGroup, readGuard, writeGuard)

		userGroup := api.Group("/users", authMiddleware)
		roleHandler.RegisterUserRoutes(userGroup, readGuard, writeGuard)

		permissionGroup := api.Group("/permissions", authMiddleware)
		permissionHandler := handlers.NewPermissionHandler(deps.Services.Permissions)
		permissionHandler.RegisterRoutes(permissionGroup, readGuard, writeGuard)
	}

	return r
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	cfg := deps.Config.RateLimit
	if cfg.LoginMaxAttempts <= 0 || cfg.WindowDuration <= 0 {
		return nil
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       "login",
		Limit:      cfg.LoginMaxAttempts,
		Window:     cfg.WindowDuration,
		Identifier: middleware.ClientIPIdentifier(),
	})}
}

func buildPasswordResetMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	cfg := deps.Config.RateLimit
	if cfg.PasswordResetMaxAttempts <= 0 || cfg.WindowDuration <= 0 {
		return nil
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       "password_reset",
		Limit:      cfg.PasswordResetMaxAttempts,
		Window:     cfg.WindowDuration,
		Identifier: middleware.ClientIPIdentifier(),
	})}
}
