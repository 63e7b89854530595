package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/port"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/config"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/database"
	kafkainfra "github.com/jahid-csedu/iam-system-sub000/internal/infra/kafka"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/logger"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/notify"
	redisinfra "github.com/jahid-csedu/iam-system-sub000/internal/infra/redis"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/security"
	postgresrepo "github.com/jahid-csedu/iam-system-sub000/internal/repository/postgres"
	redisrepo "github.com/jahid-csedu/iam-system-sub000/internal/repository/redis"
	"github.com/jahid-csedu/iam-system-sub000/internal/transport/http/middleware"
	"github.com/jahid-csedu/iam-system-sub000/internal/transport/http/routes"
	"github.com/jahid-csedu/iam-system-sub000/internal/usecase"
)

// Application owns the wired service graph and the HTTP server lifecycle.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
}

// New builds the full service graph from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	if err := security.ConfigureArgon2(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	tokenEngine, err := security.NewTokenEngine(security.TokenEngineConfig{
		AccessSecret:    []byte(cfg.JWT.AccessSecret),
		RefreshSecret:   []byte(cfg.JWT.RefreshSecret),
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
		Issuer:          cfg.App.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("init token engine: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "iam:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	notifier := notify.NewLogNotifier(log)

	resolver := usecase.NewAuthorityResolver(repos.Permissions)
	lockout := usecase.NewLockoutService(repos.Users, eventPublisher, log, cfg.Lockout.MaxFailedAttempts, cfg.Lockout.Window)
	authService := usecase.NewAuthService(repos.Users, resolver, lockout, tokenEngine, log)
	registrationService := usecase.NewRegistrationService(repos.Users, eventPublisher, security.DefaultPasswordValidator(), log)
	roleService := usecase.NewRoleService(repos.Roles, repos.Permissions, repos.Users, log)
	permissionService := usecase.NewPermissionService(repos.Permissions, log)

	passwordResetService := usecase.NewPasswordResetService(repos.Users, repos.OTPs, notifier, eventPublisher, rateLimitStore, log)
	passwordResetService.WithTTL(cfg.OTP.TTL)
	passwordResetService.WithOTPLength(cfg.OTP.Length)
	passwordResetService.WithRateLimit(cfg.RateLimit.PasswordResetMaxAttempts, rateLimitWindow)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Namespace: cfg.Telemetry.MetricsNamespace,
	})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:          authService,
			Registration:  registrationService,
			Roles:         roleService,
			Permissions:   permissionService,
			PasswordReset: passwordResetService,
			Authorizer:    usecase.NewAuthorizer(),
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting IAM API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	a.logger.Info("IAM API stopped")
	return nil
}
