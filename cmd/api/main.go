package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/directory-service/internal/api/http"
	"github.com/spec-kit/directory-service/internal/api/http/handlers"
	"github.com/spec-kit/directory-service/internal/auth"
	"github.com/spec-kit/directory-service/internal/config"
	"github.com/spec-kit/directory-service/internal/events"
	"github.com/spec-kit/directory-service/internal/observability"
	"github.com/spec-kit/directory-service/internal/persistence"
	"github.com/spec-kit/directory-service/internal/repository"
	"github.com/spec-kit/directory-service/internal/service"
	"github.com/spec-kit/directory-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		userRepo    repository.UserRepository
		companyRepo repository.CompanyRepository
	)
	if pg.Enabled() {
		pool := pg.PoolHandle()
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, persistence.DefaultMigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		userRepo = repository.NewUserRepository(pool)
		companyRepo = repository.NewCompanyRepository(pool)
	} else {
		store, err := repository.NewMemoryStore()
		if err != nil {
			logger.Fatal("failed to init in-memory store", zap.Error(err))
		}
		userRepo = store.Users()
		companyRepo = store.Companies()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var throttle auth.LoginThrottle = auth.NoopLoginThrottle{}
	if redis.Enabled() {
		throttle = auth.NewRedisLoginThrottle(redis.Client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow(), logger)
	}

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.AccessTokenTTL(),
		Issuer: cfg.Auth.JWTIssuer,
	})
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	authService, err := service.NewAuthService(*cfg, service.AuthDependencies{
		Users:      userRepo,
		Tokens:     tokens,
		Throttle:   throttle,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	userService := service.NewUserService(*cfg, service.UserDependencies{
		Users:      userRepo,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	companyService := service.NewCompanyService(*cfg, service.CompanyDependencies{
		Companies:  companyRepo,
		Users:      userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService, cfg.Directory.DefaultPageSize),
		Companies:      handlers.NewCompaniesHandler(companyService, cfg.Directory.DefaultPageSize),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo, logger, metrics),
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
