package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/backoffice/internal/api/http"
	"github.com/spec-kit/backoffice/internal/api/http/handlers"
	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/config"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/notify"
	"github.com/spec-kit/backoffice/internal/observability"
	"github.com/spec-kit/backoffice/internal/persistence"
	"github.com/spec-kit/backoffice/internal/ratelimit"
	"github.com/spec-kit/backoffice/internal/repository"
	"github.com/spec-kit/backoffice/internal/repository/memory"
	"github.com/spec-kit/backoffice/internal/service"
	"github.com/spec-kit/backoffice/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var repos repository.Set
	if pg.Configured() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewPostgresSet(pg.PoolHandle())
	} else {
		repos = memory.NewStore().Set()
	}

	var redis *persistence.Redis
	if cfg.RateLimit.Backend == "redis" {
		redis, err = persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redis.Close()
	}
	publicLimiter, apiLimiter := buildLimiters(cfg.RateLimit, redis)

	var sender notify.Sender
	if cfg.Notification.Enabled() {
		telegram, err := notify.NewTelegramSender(cfg.Notification.TelegramBotToken, cfg.Notification.TelegramChatID)
		if err != nil {
			logger.Warn("telegram notifications disabled", zap.Error(err))
		} else {
			logger.Info("telegram notifications enabled", zap.String("bot", telegram.Username()))
			sender = telegram
		}
	}

	recorder := audit.NewRecorder(repos.Audit, logger, metrics, cfg.Audit.QueueSize)
	stopAudit := worker.StartAuditWorker(recorder)

	registry := service.NewRegistry(service.RegistryConfig{
		Repos:        repos,
		Recorder:     recorder,
		Dispatcher:   events.NewInMemoryDispatcher(logger),
		TokenManager: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		Sender:       sender,
		Logger:       logger,
		BcryptCost:   cfg.Auth.BcryptCost,
	})
	worker.StartNotificationWorker(registry.Notifications)

	authMiddleware := auth.NewAuthMiddleware(registry.Auth.TokenManager(), repos.Users)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.IsProduction(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:      cfg.App.RequestTimeout(),
		ExposeErrors: !cfg.App.IsProduction(),
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(registry.Auth),
		Deals:          handlers.NewDealsHandler(registry.Deals),
		Activities:     handlers.NewActivitiesHandler(registry.Activities),
		Subscribers:    handlers.NewSubscribersHandler(registry.Subscribers),
		Users:          handlers.NewUsersHandler(registry.Users),
		Logs:           handlers.NewLogsHandler(registry.AuditLog),
		AuthMiddleware: authMiddleware,
		PublicLimiter:  publicLimiter,
		APILimiter:     apiLimiter,
		Logger:         logger,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stopAudit()
	registry.Notifications.Wait()
}

func buildLimiters(cfg config.RateLimitConfig, redis *persistence.Redis) (ratelimit.Limiter, ratelimit.Limiter) {
	if redis != nil {
		return ratelimit.NewRedisLimiter(redis.Client, cfg.PublicMaxRequests, cfg.Window()),
			ratelimit.NewRedisLimiter(redis.Client, cfg.MaxRequests, cfg.Window())
	}
	return ratelimit.NewMemoryLimiter(cfg.PublicMaxRequests, cfg.Window()),
		ratelimit.NewMemoryLimiter(cfg.MaxRequests, cfg.Window())
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
