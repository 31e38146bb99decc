package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/portal-gateway/internal/api/http"
	"github.com/spec-kit/portal-gateway/internal/api/http/handlers"
	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/config"
	"github.com/spec-kit/portal-gateway/internal/events"
	"github.com/spec-kit/portal-gateway/internal/notify"
	"github.com/spec-kit/portal-gateway/internal/observability"
	"github.com/spec-kit/portal-gateway/internal/persistence"
	"github.com/spec-kit/portal-gateway/internal/selection"
	"github.com/spec-kit/portal-gateway/internal/service"
	"github.com/spec-kit/portal-gateway/internal/session"
	"github.com/spec-kit/portal-gateway/internal/upstream"
	"github.com/spec-kit/portal-gateway/internal/validation"
	"github.com/spec-kit/portal-gateway/internal/worker"
	"github.com/spec-kit/portal-gateway/migrations"
)

const (
	sseHeartbeat   = 25 * time.Second
	bridgeRetry    = 2 * time.Second
	purgeInterval  = 10 * time.Minute
	readyWaitLimit = 5 * time.Second
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	checks := map[string]handlers.Pinger{}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	if redis.Enabled() {
		checks["redis"] = redis
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() != nil {
		checks["postgres"] = pg
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
	}

	var store session.Store
	switch cfg.Session.Backend {
	case "redis":
		store = session.NewRedisStore(redis.Client, cfg.Session.TTL())
	case "postgres":
		pgStore := session.NewPostgresStore(pg.PoolHandle(), cfg.Session.TTL())
		worker.StartSessionPurge(ctx, pgStore, purgeInterval, logger)
		store = pgStore
	default:
		store = session.NewMemoryStore(cfg.Session.TTL())
	}
	logger.Info("session backend selected", zap.String("backend", cfg.Session.Backend))

	hub := events.NewHub(logger)
	var bridge worker.Runner
	if redis.Enabled() {
		bridge = events.NewRedisBridge(redis.Client, cfg.Redis.EventsChannel, hub, logger)
	}
	bridgeReady := worker.StartSelectionBridge(ctx, bridge, bridgeRetry, logger)
	select {
	case <-bridgeReady:
	case <-time.After(readyWaitLimit):
		logger.Warn("selection bridge not subscribed yet; continuing")
	}

	httpClient := &http.Client{}
	api := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout(), httpClient, metrics)
	checks["backend"] = api
	metricsAPI := upstream.NewMetricsClient(cfg.Upstream.MetricsBaseURL, cfg.Upstream.Timeout(), httpClient, metrics)
	suggestAPI := upstream.NewSuggestionClient(cfg.Upstream.SuggestBaseURL, cfg.Upstream.Timeout(), httpClient, metrics)

	state := selection.NewState(store, hub)
	center := notify.NewCenter(cfg.Notify.DefaultTTL())
	notices := service.NewNotificationService(center, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		API:       api,
		Store:     store,
		Selection: state,
		Notices:   notices,
		Validator: validation.New(cfg.Auth.AllowedEmailDomains),
		Logger:    logger,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		API:       api,
		Metrics:   metricsAPI,
		Selection: state,
		Notices:   notices,
		Logger:    logger,
	})
	suggestionService := service.NewSuggestionService(cfg.Suggest, suggestAPI, logger)

	guard := auth.NewRouteGuard(session.NewTokenStore(store), api, auth.Options{
		Mode:      auth.Mode(cfg.Guard.Mode),
		LoginPath: cfg.Guard.LoginPath,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareOptions{
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks, metrics),
		Auth:        handlers.NewAuthHandler(authService),
		Portal:      handlers.NewPortalHandler(dashboardService, state, logger, sseHeartbeat),
		Toasts:      handlers.NewToastsHandler(center),
		Suggestions: handlers.NewSuggestionsHandler(suggestionService),
		Guard:       guard,
		Session: session.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
		},
		RateLimiter: httptransport.NewRateLimiter(cfg.RateLimit.AuthRequestsPerMinute),
		StaticDir:   cfg.App.StaticDir,
	})

	go func() {
		logger.Info("portal gateway listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
