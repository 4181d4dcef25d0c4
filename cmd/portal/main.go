package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/afiatamanna06/csedu-web-sub001/internal/api/http"
	"github.com/afiatamanna06/csedu-web-sub001/internal/api/http/handlers"
	"github.com/afiatamanna06/csedu-web-sub001/internal/api/http/websession"
	"github.com/afiatamanna06/csedu-web-sub001/internal/config"
	"github.com/afiatamanna06/csedu-web-sub001/internal/events"
	"github.com/afiatamanna06/csedu-web-sub001/internal/gateway"
	"github.com/afiatamanna06/csedu-web-sub001/internal/observability"
	"github.com/afiatamanna06/csedu-web-sub001/internal/persistence"
	"github.com/afiatamanna06/csedu-web-sub001/internal/service"
	"github.com/afiatamanna06/csedu-web-sub001/internal/session"
	"github.com/afiatamanna06/csedu-web-sub001/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redis *persistence.Redis
	var storage session.TokenStorage
	switch cfg.Session.Storage {
	case config.StorageRedis:
		redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		storage = session.NewRedisStorage(redis.Client, "portal")
	case config.StorageFile:
		fileStorage, err := session.NewFileStorage(cfg.Session.FileDir)
		if err != nil {
			logger.Fatal("failed to prepare session directory", zap.Error(err))
		}
		storage = fileStorage
	default:
		storage = session.NewMemoryStorage()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	auditService := service.NewAuditService(dispatcher, logger, service.DefaultAuditTrailSize)
	worker.StartAuditWorker(auditService)

	client := gateway.NewClient(cfg.Gateway.BaseURL,
		gateway.WithTimeout(cfg.Gateway.Timeout()),
		gateway.WithLogger(logger),
		gateway.WithMetrics(metrics),
		gateway.WithDispatcher(dispatcher))
	manager := session.NewManager(storage, cfg.Session.TokenKey,
		session.WithLogger(logger),
		session.WithDispatcher(dispatcher))

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis, metrics),
		Auth:      handlers.NewAuthHandler(),
		Dashboard: handlers.NewDashboardHandler(),
		Admin:     handlers.NewAdminHandler(auditService),
		Session: websession.NewMiddleware(manager, client, websession.CookieConfig{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.CookieTTL(),
			Secure: cfg.Session.CookieSecure,
		}, logger),
		RateLimit: httptransport.RateLimitMiddleware(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
	})

	logger.Info("portal starting",
		zap.String("addr", cfg.App.Addr()),
		zap.String("api_base_url", cfg.Gateway.BaseURL),
		zap.String("session_storage", cfg.Session.Storage))

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
