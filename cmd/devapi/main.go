package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/afiatamanna06/csedu-web-sub001/internal/auth"
	"github.com/afiatamanna06/csedu-web-sub001/internal/config"
	"github.com/afiatamanna06/csedu-web-sub001/internal/devapi"
	"github.com/afiatamanna06/csedu-web-sub001/internal/observability"
	"github.com/afiatamanna06/csedu-web-sub001/internal/persistence"
	"github.com/afiatamanna06/csedu-web-sub001/internal/repository"
	"github.com/afiatamanna06/csedu-web-sub001/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, "csedu-devapi")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var accounts repository.AccountRepository
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		accounts = repository.NewAccountRepository(pg.PoolHandle())
	} else {
		accounts = repository.NewMemoryAccountRepository()
	}

	authService := service.NewAuthService(cfg.Auth, accounts, logger)
	if err := authService.SeedAdmin(ctx, cfg.Auth.SeedAdminEmail, cfg.Auth.SeedAdminPassword); err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}

	app := devapi.NewApp(devapi.RouteConfig{
		Handler:        devapi.NewHandler(authService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), accounts),
		Logger:         logger,
		Metrics:        observability.NewMetrics(),
	})

	addr := cfg.App.Host + ":" + getPort()
	go func() {
		if err := app.Listen(addr); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("development department api listening", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	_ = app.Shutdown()
}

func getPort() string {
	if port := os.Getenv("DEVAPI_PORT"); port != "" {
		return port
	}
	return "8000"
}
