package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cachefleet/cachefleet/internal/api"
	"github.com/cachefleet/cachefleet/internal/buildconfig"
	"github.com/cachefleet/cachefleet/internal/config"
	"github.com/cachefleet/cachefleet/internal/service"
	"github.com/cachefleet/cachefleet/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	if config.JWTSecret() == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database")

	// Seed the admin account if it doesn't exist yet
	userStore := store.NewUserStore(pool)
	if err := service.BootstrapAdmin(ctx, userStore, config.AdminEmail(), config.AdminPassword(), logger); err != nil {
		logger.Fatal("failed to bootstrap admin user", zap.Error(err))
	}

	app := api.NewApp(pool, logger)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()),
			zap.String("commit", buildconfig.Commit()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
