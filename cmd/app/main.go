package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wichananm65/fitness-shop-backend/internal/app"
	"github.com/wichananm65/fitness-shop-backend/internal/config"
	"github.com/wichananm65/fitness-shop-backend/internal/logging"
	"github.com/wichananm65/fitness-shop-backend/internal/server"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	app.ConfigureJSON()

	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(context.Background()); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()
	if err := deps.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	srv := server.New(server.Deps{
		Log:         logger,
		CORSOrigins: cfg.CORSOrigins,
		JWTSecret:   cfg.Auth.JWTSecret,
		Products:    deps.Products,
		Orders:      deps.Orders,
		Content:     deps.Content,
		Recommender: deps.Recommender,
		Verifier:    deps.Verifier,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr), zap.String("store", cfg.Store.Driver))
		errCh <- srv.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.ShutdownWithContext(shutdownCtx)
}
