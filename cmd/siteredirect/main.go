package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/issafronov/siteredirect/internal/app/config"
	"github.com/issafronov/siteredirect/internal/app/handlers"
	"github.com/issafronov/siteredirect/internal/app/service"
	"github.com/issafronov/siteredirect/internal/app/storage"
	"github.com/issafronov/siteredirect/internal/metrics"
	"github.com/issafronov/siteredirect/internal/middleware/logger"
	"github.com/issafronov/siteredirect/internal/middleware/trustedsubnet"
	"github.com/issafronov/siteredirect/internal/pprof"
	"go.uber.org/zap"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Printf("Build version: %s\nBuild date: %s\nBuild commit: %s\n", buildVersion, buildDate, buildCommit)

	cfg := config.LoadConfig()
	if err := logger.Initialize(cfg.LoggerLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Log.Error("server stopped with error", zap.Error(err))
		panic(err)
	}
}

// newApp собирает сервис и маршруты поверх хранилища
func newApp(ctx context.Context, cfg *config.Config, store storage.Storage) (http.Handler, service.Service, error) {
	svc := service.NewService(store, cfg.SiteURL,
		service.WithDecisionCache(cfg.DecisionCacheSize, cfg.DecisionCacheTTL),
	)
	if err := service.Bootstrap(ctx, svc, cfg.InitialSettings()); err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	trustedNet, err := trustedsubnet.Parse(cfg.TrustedSubnet)
	if err != nil {
		return nil, nil, fmt.Errorf("parse trusted subnet: %w", err)
	}

	h, err := handlers.NewHandler(cfg, svc)
	if err != nil {
		return nil, nil, err
	}

	if cfg.MetricsEnabled {
		metrics.Initialize()
	}
	return h.Router(trustedNet), svc, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer func() {
		if closeErr := storage.Close(store); closeErr != nil {
			logger.Log.Error("failed to close storage", zap.Error(closeErr))
		}
	}()

	router, _, err := newApp(ctx, cfg, store)
	if err != nil {
		return err
	}

	if srv := pprof.Start(cfg.PprofAddress); srv != nil {
		defer srv.Close()
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Running server",
			zap.String("address", cfg.ServerAddress),
			zap.String("site", cfg.SiteURL),
			zap.Bool("https", cfg.EnableHTTPS),
		)
		if cfg.EnableHTTPS {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
