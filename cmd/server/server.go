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

	"go.uber.org/zap"

	"github.com/draff227/bslc/internal/adapters/http/middleware"
	"github.com/draff227/bslc/internal/adapters/http/router"
	"github.com/draff227/bslc/internal/adapters/storage/memory"
	redisstorage "github.com/draff227/bslc/internal/adapters/storage/redis"
	sqlitestorage "github.com/draff227/bslc/internal/adapters/storage/sqlite"
	"github.com/draff227/bslc/internal/config"
	"github.com/draff227/bslc/internal/core/domain"
	"github.com/draff227/bslc/internal/core/ports"
	"github.com/draff227/bslc/internal/core/services"
	applog "github.com/draff227/bslc/internal/log"
)

const shutdownTimeout = 10 * time.Second

type routeSeeder interface {
	Seed(ctx context.Context, data domain.RouteTableData) error
}

func runServer(parent context.Context, cfg config.Config) error {
	logger, err := applog.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	calculator, err := loadCalculator(ctx, cfg)
	if err != nil {
		return err
	}

	limiter, err := services.NewRateLimiterService(services.RateLimiterConfig{
		Rule:            cfg.RateLimiter.Rule,
		CleanupInterval: cfg.RateLimiter.CleanupInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create limiter: %w", err)
	}

	handler := router.New(router.Dependencies{
		Limiter:    limiter,
		Calculator: calculator,
		Gate: middleware.GateConfig{
			PublicPrefix:      middleware.DefaultPublicPrefix,
			APIPrefix:         middleware.DefaultAPIPrefix,
			AllowedOrigins:    cfg.Gate.AllowedOrigins,
			ExemptIdentifiers: cfg.RateLimiter.ExemptIdentifiers,
		},
		Logger: logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	logger.Info("server listening",
		zap.String("addr", srv.Addr),
		zap.String("routes_source", cfg.Routes.Source),
		zap.Int("rate_limit_requests", cfg.RateLimiter.Rule.Requests),
		zap.Duration("rate_limit_window", cfg.RateLimiter.Rule.Window),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

// loadCalculator lê a tabela da fonte configurada e a congela em memória.
func loadCalculator(ctx context.Context, cfg config.Config) (*services.PricingService, error) {
	source, closeFn, err := initRouteSource(cfg.Routes)
	if err != nil {
		return nil, fmt.Errorf("failed to init route source: %w", err)
	}
	defer closeFn()

	data, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	table, err := memory.NewRouteTable(data)
	if err != nil {
		return nil, fmt.Errorf("invalid route table: %w", err)
	}

	return services.NewPricingService(table, cfg.Pricing)
}

func initRouteSource(cfg config.RoutesConfig) (ports.RouteSource, func(), error) {
	switch cfg.Source {
	case config.RoutesSourceBuiltin, "":
		return memory.BuiltinSource{}, func() {}, nil
	case config.RoutesSourceSQLite:
		storage, err := sqlitestorage.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() { _ = storage.Close() }, nil
	case config.RoutesSourceRedis:
		storage, err := newRedisStorage(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() { _ = storage.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported routes source: %s", cfg.Source)
	}
}

func openSeeder(target string, cfg config.RoutesConfig) (routeSeeder, func(), error) {
	switch target {
	case config.RoutesSourceSQLite:
		storage, err := sqlitestorage.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() { _ = storage.Close() }, nil
	case config.RoutesSourceRedis:
		storage, err := newRedisStorage(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() { _ = storage.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported seed target: %q (use sqlite or redis)", target)
	}
}

func newRedisStorage(cfg config.RedisConfig) (*redisstorage.Storage, error) {
	return redisstorage.New(redisstorage.Config{
		Addr:      cfg.Addr(),
		Password:  cfg.Password,
		DB:        cfg.DB,
		KeyPrefix: cfg.KeyPrefix,
	})
}
