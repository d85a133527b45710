package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendly/internal/auth"
	"spendly/internal/backend"
	"spendly/internal/cache"
	"spendly/internal/cli"
	"spendly/internal/config"
	apphttp "spendly/internal/http"
	"spendly/internal/log"
	"spendly/internal/services"
	"spendly/internal/summary"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	var (
		publisher services.Publisher
		broker    apphttp.Pinger
	)
	if res.AMQP != nil {
		publisher, broker = res.AMQP, res.AMQP
	}

	var (
		dashboards *cache.LRUCache[summary.Dashboard]
		dashCache  cache.Cache[summary.Dashboard]
	)
	if cfg.CacheTTL > 0 {
		dashboards = cache.NewLRUCache[summary.Dashboard](500, cfg.CacheTTL)
		dashCache = dashboards
	}
	deps := apphttp.Deps{
		Users:      auth.NewService(res.Store, cfg.BcryptCost),
		Records:    services.NewRecordService(res.Store, res.Store, publisher, dashCache),
		Budgets:    services.NewBudgetService(res.Store, res.Store),
		Store:      res.Store,
		Broker:     broker,
		Dashboards: dashboards,
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps, apphttp.Options{
		Logger:             logger,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting spendly server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"amqp_enabled", res.AMQP != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			exitCode = 1
		}
	}

	cli.Shutdown(logger, 30*time.Second, func(ctx context.Context) error {
		return errors.Join(srv.Shutdown(ctx), res.Cleanup())
	})
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
