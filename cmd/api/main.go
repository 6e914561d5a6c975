// Package main provides the entrypoint for the nitromap API server.
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

	"github.com/rs/zerolog"

	"github.com/nitromap/nitromap/internal/api"
	"github.com/nitromap/nitromap/internal/api/middleware"
	"github.com/nitromap/nitromap/internal/config"
	"github.com/nitromap/nitromap/internal/dataset"
	"github.com/nitromap/nitromap/internal/observability"
	"github.com/nitromap/nitromap/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "nitromap-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "nitromap: %v\n", err)
		os.Exit(1)
	}

	log, err := config.NewLogger(cfg.Log, os.Stdout, serviceName, Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nitromap: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.App.Env).
		Msg("starting nitromap API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.FromConfig(cfg, serviceName, Version))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()
	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()

	datasets := &dataset.Holder{}
	router, err := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		HTTPMetrics: httpMetrics,
		Metrics:     metrics,
		Datasets:    datasets,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Server.RateLimit,
		RequireTLS:  cfg.Server.RequireTLS,
		StaticDir:   cfg.Data.Path(cfg.Data.StaticDir),
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errc := make(chan error, 2)

	// Serve liveness while the datasets load; readiness and queries answer
	// 503 until the store is attached.
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	go func() {
		store, err := loadDatasets(ctx, cfg, log, metrics)
		if err != nil {
			errc <- err
			return
		}
		datasets.Attach(store)
		log.Info().Msg("datasets attached, ready to serve queries")
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	case runErr = <-errc:
		log.Error().Err(runErr).Msg("shutting down after failure")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return errors.Join(runErr, err)
	}

	log.Info().Msg("server stopped")
	return runErr
}

func loadDatasets(ctx context.Context, cfg *config.Config, log zerolog.Logger, metrics *observability.Metrics) (*dataset.Store, error) {
	src, closeSource, err := dataset.BudgetSource(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	start := time.Now()
	store, err := dataset.Load(ctx, dataset.Options{
		Data:    cfg.Data,
		Budget:  src,
		Logger:  log,
		Metrics: metrics,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("all datasets loaded")
	return store, nil
}
