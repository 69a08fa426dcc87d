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

	"github.com/fmhr12/ORN-Prognosis/internal/app"
	"github.com/fmhr12/ORN-Prognosis/internal/config"
	dbRedis "github.com/fmhr12/ORN-Prognosis/internal/db/redis"
	logpkg "github.com/fmhr12/ORN-Prognosis/internal/logger"
	"github.com/fmhr12/ORN-Prognosis/internal/metrics"
	"github.com/fmhr12/ORN-Prognosis/internal/repository/explcache"
	"github.com/fmhr12/ORN-Prognosis/internal/tracing"
	chiTransport "github.com/fmhr12/ORN-Prognosis/internal/transport/chi"
	healthuc "github.com/fmhr12/ORN-Prognosis/internal/usecase/health"
	"github.com/fmhr12/ORN-Prognosis/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ORN prognosis API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	ctx := context.Background()

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    "ornprog",
		ServiceVersion: version.Version,
		Environment:    env,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Fatal("Failed to init tracing", zap.Error(err))
	}

	// Register explanation metrics explicitly (no init())
	metrics.RegisterExplainMetrics()

	opts, err := app.OptionsFromConfig(cfg)
	if err != nil {
		logger.Fatal("Invalid artifact options", zap.Error(err))
	}
	loadStart := time.Now()
	art, err := app.Load(ctx, opts)
	if err != nil {
		logger.Fatal("Failed to load artifacts", zap.Error(err))
	}
	stats := art.Stats()
	logger.Info("Artifacts loaded",
		zap.String("model", stats.Model),
		zap.String("artifact_version", stats.Version),
		zap.Int("grid_rows", stats.GridRows),
		zap.Strings("time_points", stats.Tags),
		zap.Int("curves", len(stats.Curves)),
		zap.Duration("elapsed", time.Since(loadStart)),
	)

	// Pass a nil interface, not a typed nil *Store, when the cache is off.
	var explainer chiTransport.Explainer = art.Explainer
	var cachePinger healthuc.Pinger
	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to explanation cache", zap.Strings("addrs", cfg.Cache.Addrs))

		explainer = explcache.New(art.Explainer, store,
			time.Duration(cfg.Cache.TTLSec)*time.Second, art.Version, logger)
		cachePinger = store
	}

	healthSvc := healthuc.New(art, cachePinger)

	var limiter *chiTransport.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter, err = chiTransport.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		if err != nil {
			logger.Fatal("Invalid rate limit", zap.Error(err))
		}
	}

	server := chiTransport.NewServer(chiTransport.Deps{
		Explainer: explainer,
		Predictor: art.Predictor,
		Curves:    art.Curves,
		Causes:    art.Model,
		Health:    healthSvc,
		Schema:    art.Schema,
		Tags:      art.Explainer.Tags(),
	}, chiTransport.Defaults{
		ExplainTime: cfg.Explain.DefaultTime,
		Cause:       cfg.Explain.DefaultCause,
		Overlays:    cfg.Curve.Overlays,
	})

	r := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:      cfg.Auth.APIKeys,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		RateLimiter:  limiter,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
		logger.Error("Error flushing traces", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
