package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/beach-status-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/beach-status-engine/internal/adapter/kafka"
	"github.com/couchcryptid/beach-status-engine/internal/adapter/noaa"
	"github.com/couchcryptid/beach-status-engine/internal/adapter/rediscache"
	"github.com/couchcryptid/beach-status-engine/internal/alert"
	"github.com/couchcryptid/beach-status-engine/internal/config"
	"github.com/couchcryptid/beach-status-engine/internal/engine"
	"github.com/couchcryptid/beach-status-engine/internal/observability"
	"github.com/couchcryptid/beach-status-engine/internal/scheduler"
	"github.com/couchcryptid/beach-status-engine/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	stores := postgres.NewStore(db)

	// Latest-status cache (feature-flagged via REDIS_ADDR).
	var cache *rediscache.Cache
	if cfg.RedisEnabled {
		cache, err = rediscache.New(ctx, cfg.RedisAddr, cfg.RedisCacheTTL, logger, metrics)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
		logger.Info("latest-status cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.RedisCacheTTL)
	} else {
		logger.Info("latest-status cache disabled")
	}

	alertWriter := kafkaadapter.NewAlertWriter(cfg, logger)
	readingReader := kafkaadapter.NewReadingReader(cfg, logger, metrics)

	// The compiler and HTTP server take the cache through their own
	// interfaces; a typed nil would dodge their nil checks.
	var statusCache engine.StatusCache
	var latestCache httpadapter.LatestCache
	if cache != nil {
		statusCache = cache
		latestCache = cache
	}

	compiler := engine.NewCompiler(
		stores.Readings, stores.Advisories, stores.Overrides, stores.Snapshots,
		statusCache, cfg.StalenessWindow, cfg.SourcePrecedence, logger, metrics,
	)
	evaluator := alert.NewEvaluator(stores.Rules, alertWriter, clock, cfg.DefaultAlertCooldown, logger, metrics)

	sched := scheduler.New(clock, cfg.TickTimeout, logger, metrics)
	sched.Add(scheduler.NewStatusJob(stores.Beaches, compiler, evaluator, clock, cfg.Workers, logger, metrics), cfg.StatusInterval)
	sched.Add(scheduler.NewIngestJob(readingReader, stores.Readings, cfg.IngestBatchSize, logger, metrics), cfg.IngestInterval)
	sched.Add(scheduler.NewAlertJob(evaluator, logger), cfg.AlertInterval)

	// NOAA station polling (feature-flagged via NOAA_ENABLED).
	if cfg.NOAAEnabled {
		client := noaa.NewClient(cfg.NOAABaseURL, cfg.NOAATimeout, logger)
		poller := noaa.NewPoller(client, stores.Beaches, clock, cfg.IngestInterval/2, logger)
		sched.Add(scheduler.NewIngestJob(poller, stores.Readings, cfg.IngestBatchSize, logger, metrics), cfg.IngestInterval)
		logger.Info("noaa station polling enabled", "timeout", cfg.NOAATimeout)
	} else {
		logger.Info("noaa station polling disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, sched, stores.Snapshots, latestCache, clock, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := readingReader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := alertWriter.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
