// cmd/worker-manager/main.go
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

	"travel-planner/internal/common/cache"
	"travel-planner/internal/common/camunda"
	"travel-planner/internal/common/config"
	"travel-planner/internal/common/database"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/observability"
	"travel-planner/internal/planner"
	"travel-planner/internal/providers/contextsource"

	hbi "travel-planner/internal/workers/planning/hotel-booking-intent"
	pt "travel-planner/internal/workers/planning/plan-trip"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting worker manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name, cfg.Tracing, log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ready := &readiness{}

	store, closeCache := buildCache(ctx, cfg, ready, log)
	defer closeCache()

	source, closeContext := buildContextSource(ctx, cfg, ready, log)
	defer closeContext()

	svc := planner.Build(cfg, planner.Infra{Cache: store, Context: source, Obs: obs}, log)

	workers := camunda.NewWorkers(log)
	if config.IsWorkerEnabled(cfg, pt.TaskType) || config.IsWorkerEnabled(cfg, hbi.TaskType) {
		zeebeClient, err := camunda.Connect(ctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed", zap.Error(err))
		}
		defer zeebeClient.Close()
		ready.add("zeebe", func(ctx context.Context) error {
			return camunda.HealthCheck(ctx, zeebeClient, config.GetDuration(cfg.Camunda.RequestTimeout))
		})

		planCfg := pt.ConfigFromApp(cfg)
		if err := planCfg.Validate(); err != nil {
			zapLog.Fatal("invalid plan-trip worker config", zap.Error(err))
		}
		planHandler := pt.NewHandler(planCfg, svc.Planner, obs, log)
		workers.Start(zeebeClient, pt.TaskType, config.GetWorkerConfig(cfg, pt.TaskType), planHandler.Handle)

		bookingCfg := hbi.ConfigFromApp(cfg)
		if err := bookingCfg.Validate(); err != nil {
			zapLog.Fatal("invalid hotel-booking-intent worker config", zap.Error(err))
		}
		bookingHandler := hbi.NewHandler(bookingCfg, svc.Hotels, obs, log)
		workers.Start(zeebeClient, hbi.TaskType, config.GetWorkerConfig(cfg, hbi.TaskType), bookingHandler.Handle)
	}
	log.Info("workers registered", map[string]interface{}{"count": workers.Len()})

	srv := &http.Server{
		Addr:              cfg.App.HTTPAddress,
		Handler:           newServer(svc.Ledger, ready),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping health/metrics server", map[string]interface{}{"error": err.Error()})
	}
	log.Info("worker manager stopped gracefully", map[string]interface{}{
		"planner": svc.Ledger.Snapshot(),
	})
}

// buildCache returns the configured lookup cache. An unreachable Redis
// degrades to the in-process store.
func buildCache(ctx context.Context, cfg *config.Config, ready *readiness, log logger.Logger) (cache.Store, func()) {
	if cfg.Cache.Backend != "redis" {
		return cache.NewMemoryStore(), func() {}
	}

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err == nil {
		err = retryWithBackoff(ctx, func() error { return rdb.Ping(ctx) }, 5, time.Second, log, "Redis connection")
	}
	if err != nil {
		log.Warn("redis cache unavailable, using in-memory cache", map[string]interface{}{"error": err.Error()})
		if rdb != nil {
			_ = rdb.Close()
		}
		return cache.NewMemoryStore(), func() {}
	}

	if cfg.Cache.PurgeOnStart {
		n, err := rdb.PurgePrefix(ctx, cfg.Cache.KeyPrefix)
		if err != nil {
			log.Warn("redis cache purge failed", map[string]interface{}{"error": err.Error()})
		} else {
			log.Info("redis cache purged", map[string]interface{}{"keys": n, "prefix": cfg.Cache.KeyPrefix})
		}
	}

	ready.add("redis", rdb.Ping)
	log.Info("redis cache connected", map[string]interface{}{"address": cfg.Database.Redis.Address})
	return cache.NewRedisStore(rdb.Client, cfg.Cache.KeyPrefix), func() { _ = rdb.Close() }
}

// buildContextSource returns the grounding-context backend. Any failure
// leaves planning without context.
func buildContextSource(ctx context.Context, cfg *config.Config, ready *readiness, log logger.Logger) (contextsource.Source, func()) {
	noop := func() {}
	if !cfg.Context.Enabled {
		return contextsource.Noop{}, noop
	}

	switch cfg.Context.Backend {
	case "elasticsearch":
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = retryWithBackoff(ctx, func() error { return es.Ping(ctx) }, 5, time.Second, log, "Elasticsearch connection")
		}
		if err == nil && cfg.Context.Bootstrap {
			err = es.EnsureIndex(ctx, cfg.Context.Index)
		}
		if err != nil {
			log.Warn("elasticsearch context source unavailable", map[string]interface{}{"error": err.Error()})
			return contextsource.Noop{}, noop
		}
		ready.add("elasticsearch", es.Ping)
		return contextsource.NewElasticsearch(es.Client, cfg.Context.Index, cfg.Context.Limit, cfg.Context.SnippetChars), noop

	case "postgres":
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err == nil {
			err = retryWithBackoff(ctx, func() error { return pg.Ping(ctx) }, 5, time.Second, log, "PostgreSQL connection")
		}
		if err == nil && cfg.Context.Bootstrap {
			err = pg.EnsureDocsTable(ctx, cfg.Context.Table)
		}
		var src *contextsource.Postgres
		if err == nil {
			src, err = contextsource.NewPostgres(pg.DB, cfg.Context.Table, cfg.Context.Limit, cfg.Context.SnippetChars)
		}
		if err != nil {
			log.Warn("postgres context source unavailable", map[string]interface{}{"error": err.Error()})
			if pg != nil {
				_ = pg.Close()
			}
			return contextsource.Noop{}, noop
		}
		ready.add("postgres", pg.Ping)
		return src, func() { _ = pg.Close() }

	default:
		return contextsource.Noop{}, noop
	}
}
