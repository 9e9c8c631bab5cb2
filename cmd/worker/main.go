package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intellidoc/repodoc/internal/bootstrap"
	"github.com/intellidoc/repodoc/internal/config"
	"github.com/intellidoc/repodoc/internal/core/domain"
	"github.com/intellidoc/repodoc/internal/observability/logging"
	"github.com/intellidoc/repodoc/internal/observability/metrics"
)

const serviceName = "repodoc-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	go purgeExpiredCache(ctx, app)

	slog.Info("worker subscribed", "subject", cfg.NATSJobsSubject, "partitions", cfg.NATSJobPartitions)
	err = app.Queue.SubscribeJobs(ctx, func(handlerCtx context.Context, job domain.ProcessingJob) error {
		jobCtx, cancel := context.WithTimeout(handlerCtx, cfg.JobProcessingTimeout)
		defer cancel()

		workerMetrics.StartJob()
		start := time.Now()
		err := app.ProcessUC.Handle(jobCtx, job)
		workerMetrics.FinishJob(serviceName, string(job.ActionType), time.Since(start), err)
		return err
	})
	if err != nil && ctx.Err() == nil {
		slog.Error("worker subscribe", "error", err)
		os.Exit(1)
	}
}

// purgeExpiredCache sweeps expired cache rows hourly. Reads already filter on
// the expiry timestamp; the sweep only keeps the table from growing.
func purgeExpiredCache(ctx context.Context, app *bootstrap.App) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := app.Cache.PurgeExpired(ctx)
			if err != nil {
				slog.Warn("cache purge failed", "error", err)
				continue
			}
			if purged > 0 {
				slog.Info("cache purged", "entries", purged)
			}
		}
	}
}
