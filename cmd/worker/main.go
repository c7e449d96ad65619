package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skuboard/skuboard/internal/app"
	jobmetrics "github.com/skuboard/skuboard/internal/jobs"
	"github.com/skuboard/skuboard/internal/platform/cache"
	"github.com/skuboard/skuboard/internal/snapshot"
	"github.com/skuboard/skuboard/jobs"
)

func main() {
	_ = godotenv.Load()

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	snapshotMetrics := snapshot.NewMetrics(prometheus.DefaultRegisterer)
	snapshots, err := app.NewSnapshotLoader(ctx, cfg, redisClient, snapshotMetrics, logger)
	if err != nil {
		logger.Error("init snapshot source", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := snapshots.Close(); err != nil {
			logger.Warn("snapshot source close", slog.Any("error", err))
		}
	}()

	warmupJob := jobs.NewSnapshotWarmupJob(snapshots.Loader, logger, jobmetrics.NewMetrics(nil))

	warmupTask, err := jobs.NewSnapshotWarmupTask(jobs.ReasonCron)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	var cron []jobs.CronRegistration
	if cfg.SnapshotRefreshCron != "" {
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.SnapshotRefreshCron,
			Task:    warmupTask,
			Options: []asynq.Option{asynq.MaxRetry(3)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSnapshotWarmup, Handler: warmupJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler()}
		go func() {
			logger.Info("starting worker metrics", slog.String("addr", cfg.WorkerMetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			_ = metricsServer.Close()
		}()
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
