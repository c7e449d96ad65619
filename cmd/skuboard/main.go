package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/skuboard/skuboard/cmd/skuboard/cli"
	"github.com/skuboard/skuboard/internal/app"
	"github.com/skuboard/skuboard/internal/auth"
	"github.com/skuboard/skuboard/internal/catalog"
	cataloghttp "github.com/skuboard/skuboard/internal/catalog/http"
	"github.com/skuboard/skuboard/internal/notes"
	noteshttp "github.com/skuboard/skuboard/internal/notes/http"
	"github.com/skuboard/skuboard/internal/observability"
	"github.com/skuboard/skuboard/internal/platform/cache"
	"github.com/skuboard/skuboard/internal/snapshot"
	"github.com/skuboard/skuboard/jobs"
)

func main() {
	_ = godotenv.Load()

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobs(ctx, cfg, os.Args[2:]))
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	snapshotMetrics := snapshot.NewMetrics(metrics.Registerer())

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
	go func() {
		if err := snapshots.Loader.Watch(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("snapshot invalidation listener", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	catalogService := catalog.NewService(snapshots.Loader, logger)
	catalogHandler := cataloghttp.NewHandler(logger, catalogService)

	notesWriter := notes.NewWebAppWriter(cfg.NotesWebAppURL, cfg.NotesWebAppToken, cfg.SnapshotFetchTimeout)
	if !notesWriter.Configured() {
		logger.Warn("notes writer not configured; POST /api/notes will answer 501")
	}
	notesService := notes.NewService(notes.ServiceConfig{
		Provider:    snapshots.Loader,
		Writer:      notesWriter,
		Invalidator: snapshots.Loader,
		Refresher:   jobClient,
		Logger:      logger,
	})
	notesHandler := noteshttp.NewHandler(logger, notesService)

	allow := auth.ParseAllowList(cfg.AllowedEmails)
	if allow.Len() == 0 {
		logger.Warn("ALLOWED_EMAILS is empty; every API request will be rejected")
	}
	gate := auth.NewGate(allow, cfg.AuthEmailHeader, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Gate:           gate,
		CatalogHandler: catalogHandler,
		NotesHandler:   notesHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// runJobs handles `skuboard jobs <trigger NAME|stats|scheduled>`.
func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: skuboard jobs <trigger NAME|stats|scheduled>")
		return 2
	}
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer jobsCLI.Close()

	switch args[0] {
	case "trigger":
		name := jobs.TaskSnapshotWarmup
		if len(args) > 1 {
			name = args[1]
		}
		info, err := jobsCLI.Trigger(ctx, name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	case "scheduled":
		tasks, err := jobsCLI.ListScheduled(ctx, 20)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, task := range tasks {
			fmt.Printf("%s %s next=%s\n", task.ID, task.Type, task.NextProcessAt.Format(time.RFC3339))
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown jobs command %q\n", args[0])
		return 2
	}
	return 0
}
