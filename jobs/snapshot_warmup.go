package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/skuboard/skuboard/internal/jobs"
	"github.com/skuboard/skuboard/internal/snapshot"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const warmupTimeout = 2 * time.Minute

// SnapshotRefresher reloads the snapshot from its source into the caches.
type SnapshotRefresher interface {
	Refresh(ctx context.Context) (*snapshot.Snapshot, error)
}

// SnapshotWarmupJob keeps the shared snapshot cache populated.
type SnapshotWarmupJob struct {
	Refresher SnapshotRefresher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewSnapshotWarmupJob wires dependencies for the warmup handler.
func NewSnapshotWarmupJob(refresher SnapshotRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotWarmupJob {
	return &SnapshotWarmupJob{
		Refresher: refresher,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes snapshot warmup tasks.
func (j *SnapshotWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Refresher == nil {
		return errors.New("snapshot warmup: handler not configured")
	}
	var payload SnapshotWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Reason == "" {
		payload.Reason = ReasonManual
	}

	tracker := j.metrics().Track("snapshot_warmup")
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := j.now()

	runCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	snap, err := j.Refresher.Refresh(runCtx)
	if err != nil {
		resultErr = err
		logger.Error("refresh snapshot", slog.Any("error", err))
		return resultErr
	}

	m := j.metrics()
	m.SetSnapshotRows("products", len(snap.Products))
	m.SetSnapshotRows("skus", len(snap.SKUs))
	m.SetSnapshotRows("notes", len(snap.Notes))
	m.SetSnapshotRows("settings", len(snap.Settings))

	logger.Info("snapshot warmed",
		slog.String("generated_at", snap.GeneratedAt),
		slog.Int("products", len(snap.Products)),
		slog.Duration("duration", j.now().Sub(start)),
	)
	return resultErr
}

func (j *SnapshotWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSnapshotWarmup))
	}
	return slog.Default().With(slog.String("job", TaskSnapshotWarmup))
}

func (j *SnapshotWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SnapshotWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
