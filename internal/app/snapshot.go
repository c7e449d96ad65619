package app

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/skuboard/skuboard/internal/snapshot"
)

// SnapshotDeps are the shared pieces both binaries need to read snapshots.
type SnapshotDeps struct {
	Loader *snapshot.Loader
	Close  func() error
}

// NewSnapshotLoader builds the configured source behind the Redis cache. A
// missing source is not fatal: the API stays up and reports the
// misconfiguration per request.
func NewSnapshotLoader(ctx context.Context, cfg *Config, redisClient *redis.Client, metrics *snapshot.Metrics, logger *slog.Logger) (SnapshotDeps, error) {
	deps := SnapshotDeps{Close: func() error { return nil }}

	var source snapshot.Source
	switch {
	case cfg.UsesGCS():
		client, err := snapshot.NewGCSClient(ctx, cfg.GCPServiceAccountKey)
		if err != nil {
			return deps, err
		}
		deps.Close = client.Close
		source = snapshot.NewGCSSource(client, cfg.SnapshotGCSBucket, cfg.SnapshotGCSObject)
		logger.Info("snapshot source", slog.String("kind", "gcs"), slog.String("bucket", cfg.SnapshotGCSBucket), slog.String("object", cfg.SnapshotGCSObject))
	case cfg.SnapshotURL != "":
		source = snapshot.NewHTTPSource(cfg.SnapshotURL, cfg.SnapshotFetchTimeout)
		logger.Info("snapshot source", slog.String("kind", "http"))
	default:
		logger.Warn("no snapshot source configured; set SNAPSHOT_URL or SNAPSHOT_GCS_BUCKET + SNAPSHOT_GCS_OBJECT")
	}

	var cache *snapshot.Cache
	if redisClient != nil {
		cache = snapshot.NewCache(redisClient, cfg.SnapshotTTL)
	}
	deps.Loader = snapshot.NewLoader(snapshot.LoaderConfig{
		Source:       source,
		Cache:        cache,
		LocalTTL:     cfg.SnapshotLocalTTL,
		FetchTimeout: cfg.SnapshotFetchTimeout,
		Logger:       logger,
		Metrics:      metrics,
	})
	return deps, nil
}
