package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/skuboard/skuboard/internal/platform/httpx"
)

const (
	defaultFetchTimeout = 30 * time.Second
	flightKey           = "snapshot"
)

// LoaderConfig collects the dependencies of a Loader.
type LoaderConfig struct {
	Source       Source
	Cache        *Cache
	LocalTTL     time.Duration
	FetchTimeout time.Duration
	Logger       *slog.Logger
	Metrics      *Metrics
}

// Loader serves snapshots through an in-process memo and the Redis cache,
// collapsing concurrent upstream fetches into one.
type Loader struct {
	source       Source
	cache        *Cache
	local        *memo
	fetchTimeout time.Duration
	logger       *slog.Logger
	metrics      *Metrics
	group        singleflight.Group
}

// NewLoader wires a Loader.
func NewLoader(cfg LoaderConfig) *Loader {
	source := cfg.Source
	if source == nil {
		source = UnconfiguredSource{}
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		source:       source,
		cache:        cfg.Cache,
		local:        newMemo(cfg.LocalTTL),
		fetchTimeout: timeout,
		logger:       logger,
		metrics:      cfg.Metrics,
	}
}

// Snapshot returns the current snapshot. ModeNoStore bypasses both cache tiers.
func (l *Loader) Snapshot(ctx context.Context, mode Mode) (*Snapshot, error) {
	if mode == ModeNoStore {
		return l.fetch(ctx)
	}
	if snap, ok := l.local.Get(); ok {
		l.metrics.hit("memory")
		return snap, nil
	}

	resultChan := l.group.DoChan(flightKey, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.fetchTimeout)
		defer cancel()
		return l.loadThrough(fctx)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", httpx.ErrFetch, ctx.Err())
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Refresh fetches upstream unconditionally and repopulates both cache tiers.
func (l *Loader) Refresh(ctx context.Context) (*Snapshot, error) {
	at := l.capture(ctx)
	snap, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	l.store(ctx, at, snap)
	return snap, nil
}

// Invalidate drops the cached snapshot on every replica.
func (l *Loader) Invalidate(ctx context.Context) error {
	l.local.Bust()
	l.group.Forget(flightKey)
	if err := l.cache.Bump(ctx); err != nil {
		return fmt.Errorf("snapshot: bump cache: %w", err)
	}
	return nil
}

// Watch clears the in-process memo whenever another process bumps the cache.
func (l *Loader) Watch(ctx context.Context) error {
	return l.cache.ListenForInvalidation(ctx, func(version int64) {
		l.logger.Debug("snapshot cache bumped", slog.Int64("version", version))
		l.local.Bust()
	})
}

// storeTarget pins where a load may write its result: the Redis key and memo
// generation current when the load began.
type storeTarget struct {
	key string
	gen uint64
}

func (l *Loader) capture(ctx context.Context) storeTarget {
	at := storeTarget{gen: l.local.Generation()}
	key, err := l.cache.Key(ctx)
	if err != nil {
		l.logger.Warn("snapshot cache version", slog.Any("error", err))
	}
	at.key = key
	return at
}

func (l *Loader) loadThrough(ctx context.Context) (*Snapshot, error) {
	at := l.capture(ctx)
	snap, ok, err := l.cache.GetAt(ctx, at.key)
	if err != nil {
		l.logger.Warn("snapshot cache read", slog.Any("error", err))
	}
	if ok {
		l.metrics.hit("redis")
		l.local.SetIfCurrent(snap, at.gen)
		return snap, nil
	}
	l.metrics.miss()
	snap, err = l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	l.store(ctx, at, snap)
	return snap, nil
}

func (l *Loader) fetch(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	snap, err := l.source.Fetch(ctx)
	l.metrics.observeFetch(start, err)
	if err != nil {
		l.logger.Error("snapshot fetch", slog.Any("error", err), slog.Duration("duration", time.Since(start)))
		return nil, err
	}
	l.logger.Debug("snapshot fetched",
		slog.String("generated_at", snap.GeneratedAt),
		slog.Int("products", len(snap.Products)),
		slog.Int("skus", len(snap.SKUs)),
		slog.Duration("duration", time.Since(start)),
	)
	return snap, nil
}

func (l *Loader) store(ctx context.Context, at storeTarget, snap *Snapshot) {
	if err := l.cache.SetAt(ctx, at.key, snap); err != nil {
		l.logger.Warn("snapshot cache write", slog.Any("error", err))
	}
	l.local.SetIfCurrent(snap, at.gen)
}
