package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "snapshot:version"
	cacheKeyPrefix  = "snapshot:doc"
	bumpChannel     = "snapshot.bump"
)

// Cache keeps the decoded snapshot in Redis under a versioned key so that a
// single Bump invalidates every replica.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Enabled reports whether a Redis client is wired.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

func (c *Cache) key(ctx context.Context) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", cacheKeyPrefix, ver), nil
}

// Key returns the document key of the current version, or "" when the cache
// is disabled.
func (c *Cache) Key(ctx context.Context) (string, error) {
	if !c.Enabled() {
		return "", nil
	}
	return c.key(ctx)
}

// Get returns the cached snapshot of the current version. The boolean is
// false on a miss.
func (c *Cache) Get(ctx context.Context) (*Snapshot, bool, error) {
	key, err := c.Key(ctx)
	if err != nil {
		return nil, false, err
	}
	return c.GetAt(ctx, key)
}

// GetAt reads the document stored under key.
func (c *Cache) GetAt(ctx context.Context, key string) (*Snapshot, bool, error) {
	if !c.Enabled() || key == "" {
		return nil, false, nil
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	snap, err := Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

// Set stores the snapshot under the current version.
func (c *Cache) Set(ctx context.Context, snap *Snapshot) error {
	key, err := c.Key(ctx)
	if err != nil {
		return err
	}
	return c.SetAt(ctx, key, snap)
}

// SetAt stores the snapshot under key. Writing to a key taken before a Bump
// lands on a version nobody reads any more.
func (c *Cache) SetAt(ctx context.Context, key string, snap *Snapshot) error {
	if !c.Enabled() || key == "" || snap == nil {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Bump invalidates the cache by incrementing the version and publishing an event.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation subscribes to version bump notifications and calls
// onBump for each one until ctx is cancelled.
func (c *Cache) ListenForInvalidation(ctx context.Context, onBump func(version int64)) error {
	if !c.Enabled() {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, bumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ver, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					continue
				}
				if onBump != nil {
					onBump(ver)
				}
			}
		}
	}()
	return nil
}
