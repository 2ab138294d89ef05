package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "primavera:analytics:version"
	bumpChannel     = "primavera.analytics.bump"
)

// Cache stores dashboard snapshots in Redis under versioned keys. Bumping the
// version orphans every snapshot at once; the TTL reclaims them.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		// SETNX keeps a concurrent Bump from being overwritten.
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	return ver, err
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", fmt.Errorf("analytics: cache version: %w", err)
	}
	return joined + ":v" + strconv.FormatInt(ver, 10), nil
}

// cached returns the snapshot under key or builds and stores it. Redis
// failures degrade to calling build directly; build errors are not cached.
func cached[T any](ctx context.Context, c *Cache, key string, build func(context.Context) (T, error)) (T, error) {
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var hit T
			if jsonErr := json.Unmarshal(payload, &hit); jsonErr == nil {
				return hit, nil
			}
			c.logger.Warn("analytics cache entry corrupt", slog.String("key", key))
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("analytics cache read failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	value, err := build(ctx)
	if err != nil {
		return value, err
	}
	if c != nil && c.client != nil {
		raw, err := json.Marshal(value)
		if err == nil {
			err = c.client.Set(ctx, key, raw, c.ttl).Err()
		}
		if err != nil {
			c.logger.Warn("analytics cache write failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return value, nil
}

// Bump invalidates every snapshot by incrementing the version and announces
// the new version on the bump channel.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// Subscribe calls fn with each announced version until ctx is done. The
// worker uses it to re-warm the dashboard after ledger writes.
func (c *Cache) Subscribe(ctx context.Context, fn func(version int64)) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, bumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("analytics: subscribe: %w", err)
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
					c.logger.Warn("analytics bump payload invalid", slog.String("payload", msg.Payload))
					continue
				}
				fn(ver)
			}
		}
	}()
	return nil
}

func keyDashboard(year int) string {
	return strings.Join([]string{"primavera", "analytics", "dashboard", strconv.Itoa(year)}, ":")
}
