package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/monitoring"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Canonical cache durations.
const (
	Short  = 60 * time.Second
	Medium = 5 * time.Minute
	Long   = time.Hour
	Day    = 24 * time.Hour
	Week   = 7 * 24 * time.Hour
)

const opTimeout = 2 * time.Second

// Cache is a keyed key/value store with TTLs backed by Redis. A nil client
// means caching is disabled: every read misses and every write is a logged
// no-op. Consumers must tolerate a miss on every read.
type Cache struct {
	client *redis.Client
	logger *logger.Logger
}

// New connects to the cache backend. An empty URL returns a disabled cache.
func New(redisURL string, log *logger.Logger) (*Cache, error) {
	if redisURL == "" {
		log.Info("REDIS_URL not set, caching disabled")
		return &Cache{logger: log}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, types.NewUnavailableError("invalid REDIS_URL", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, types.NewUnavailableError("failed to ping cache backend", err)
	}

	log.Info("Cache connection established")
	return &Cache{client: client, logger: log}, nil
}

// Enabled reports whether a backend is connected.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get reads key into dest. The second return is false on absent key,
// backend outage, or deserialization failure; it never returns an error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).WithField("key", key).Debug("Cache read failed")
		}
		monitoring.RecordCacheOperation("get", "miss")
		return false
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to deserialize cached value")
		monitoring.RecordCacheOperation("get", "miss")
		return false
	}
	monitoring.RecordCacheOperation("get", "hit")
	return true
}

// Set serializes value as JSON under key with an absolute TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return types.NewInternalError("failed to serialize cache value", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
		monitoring.RecordCacheOperation("set", "error")
		return types.NewUnavailableError("cache write failed", err)
	}
	monitoring.RecordCacheOperation("set", "ok")
	return nil
}

// SetPersistent stores value with no expiration.
func (c *Cache) SetPersistent(ctx context.Context, key string, value interface{}) error {
	return c.Set(ctx, key, value, 0)
}

// Delete removes a key. Idempotent.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithError(err).Warn("Cache delete failed")
		return types.NewUnavailableError("cache delete failed", err)
	}
	return nil
}

// DeleteByPattern expands a glob to concrete keys, then deletes them.
// O(n) in match size; use sparingly.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	keys, err := c.client.Keys(ctx, pattern).Result()
	if err != nil {
		c.logger.WithError(err).WithField("pattern", pattern).Warn("Cache key scan failed")
		return 0, types.NewUnavailableError("cache key scan failed", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	count, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, types.NewUnavailableError("cache delete failed", err)
	}
	return count, nil
}

// Exists reports whether key is present. Never returns an error.
func (c *Cache) Exists(ctx context.Context, key string) bool {
	if !c.Enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := c.client.Exists(ctx, key).Result()
	return err == nil && n > 0
}

// Increment atomically adds delta to the counter at key and returns the
// value after.
func (c *Cache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	if !c.Enabled() {
		return 0, types.NewUnavailableError("cache disabled", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	value, err := c.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, types.NewUnavailableError("cache increment failed", err)
	}
	return value, nil
}

// Expire sets a TTL on an existing key.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return types.NewUnavailableError("cache expire failed", err)
	}
	return nil
}

// TTL returns the remaining lifetime of key in seconds, or -1 if none.
func (c *Cache) TTL(ctx context.Context, key string) (int64, bool) {
	if !c.Enabled() {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	return int64(ttl.Seconds()), true
}

// Close releases the backend connection.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
