package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// Cache is a best-effort JSON cache on top of Redis. A nil Cache or an
// unreachable backend degrades to computing values directly; callers must
// never depend on a cache hit for correctness.
type Cache struct {
	rdb    *redis.Client
	logger *log.Logger
}

// NewClient builds the shared Redis client used by the cache and the rate limiter.
func NewClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

func New(rdb *redis.Client, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{rdb: rdb, logger: logger}
}

// Key joins key segments with ":" (e.g. "spotify:profile:<userID>").
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// GetOrCompute returns the cached value for key if present and unexpired,
// otherwise invokes compute, stores the result with the given TTL and returns
// it. Failed computations are never cached, and any Redis failure falls back
// to a direct compute.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil || c.rdb == nil {
		return compute(ctx)
	}

	raw, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		var v T
		if uerr := json.Unmarshal([]byte(raw), &v); uerr == nil {
			return v, nil
		}
		c.logger.Warn("discarding undecodable cache entry", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache read failed, computing directly", "key", key, "err", err)
	}

	v, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	if data, merr := json.Marshal(v); merr == nil {
		if serr := c.rdb.Set(ctx, key, data, ttl).Err(); serr != nil {
			c.logger.Warn("cache write failed", "key", key, "err", serr)
		}
	}
	return v, nil
}

// Get decodes a cached JSON value into dest, reporting whether a usable
// entry existed. Backend failures read as misses.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.logger.Warn("discarding undecodable cache entry", "key", key)
		return false
	}
	return true
}

// Set stores a JSON-serialized value with a TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Delete removes keys, logging (not propagating) backend failures.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache delete failed", "keys", keys, "err", err)
	}
}

// PutNonce stores a one-time marker (OAuth state) with a TTL. Unlike reads,
// nonce writes must not silently fail: a lost nonce breaks the login flow.
func (c *Cache) PutNonce(ctx context.Context, key string, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return errors.New("cache unavailable")
	}
	return c.rdb.Set(ctx, key, "1", ttl).Err()
}

// TakeNonce consumes a one-time marker, returning whether it existed.
func (c *Cache) TakeNonce(ctx context.Context, key string) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, errors.New("cache unavailable")
	}
	_, err := c.rdb.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
