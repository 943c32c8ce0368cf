// Package cache keeps matrix statistics in Redis or process memory and drops
// them when task events arrive.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/report"
)

// DefaultStatsKey is the Redis key holding the serialized statistics.
const DefaultStatsKey = "quadra:matrix:stats"

// redisClient is the subset of *redis.Client the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStatsCache stores report.Stats as JSON under a single key.
type RedisStatsCache struct {
	client redisClient
	key    string
	ttl    time.Duration
}

// NewRedisStatsCache creates a cache on client. A zero ttl stores without expiration.
func NewRedisStatsCache(client *redis.Client, ttl time.Duration) *RedisStatsCache {
	return newRedisStatsCache(client, DefaultStatsKey, ttl)
}

func newRedisStatsCache(client redisClient, key string, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{client: client, key: key, ttl: ttl}
}

func (c *RedisStatsCache) Get(ctx context.Context) (report.Stats, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return report.Stats{}, false, nil
	}
	if err != nil {
		return report.Stats{}, false, fmt.Errorf("get %s: %w", c.key, err)
	}

	var stats report.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return report.Stats{}, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, stats report.Stats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := c.client.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", c.key, err)
	}
	return nil
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", c.key, err)
	}
	return nil
}
