package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/redis/go-redis/v9"
)

const defaultStatsKeyPrefix = "bakery:stats:"

// RedisStatsCache implements StatsCache using Redis, so several instances share cached days
type RedisStatsCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisStatsCache connects to Redis and returns a stats cache
func NewRedisStatsCache(cfg RedisConfig) (*RedisStatsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStatsCache{
		client:    client,
		keyPrefix: defaultStatsKeyPrefix,
	}, nil
}

// NewRedisStatsCacheWithClient creates a cache on an existing Redis client
func NewRedisStatsCacheWithClient(client *redis.Client, keyPrefix string) *RedisStatsCache {
	if keyPrefix == "" {
		keyPrefix = defaultStatsKeyPrefix
	}
	return &RedisStatsCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached stats for day, or nil when absent
func (c *RedisStatsCache) Get(ctx context.Context, day string) (*production.DailyStats, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+day).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached stats: %w", err)
	}

	var stats production.DailyStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode cached stats: %w", err)
	}
	return &stats, nil
}

// Set stores stats under stats.Date for ttl
func (c *RedisStatsCache) Set(ctx context.Context, stats production.DailyStats, ttl time.Duration) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+stats.Date, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache stats: %w", err)
	}
	return nil
}

// InvalidateAll deletes every key under the cache prefix
func (c *RedisStatsCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached stats: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached stats: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisStatsCache) GetClient() *redis.Client {
	return c.client
}

var _ production.StatsCache = (*RedisStatsCache)(nil)
