package cache

import (
	"fmt"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Cache drivers
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// StatsCacheFactory creates stats caches based on configuration
type StatsCacheFactory struct {
	driver                string
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StatsCacheFactoryOption is a functional option for configuring the factory
type StatsCacheFactoryOption func(*StatsCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StatsCacheFactoryOption {
	return func(f *StatsCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to memory when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) StatsCacheFactoryOption {
	return func(f *StatsCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStatsCacheFactory creates a new factory
func NewStatsCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...StatsCacheFactoryOption) *StatsCacheFactory {
	f := &StatsCacheFactory{
		driver:                cacheCfg.Driver,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed stats cache
func (f *StatsCacheFactory) CreateRedisCache() (production.StatsCache, error) {
	c, err := NewRedisStatsCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis stats cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates an in-memory stats cache
func (f *StatsCacheFactory) CreateInMemoryCache() production.StatsCache {
	return NewInMemoryStatsCache()
}

// CreateCache creates the configured cache. The redis driver falls back to memory
// when Redis is unreachable and fallback is allowed.
func (f *StatsCacheFactory) CreateCache() (production.StatsCache, error) {
	if f.driver != DriverRedis {
		f.logger.Info("using in-memory stats cache")
		return f.CreateInMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis stats cache")
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for stats cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stats cache. "+
		"Instances will not share cached statistics.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
