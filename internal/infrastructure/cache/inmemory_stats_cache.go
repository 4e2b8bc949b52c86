package cache

import (
	"context"
	"sync"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
)

// statsEntry is a cached day with its expiration
type statsEntry struct {
	stats     production.DailyStats
	expiresAt time.Time
}

// InMemoryStatsCache implements StatsCache using an in-memory map.
// Suitable for single-instance deployments and testing.
type InMemoryStatsCache struct {
	mu        sync.RWMutex
	entries   map[string]statsEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryStatsCache creates a new in-memory stats cache.
// It starts a background goroutine that drops expired days.
func NewInMemoryStatsCache() *InMemoryStatsCache {
	c := &InMemoryStatsCache{
		entries:  make(map[string]statsEntry),
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns the cached stats for day, or nil when absent or expired
func (c *InMemoryStatsCache) Get(ctx context.Context, day string) (*production.DailyStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[day]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, nil
	}
	stats := e.stats
	stats.ByStatus = copyCounts(e.stats.ByStatus)
	return &stats, nil
}

// Set stores stats under stats.Date for ttl
func (c *InMemoryStatsCache) Set(ctx context.Context, stats production.DailyStats, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats.ByStatus = copyCounts(stats.ByStatus)
	c.entries[stats.Date] = statsEntry{
		stats:     stats,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// InvalidateAll drops every cached day
func (c *InMemoryStatsCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]statsEntry)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryStatsCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryStatsCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryStatsCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for day, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, day)
		}
	}
}

// Size returns the number of cached days (for testing/monitoring)
func (c *InMemoryStatsCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func copyCounts(in map[production.Status]int) map[production.Status]int {
	if in == nil {
		return nil
	}
	out := make(map[production.Status]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ production.StatsCache = (*InMemoryStatsCache)(nil)
