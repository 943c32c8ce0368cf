package cache

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/report"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

// MemoryStatsCache is the in-process fallback used when no Redis is configured.
type MemoryStatsCache struct {
	mu        sync.Mutex
	stats     report.Stats
	storedAt  time.Time
	populated bool
	ttl       time.Duration
	now       func() time.Time
}

// NewMemoryStatsCache creates a cache whose entries expire after ttl.
// A zero ttl keeps entries until invalidated.
func NewMemoryStatsCache(ttl time.Duration) *MemoryStatsCache {
	return &MemoryStatsCache{ttl: ttl, now: time.Now}
}

func (c *MemoryStatsCache) Get(ctx context.Context) (report.Stats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.populated {
		return report.Stats{}, false, nil
	}
	if c.ttl > 0 && c.now().Sub(c.storedAt) >= c.ttl {
		c.populated = false
		return report.Stats{}, false, nil
	}
	return copyStats(c.stats), true, nil
}

func (c *MemoryStatsCache) Set(ctx context.Context, stats report.Stats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = copyStats(stats)
	c.storedAt = c.now()
	c.populated = true
	return nil
}

func (c *MemoryStatsCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.populated = false
	return nil
}

func copyStats(s report.Stats) report.Stats {
	out := s
	out.ByQuadrant = make(map[task.Quadrant]int, len(s.ByQuadrant))
	maps.Copy(out.ByQuadrant, s.ByQuadrant)
	return out
}
