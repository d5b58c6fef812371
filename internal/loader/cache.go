package loader

import (
	"context"
	"sync"
	"time"

	"storepulse/internal/infrastructure"
	"storepulse/pkg/contracts/domain"
)

// Cache is a read-through cache in front of a Source. A fetched dataset is
// served for the configured TTL; after expiry the next read replaces the
// whole snapshot. There is no partial invalidation because sources only
// ever produce complete datasets.
type Cache struct {
	source  Source
	ttl     time.Duration
	now     func() time.Time
	metrics *infrastructure.BusinessMetrics

	mu        sync.Mutex
	records   []domain.Record
	fetchedAt time.Time
}

// NewCache wraps source with a TTL cache. A non-positive ttl disables
// caching entirely.
func NewCache(source Source, ttl time.Duration) *Cache {
	return &Cache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// SetMetrics attaches cache hit and source fetch counters.
func (c *Cache) SetMetrics(metrics *infrastructure.BusinessMetrics) {
	c.metrics = metrics
}

// Records returns the cached dataset, fetching from the source when the
// cache is empty or stale. Concurrent callers share a single fetch.
func (c *Cache) Records(ctx context.Context) ([]domain.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.records != nil && c.ttl > 0 && c.now().Sub(c.fetchedAt) < c.ttl {
		infrastructure.LoggerFromContext(ctx).Debug("serving orders from cache",
			"source", c.source.Location(), "age", c.now().Sub(c.fetchedAt).String())
		if c.metrics != nil {
			c.metrics.CacheHitsTotal.Add(ctx, 1)
		}
		return c.records, nil
	}

	records, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.SourceFetchesTotal.Add(ctx, 1)
	}
	c.records = records
	c.fetchedAt = c.now()
	return c.records, nil
}

// Invalidate drops the cached snapshot so the next read refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
	c.fetchedAt = time.Time{}
}
