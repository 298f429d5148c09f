package cache

import (
	"context"
	"sync"
	"time"

	"petrolhub/backend/internal/domain"
)

type memoryEntry struct {
	value     domain.InsightResponse
	expiresAt time.Time
}

// MemoryInsightCache is a process-local InsightCache used when no redis
// address is configured.
type MemoryInsightCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryInsightCache() *MemoryInsightCache {
	return &MemoryInsightCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryInsightCache) Get(_ context.Context, key string) (*domain.InsightResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	value := entry.value
	value.Insights = append([]string(nil), entry.value.Insights...)
	return &value, true, nil
}

func (c *MemoryInsightCache) Set(_ context.Context, key string, value *domain.InsightResponse, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{value: *value}
	entry.value.Insights = append([]string(nil), value.Insights...)
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = entry
	return nil
}
