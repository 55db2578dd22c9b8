package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tkondo/chatwire/internal/domain"
)

type memoryEntry struct {
	messages  []domain.MessageView
	expiresAt time.Time
}

// MemoryCache is the single-process fallback used when no redis address
// is configured, and in tests.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, room string) ([]domain.MessageView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[room]
	if !ok || c.now().After(entry.expiresAt) {
		delete(c.entries, room)
		return nil, ErrCacheMiss
	}
	return entry.messages, nil
}

func (c *MemoryCache) Set(_ context.Context, room string, messages []domain.MessageView, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[room] = memoryEntry{messages: messages, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, room string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, room)
	return nil
}
