package wiki

import (
	"context"
	"sync"
)

// MemoryCache is the fallback page cache used when no database path is
// configured. It never evicts; a client session touches a bounded number of
// pages.
type MemoryCache struct {
	mu    sync.RWMutex
	pages map[string]Page
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{pages: make(map[string]Page)}
}

func (c *MemoryCache) Get(_ context.Context, pageID string) (Page, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	page, ok := c.pages[pageID]
	return page, ok, nil
}

func (c *MemoryCache) Put(_ context.Context, pageID string, page Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[pageID] = page
	return nil
}
