package manifest

import (
	"context"
	"sync"
)

// Cache memoizes the result of loading a fixed list of manifests. It is
// owned by the caller; nothing is shared between Cache values.
type Cache struct {
	loader Loader
	refs   []Ref

	mu  sync.Mutex
	set *Set
}

// NewCache returns an empty cache over the given manifests
func NewCache(loader Loader, refs []Ref) *Cache {
	return &Cache{loader: loader, refs: refs}
}

// Repos returns the merged repository set, loading the manifests on first
// use. Failed loads are not cached.
func (c *Cache) Repos(ctx context.Context) (*Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.set != nil {
		return c.set, nil
	}
	set, err := c.loader.LoadAll(ctx, c.refs)
	if err != nil {
		return nil, err
	}
	c.set = set
	return set, nil
}

// Invalidate drops the cached set so the next Repos call reloads
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.set = nil
	c.mu.Unlock()
}
