package resolve

import "sync"

// Cache is the process-lifetime store of resolved secrets, keyed by name.
// Entries are never revalidated or evicted.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Secret
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Secret)}
}

// Get returns the cached secret for name.
func (c *Cache) Get(name string) (Secret, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[name]
	return s, ok
}

// Put stores s under s.Name, replacing any earlier entry.
func (c *Cache) Put(s Secret) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.Cached = false
	c.entries[s.Name] = s
}
