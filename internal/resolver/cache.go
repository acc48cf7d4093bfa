package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/spice-ledger/internal/metrics"
)

// DefaultListTTL is how long a candidate list is reused.
const DefaultListTTL = 5 * time.Minute

// Loader fetches a candidate list from its source.
type Loader func(ctx context.Context) ([]string, error)

type listEntry struct {
	expiry time.Time
	values []string
}

// ListCache keeps candidate lists by name for a fixed TTL. It is safe for
// concurrent use; concurrent loads of the same name may both hit the
// source and the last one stored wins.
type ListCache struct {
	metrics metrics.Recorder
	now     func() time.Time
	entries map[string]listEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// NewListCache creates a cache with the given TTL and starts its cleanup loop.
func NewListCache(ttl time.Duration, recorder metrics.Recorder) *ListCache {
	if ttl <= 0 {
		ttl = DefaultListTTL
	}

	cache := &ListCache{
		metrics: metrics.OrNop(recorder),
		now:     time.Now,
		entries: make(map[string]listEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// Get returns the cached list called name, calling load on a miss. Load
// errors are returned as-is and nothing is cached.
func (c *ListCache) Get(ctx context.Context, name string, load Loader) ([]string, error) {
	c.mu.RLock()
	entry, ok := c.entries[name]
	c.mu.RUnlock()

	if ok && c.now().Before(entry.expiry) {
		return append([]string(nil), entry.values...), nil
	}

	values, err := load(ctx)
	c.metrics.CacheRefreshed("list:"+name, err)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[name] = listEntry{
		values: append([]string(nil), values...),
		expiry: c.now().Add(c.ttl),
	}
	c.mu.Unlock()

	return values, nil
}

// Invalidate forgets the list called name.
func (c *ListCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

// cleanup periodically removes expired entries.
func (c *ListCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := c.now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// size returns the number of entries in the cache.
func (c *ListCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *ListCache) Close() {
	c.once.Do(func() { close(c.stopCh) })
}
