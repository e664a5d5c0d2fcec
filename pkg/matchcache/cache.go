// Package matchcache keeps a candidate's last ranked result set in memory for a bounded time.
package matchcache

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL is how long a result set stays valid.
const DefaultTTL = time.Hour

type entry[V any] struct {
	value      V
	computedAt time.Time
}

// Cache maps candidate ids to values stamped with their computation time.
// An entry is served only while now - computed_at < ttl; a stale entry is evicted on read.
// Writes overwrite, the last writer wins.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL sets the entry lifetime; non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New builds an isolated cache instance.
func New[V any](opts ...Option) *Cache[V] {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     o.ttl,
		now:     o.now,
	}
}

// Get returns the value for id if it is still fresh.
func (c *Cache[V]) Get(id string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero V
	e, ok := c.entries[id]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	if c.now().Sub(e.computedAt) >= c.ttl {
		delete(c.entries, id)
		c.evictions.Add(1)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores v for id, replacing any previous value.
func (c *Cache[V]) Set(id string, v V) {
	c.mu.Lock()
	c.entries[id] = entry[V]{value: v, computedAt: c.now()}
	c.mu.Unlock()
}

// Delete drops the entry for id.
func (c *Cache[V]) Delete(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Stats is a point-in-time view of the cache counters.
type Stats struct {
	Entries   int     `json:"entries"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
	TTL       string  `json:"ttl"`
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	hits, misses := c.hits.Load(), c.misses.Load()
	s := Stats{
		Entries:   n,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		TTL:       c.ttl.String(),
	}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}
