package matchcache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestGetRespectsTTL(t *testing.T) {
	clk := newClock()
	c := New[[]int](WithClock(clk.Now), WithTTL(time.Minute))

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", []int{1, 2})
	clk.Advance(59 * time.Second)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, v)

	clk.Advance(time.Second) // exactly ttl old: stale
	_, ok = c.Get("a")
	assert.False(t, ok)

	st := c.Stats()
	assert.Equal(t, 0, st.Entries, "stale entry must be evicted on read")
	assert.Equal(t, int64(1), st.Evictions)
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(2), st.Misses)
}

func TestDefaultTTLIsOneHour(t *testing.T) {
	clk := newClock()
	c := New[string](WithClock(clk.Now), WithTTL(0))
	assert.Equal(t, time.Hour.String(), c.Stats().TTL)

	c.Set("a", "x")
	clk.Advance(59 * time.Minute)
	_, ok := c.Get("a")
	assert.True(t, ok)
	clk.Advance(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestSetOverwritesAndRestampsEntry(t *testing.T) {
	clk := newClock()
	c := New[string](WithClock(clk.Now), WithTTL(time.Minute))
	c.Set("a", "first")
	clk.Advance(50 * time.Second)
	c.Set("a", "second")
	clk.Advance(50 * time.Second)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestDeleteAndPurge(t *testing.T) {
	c := New[int]()
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.Purge()
	for _, id := range []string{"b", "c"} {
		_, ok := c.Get(id)
		assert.False(t, ok, id)
	}
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestInstancesAreIsolated(t *testing.T) {
	a, b := New[int](), New[int]()
	a.Set("x", 1)
	_, ok := b.Get("x")
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("k", i)
				c.Get("k")
			}
		}(i)
	}
	wg.Wait()
	_, ok := c.Get("k")
	assert.True(t, ok)
}
