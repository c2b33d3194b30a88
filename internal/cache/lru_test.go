package cache

import (
	"context"
	"testing"

	"github.com/hupe1980/clustergo/resource"
	"github.com/stretchr/testify/assert"
)

func TestLRU_EdgeCases(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	c := NewLRUBlockCache(50, rc)
	ctx := context.Background()
	k := CacheKey{Path: "snapshots/a.ckpt", Block: 1}

	// 1. Item larger than capacity is never admitted
	big := make([]byte, 60)
	c.Set(ctx, k, big)
	_, ok := c.Get(ctx, k)
	assert.False(t, ok, "item > capacity should not be cached")

	// 2. Update existing item
	v1 := make([]byte, 10)
	c.Set(ctx, k, v1)
	assert.Equal(t, int64(10), c.Size())

	// Update with larger value
	v2 := make([]byte, 20)
	c.Set(ctx, k, v2)
	assert.Equal(t, int64(20), c.Size())

	// Update with smaller value
	v3 := make([]byte, 5)
	c.Set(ctx, k, v3)
	assert.Equal(t, int64(5), c.Size())

	// 3. Update rejected when the controller has no headroom
	rc2 := resource.NewController(resource.Config{MemoryLimitBytes: 10})
	c2 := NewLRUBlockCache(50, rc2)
	c2.Set(ctx, k, make([]byte, 8))

	// Growing to 12 bytes needs +4, but only 2 remain below the limit.
	c2.Set(ctx, k, make([]byte, 12))

	val, ok := c2.Get(ctx, k)
	assert.True(t, ok)
	assert.Len(t, val, 8, "update should have been rejected by the controller")
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRUBlockCache(30, nil)
	ctx := context.Background()

	c.Set(ctx, CacheKey{Path: "a", Block: 0}, make([]byte, 10))
	c.Set(ctx, CacheKey{Path: "b", Block: 0}, make([]byte, 10))
	c.Set(ctx, CacheKey{Path: "c", Block: 0}, make([]byte, 10))

	// Touch "a" so "b" becomes the LRU victim.
	_, ok := c.Get(ctx, CacheKey{Path: "a", Block: 0})
	assert.True(t, ok)

	c.Set(ctx, CacheKey{Path: "d", Block: 0}, make([]byte, 10))

	_, ok = c.Get(ctx, CacheKey{Path: "b", Block: 0})
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get(ctx, CacheKey{Path: "a", Block: 0})
	assert.True(t, ok)
	_, ok = c.Get(ctx, CacheKey{Path: "d", Block: 0})
	assert.True(t, ok)
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRUBlockCache(100, nil)
	ctx := context.Background()
	k := CacheKey{Path: "a", Block: 1}
	c.Set(ctx, k, []byte{1})
	c.Get(ctx, k)                            // hit
	c.Get(ctx, CacheKey{Path: "b", Block: 2}) // miss

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_Invalidate(t *testing.T) {
	c := NewLRUBlockCache(100, nil)
	ctx := context.Background()
	c.Set(ctx, CacheKey{Path: "a", Block: 1}, []byte("a"))
	c.Set(ctx, CacheKey{Path: "a", Block: 2}, []byte("b"))
	c.Set(ctx, CacheKey{Path: "b", Block: 1}, []byte("c"))

	// Drop everything cached for blob "a"
	c.Invalidate(func(k CacheKey) bool {
		return k.Path == "a"
	})

	_, ok := c.Get(ctx, CacheKey{Path: "a", Block: 1})
	assert.False(t, ok)
	_, ok = c.Get(ctx, CacheKey{Path: "b", Block: 1})
	assert.True(t, ok)
}

func TestLRU_ReleasesMemoryOnEviction(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1000})
	c := NewLRUBlockCache(20, rc)
	ctx := context.Background()

	c.Set(ctx, CacheKey{Path: "a", Block: 0}, make([]byte, 10))
	c.Set(ctx, CacheKey{Path: "b", Block: 0}, make([]byte, 10))
	assert.Equal(t, int64(20), rc.MemoryUsage())

	// Third entry evicts the first; usage must stay at capacity.
	c.Set(ctx, CacheKey{Path: "c", Block: 0}, make([]byte, 10))
	assert.Equal(t, int64(20), rc.MemoryUsage())

	c.Invalidate(func(CacheKey) bool { return true })
	assert.Equal(t, int64(0), rc.MemoryUsage())
}
