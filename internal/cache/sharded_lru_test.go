package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestShardedLRUBlockCache_BasicOperations(t *testing.T) {
	cache := NewShardedLRUBlockCache(1024*1024, nil) // 1MB

	ctx := context.Background()
	key := CacheKey{Path: "snapshots/run-1.ckpt", Block: 0}
	data := []byte("test data")

	// Test Set and Get
	cache.Set(ctx, key, data)
	got, ok := cache.Get(ctx, key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}

	// Test miss
	missKey := CacheKey{Path: "snapshots/other.ckpt", Block: 0}
	_, ok = cache.Get(ctx, missKey)
	if ok {
		t.Fatal("expected cache miss")
	}
}

func TestShardedLRUBlockCache_ShardDistribution(t *testing.T) {
	cache := NewShardedLRUBlockCache(64*1024*1024, nil) // 64MB

	ctx := context.Background()
	data := make([]byte, 1024) // 1KB

	// Insert 1000 items
	for i := range 1000 {
		key := CacheKey{Path: fmt.Sprintf("blob-%d", i%100), Block: uint64(i)}
		cache.Set(ctx, key, data)
	}

	// Check that items are distributed across shards
	nonEmptyShards := 0
	for _, shard := range cache.shards {
		if shard.Size() > 0 {
			nonEmptyShards++
		}
	}

	// With 1000 distinct keys across 64 shards, most shards should hold items
	if nonEmptyShards < 30 {
		t.Errorf("poor shard distribution: only %d shards have items", nonEmptyShards)
	}
}

func TestShardedLRUBlockCache_Concurrent(t *testing.T) {
	cache := NewShardedLRUBlockCache(64*1024*1024, nil) // 64MB

	ctx := context.Background()
	data := make([]byte, 1024)

	const numGoroutines = 100
	const numOpsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for g := range numGoroutines {
		go func(goroutineID int) {
			defer wg.Done()
			for i := range numOpsPerGoroutine {
				key := CacheKey{
					Path:  fmt.Sprintf("blob-%d", goroutineID),
					Block: uint64(i),
				}
				cache.Set(ctx, key, data)
				cache.Get(ctx, key)
			}
		}(g)
	}

	wg.Wait()

	hits, misses := cache.Stats()
	total := hits + misses
	if total != numGoroutines*numOpsPerGoroutine {
		t.Errorf("stats mismatch: got %d total, want %d", total, numGoroutines*numOpsPerGoroutine)
	}
}

func TestShardedLRUBlockCache_Invalidate(t *testing.T) {
	cache := NewShardedLRUBlockCache(64*1024*1024, nil)

	ctx := context.Background()
	data := []byte("test")

	// Insert items for two blobs
	for i := range 100 {
		cache.Set(ctx, CacheKey{Path: "a", Block: uint64(i)}, data)
		cache.Set(ctx, CacheKey{Path: "b", Block: uint64(i)}, data)
	}

	// Invalidate blob "a"
	cache.Invalidate(func(key CacheKey) bool {
		return key.Path == "a"
	})

	_, ok := cache.Get(ctx, CacheKey{Path: "a", Block: 0})
	if ok {
		t.Error("expected blob a to be invalidated")
	}

	_, ok = cache.Get(ctx, CacheKey{Path: "b", Block: 0})
	if !ok {
		t.Error("expected blob b to still be cached")
	}
}

func BenchmarkLRUBlockCache_Get(b *testing.B) {
	cache := NewLRUBlockCache(64*1024*1024, nil)
	ctx := context.Background()
	key := CacheKey{Path: "a", Block: 0}
	cache.Set(ctx, key, make([]byte, 4096))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			cache.Get(ctx, key)
		}
	})
}

func BenchmarkShardedLRUBlockCache_Get(b *testing.B) {
	cache := NewShardedLRUBlockCache(64*1024*1024, nil)
	ctx := context.Background()
	key := CacheKey{Path: "a", Block: 0}
	cache.Set(ctx, key, make([]byte, 4096))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			cache.Get(ctx, key)
		}
	})
}

func BenchmarkShardedLRUBlockCache_GetMixed(b *testing.B) {
	cache := NewShardedLRUBlockCache(64*1024*1024, nil)
	ctx := context.Background()
	data := make([]byte, 4096)

	// Pre-populate
	for i := range 1000 {
		cache.Set(ctx, CacheKey{Path: fmt.Sprintf("blob-%d", i%10), Block: uint64(i)}, data)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := CacheKey{Path: fmt.Sprintf("blob-%d", i%10), Block: uint64(i % 1000)}
			cache.Get(ctx, key)
			i++
		}
	})
}
