package cache

import (
	"strconv"
	"sync"
	"testing"
)

func TestNewSharded(t *testing.T) {
	c := NewSharded[string, int](100, StringHasher, nil)
	if c == nil {
		t.Fatal("NewSharded returned nil")
	}
	if c.Capacity() != 100 {
		t.Errorf("expected capacity 100, got %d", c.Capacity())
	}
	if got := c.Stats().TotalCapacity; got != 100*DefaultShardCount {
		t.Errorf("expected total capacity %d, got %d", 100*DefaultShardCount, got)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestNewShardedDefaultCapacity(t *testing.T) {
	c := NewSharded[string, int](0, StringHasher, nil)
	if c.Capacity() != DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultCapacity, c.Capacity())
	}
}

func TestShardedGetSet(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher, nil)

	c.Set("key1", 42)

	val, ok := c.Get("key1")
	if !ok || val != 42 {
		t.Errorf("Get(key1) = %d, %v; want 42, true", val, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("expected missing key to be absent")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d hits %d misses", stats.Hits, stats.Misses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("expected hit rate 0.5, got %v", stats.HitRate)
	}
}

func TestShardedPeekDoesNotCount(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher, nil)
	c.Set("a", 1)

	if v, ok := c.Peek("a"); !ok || v != 1 {
		t.Errorf("Peek(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Peek("b"); ok {
		t.Error("Peek(b) should miss")
	}
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 {
		t.Errorf("Peek must not touch statistics, got %+v", s)
	}
}

func TestShardedReplaceReportsOldValue(t *testing.T) {
	var got []int
	c := NewSharded[string, int](10, StringHasher, func(_ string, v int) {
		got = append(got, v)
	})

	c.Set("k", 1)
	c.Set("k", 2)

	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected replaced value 1 to be reported, got %v", got)
	}
	if v, _ := c.Get("k"); v != 2 {
		t.Errorf("expected current value 2, got %d", v)
	}
	if c.Stats().Evictions != 0 {
		t.Error("replacement must not count as capacity eviction")
	}
}

func TestShardedEvictionLRU(t *testing.T) {
	// A constant hasher forces every key into one shard.
	sameShard := func(string) uint64 { return 0 }

	var evictedKeys []string
	c := NewSharded[string, int](3, sameShard, func(k string, _ int) {
		evictedKeys = append(evictedKeys, k)
	})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the oldest.
	c.Get("a")
	c.Set("d", 4)

	if len(evictedKeys) != 1 || evictedKeys[0] != "b" {
		t.Fatalf("expected b to be evicted, got %v", evictedKeys)
	}
	if _, ok := c.Peek("b"); ok {
		t.Error("b should be gone")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Peek(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", c.Stats().Evictions)
	}
}

func TestShardedDelete(t *testing.T) {
	var reported int
	c := NewSharded[string, int](10, StringHasher, func(string, int) { reported++ })

	c.Set("key1", 42)
	if !c.Delete("key1") {
		t.Error("expected Delete to return true for existing key")
	}
	if c.Delete("key1") {
		t.Error("expected Delete to return false for removed key")
	}
	if reported != 1 {
		t.Errorf("expected 1 eviction callback, got %d", reported)
	}
}

func TestShardedPurge(t *testing.T) {
	seen := make(map[int]bool)
	c := NewSharded[int, int](10, func(k int) uint64 { return Uint64Hasher(uint64(k)) }, func(_ int, v int) {
		seen[v] = true
	})

	for i := range 20 {
		c.Set(i, i)
	}
	c.Purge()

	if c.Len() != 0 {
		t.Errorf("expected empty cache after Purge, got %d", c.Len())
	}
	if len(seen) != 20 {
		t.Errorf("expected 20 purged values reported, got %d", len(seen))
	}
}

func TestUint64HasherSpreadsSequentialKeys(t *testing.T) {
	var used [DefaultShardCount]bool
	for i := range uint64(256) {
		used[Uint64Hasher(i)&shardMask] = true
	}
	for i, ok := range used {
		if !ok {
			t.Errorf("shard %d never selected for 256 sequential keys", i)
		}
	}
}

func TestShardedConcurrent(t *testing.T) {
	c := NewSharded[string, int](1000, StringHasher, nil)
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 100 {
				key := strconv.Itoa(n*100 + j)
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() != 5000 {
		t.Errorf("expected 5000 entries, got %d", c.Len())
	}
}
