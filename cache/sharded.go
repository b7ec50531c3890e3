// Package cache provides a sharded, thread-safe LRU cache used to hold
// GPU textures keyed by content identity.
//
// Unlike a plain memoization cache, entries here usually own external
// resources. Every value that leaves the cache (LRU eviction, replacement by
// Set, Delete, Purge) is handed to an optional [EvictFunc] so the owner can
// free it. The callback always runs after the shard lock is released.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// Default configuration constants.
const (
	// DefaultShardCount is the number of shards. Must be a power of 2.
	DefaultShardCount = 16

	// DefaultCapacity is the default maximum entries per shard.
	DefaultCapacity = 64

	shardMask = DefaultShardCount - 1
)

// Hasher computes the shard-selection hash of a key.
type Hasher[K any] func(K) uint64

// EvictFunc receives every value removed from the cache.
type EvictFunc[K comparable, V any] func(key K, value V)

// StringHasher computes the FNV-1a hash of a string key.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}

// Uint64Hasher mixes a uint64 key so that sequential ids spread over shards.
func Uint64Hasher(u uint64) uint64 {
	// splitmix64 finalizer
	u ^= u >> 30
	u *= 0xbf58476d1ce4e5b9
	u ^= u >> 27
	u *= 0x94d049bb133111eb
	u ^= u >> 31
	return u
}

// ShardedCache is a thread-safe LRU cache split into [DefaultShardCount]
// independently locked shards.
type ShardedCache[K comparable, V any] struct {
	shards   [DefaultShardCount]*shard[K, V]
	hasher   Hasher[K]
	capacity int
	onEvict  EvictFunc[K, V]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	lru     *lruList[K]
}

type entry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// evicted is a value removed under lock and reported after unlock.
type evicted[K comparable, V any] struct {
	key   K
	value V
}

// NewSharded creates a cache holding up to capacity entries per shard.
// If capacity <= 0, DefaultCapacity is used. onEvict may be nil.
func NewSharded[K comparable, V any](capacity int, hasher Hasher[K], onEvict EvictFunc[K, V]) *ShardedCache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &ShardedCache[K, V]{
		hasher:   hasher,
		capacity: capacity,
		onEvict:  onEvict,
	}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{
			entries: make(map[K]*entry[K, V]),
			lru:     newLRUList[K](),
		}
	}
	return c
}

func (c *ShardedCache[K, V]) shardFor(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get returns the value for key and marks it most recently used.
func (c *ShardedCache[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.lru.MoveToFront(e.node)
	v := e.value
	s.mu.Unlock()

	c.hits.Add(1)
	return v, true
}

// Peek returns the value for key without touching recency or statistics.
func (c *ShardedCache[K, V]) Peek(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e.value, true
	}
	var zero V
	return zero, false
}

// Set stores value under key. A previous value for the same key is passed
// to the eviction callback, as are entries evicted to make room.
func (c *ShardedCache[K, V]) Set(key K, value V) {
	s := c.shardFor(key)
	var out []evicted[K, V]

	s.mu.Lock()
	if e, ok := s.entries[key]; ok {
		out = append(out, evicted[K, V]{key: key, value: e.value})
		e.value = value
		s.lru.MoveToFront(e.node)
		s.mu.Unlock()
		c.report(out)
		return
	}

	for s.lru.Len() >= c.capacity {
		oldest, ok := s.lru.RemoveOldest()
		if !ok {
			break
		}
		out = append(out, evicted[K, V]{key: oldest, value: s.entries[oldest].value})
		delete(s.entries, oldest)
		c.evictions.Add(1)
	}

	s.entries[key] = &entry[K, V]{value: value, node: s.lru.PushFront(key)}
	s.mu.Unlock()
	c.report(out)
}

// Delete removes key. Returns true if an entry was removed.
func (c *ShardedCache[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.lru.Remove(e.node)
	delete(s.entries, key)
	s.mu.Unlock()

	c.report([]evicted[K, V]{{key: key, value: e.value}})
	return true
}

// Purge removes every entry, reporting each to the eviction callback.
func (c *ShardedCache[K, V]) Purge() {
	for _, s := range c.shards {
		s.mu.Lock()
		out := make([]evicted[K, V], 0, len(s.entries))
		for k, e := range s.entries {
			out = append(out, evicted[K, V]{key: k, value: e.value})
		}
		s.entries = make(map[K]*entry[K, V])
		s.lru.Clear()
		s.mu.Unlock()
		c.report(out)
	}
}

// Len returns the total number of entries across all shards.
func (c *ShardedCache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Capacity returns the per-shard capacity.
func (c *ShardedCache[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns current cache statistics.
func (c *ShardedCache[K, V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		Len:           c.Len(),
		Capacity:      c.capacity,
		TotalCapacity: c.capacity * DefaultShardCount,
		Hits:          hits,
		Misses:        misses,
		HitRate:       hitRate,
		Evictions:     c.evictions.Load(),
	}
}

func (c *ShardedCache[K, V]) report(out []evicted[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, ev := range out {
		c.onEvict(ev.key, ev.value)
	}
}

// Stats is a snapshot of cache counters.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the per-shard capacity.
	Capacity int
	// TotalCapacity is Capacity times the shard count.
	TotalCapacity int
	// Hits and Misses count Get calls.
	Hits   uint64
	Misses uint64
	// HitRate is Hits/(Hits+Misses), 0 when no lookups happened.
	HitRate float64
	// Evictions counts capacity evictions (not replacements or deletes).
	Evictions uint64
}
