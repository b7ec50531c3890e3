package yuvtex

import "github.com/gogpu/yuvtex/cache"

// TextureCache is the lookup/insert contract the provider consumes.
// Implementations must be safe for concurrent use.
type TextureCache interface {
	Lookup(key Key) (*Texture, bool)
	Insert(key Key, tex *Texture)
}

// ShardedTextureCache is a TextureCache backed by a sharded LRU. Textures
// leaving the cache, by eviction, replacement, deletion or Purge, are
// destroyed.
type ShardedTextureCache struct {
	c *cache.ShardedCache[Key, *Texture]
}

// NewShardedTextureCache creates a cache holding up to capacityPerShard
// textures in each shard. Non-positive values select cache.DefaultCapacity.
func NewShardedTextureCache(capacityPerShard int) *ShardedTextureCache {
	return &ShardedTextureCache{
		c: cache.NewSharded[Key, *Texture](capacityPerShard, Key.Hash, func(key Key, tex *Texture) {
			Logger().Debug("yuvtex: texture evicted", "key", key.String(), "texture", tex.Label())
			tex.Destroy()
		}),
	}
}

// Lookup implements TextureCache. Destroyed textures are dropped and
// reported as misses.
func (c *ShardedTextureCache) Lookup(key Key) (*Texture, bool) {
	tex, ok := c.c.Get(key)
	if !ok {
		return nil, false
	}
	if tex.IsDestroyed() {
		if cur, ok := c.c.Peek(key); ok && cur == tex {
			c.c.Delete(key)
		}
		return nil, false
	}
	return tex, true
}

// Insert implements TextureCache. Re-inserting the cached texture is a
// no-op; inserting a different texture destroys the previous one.
func (c *ShardedTextureCache) Insert(key Key, tex *Texture) {
	if cur, ok := c.c.Peek(key); ok && cur == tex {
		return
	}
	c.c.Set(key, tex)
}

// Delete removes and destroys the texture under key.
func (c *ShardedTextureCache) Delete(key Key) bool {
	return c.c.Delete(key)
}

// Purge destroys every cached texture.
func (c *ShardedTextureCache) Purge() {
	c.c.Purge()
}

// Len returns the number of cached textures.
func (c *ShardedTextureCache) Len() int {
	return c.c.Len()
}

// Stats returns cache statistics.
func (c *ShardedTextureCache) Stats() cache.Stats {
	return c.c.Stats()
}
