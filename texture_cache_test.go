package yuvtex

import (
	"sync/atomic"
	"testing"
)

func newCountingTexture(label string, destroyed *atomic.Int32) *Texture {
	return NewTexture(TextureConfig{
		Label:   label,
		Width:   1,
		Height:  1,
		Destroy: func() { destroyed.Add(1) },
	})
}

func TestShardedTextureCacheInsertLookup(t *testing.T) {
	c := NewShardedTextureCache(4)
	var destroyed atomic.Int32
	key := NewKey(1, TextureDescriptor{})
	tex := newCountingTexture("a", &destroyed)

	if _, ok := c.Lookup(key); ok {
		t.Fatal("empty cache reported a hit")
	}
	c.Insert(key, tex)
	got, ok := c.Lookup(key)
	if !ok || got != tex {
		t.Fatal("inserted texture not found")
	}

	// Re-inserting the same texture must not destroy it.
	c.Insert(key, tex)
	if destroyed.Load() != 0 || tex.IsDestroyed() {
		t.Error("re-insert destroyed the cached texture")
	}
}

func TestShardedTextureCacheReplaceDestroysOld(t *testing.T) {
	c := NewShardedTextureCache(4)
	var destroyed atomic.Int32
	key := NewKey(2, TextureDescriptor{})
	old := newCountingTexture("old", &destroyed)
	cur := newCountingTexture("new", &destroyed)

	c.Insert(key, old)
	c.Insert(key, cur)

	if !old.IsDestroyed() || cur.IsDestroyed() {
		t.Error("replacement should destroy only the previous texture")
	}
	if got, _ := c.Lookup(key); got != cur {
		t.Error("lookup should return the replacement")
	}
}

func TestShardedTextureCacheDropsDestroyed(t *testing.T) {
	c := NewShardedTextureCache(4)
	var destroyed atomic.Int32
	key := NewKey(3, TextureDescriptor{})
	tex := newCountingTexture("t", &destroyed)
	c.Insert(key, tex)

	tex.Destroy()
	if _, ok := c.Lookup(key); ok {
		t.Error("destroyed texture returned from cache")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if destroyed.Load() != 1 {
		t.Errorf("destroy ran %d times, want 1", destroyed.Load())
	}
}

func TestShardedTextureCacheEvictionDestroys(t *testing.T) {
	c := NewShardedTextureCache(1)
	var destroyed atomic.Int32

	// 200 keys over 16 single-entry shards must evict.
	for i := range 200 {
		c.Insert(NewKey(SourceIdentity(i), TextureDescriptor{}), newCountingTexture("t", &destroyed))
	}
	if int(destroyed.Load()) != 200-c.Len() {
		t.Errorf("destroyed %d, len %d: every evicted texture must be destroyed", destroyed.Load(), c.Len())
	}

	c.Purge()
	if destroyed.Load() != 200 {
		t.Errorf("destroyed %d after Purge, want 200", destroyed.Load())
	}
}
