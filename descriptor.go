package yuvtex

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/yuvtex/cache"
)

// requiredUsage is ORed into every descriptor: the texture is written by a
// queue copy and sampled afterwards.
const requiredUsage = gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding

// TextureDescriptor describes the GPU texture requested from the provider.
// The zero value asks for an RGBA8 texture at the source's natural size.
type TextureDescriptor struct {
	// Width and Height of the texture. Both zero selects the luma plane
	// size; otherwise both must be positive and the image is scaled.
	Width  int
	Height int

	// Format is RGBA8Unorm (default) or BGRA8Unorm.
	Format gputypes.TextureFormat

	// Usage is ORed with CopyDst and TextureBinding.
	Usage gputypes.TextureUsage

	// MipLevelCount of the texture, 0 meaning 1. Only level 0 is written.
	MipLevelCount uint32
}

// Normalized returns d with defaults applied. Descriptors that normalize
// to the same value share a cache entry.
func (d TextureDescriptor) Normalized() TextureDescriptor {
	if d.Format == gputypes.TextureFormatUndefined {
		d.Format = gputypes.TextureFormatRGBA8Unorm
	}
	d.Usage |= requiredUsage
	if d.MipLevelCount == 0 {
		d.MipLevelCount = 1
	}
	return d
}

// Validate reports whether the normalized descriptor can be satisfied.
func (d TextureDescriptor) Validate() error {
	d = d.Normalized()
	switch {
	case d.Width < 0 || d.Height < 0:
		return fmt.Errorf("%w: negative size %dx%d", ErrInvalidDescriptor, d.Width, d.Height)
	case (d.Width == 0) != (d.Height == 0):
		return fmt.Errorf("%w: size %dx%d must be fully specified or zero", ErrInvalidDescriptor, d.Width, d.Height)
	case d.Width > maxDimension || d.Height > maxDimension:
		return fmt.Errorf("%w: size %dx%d too large", ErrInvalidDescriptor, d.Width, d.Height)
	}
	switch d.Format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
	default:
		return fmt.Errorf("%w: unsupported format %v", ErrInvalidDescriptor, d.Format)
	}
	if d.Width > 0 && d.MipLevelCount > maxMipLevels(d.Width, d.Height) {
		return fmt.Errorf("%w: %d mip levels for %dx%d", ErrInvalidDescriptor, d.MipLevelCount, d.Width, d.Height)
	}
	return nil
}

// Size returns the texture size for a source whose luma plane is w x h.
func (d TextureDescriptor) Size(w, h int) (int, int) {
	if d.Width == 0 {
		return w, h
	}
	return d.Width, d.Height
}

// maxMipLevels returns the length of a full mip chain for w x h.
func maxMipLevels(w, h int) uint32 {
	m := max(w, h)
	if m <= 0 {
		return 1
	}
	return uint32(bits.Len(uint(m))) //nolint:gosec // bits.Len is at most 64
}

// Key identifies a cached texture: the source content plus the normalized
// descriptor it was produced for.
type Key struct {
	ID   SourceIdentity
	Desc TextureDescriptor
}

// NewKey builds the cache key for id and desc.
func NewKey(id SourceIdentity, desc TextureDescriptor) Key {
	return Key{ID: id, Desc: desc.Normalized()}
}

// Hash returns a well-mixed hash for shard selection.
func (k Key) Hash() uint64 {
	h := cache.Uint64Hasher(uint64(k.ID))
	h ^= cache.Uint64Hasher(uint64(k.Desc.Width)<<32 | uint64(uint32(k.Desc.Height))) //nolint:gosec // sizes are bounded
	h ^= cache.Uint64Hasher(uint64(k.Desc.Format)<<40 ^ uint64(k.Desc.Usage)<<8 ^ uint64(k.Desc.MipLevelCount))
	return h
}

// String returns a stable textual form of the key.
func (k Key) String() string {
	return fmt.Sprintf("%016x/%dx%d/f%d/u%d/m%d",
		uint64(k.ID), k.Desc.Width, k.Desc.Height, k.Desc.Format, k.Desc.Usage, k.Desc.MipLevelCount)
}
