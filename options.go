package yuvtex

import (
	"runtime"

	xdraw "golang.org/x/image/draw"
)

// Option configures a Provider during creation.
//
// Example:
//
//	p := yuvtex.NewProvider(uploader,
//	    yuvtex.WithRowAlignment(256),
//	    yuvtex.WithMaxConcurrentExtractions(2),
//	)
type Option func(*options)

type options struct {
	cache          TextureCache
	cacheCapacity  int
	alloc          Allocator
	rowAlignment   int
	maxExtractions int
	scaler         xdraw.Scaler
	labelPrefix    string
}

func defaultOptions() options {
	return options{
		rowAlignment:   1,
		maxExtractions: runtime.GOMAXPROCS(0),
		labelPrefix:    "yuvtex",
	}
}

// WithCache sets the texture cache. By default the provider creates a
// ShardedTextureCache with cache.DefaultCapacity per shard and purges it
// on Close. A cache passed here is never purged by the provider.
func WithCache(c TextureCache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithAllocator sets the allocator for plane buffers.
// The default is DefaultAllocator.
func WithAllocator(a Allocator) Option {
	return func(o *options) {
		o.alloc = a
	}
}

// WithRowAlignment rounds every plane's row stride up to a multiple of n
// bytes before extraction. Values below 2 disable alignment.
func WithRowAlignment(n int) Option {
	return func(o *options) {
		o.rowAlignment = max(n, 1)
	}
}

// WithMaxConcurrentExtractions bounds how many sources decode at the same
// time. Non-positive values keep the default of GOMAXPROCS.
func WithMaxConcurrentExtractions(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxExtractions = n
		}
	}
}

// WithScaler sets the resampler used when the requested texture size
// differs from the image size. The default is DefaultScaler.
func WithScaler(s xdraw.Scaler) Option {
	return func(o *options) {
		o.scaler = s
	}
}

// WithLabelPrefix sets the prefix of GPU debug labels.
func WithLabelPrefix(prefix string) Option {
	return func(o *options) {
		o.labelPrefix = prefix
	}
}

// WithCacheCapacity sizes the provider-owned cache. It has no effect
// together with WithCache.
func WithCacheCapacity(perShard int) Option {
	return func(o *options) {
		o.cacheCapacity = perShard
	}
}
