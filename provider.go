package yuvtex

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Provider turns planar YUV sources into cached GPU textures.
//
// GetTexture may be called from any goroutine. Concurrent requests for the
// same key share one extraction and one upload; requests for different keys
// proceed in parallel, with decoding bounded by WithMaxConcurrentExtractions.
// Uploads go through the Uploader, which owns the GPU context.
type Provider struct {
	uploader    Uploader
	cache       TextureCache
	ownedCache  *ShardedTextureCache
	alloc       Allocator
	rowAlign    int
	scaler      xdraw.Scaler
	labelPrefix string

	extractions *semaphore.Weighted
	flights     singleflight.Group
	closed      atomic.Bool

	flightMu sync.Mutex
	inflight map[string]*flight // guarded by flightMu

	stats providerCounters
}

// flight is the context shared by every caller waiting on one key. It is
// cancelled when the last waiter leaves.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

type providerCounters struct {
	hits            atomic.Uint64
	misses          atomic.Uint64
	shared          atomic.Uint64
	uploads         atomic.Uint64
	unsupported     atomic.Uint64
	extractFailures atomic.Uint64
	uploadFailures  atomic.Uint64
	canceled        atomic.Uint64
}

// Stats is a snapshot of provider counters.
type Stats struct {
	// Hits and Misses count cache lookups made by GetTexture.
	Hits   uint64
	Misses uint64
	// Shared counts misses satisfied by another in-flight request.
	Shared uint64
	// Uploads counts textures created.
	Uploads uint64

	Unsupported        uint64
	ExtractionFailures uint64
	UploadFailures     uint64
	Canceled           uint64
}

// NewProvider creates a provider uploading through uploader.
//
// If uploader implements SetLogger(*slog.Logger) it receives the package
// logger now and on every later SetLogger call, until Close.
func NewProvider(uploader Uploader, opts ...Option) *Provider {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &Provider{
		uploader:    uploader,
		cache:       o.cache,
		alloc:       o.alloc,
		rowAlign:    o.rowAlignment,
		scaler:      o.scaler,
		labelPrefix: o.labelPrefix,
		extractions: semaphore.NewWeighted(int64(o.maxExtractions)),
		inflight:    make(map[string]*flight),
	}
	if p.cache == nil {
		p.ownedCache = NewShardedTextureCache(o.cacheCapacity)
		p.cache = p.ownedCache
	}
	if p.alloc == nil {
		p.alloc = defaultAllocator
	}
	attachLogger(uploader)
	return p
}

// Cache returns the texture cache in use.
func (p *Provider) Cache() TextureCache { return p.cache }

// Stats returns a snapshot of the provider counters.
func (p *Provider) Stats() Stats {
	return Stats{
		Hits:               p.stats.hits.Load(),
		Misses:             p.stats.misses.Load(),
		Shared:             p.stats.shared.Load(),
		Uploads:            p.stats.uploads.Load(),
		Unsupported:        p.stats.unsupported.Load(),
		ExtractionFailures: p.stats.extractFailures.Load(),
		UploadFailures:     p.stats.uploadFailures.Load(),
		Canceled:           p.stats.canceled.Load(),
	}
}

// Close stops the provider. The cache it created is purged, destroying its
// textures; a cache passed with WithCache is left alone. The uploader is
// not closed.
func (p *Provider) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	detachLogger(p.uploader)
	if p.ownedCache != nil {
		p.ownedCache.Purge()
	}
}

// GetTexture returns the texture for src rendered at desc.
//
// A cached texture for (src.Identity(), desc) is returned without touching
// the source. Otherwise the planes are extracted into a fresh buffer,
// converted to RGB under the source's YUV colour space, transformed from
// srcCS to dstCS when both are non-nil and differ, uploaded, and cached.
// The plane buffer is released exactly once on every path.
//
// Identities must be stable and unique per content; the cache trusts them.
// Colour spaces are not part of the key, so callers mixing colour spaces
// for one source must fold them into its identity.
//
// On failure the returned error wraps ErrUnsupported, ErrLayoutMismatch,
// ErrExtractionFailed, ErrUploadFailed or ErrInvalidDescriptor, or is the
// context error. No cache entry is created on failure.
//
// Cancelling ctx abandons only this caller's wait. Work shared with other
// callers of the same key continues until the last of them leaves.
func (p *Provider) GetTexture(ctx context.Context, src Source, desc TextureDescriptor, srcCS, dstCS *ColorSpace) (*Texture, error) {
	if p.closed.Load() {
		return nil, ErrProviderClosed
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrUnsupported)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if !srcCS.Valid() || !dstCS.Valid() {
		return nil, fmt.Errorf("%w: colour space %v -> %v", ErrInvalidDescriptor, srcCS, dstCS)
	}

	key := NewKey(src.Identity(), desc)
	if tex, ok := p.cache.Lookup(key); ok {
		p.stats.hits.Add(1)
		Logger().Debug("yuvtex: cache hit", "key", key.String())
		return tex, nil
	}
	p.stats.misses.Add(1)

	name := key.String()
	f := p.join(ctx, name)
	defer p.leave(name, f)

	// A waiter may join a flight whose callers all left; its work was
	// cancelled, so it is started again under the live flight.
	for attempt := 0; ; attempt++ {
		ch := p.flights.DoChan(name, func() (any, error) {
			return p.produce(f.ctx, key, src, srcCS, dstCS)
		})
		select {
		case res := <-ch:
			if res.Err != nil {
				if attempt == 0 && ctx.Err() == nil && f.ctx.Err() == nil && isContextErr(res.Err) {
					continue
				}
				return nil, res.Err
			}
			if res.Shared {
				p.stats.shared.Add(1)
			}
			return res.Val.(*Texture), nil
		case <-ctx.Done():
			p.stats.canceled.Add(1)
			return nil, ctx.Err()
		}
	}
}

// join registers a waiter for name. The flight context keeps the values of
// the first caller's ctx but not its cancellation.
func (p *Provider) join(ctx context.Context, name string) *flight {
	p.flightMu.Lock()
	defer p.flightMu.Unlock()
	f, ok := p.inflight[name]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		p.inflight[name] = f
	}
	f.waiters++
	return f
}

// leave drops a waiter and cancels the flight once nobody waits on it.
func (p *Provider) leave(name string, f *flight) {
	p.flightMu.Lock()
	defer p.flightMu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if p.inflight[name] == f {
		delete(p.inflight, name)
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// produce runs once per in-flight key.
func (p *Provider) produce(ctx context.Context, key Key, src Source, srcCS, dstCS *ColorSpace) (*Texture, error) {
	// A flight for the same key may have completed since our lookup.
	if tex, ok := p.cache.Lookup(key); ok {
		return tex, nil
	}

	queried, tag, ok := src.QueryLayout()
	if !ok {
		p.stats.unsupported.Add(1)
		return nil, fmt.Errorf("%w: identity %016x", ErrUnsupported, uint64(key.ID))
	}
	if err := queried.Validate(); err != nil {
		p.stats.extractFailures.Add(1)
		return nil, err
	}
	w, h := key.Desc.Size(queried[PlaneY].Width, queried[PlaneY].Height)
	if key.Desc.MipLevelCount > maxMipLevels(w, h) {
		return nil, fmt.Errorf("%w: %d mip levels for %dx%d", ErrInvalidDescriptor, key.Desc.MipLevelCount, w, h)
	}
	info := queried.Aligned(p.rowAlign)
	Logger().Debug("yuvtex: extracting planes",
		"key", key.String(), "yuv", tag.String(),
		"luma", fmt.Sprintf("%dx%d", info[PlaneY].Width, info[PlaneY].Height),
		"chroma", fmt.Sprintf("%dx%d", info[PlaneU].Width, info[PlaneU].Height),
		"alpha", info.HasAlpha(), "bytes", info.TotalSize())

	buf, err := NewPlaneBuffer(info, p.alloc)
	if err != nil {
		p.stats.extractFailures.Add(1)
		return nil, err
	}
	var once sync.Once
	release := func() { once.Do(buf.Release) }
	handedOff := false
	defer func() {
		if !handedOff {
			release()
		}
	}()

	planes, err := buf.Planes()
	if err != nil {
		return nil, err
	}
	if err := p.extract(ctx, src, info, planes); err != nil {
		return nil, err
	}

	pixels := p.stagingImage(w, h)
	buf.Arm(func() {
		// Nil when the uploader could not confirm the GPU was done with it.
		if pixels.Pix != nil {
			p.alloc.Free(pixels.Pix)
		}
	})
	if err := ConvertPlanes(pixels, planes, info, tag, srcCS, dstCS, p.scaler); err != nil {
		p.stats.extractFailures.Add(1)
		return nil, err
	}
	if key.Desc.Format == gputypes.TextureFormatBGRA8Unorm {
		SwapRB(pixels)
	}

	sized := key.Desc
	sized.Width, sized.Height = w, h
	id := uuid.New()
	req := &UploadRequest{
		ID:         id,
		Label:      fmt.Sprintf("%s-%s", p.labelPrefix, id),
		Descriptor: sized,
		Pixels:     pixels,
		Done:       release,
	}

	// From here the uploader owns the release.
	handedOff = true
	tex, err := p.uploader.Upload(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			p.stats.canceled.Add(1)
			return nil, ctxErr
		}
		p.stats.uploadFailures.Add(1)
		Logger().Warn("yuvtex: upload failed", "key", key.String(), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	p.cache.Insert(key, tex)
	p.stats.uploads.Add(1)
	Logger().Debug("yuvtex: texture uploaded", "key", key.String(), "label", tex.Label(),
		"size", fmt.Sprintf("%dx%d", tex.Width(), tex.Height()))
	return tex, nil
}

// extract fills planes under the extraction semaphore.
func (p *Provider) extract(ctx context.Context, src Source, info PlaneSizeInfo, planes Planes) error {
	if err := p.extractions.Acquire(ctx, 1); err != nil {
		p.stats.canceled.Add(1)
		return err
	}
	err := src.ExtractPlanes(ctx, info, planes)
	p.extractions.Release(1)
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		p.stats.canceled.Add(1)
		return ctxErr
	}
	p.stats.extractFailures.Add(1)
	Logger().Warn("yuvtex: plane extraction failed", "identity", fmt.Sprintf("%016x", uint64(src.Identity())), "err", err)
	if errors.Is(err, ErrExtractionFailed) || errors.Is(err, ErrLayoutMismatch) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrExtractionFailed, err)
}

// stagingImage returns an RGBA image whose pixels come from the allocator.
func (p *Provider) stagingImage(w, h int) *image.RGBA {
	return &image.RGBA{
		Pix:    p.alloc.Alloc(w * h * 4),
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
}
