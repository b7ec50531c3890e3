package yuvtex

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingAllocator tracks Alloc/Free pairs.
type countingAllocator struct {
	mu     sync.Mutex
	allocs int
	frees  int
}

func (a *countingAllocator) Alloc(size int) []byte {
	a.mu.Lock()
	a.allocs++
	a.mu.Unlock()
	return make([]byte, size)
}

func (a *countingAllocator) Free([]byte) {
	a.mu.Lock()
	a.frees++
	a.mu.Unlock()
}

func (a *countingAllocator) counts() (allocs, frees int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs, a.frees
}

// mockSource is a Source with call counters and pluggable behaviour.
type mockSource struct {
	id   SourceIdentity
	info PlaneSizeInfo
	tag  YUVColorSpace
	ok   bool

	// fill sets every plane to a constant.
	fill [MaxPlanes]byte
	// extract overrides the default fill when set.
	extract func(ctx context.Context, info PlaneSizeInfo, planes Planes) error

	queryCalls   atomic.Int32
	extractCalls atomic.Int32

	mu       sync.Mutex
	lastInfo PlaneSizeInfo
}

func (s *mockSource) Identity() SourceIdentity { return s.id }

func (s *mockSource) QueryLayout() (PlaneSizeInfo, YUVColorSpace, bool) {
	s.queryCalls.Add(1)
	if !s.ok {
		return PlaneSizeInfo{}, 0, false
	}
	return s.info, s.tag, true
}

func (s *mockSource) ExtractPlanes(ctx context.Context, info PlaneSizeInfo, planes Planes) error {
	s.extractCalls.Add(1)
	s.mu.Lock()
	s.lastInfo = info
	s.mu.Unlock()

	if err := CheckPlanes(s.info, info, planes); err != nil {
		return err
	}
	if s.extract != nil {
		return s.extract(ctx, info, planes)
	}
	for i := range planes {
		p := info[i]
		for y := range p.Height {
			row := planes[i][y*p.RowBytes : y*p.RowBytes+p.Width]
			for x := range row {
				row[x] = s.fill[i]
			}
		}
	}
	return nil
}

// newMockSource returns a supported 4:2:0 source of w x h.
func newMockSource(id SourceIdentity, w, h int) *mockSource {
	return &mockSource{
		id:   id,
		info: planarLayout(w, h, 2, 2, false),
		tag:  YUVColorSpaceRec601,
		ok:   true,
		fill: [MaxPlanes]byte{235, 128, 128, 0},
	}
}

// fakeUploader creates CPU-side textures and records requests.
type fakeUploader struct {
	mu       sync.Mutex
	requests []*UploadRequest
	pixels   []*image.RGBA
	err      error
	// gate, when non-nil, blocks Upload until closed or ctx is done.
	gate chan struct{}

	uploads   atomic.Int32
	destroyed atomic.Int32
}

func (u *fakeUploader) Upload(ctx context.Context, req *UploadRequest) (*Texture, error) {
	defer req.Done()

	if u.gate != nil {
		select {
		case <-u.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if u.err != nil {
		return nil, u.err
	}

	cp := image.NewRGBA(req.Pixels.Rect)
	copy(cp.Pix, req.Pixels.Pix)

	u.mu.Lock()
	u.requests = append(u.requests, req)
	u.pixels = append(u.pixels, cp)
	u.mu.Unlock()
	u.uploads.Add(1)

	return NewTexture(TextureConfig{
		ID:      req.ID,
		Label:   req.Label,
		Width:   req.Descriptor.Width,
		Height:  req.Descriptor.Height,
		Format:  req.Descriptor.Format,
		Destroy: func() { u.destroyed.Add(1) },
	}), nil
}

func (u *fakeUploader) lastPixels(t *testing.T) *image.RGBA {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.pixels) == 0 {
		t.Fatal("no upload recorded")
	}
	return u.pixels[len(u.pixels)-1]
}

func newTestProvider(t *testing.T, up Uploader, opts ...Option) *Provider {
	t.Helper()
	p := NewProvider(up, opts...)
	t.Cleanup(p.Close)
	return p
}

// flightWaiters returns how many callers wait on key.
func flightWaiters(p *Provider, key Key) int {
	p.flightMu.Lock()
	defer p.flightMu.Unlock()
	if f, ok := p.inflight[key.String()]; ok {
		return f.waiters
	}
	return 0
}

// waitUntil polls cond for up to two seconds.
func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// sizeAllocator hands out exact-size slices and records the capacity of
// every freed one.
type sizeAllocator struct {
	mu    sync.Mutex
	freed []int
}

func (a *sizeAllocator) Alloc(size int) []byte { return make([]byte, size) }

func (a *sizeAllocator) Free(b []byte) {
	a.mu.Lock()
	a.freed = append(a.freed, cap(b))
	a.mu.Unlock()
}

func (a *sizeAllocator) freedSizes() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int(nil), a.freed...)
}

// stalledUploader behaves like a GPU upload whose fence never signalled.
type stalledUploader struct{}

func (stalledUploader) Upload(_ context.Context, req *UploadRequest) (*Texture, error) {
	req.Pixels.Pix = nil
	req.Done()
	return nil, errors.New("fence timed out")
}
