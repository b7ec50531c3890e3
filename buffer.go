package yuvtex

import (
	"math/bits"
	"sync"
)

// Allocator supplies the CPU memory that holds extracted planes.
// Free is called exactly once for every slice returned by Alloc.
type Allocator interface {
	Alloc(size int) []byte
	Free(b []byte)
}

// minSizeClass is the smallest bucket kept by PoolAllocator.
const minSizeClass = 4 << 10

// PoolAllocator is a thread-safe Allocator that keeps freed slices in
// power-of-two size classes for reuse. Slices returned by Alloc are zeroed.
type PoolAllocator struct {
	mu      sync.Mutex
	buckets map[int][][]byte
	maxSize int // max slices per bucket
}

// NewPoolAllocator creates an allocator retaining up to maxPerBucket slices
// per size class. A maxPerBucket of 0 means unlimited.
func NewPoolAllocator(maxPerBucket int) *PoolAllocator {
	return &PoolAllocator{
		buckets: make(map[int][][]byte),
		maxSize: maxPerBucket,
	}
}

var defaultAllocator = NewPoolAllocator(8)

// DefaultAllocator returns the package-level pool used when a provider is
// not given an allocator.
func DefaultAllocator() *PoolAllocator {
	return defaultAllocator
}

func sizeClass(size int) int {
	if size <= minSizeClass {
		return minSizeClass
	}
	return 1 << bits.Len(uint(size-1))
}

// Alloc returns a zeroed slice of length size.
func (p *PoolAllocator) Alloc(size int) []byte {
	class := sizeClass(size)

	p.mu.Lock()
	bucket := p.buckets[class]
	if n := len(bucket); n > 0 {
		b := bucket[n-1]
		bucket[n-1] = nil
		p.buckets[class] = bucket[:n-1]
		p.mu.Unlock()

		b = b[:size]
		clear(b)
		return b
	}
	p.mu.Unlock()

	return make([]byte, size, class)
}

// Free returns b to its size class. Slices not obtained from Alloc are
// dropped.
func (p *PoolAllocator) Free(b []byte) {
	class := cap(b)
	if class < minSizeClass || class&(class-1) != 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[class]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[class] = append(bucket, b[:0])
}

// Retained returns the number of slices currently held for reuse.
func (p *PoolAllocator) Retained() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.buckets {
		n += len(b)
	}
	return n
}

// PlaneBuffer is one contiguous allocation holding all planes of a layout.
//
// The buffer is reference counted, starting at one. Storage goes back to
// the allocator exactly once, when the last reference is released; callbacks
// registered with Arm run right after that. Extra Release calls are no-ops.
type PlaneBuffer struct {
	info  PlaneSizeInfo
	alloc Allocator

	mu        sync.Mutex
	data      []byte
	refs      int
	freed     bool
	onRelease []func()
}

// NewPlaneBuffer allocates storage for info from alloc. A nil alloc uses
// DefaultAllocator.
func NewPlaneBuffer(info PlaneSizeInfo, alloc Allocator) (*PlaneBuffer, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if alloc == nil {
		alloc = defaultAllocator
	}
	return &PlaneBuffer{
		info:  info,
		alloc: alloc,
		data:  alloc.Alloc(info.TotalSize()),
		refs:  1,
	}, nil
}

// Info returns the layout the buffer was allocated for.
func (b *PlaneBuffer) Info() PlaneSizeInfo {
	return b.info
}

// Planes returns views of the individual planes. Absent planes are nil.
// The views are valid until the buffer is released.
func (b *PlaneBuffer) Planes() (Planes, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed {
		return Planes{}, ErrBufferReleased
	}

	var planes Planes
	offs := b.info.PlaneOffsets()
	for i := range b.info {
		n := b.info[i].Len()
		if n == 0 {
			continue
		}
		planes[i] = b.data[offs[i] : offs[i]+n : offs[i]+n]
	}
	return planes, nil
}

// Retain adds a reference. It returns false if the buffer was already freed.
func (b *PlaneBuffer) Retain() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed {
		return false
	}
	b.refs++
	return true
}

// Release drops a reference and frees the storage when none remain.
func (b *PlaneBuffer) Release() {
	b.mu.Lock()
	if b.freed {
		b.mu.Unlock()
		return
	}
	b.refs--
	if b.refs > 0 {
		b.mu.Unlock()
		return
	}
	b.freed = true
	data := b.data
	b.data = nil
	callbacks := b.onRelease
	b.onRelease = nil
	b.mu.Unlock()

	b.alloc.Free(data)
	for _, fn := range callbacks {
		fn()
	}
}

// Arm registers fn to run once the storage has been freed. If the buffer
// is already freed fn runs immediately.
func (b *PlaneBuffer) Arm(fn func()) {
	b.mu.Lock()
	if !b.freed {
		b.onRelease = append(b.onRelease, fn)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	fn()
}

// Released reports whether the storage has been freed.
func (b *PlaneBuffer) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.freed
}
