package yuvtex

import (
	"runtime"
	"testing"

	xdraw "golang.org/x/image/draw"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.rowAlignment != 1 {
		t.Errorf("rowAlignment = %d, want 1", o.rowAlignment)
	}
	if o.maxExtractions != runtime.GOMAXPROCS(0) {
		t.Errorf("maxExtractions = %d, want GOMAXPROCS", o.maxExtractions)
	}
	if o.cache != nil || o.alloc != nil || o.scaler != nil {
		t.Error("defaults should leave cache, allocator and scaler unset")
	}
}

func TestOptionsApply(t *testing.T) {
	c := NewShardedTextureCache(2)
	a := NewPoolAllocator(1)

	p := NewProvider(&fakeUploader{},
		WithCache(c),
		WithAllocator(a),
		WithRowAlignment(64),
		WithMaxConcurrentExtractions(3),
		WithScaler(xdraw.BiLinear),
		WithLabelPrefix("opt"),
	)
	t.Cleanup(p.Close)

	if p.Cache() != TextureCache(c) || p.ownedCache != nil {
		t.Error("WithCache not applied")
	}
	if p.alloc != Allocator(a) {
		t.Error("WithAllocator not applied")
	}
	if p.rowAlign != 64 || p.labelPrefix != "opt" || p.scaler != xdraw.BiLinear {
		t.Errorf("provider = rowAlign %d prefix %q", p.rowAlign, p.labelPrefix)
	}
}

func TestOptionsIgnoreNonPositive(t *testing.T) {
	o := defaultOptions()
	WithRowAlignment(-5)(&o)
	WithMaxConcurrentExtractions(0)(&o)
	if o.rowAlignment != 1 {
		t.Errorf("rowAlignment = %d, want 1", o.rowAlignment)
	}
	if o.maxExtractions != runtime.GOMAXPROCS(0) {
		t.Errorf("maxExtractions = %d", o.maxExtractions)
	}
}
