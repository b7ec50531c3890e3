package yuvtex

import (
	"context"
	"image"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/google/uuid"
)

// Texture is a GPU texture produced by the provider.
//
// The backend object is reachable through Resource; its concrete type is
// defined by the Uploader that created it. Destroy is idempotent and safe
// for concurrent use.
type Texture struct {
	id       uuid.UUID
	label    string
	width    int
	height   int
	format   gputypes.TextureFormat
	resource any
	destroy  func()

	destroyed atomic.Bool
}

// TextureConfig carries what an Uploader knows about a texture it created.
type TextureConfig struct {
	ID       uuid.UUID
	Label    string
	Width    int
	Height   int
	Format   gputypes.TextureFormat
	Resource any

	// Destroy frees the backend object. It is called at most once.
	Destroy func()
}

// NewTexture wraps a backend texture. Uploaders call it.
func NewTexture(cfg TextureConfig) *Texture {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	return &Texture{
		id:       cfg.ID,
		label:    cfg.Label,
		width:    cfg.Width,
		height:   cfg.Height,
		format:   cfg.Format,
		resource: cfg.Resource,
		destroy:  cfg.Destroy,
	}
}

// ID returns the unique id assigned when the upload was requested.
func (t *Texture) ID() uuid.UUID { return t.id }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Format returns the texel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Resource returns the backend object.
func (t *Texture) Resource() any { return t.resource }

// IsDestroyed reports whether Destroy has been called.
func (t *Texture) IsDestroyed() bool { return t.destroyed.Load() }

// Destroy releases the backend texture. Safe to call multiple times.
func (t *Texture) Destroy() {
	if !t.destroyed.CompareAndSwap(false, true) {
		return
	}
	if t.destroy != nil {
		t.destroy()
	}
}

// UploadRequest hands converted pixels to the GPU-owning context.
type UploadRequest struct {
	// ID and Label identify the texture for debugging.
	ID    uuid.UUID
	Label string

	// Descriptor is normalized and sized: Width and Height are the
	// dimensions of Pixels.
	Descriptor TextureDescriptor

	// Pixels holds the texels in Descriptor.Format byte order. It stays
	// valid until Done is called. An uploader that cannot tell whether the
	// GPU has finished reading it sets Pixels.Pix to nil before Done, so
	// the bytes are left to the garbage collector instead of being reused.
	Pixels *image.RGBA

	// Done releases the CPU memory behind the request. The uploader calls
	// it exactly once: after the GPU has finished reading the data, or on
	// any failure or cancellation.
	Done func()
}

// Uploader creates GPU textures on the context that owns the device.
// Upload blocks until the texture is ready or ctx is done.
type Uploader interface {
	Upload(ctx context.Context, req *UploadRequest) (*Texture, error)
}
