package yuvtex

import "errors"

// Sentinel errors returned by the provider and the built-in sources.
// Callers should test for them with errors.Is; the returned errors usually
// wrap one of these with additional context.
var (
	// ErrUnsupported is returned when a source cannot describe itself as
	// planar YUV. No memory is allocated and the cache is left untouched.
	ErrUnsupported = errors.New("yuvtex: source does not provide planar YUV")

	// ErrExtractionFailed is returned when a source fails to fill the planes.
	ErrExtractionFailed = errors.New("yuvtex: plane extraction failed")

	// ErrUploadFailed is returned when the GPU upload or texture creation fails.
	ErrUploadFailed = errors.New("yuvtex: texture upload failed")

	// ErrLayoutMismatch is returned when plane dimensions or strides are
	// inconsistent with the layout reported by the source.
	ErrLayoutMismatch = errors.New("yuvtex: plane layout mismatch")

	// ErrBufferReleased is returned when plane views are requested from a
	// buffer whose storage has already been freed.
	ErrBufferReleased = errors.New("yuvtex: plane buffer already released")

	// ErrInvalidDescriptor is returned for texture descriptors that cannot be
	// satisfied (negative size, unsupported format, bad mip count).
	ErrInvalidDescriptor = errors.New("yuvtex: invalid texture descriptor")

	// ErrProviderClosed is returned by GetTexture after Close.
	ErrProviderClosed = errors.New("yuvtex: provider is closed")
)
