// Package yuvtex uploads planar YUV images to GPU textures.
//
// # Overview
//
// Image decoders and video pipelines often hand out pixels as separate
// luma and chroma planes. yuvtex turns such a source into an RGBA texture:
// it asks the source for its plane layout, extracts the planes into a
// pooled buffer, converts them to RGB under the source's YUV matrix,
// optionally remaps between RGB colour spaces, and uploads the result on
// the goroutine that owns the GPU device. Textures are cached by source
// identity and texture descriptor, so repeated requests cost one lookup.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/yuvtex"
//	    "github.com/gogpu/yuvtex/gpu"
//	)
//
//	up, err := gpu.NewUploaderHAL(device, queue)
//	if err != nil { ... }
//	defer up.Close()
//
//	p := yuvtex.NewProvider(up)
//	defer p.Close()
//
//	src := yuvtex.NewEncodedSource(jpegBytes)
//	tex, err := p.GetTexture(ctx, src, yuvtex.TextureDescriptor{}, yuvtex.SRGB, yuvtex.DisplayP3)
//
// # Sources
//
// Anything implementing [Source] can be uploaded. Two sources are built in:
// [ImageSource] for decoded *image.YCbCr and *image.NYCbCrA values, and
// [EncodedSource] for JPEG and lossy WebP bytes, whose layout is read from
// the headers without decoding.
//
// # Memory
//
// Plane memory comes from an [Allocator] ([PoolAllocator] by default) and
// is held in a [PlaneBuffer]. The buffer is released exactly once per
// request: after the GPU signals that the upload finished, or as soon as
// any step fails or the context is cancelled.
//
// # Logging
//
// yuvtex is silent by default. See [SetLogger].
package yuvtex
