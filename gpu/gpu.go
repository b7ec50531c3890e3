//go:build !nogpu

// Package gpu uploads yuvtex textures to a GPU.
//
// Two uploaders are available. [NewUploaderHAL] and [NewUploader] drive a
// wgpu HAL device directly: textures are created, filled with
// Queue.WriteTexture, transitioned for sampling and fenced. [NewCreatorUploader]
// delegates to a host that implements gpucontext.TextureCreator, such as a
// gogpu window.
//
// Usage:
//
//	up, err := gpu.NewUploader(app.GPUContextProvider())
//	if err != nil {
//	    return err
//	}
//	defer up.Close()
//	provider := yuvtex.NewProvider(up)
package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/yuvtex"
	gpuimpl "github.com/gogpu/yuvtex/internal/gpu"
)

// Uploader is the HAL uploader. Close it after the providers using it.
type Uploader = gpuimpl.Uploader

// Resource holds the HAL texture and view behind a yuvtex.Texture.
type Resource = gpuimpl.Resource

// Errors reported by HAL uploads.
var (
	ErrUploaderClosed    = gpuimpl.ErrUploaderClosed
	ErrFenceTimeout      = gpuimpl.ErrFenceTimeout
	ErrUnsupportedFormat = gpuimpl.ErrUnsupportedFormat
)

// Option configures a HAL uploader.
type Option func(*gpuimpl.Config)

// WithFenceTimeout bounds the GPU wait for each upload.
func WithFenceTimeout(d time.Duration) Option {
	return func(c *gpuimpl.Config) { c.FenceTimeout = d }
}

// WithQueueDepth sets how many uploads may queue for the GPU goroutine.
func WithQueueDepth(n int) Option {
	return func(c *gpuimpl.Config) { c.QueueDepth = n }
}

// ConfigOptions returns the uploader options described by cfg.
func ConfigOptions(cfg yuvtex.Config) ([]Option, error) {
	d, err := cfg.FenceTimeoutDuration()
	if err != nil {
		return nil, err
	}
	return []Option{WithFenceTimeout(d)}, nil
}

// NewUploaderHAL creates an uploader for a HAL device and queue owned by
// the caller.
func NewUploaderHAL(device hal.Device, queue hal.Queue, opts ...Option) (*Uploader, error) {
	var cfg gpuimpl.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	u, err := gpuimpl.NewUploader(device, queue, cfg)
	if err != nil {
		return nil, err
	}
	yuvtex.Logger().Debug("gpu: uploader created",
		"fence_timeout", u.Config().FenceTimeout, "queue_depth", u.Config().QueueDepth)
	return u, nil
}

// NewUploader creates an uploader on the device of an external provider.
// The provider must also expose HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func NewUploader(provider gpucontext.DeviceProvider, opts ...Option) (*Uploader, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	return NewUploaderHAL(device, queue, opts...)
}

// HALTexture returns the HAL objects behind tex when a HAL uploader
// created it.
func HALTexture(tex *yuvtex.Texture) (hal.Texture, hal.TextureView, bool) {
	if tex == nil || tex.IsDestroyed() {
		return nil, nil, false
	}
	res, ok := tex.Resource().(*Resource)
	if !ok {
		return nil, nil, false
	}
	return res.Texture, res.View, true
}
