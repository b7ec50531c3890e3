//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/yuvtex"
)

// Uploader errors.
var (
	// ErrUploaderClosed is returned by Upload after Close.
	ErrUploaderClosed = errors.New("gpu: uploader is closed")

	// ErrFenceTimeout is returned when the GPU does not complete an upload
	// submission within the configured timeout.
	ErrFenceTimeout = errors.New("gpu: timed out waiting for upload submission")

	// ErrUnsupportedFormat is returned for texture formats other than
	// RGBA8Unorm and BGRA8Unorm.
	ErrUnsupportedFormat = errors.New("gpu: unsupported texture format")

	// ErrNilDevice is returned when NewUploader gets a nil device or queue.
	ErrNilDevice = errors.New("gpu: nil device or queue")
)

// DefaultQueueDepth is the number of GPU tasks that may wait for the GPU
// goroutine before submitters block.
const DefaultQueueDepth = 16

// Config configures an Uploader.
type Config struct {
	// FenceTimeout bounds the wait for each upload. Zero selects
	// yuvtex.DefaultFenceTimeout.
	FenceTimeout time.Duration

	// QueueDepth is the task buffer size. Zero selects DefaultQueueDepth.
	QueueDepth int
}

// Resource is the backend object of textures created by Uploader.
type Resource struct {
	Texture hal.Texture
	View    hal.TextureView
}

// Uploader creates textures on a HAL device.
//
// All device and queue calls happen on one goroutine started by
// NewUploader; Upload and texture destruction hand work to it. The device
// is not owned: Close stops the goroutine but never destroys the device.
type Uploader struct {
	device hal.Device
	queue  hal.Queue
	cfg    Config

	mu     sync.RWMutex // guards closed and sends on tasks
	closed bool
	tasks  chan func()
	done   chan struct{}

	uploads  atomic.Uint64
	failures atomic.Uint64
}

// NewUploader starts the GPU goroutine for device and queue.
func NewUploader(device hal.Device, queue hal.Queue, cfg Config) (*Uploader, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if cfg.FenceTimeout <= 0 {
		cfg.FenceTimeout = yuvtex.DefaultFenceTimeout
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultQueueDepth
	}
	u := &Uploader{
		device: device,
		queue:  queue,
		cfg:    cfg,
		tasks:  make(chan func(), cfg.QueueDepth),
		done:   make(chan struct{}),
	}
	go u.loop()
	return u, nil
}

func (u *Uploader) loop() {
	defer close(u.done)
	for task := range u.tasks {
		task()
	}
}

// SetLogger sets the logger for the gpu package.
func (u *Uploader) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Config returns the effective configuration.
func (u *Uploader) Config() Config { return u.cfg }

// Stats returns the number of completed and failed uploads.
func (u *Uploader) Stats() (uploads, failures uint64) {
	return u.uploads.Load(), u.failures.Load()
}

// submit queues task for the GPU goroutine, giving up when ctx ends
// while the queue is full.
func (u *Uploader) submit(ctx context.Context, task func()) error {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.closed {
		return ErrUploaderClosed
	}
	select {
	case u.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close runs the tasks already queued, then stops the GPU goroutine.
// It is safe to call more than once.
func (u *Uploader) Close() {
	u.mu.Lock()
	if !u.closed {
		u.closed = true
		close(u.tasks)
	}
	u.mu.Unlock()
	<-u.done
}

type uploadResult struct {
	tex *yuvtex.Texture
	err error
}

// Upload implements yuvtex.Uploader. req.Done runs exactly once, after
// the upload submission has completed or when the upload cannot proceed.
func (u *Uploader) Upload(ctx context.Context, req *yuvtex.UploadRequest) (*yuvtex.Texture, error) {
	done := func() {}
	if req != nil && req.Done != nil {
		done = sync.OnceFunc(req.Done)
	}
	if req == nil || req.Pixels == nil || req.Pixels.Rect.Empty() {
		done()
		return nil, fmt.Errorf("gpu: empty upload request")
	}
	switch req.Descriptor.Format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
	default:
		done()
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, req.Descriptor.Format)
	}
	if err := ctx.Err(); err != nil {
		done()
		return nil, err
	}

	result := make(chan uploadResult, 1)
	task := func() {
		defer done()
		if err := ctx.Err(); err != nil {
			result <- uploadResult{err: err}
			return
		}
		tex, err := u.upload(req)
		if err != nil {
			u.failures.Add(1)
			slogger().Warn("gpu: upload failed", "label", req.Label, "err", err)
		} else {
			u.uploads.Add(1)
		}
		result <- uploadResult{tex: tex, err: err}
	}
	if err := u.submit(ctx, task); err != nil {
		done()
		return nil, err
	}

	select {
	case r := <-result:
		return r.tex, r.err
	case <-ctx.Done():
		// Nobody will own the texture; destroy it once the task finishes.
		go func() {
			if r := <-result; r.tex != nil {
				r.tex.Destroy()
			}
		}()
		return nil, ctx.Err()
	}
}

// upload runs on the GPU goroutine.
func (u *Uploader) upload(req *yuvtex.UploadRequest) (*yuvtex.Texture, error) {
	d := req.Descriptor
	px := req.Pixels
	w := uint32(px.Rect.Dx()) //nolint:gosec // bounded by descriptor validation
	h := uint32(px.Rect.Dy()) //nolint:gosec // bounded by descriptor validation
	mips := max(d.MipLevelCount, 1)

	tex, err := u.device.CreateTexture(&hal.TextureDescriptor{
		Label:         req.Label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: mips,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        d.Format,
		Usage:         d.Usage | gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}

	view, err := u.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         req.Label + "_view",
		Format:        d.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: mips,
	})
	if err != nil {
		u.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view: %w", err)
	}

	if err := u.write(req.Label, tex, px, w, h); err != nil {
		u.device.DestroyTextureView(view)
		u.device.DestroyTexture(tex)
		return nil, err
	}

	res := &Resource{Texture: tex, View: view}
	return yuvtex.NewTexture(yuvtex.TextureConfig{
		ID:       req.ID,
		Label:    req.Label,
		Width:    int(w),
		Height:   int(h),
		Format:   d.Format,
		Resource: res,
		Destroy:  func() { u.destroy(res) },
	}), nil
}

// write copies px into mip level 0 of tex and waits until the GPU has
// made the texture sampleable.
func (u *Uploader) write(label string, tex hal.Texture, px *image.RGBA, w, h uint32) error {
	off := px.PixOffset(px.Rect.Min.X, px.Rect.Min.Y)
	size := int(h-1)*px.Stride + int(w)*4
	// WriteTexture copies the bytes into a queue-owned staging buffer, so
	// px is not referenced once it returns.
	err := u.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0, Aspect: gputypes.TextureAspectAll},
		px.Pix[off:off+size],
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(px.Stride), //nolint:gosec // stride is 4*width
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("write texture: %w", err)
	}

	encoder, err := u.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_upload"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label + "_upload"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll},
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopyDst,
			NewUsage: gputypes.TextureUsageTextureBinding,
		},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}

	index, err := u.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		u.device.FreeCommandBuffer(cmdBuf)
		return fmt.Errorf("submit: %w", err)
	}
	start := time.Now()
	if err := u.waitSubmission(index); err != nil {
		// The command buffer may still be executing; it is not freed.
		slogger().Warn("gpu: upload timed out", "label", label, "timeout", u.cfg.FenceTimeout)
		return err
	}
	u.device.FreeCommandBuffer(cmdBuf)
	slogger().Debug("gpu: texture uploaded", "label", label,
		"size", fmt.Sprintf("%dx%d", w, h), "wait", time.Since(start))
	return nil
}

// waitSubmission polls the queue until submission index has completed or
// the fence timeout passes.
func (u *Uploader) waitSubmission(index uint64) error {
	deadline := time.Now().Add(u.cfg.FenceTimeout)
	backoff := 50 * time.Microsecond
	for u.queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d after %v", ErrFenceTimeout, index, u.cfg.FenceTimeout)
		}
		time.Sleep(backoff)
		backoff = min(backoff*2, 2*time.Millisecond)
	}
	return nil
}

// destroy frees res on the GPU goroutine, or directly once the uploader
// has stopped.
func (u *Uploader) destroy(res *Resource) {
	free := func() {
		u.device.DestroyTextureView(res.View)
		u.device.DestroyTexture(res.Texture)
	}
	if err := u.submit(context.Background(), free); err != nil {
		free()
	}
}
