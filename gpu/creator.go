//go:build !nogpu

package gpu

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/yuvtex"
)

// ErrNilCreator is returned by CreatorUploader when it has no creator.
var ErrNilCreator = errors.New("gpu: nil texture creator")

// CreatorUploader uploads through a gpucontext.TextureCreator. The host
// decides the texture format, so only RGBA8Unorm requests are accepted.
type CreatorUploader struct {
	creator gpucontext.TextureCreator
}

// NewCreatorUploader wraps creator.
func NewCreatorUploader(creator gpucontext.TextureCreator) *CreatorUploader {
	return &CreatorUploader{creator: creator}
}

type destroyer interface {
	Destroy()
}

// Upload implements yuvtex.Uploader.
func (c *CreatorUploader) Upload(ctx context.Context, req *yuvtex.UploadRequest) (*yuvtex.Texture, error) {
	if req != nil && req.Done != nil {
		defer req.Done()
	}
	if c == nil || c.creator == nil {
		return nil, ErrNilCreator
	}
	if req == nil || req.Pixels == nil || req.Pixels.Rect.Empty() {
		return nil, fmt.Errorf("gpu: empty upload request")
	}
	if req.Descriptor.Format != gputypes.TextureFormatRGBA8Unorm {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, req.Descriptor.Format)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	px := req.Pixels
	w, h := px.Rect.Dx(), px.Rect.Dy()
	data := make([]byte, 0, w*h*4)
	for y := px.Rect.Min.Y; y < px.Rect.Max.Y; y++ {
		off := px.PixOffset(px.Rect.Min.X, y)
		data = append(data, px.Pix[off:off+w*4]...)
	}

	created, err := c.creator.NewTextureFromRGBA(w, h, data)
	if err != nil {
		return nil, fmt.Errorf("gpu: NewTextureFromRGBA failed: %w", err)
	}
	res := any(created)
	// Planes are converted to premultiplied alpha.
	if pt, ok := res.(interface{ SetPremultiplied(bool) }); ok {
		pt.SetPremultiplied(true)
	}
	return yuvtex.NewTexture(yuvtex.TextureConfig{
		ID:       req.ID,
		Label:    req.Label,
		Width:    w,
		Height:   h,
		Format:   req.Descriptor.Format,
		Resource: res,
		Destroy: func() {
			if d, ok := res.(destroyer); ok {
				d.Destroy()
			}
		},
	}), nil
}
