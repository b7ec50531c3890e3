package yuvtex

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
)

// ImageSource adapts a decoded *image.YCbCr or *image.NYCbCrA.
// Any other image type reports itself unsupported.
type ImageSource struct {
	img  image.Image
	id   SourceIdentity
	tag  YUVColorSpace
	info PlaneSizeInfo
	ok   bool
}

// NewImageSource wraps img with an identity derived from its pixels.
// Images decoded by image/jpeg use YUVColorSpaceJPEG, which is the default.
func NewImageSource(img image.Image) *ImageSource {
	return NewImageSourceWithID(img, imageIdentity(img))
}

// NewImageSourceWithID wraps img with a caller-chosen identity.
func NewImageSourceWithID(img image.Image, id SourceIdentity) *ImageSource {
	info, ok := layoutOf(img)
	return &ImageSource{img: img, id: id, tag: YUVColorSpaceJPEG, info: info, ok: ok}
}

// WithYUVColorSpace returns a copy of s that reports tag.
func (s *ImageSource) WithYUVColorSpace(tag YUVColorSpace) *ImageSource {
	c := *s
	c.tag = tag
	return &c
}

// Image returns the wrapped image.
func (s *ImageSource) Image() image.Image { return s.img }

// Identity implements Source.
func (s *ImageSource) Identity() SourceIdentity { return s.id }

// QueryLayout implements Source.
func (s *ImageSource) QueryLayout() (PlaneSizeInfo, YUVColorSpace, bool) {
	if !s.ok {
		return PlaneSizeInfo{}, 0, false
	}
	return s.info, s.tag, true
}

// ExtractPlanes implements Source.
func (s *ImageSource) ExtractPlanes(ctx context.Context, info PlaneSizeInfo, planes Planes) error {
	if !s.ok {
		return fmt.Errorf("%w: %T is not planar YUV", ErrUnsupported, s.img)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckPlanes(s.info, info, planes); err != nil {
		return err
	}
	copyPlanes(s.img, info, planes)
	return nil
}

func subsampleFactors(r image.YCbCrSubsampleRatio) (h, v int, ok bool) {
	switch r {
	case image.YCbCrSubsampleRatio444:
		return 1, 1, true
	case image.YCbCrSubsampleRatio422:
		return 2, 1, true
	case image.YCbCrSubsampleRatio420:
		return 2, 2, true
	case image.YCbCrSubsampleRatio440:
		return 1, 2, true
	case image.YCbCrSubsampleRatio411:
		return 4, 1, true
	case image.YCbCrSubsampleRatio410:
		return 4, 2, true
	default:
		return 0, 0, false
	}
}

// planarLayout builds the tightly packed layout of a w x h image with the
// given chroma factors.
func planarLayout(w, h, fh, fv int, alpha bool) PlaneSizeInfo {
	cw, ch := ceilDiv(w, fh), ceilDiv(h, fv)
	info := PlaneSizeInfo{
		PlaneY: {Width: w, Height: h, RowBytes: w},
		PlaneU: {Width: cw, Height: ch, RowBytes: cw},
		PlaneV: {Width: cw, Height: ch, RowBytes: cw},
	}
	if alpha {
		info[PlaneA] = PlaneSize{Width: w, Height: h, RowBytes: w}
	}
	return info
}

func asYCbCr(img image.Image) (yc *image.YCbCr, alpha *image.NYCbCrA) {
	switch m := img.(type) {
	case *image.YCbCr:
		return m, nil
	case *image.NYCbCrA:
		return &m.YCbCr, m
	default:
		return nil, nil
	}
}

func layoutOf(img image.Image) (PlaneSizeInfo, bool) {
	yc, alpha := asYCbCr(img)
	if yc == nil {
		return PlaneSizeInfo{}, false
	}
	fh, fv, ok := subsampleFactors(yc.SubsampleRatio)
	r := yc.Rect
	if !ok || r.Empty() {
		return PlaneSizeInfo{}, false
	}
	// image.YCbCr subsamples in absolute coordinates. A crop whose origin
	// falls inside a chroma block has no packed-plane equivalent.
	if r.Min.X%fh != 0 || r.Min.Y%fv != 0 {
		return PlaneSizeInfo{}, false
	}
	info := planarLayout(r.Dx(), r.Dy(), fh, fv, alpha != nil)
	if info.Validate() != nil {
		return PlaneSizeInfo{}, false
	}
	return info, true
}

// copyPlanes copies the visible region of a YCbCr image into planes laid
// out by info. The image must match the layout returned by layoutOf.
func copyPlanes(img image.Image, info PlaneSizeInfo, planes Planes) {
	yc, alpha := asYCbCr(img)
	_, fv, _ := subsampleFactors(yc.SubsampleRatio)
	r := yc.Rect

	ly := info[PlaneY]
	for y := range ly.Height {
		src := yc.Y[yc.YOffset(r.Min.X, r.Min.Y+y):]
		copy(planes[PlaneY][y*ly.RowBytes:y*ly.RowBytes+ly.Width], src[:ly.Width])
	}

	lc := info[PlaneU]
	for cy := range lc.Height {
		off := yc.COffset(r.Min.X, r.Min.Y+cy*fv)
		dst := cy * lc.RowBytes
		copy(planes[PlaneU][dst:dst+lc.Width], yc.Cb[off:off+lc.Width])
		copy(planes[PlaneV][dst:dst+lc.Width], yc.Cr[off:off+lc.Width])
	}

	if alpha != nil && info.HasAlpha() {
		la := info[PlaneA]
		for y := range la.Height {
			src := alpha.A[alpha.AOffset(r.Min.X, r.Min.Y+y):]
			copy(planes[PlaneA][y*la.RowBytes:y*la.RowBytes+la.Width], src[:la.Width])
		}
	}
}

// imageIdentity hashes the geometry and the pixel slices of a YCbCr image.
func imageIdentity(img image.Image) SourceIdentity {
	yc, alpha := asYCbCr(img)
	if yc == nil {
		return 0
	}
	var hdr [44]byte
	r := yc.Rect
	binary.LittleEndian.PutUint64(hdr[0:], uint64(int64(r.Min.X)))  //nolint:gosec // hashing only
	binary.LittleEndian.PutUint64(hdr[8:], uint64(int64(r.Min.Y)))  //nolint:gosec // hashing only
	binary.LittleEndian.PutUint64(hdr[16:], uint64(int64(r.Max.X))) //nolint:gosec // hashing only
	binary.LittleEndian.PutUint64(hdr[24:], uint64(int64(r.Max.Y))) //nolint:gosec // hashing only
	binary.LittleEndian.PutUint32(hdr[32:], uint32(yc.YStride))     //nolint:gosec // hashing only
	binary.LittleEndian.PutUint32(hdr[36:], uint32(yc.CStride))     //nolint:gosec // hashing only
	hdr[40] = byte(yc.SubsampleRatio)
	if alpha != nil {
		hdr[41] = 1
		return ContentIdentity(hdr[:], yc.Y, yc.Cb, yc.Cr, alpha.A)
	}
	return ContentIdentity(hdr[:], yc.Y, yc.Cb, yc.Cr)
}
