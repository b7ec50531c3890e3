package yuvtex

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/yuvtex/internal/yuv"
)

// DefaultScaler resamples converted images when the requested texture size
// differs from the luma plane size.
var DefaultScaler xdraw.Scaler = xdraw.CatmullRom

func matrixFor(cs YUVColorSpace) (*yuv.Matrix, bool) {
	switch cs {
	case YUVColorSpaceJPEG:
		return yuv.JPEG, true
	case YUVColorSpaceRec601:
		return yuv.Rec601, true
	case YUVColorSpaceRec709:
		return yuv.Rec709, true
	case YUVColorSpaceRec2020:
		return yuv.Rec2020, true
	case YUVColorSpaceIdentity:
		return yuv.Identity, true
	default:
		return nil, false
	}
}

// ConvertPlanes writes the RGBA rendition of planes into dst.
//
// Chroma is upsampled by sample replication. When both srcCS and dstCS are
// given and differ, the RGB values are transformed between them. The result
// is premultiplied by the alpha plane when one is present. If dst is not the
// size of the luma plane the image is resampled with scaler (DefaultScaler
// when nil).
func ConvertPlanes(dst *image.RGBA, planes Planes, info PlaneSizeInfo, tag YUVColorSpace,
	srcCS, dstCS *ColorSpace, scaler xdraw.Scaler) error {
	if dst == nil || dst.Bounds().Empty() {
		return fmt.Errorf("%w: empty destination image", ErrInvalidDescriptor)
	}
	m, ok := matrixFor(tag)
	if !ok {
		return fmt.Errorf("%w: YUV colour space %v", ErrUnsupported, tag)
	}
	if !srcCS.Valid() || !dstCS.Valid() {
		return fmt.Errorf("%w: colour space %v -> %v", ErrUnsupported, srcCS, dstCS)
	}
	if err := info.Validate(); err != nil {
		return err
	}
	if err := CheckPlanes(info, info, planes); err != nil {
		return err
	}

	w, h := info[PlaneY].Width, info[PlaneY].Height
	bounds := dst.Bounds()
	scaled := bounds.Dx() != w || bounds.Dy() != h

	target := dst
	if scaled {
		target = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	convertRows(target, planes, info, m)

	if t := colorTransform(srcCS, dstCS); t != nil {
		off := target.PixOffset(target.Rect.Min.X, target.Rect.Min.Y)
		t.ApplyRGBA(target.Pix[off:], target.Stride, w, h)
	}
	if info.HasAlpha() {
		premultiply(target, w, h)
	}

	if scaled {
		if scaler == nil {
			scaler = DefaultScaler
		}
		scaler.Scale(dst, bounds, target, target.Bounds(), xdraw.Src, nil)
	}
	return nil
}

// convertRows fills the luma-sized image dst with straight (unpremultiplied)
// RGBA.
func convertRows(dst *image.RGBA, planes Planes, info PlaneSizeInfo, m *yuv.Matrix) {
	fh, fv := info.ChromaFactors()
	w, h := info[PlaneY].Width, info[PlaneY].Height
	hasAlpha := info.HasAlpha()

	for y := range h {
		yRow := planes[PlaneY][y*info[PlaneY].RowBytes:]
		cy := y / fv
		uRow := planes[PlaneU][cy*info[PlaneU].RowBytes:]
		vRow := planes[PlaneV][cy*info[PlaneV].RowBytes:]
		var aRow []byte
		if hasAlpha {
			aRow = planes[PlaneA][y*info[PlaneA].RowBytes:]
		}

		out := dst.Pix[dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y):]
		for x := range w {
			cx := x / fh
			r, g, b := m.ToRGB(yRow[x], uRow[cx], vRow[cx])
			a := uint8(0xff)
			if hasAlpha {
				a = aRow[x]
			}
			i := x * 4
			out[i+0] = r
			out[i+1] = g
			out[i+2] = b
			out[i+3] = a
		}
	}
}

func premultiply(img *image.RGBA, w, h int) {
	for y := range h {
		row := img.Pix[img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y):]
		for x := range w {
			i := x * 4
			a := uint32(row[i+3])
			if a == 0xff {
				continue
			}
			row[i+0] = uint8((uint32(row[i+0])*a + 127) / 255)
			row[i+1] = uint8((uint32(row[i+1])*a + 127) / 255)
			row[i+2] = uint8((uint32(row[i+2])*a + 127) / 255)
		}
	}
}

// SwapRB exchanges the red and blue channels of img in place, turning RGBA
// bytes into BGRA order for BGRA textures.
func SwapRB(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := range b.Dx() {
			i := x * 4
			row[i], row[i+2] = row[i+2], row[i]
		}
	}
}
