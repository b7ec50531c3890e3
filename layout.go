package yuvtex

import "fmt"

// maxDimension bounds any plane edge. It keeps TotalSize well inside int.
const maxDimension = 1 << 15

// PlaneSize describes one plane of 8-bit samples.
type PlaneSize struct {
	Width    int
	Height   int
	RowBytes int
}

// Len returns the number of bytes the plane occupies.
func (p PlaneSize) Len() int {
	return p.RowBytes * p.Height
}

func (p PlaneSize) empty() bool {
	return p.Width == 0 && p.Height == 0
}

// PlaneSizeInfo is the per-plane geometry of a YUV image, indexed by
// PlaneY, PlaneU, PlaneV and PlaneA. The alpha plane is present when its
// width is non-zero.
type PlaneSizeInfo [MaxPlanes]PlaneSize

// HasAlpha reports whether the layout carries an alpha plane.
func (info PlaneSizeInfo) HasAlpha() bool {
	return info[PlaneA].Width > 0
}

// NumPlanes returns 3 or 4.
func (info PlaneSizeInfo) NumPlanes() int {
	if info.HasAlpha() {
		return 4
	}
	return 3
}

// TotalSize returns the combined byte size of all planes.
func (info PlaneSizeInfo) TotalSize() int {
	total := 0
	for i := range info {
		total += info[i].Len()
	}
	return total
}

// PlaneOffsets returns the offset of every plane when the planes are packed
// back to back in one allocation.
func (info PlaneSizeInfo) PlaneOffsets() [MaxPlanes]int {
	var offs [MaxPlanes]int
	off := 0
	for i := range info {
		offs[i] = off
		off += info[i].Len()
	}
	return offs
}

// ChromaFactors returns the horizontal and vertical subsampling of the
// chroma planes relative to luma, or 0, 0 when no supported factor fits.
func (info PlaneSizeInfo) ChromaFactors() (h, v int) {
	y, u := info[PlaneY], info[PlaneU]
	for _, fh := range [...]int{1, 2, 4} {
		if ceilDiv(y.Width, fh) != u.Width {
			continue
		}
		for _, fv := range [...]int{1, 2} {
			if ceilDiv(y.Height, fv) == u.Height {
				return fh, fv
			}
		}
	}
	return 0, 0
}

// Validate checks that the layout describes a usable planar YUV image.
func (info PlaneSizeInfo) Validate() error {
	for i := PlaneY; i <= PlaneV; i++ {
		p := info[i]
		if p.Width <= 0 || p.Height <= 0 {
			return fmt.Errorf("%w: plane %d is empty (%dx%d)", ErrLayoutMismatch, i, p.Width, p.Height)
		}
	}
	for i := range info {
		p := info[i]
		if p.Width < 0 || p.Height < 0 || p.Width > maxDimension || p.Height > maxDimension {
			return fmt.Errorf("%w: plane %d size %dx%d out of range", ErrLayoutMismatch, i, p.Width, p.Height)
		}
		if p.RowBytes < p.Width || p.RowBytes > 4*maxDimension {
			return fmt.Errorf("%w: plane %d row bytes %d for width %d", ErrLayoutMismatch, i, p.RowBytes, p.Width)
		}
	}
	if info[PlaneU].Width != info[PlaneV].Width || info[PlaneU].Height != info[PlaneV].Height {
		return fmt.Errorf("%w: U plane %dx%d differs from V plane %dx%d", ErrLayoutMismatch,
			info[PlaneU].Width, info[PlaneU].Height, info[PlaneV].Width, info[PlaneV].Height)
	}
	if h, _ := info.ChromaFactors(); h == 0 {
		return fmt.Errorf("%w: chroma %dx%d is not a supported subsampling of luma %dx%d", ErrLayoutMismatch,
			info[PlaneU].Width, info[PlaneU].Height, info[PlaneY].Width, info[PlaneY].Height)
	}
	a := info[PlaneA]
	switch {
	case a.empty():
	case a.Width != info[PlaneY].Width || a.Height != info[PlaneY].Height:
		return fmt.Errorf("%w: alpha plane %dx%d differs from luma %dx%d", ErrLayoutMismatch,
			a.Width, a.Height, info[PlaneY].Width, info[PlaneY].Height)
	}
	return nil
}

// Compatible reports whether info may be used to extract a source whose
// queried layout is queried: plane sizes must match and strides may only
// grow.
func (info PlaneSizeInfo) Compatible(queried PlaneSizeInfo) error {
	for i := range info {
		got, want := info[i], queried[i]
		if got.Width != want.Width || got.Height != want.Height {
			return fmt.Errorf("%w: plane %d is %dx%d, source reports %dx%d", ErrLayoutMismatch,
				i, got.Width, got.Height, want.Width, want.Height)
		}
		if got.RowBytes < want.RowBytes {
			return fmt.Errorf("%w: plane %d row bytes %d below source minimum %d", ErrLayoutMismatch,
				i, got.RowBytes, want.RowBytes)
		}
	}
	return nil
}

// Aligned returns a copy of info with every present plane's RowBytes
// rounded up to a multiple of n. n <= 1 returns info unchanged.
func (info PlaneSizeInfo) Aligned(n int) PlaneSizeInfo {
	if n <= 1 {
		return info
	}
	out := info
	for i := range out {
		if out[i].Width == 0 {
			continue
		}
		out[i].RowBytes = (out[i].RowBytes + n - 1) / n * n
	}
	return out
}

// CheckPlanes verifies that info is compatible with the queried layout and
// that every slice in planes is large enough to hold its plane. Sources call
// it at the top of ExtractPlanes.
func CheckPlanes(queried, info PlaneSizeInfo, planes Planes) error {
	if err := info.Compatible(queried); err != nil {
		return err
	}
	for i := range info {
		p := info[i]
		if p.Width == 0 {
			continue
		}
		need := (p.Height-1)*p.RowBytes + p.Width
		if len(planes[i]) < need {
			return fmt.Errorf("%w: plane %d has %d bytes, needs %d", ErrLayoutMismatch, i, len(planes[i]), need)
		}
	}
	return nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
