// Package yuv holds the fixed-point YUV -> RGB matrices used to interpret
// 8-bit planar samples.
package yuv

// Range is the quantization range of the samples.
type Range uint8

const (
	// RangeFull uses 0..255 for luma and chroma centred on 128.
	RangeFull Range = iota
	// RangeLimited uses 16..235 for luma and 16..240 for chroma.
	RangeLimited
)

// fracBits is the fixed-point precision of the coefficients.
const fracBits = 16

const half = 1 << (fracBits - 1)

// Matrix converts one YUV sample triple to RGB.
type Matrix struct {
	identity bool
	limited  bool

	// Scaled coefficients (value * 2^fracBits), range expansion folded in.
	yScale int32
	crR    int32
	cbG    int32
	crG    int32
	cbB    int32
}

// New builds a matrix from the luma weights kr and kb.
func New(kr, kb float64, r Range) *Matrix {
	kg := 1 - kr - kb

	yScale, cScale := 1.0, 1.0
	if r == RangeLimited {
		yScale = 255.0 / 219.0
		cScale = 255.0 / 224.0
	}
	fix := func(v float64) int32 {
		return int32(v*(1<<fracBits) + 0.5)
	}
	return &Matrix{
		limited: r == RangeLimited,
		yScale:  fix(yScale),
		crR:     fix(2 * (1 - kr) * cScale),
		cbG:     fix(2 * kb * (1 - kb) / kg * cScale),
		crG:     fix(2 * kr * (1 - kr) / kg * cScale),
		cbB:     fix(2 * (1 - kb) * cScale),
	}
}

// Predefined matrices.
var (
	// JPEG is full-range BT.601, as used by JFIF and image/jpeg.
	JPEG = New(0.299, 0.114, RangeFull)
	// Rec601 is studio-range BT.601.
	Rec601 = New(0.299, 0.114, RangeLimited)
	// Rec709 is studio-range BT.709.
	Rec709 = New(0.2126, 0.0722, RangeLimited)
	// Rec2020 is studio-range BT.2020 non-constant luminance.
	Rec2020 = New(0.2627, 0.0593, RangeLimited)
	// Identity passes Y, U, V through as R, G, B.
	Identity = &Matrix{identity: true}
)

// ToRGB converts one sample triple.
func (m *Matrix) ToRGB(y, u, v uint8) (r, g, b uint8) {
	if m.identity {
		return y, u, v
	}
	yy := int32(y)
	if m.limited {
		yy -= 16
	}
	yy *= m.yScale
	cb := int32(u) - 128
	cr := int32(v) - 128

	r = clamp(yy + m.crR*cr + half)
	g = clamp(yy - m.cbG*cb - m.crG*cr + half)
	b = clamp(yy + m.cbB*cb + half)
	return r, g, b
}

func clamp(v int32) uint8 {
	v >>= fracBits
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
