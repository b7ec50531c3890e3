package yuvtex

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// SourceIdentity identifies the content of a data source. Two sources with
// equal identities must produce identical planes; the provider relies on
// this to share cached textures and never checks it.
type SourceIdentity uint64

// ContentIdentity derives an identity from content bytes using FNV-1a.
// Each part is length-prefixed so that ("ab", "c") and ("a", "bc") differ.
func ContentIdentity(parts ...[]byte) SourceIdentity {
	h := fnv.New64a()
	var n [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
		_, _ = h.Write(n[:]) // fnv.Write never returns an error
		_, _ = h.Write(p)
	}
	return SourceIdentity(h.Sum64())
}

// YUVColorSpace names the matrix and quantization range that maps the
// planes to RGB.
type YUVColorSpace uint8

const (
	// YUVColorSpaceJPEG is full-range BT.601, as produced by JFIF encoders.
	YUVColorSpaceJPEG YUVColorSpace = iota
	// YUVColorSpaceRec601 is studio-range BT.601.
	YUVColorSpaceRec601
	// YUVColorSpaceRec709 is studio-range BT.709.
	YUVColorSpaceRec709
	// YUVColorSpaceRec2020 is studio-range BT.2020.
	YUVColorSpaceRec2020
	// YUVColorSpaceIdentity copies Y, U and V to R, G and B unchanged.
	YUVColorSpaceIdentity
)

// String returns the name of the colour space.
func (c YUVColorSpace) String() string {
	switch c {
	case YUVColorSpaceJPEG:
		return "JPEG"
	case YUVColorSpaceRec601:
		return "Rec601"
	case YUVColorSpaceRec709:
		return "Rec709"
	case YUVColorSpaceRec2020:
		return "Rec2020"
	case YUVColorSpaceIdentity:
		return "Identity"
	default:
		return fmt.Sprintf("YUVColorSpace(%d)", c)
	}
}

// PlaneIndex addresses one plane of a layout.
type PlaneIndex int

// Plane indices.
const (
	PlaneY PlaneIndex = iota
	PlaneU
	PlaneV
	PlaneA

	// MaxPlanes is the number of plane slots in a layout.
	MaxPlanes = 4
)

// Planes holds one byte slice per plane. Row r of plane i starts at
// r*info[i].RowBytes. Unused planes are nil.
type Planes [MaxPlanes][]byte

// Source is the capability a data source offers to the provider.
//
// QueryLayout is cheap and must not decode pixel data. It reports ok=false
// when the source cannot be expressed as 8-bit planar YUV.
//
// ExtractPlanes fills planes according to info, which has the same plane
// dimensions as the queried layout and row strides at least as large.
// It must not retain the slices after returning.
type Source interface {
	Identity() SourceIdentity
	QueryLayout() (info PlaneSizeInfo, cs YUVColorSpace, ok bool)
	ExtractPlanes(ctx context.Context, info PlaneSizeInfo, planes Planes) error
}
