package yuvtex

import "github.com/gogpu/yuvtex/internal/color"

// Gamut and Transfer re-export the RGB colour-space building blocks.
type (
	Gamut    = color.Gamut
	Transfer = color.Transfer
)

// Gamuts.
const (
	GamutSRGB      = color.GamutSRGB
	GamutDisplayP3 = color.GamutDisplayP3
	GamutAdobeRGB  = color.GamutAdobeRGB
	GamutRec2020   = color.GamutRec2020
)

// Transfer functions.
const (
	TransferSRGB    = color.TransferSRGB
	TransferLinear  = color.TransferLinear
	TransferGamma22 = color.TransferGamma22
	TransferRec709  = color.TransferRec709
)

// ColorSpace is an RGB colour space. A nil *ColorSpace means unspecified
// and disables colour-space conversion.
type ColorSpace struct {
	Gamut    Gamut
	Transfer Transfer
}

// Common colour spaces. They are shared and must not be modified.
var (
	SRGB       = &ColorSpace{GamutSRGB, TransferSRGB}
	LinearSRGB = &ColorSpace{GamutSRGB, TransferLinear}
	DisplayP3  = &ColorSpace{GamutDisplayP3, TransferSRGB}
	AdobeRGB   = &ColorSpace{GamutAdobeRGB, TransferGamma22}
	Rec2020    = &ColorSpace{GamutRec2020, TransferRec709}
)

// String returns "gamut/transfer", or "unspecified" for nil.
func (cs *ColorSpace) String() string {
	if cs == nil {
		return "unspecified"
	}
	return cs.space().String()
}

func (cs *ColorSpace) space() color.Space {
	return color.Space{Gamut: cs.Gamut, Transfer: cs.Transfer}
}

// colorTransform returns the transform from src to dst, or nil when either
// is unspecified or they are equal.
func colorTransform(src, dst *ColorSpace) *color.Transform {
	if src == nil || dst == nil || *src == *dst {
		return nil
	}
	return color.NewTransform(src.space(), dst.space())
}

// Valid reports whether cs is nil or names a known gamut and transfer.
func (cs *ColorSpace) Valid() bool {
	return cs == nil || cs.space().Valid()
}
