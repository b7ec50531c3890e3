// Package color provides RGB colour-space descriptions and the conversions
// between them used when uploading YUV images.
//
// A colour space is a pair of a gamut (RGB primaries, all with a D65 white
// point) and a transfer function. Converting between two spaces decodes the
// source transfer to linear light, remaps the gamut through CIE XYZ and
// encodes with the destination transfer.
package color

import "fmt"

// Gamut identifies a set of RGB primaries.
type Gamut uint8

const (
	// GamutSRGB is the BT.709 / sRGB primaries.
	GamutSRGB Gamut = iota
	// GamutDisplayP3 is the DCI-P3 primaries with a D65 white point.
	GamutDisplayP3
	// GamutAdobeRGB is the Adobe RGB (1998) primaries.
	GamutAdobeRGB
	// GamutRec2020 is the BT.2020 primaries.
	GamutRec2020

	gamutCount
)

// String returns the gamut name.
func (g Gamut) String() string {
	switch g {
	case GamutSRGB:
		return "sRGB"
	case GamutDisplayP3:
		return "DisplayP3"
	case GamutAdobeRGB:
		return "AdobeRGB"
	case GamutRec2020:
		return "Rec2020"
	default:
		return fmt.Sprintf("Gamut(%d)", g)
	}
}

// Transfer identifies a transfer function (gamma curve).
type Transfer uint8

const (
	// TransferSRGB is the IEC 61966-2-1 piecewise curve.
	TransferSRGB Transfer = iota
	// TransferLinear is the identity curve.
	TransferLinear
	// TransferGamma22 is a pure 2.2 power curve.
	TransferGamma22
	// TransferRec709 is the BT.709 / BT.2020 camera curve.
	TransferRec709

	transferCount
)

// String returns the transfer function name.
func (t Transfer) String() string {
	switch t {
	case TransferSRGB:
		return "sRGB"
	case TransferLinear:
		return "Linear"
	case TransferGamma22:
		return "Gamma2.2"
	case TransferRec709:
		return "Rec709"
	default:
		return fmt.Sprintf("Transfer(%d)", t)
	}
}

// Space is an RGB colour space.
type Space struct {
	Gamut    Gamut
	Transfer Transfer
}

// String returns "gamut/transfer".
func (s Space) String() string {
	return s.Gamut.String() + "/" + s.Transfer.String()
}

// Valid reports whether both components are known values.
func (s Space) Valid() bool {
	return s.Gamut < gamutCount && s.Transfer < transferCount
}
