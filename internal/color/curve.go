package color

import "math"

// Decode converts an encoded component in [0,1] to linear light
// (the electro-optical transfer function).
func Decode(t Transfer, v float32) float32 {
	switch t {
	case TransferLinear:
		return v
	case TransferGamma22:
		if v <= 0 {
			return 0
		}
		return float32(math.Pow(float64(v), 2.2))
	case TransferRec709:
		if v < 0.081 {
			return v / 4.5
		}
		return float32(math.Pow(float64((v+0.099)/1.099), 1/0.45))
	default:
		// sRGB: if s <= 0.04045: s/12.92; else: pow((s+0.055)/1.055, 2.4)
		if v <= 0.04045 {
			return v / 12.92
		}
		return float32(math.Pow(float64((v+0.055)/1.055), 2.4))
	}
}

// Encode converts a linear component in [0,1] to its encoded form
// (the opto-electronic transfer function).
func Encode(t Transfer, l float32) float32 {
	switch t {
	case TransferLinear:
		return l
	case TransferGamma22:
		if l <= 0 {
			return 0
		}
		return float32(math.Pow(float64(l), 1/2.2))
	case TransferRec709:
		if l < 0.018 {
			return l * 4.5
		}
		return 1.099*float32(math.Pow(float64(l), 0.45)) - 0.099
	default:
		// sRGB: if l <= 0.0031308: l*12.92; else: 1.055*pow(l, 1/2.4)-0.055
		if l <= 0.0031308 {
			return l * 12.92
		}
		return 1.055*float32(math.Pow(float64(l), 1.0/2.4)) - 0.055
	}
}
