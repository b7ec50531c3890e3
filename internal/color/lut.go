package color

// Per-transfer lookup tables replace math.Pow in the per-pixel path.
//
// decodeLUT maps an encoded byte [0-255] to linear float32 [0.0-1.0].
// encodeLUT maps linear [0.0-1.0] quantized to 12 bits (4096 entries, more
// than enough for 8-bit output) back to an encoded byte.
var (
	decodeLUT [transferCount][256]float32
	encodeLUT [transferCount][4096]uint8
)

func init() {
	for t := Transfer(0); t < transferCount; t++ {
		for i := 0; i < 256; i++ {
			decodeLUT[t][i] = Decode(t, float32(i)/255)
		}
		for i := 0; i < 4096; i++ {
			encodeLUT[t][i] = quantize(Encode(t, float32(i)/4095))
		}
	}
}

// DecodeFast converts an encoded byte to linear light using the lookup table.
func DecodeFast(t Transfer, v uint8) float32 {
	return decodeLUT[t%transferCount][v]
}

// EncodeFast converts a linear value to an encoded byte using the lookup
// table. Input is clamped to [0, 1].
func EncodeFast(t Transfer, l float32) uint8 {
	if l <= 0 {
		return encodeLUT[t%transferCount][0]
	}
	if l >= 1 {
		return encodeLUT[t%transferCount][4095]
	}
	return encodeLUT[t%transferCount][int(l*4095+0.5)]
}

// quantize clamps v to [0,1] and rounds it to a byte.
func quantize(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
