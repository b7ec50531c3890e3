package color

// Transform converts 8-bit RGBA pixels between two colour spaces.
// A Transform is immutable and safe for concurrent use.
type Transform struct {
	src, dst Space
	m        Mat3
	gamutOp  bool
	identity bool
}

// NewTransform builds the conversion from src to dst.
func NewTransform(src, dst Space) *Transform {
	t := &Transform{src: src, dst: dst, identity: src == dst}
	if !t.identity {
		t.gamutOp = src.Gamut != dst.Gamut
		t.m = GamutMatrix(src.Gamut, dst.Gamut)
	}
	return t
}

// Source returns the source colour space.
func (t *Transform) Source() Space { return t.src }

// Destination returns the destination colour space.
func (t *Transform) Destination() Space { return t.dst }

// IsIdentity reports whether the transform leaves pixels unchanged.
func (t *Transform) IsIdentity() bool { return t.identity }

// ApplyRGBA converts the w*h pixels of pix in place. Rows start stride
// bytes apart, each pixel is R,G,B,A (non-premultiplied); alpha is kept.
// Out-of-gamut results are clipped.
func (t *Transform) ApplyRGBA(pix []byte, stride, w, h int) {
	if t.identity {
		return
	}
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*4]
		for x := 0; x < len(row); x += 4 {
			r := DecodeFast(t.src.Transfer, row[x])
			g := DecodeFast(t.src.Transfer, row[x+1])
			b := DecodeFast(t.src.Transfer, row[x+2])
			if t.gamutOp {
				r, g, b = t.m.Apply(r, g, b)
			}
			row[x] = EncodeFast(t.dst.Transfer, r)
			row[x+1] = EncodeFast(t.dst.Transfer, g)
			row[x+2] = EncodeFast(t.dst.Transfer, b)
		}
	}
}
