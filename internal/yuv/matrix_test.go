package yuv

import (
	"image/color"
	"testing"
)

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

// JPEG must agree with the standard library's JFIF conversion.
func TestJPEGMatchesStdlib(t *testing.T) {
	for y := 0; y < 256; y += 5 {
		for u := 0; u < 256; u += 15 {
			for v := 0; v < 256; v += 15 {
				r, g, b := JPEG.ToRGB(uint8(y), uint8(u), uint8(v))
				wr, wg, wb := color.YCbCrToRGB(uint8(y), uint8(u), uint8(v))
				if absDiff(r, wr) > 1 || absDiff(g, wg) > 1 || absDiff(b, wb) > 1 {
					t.Fatalf("YUV(%d,%d,%d) = (%d,%d,%d), stdlib (%d,%d,%d)",
						y, u, v, r, g, b, wr, wg, wb)
				}
			}
		}
	}
}

func TestLimitedRangeBlackAndWhite(t *testing.T) {
	tests := []struct {
		name string
		m    *Matrix
	}{
		{"Rec601", Rec601},
		{"Rec709", Rec709},
		{"Rec2020", Rec2020},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r, g, b := tt.m.ToRGB(16, 128, 128); r != 0 || g != 0 || b != 0 {
				t.Errorf("black = (%d,%d,%d)", r, g, b)
			}
			if r, g, b := tt.m.ToRGB(235, 128, 128); r != 255 || g != 255 || b != 255 {
				t.Errorf("white = (%d,%d,%d)", r, g, b)
			}
			// Footroom and headroom clamp instead of wrapping.
			if r, g, b := tt.m.ToRGB(0, 128, 128); r != 0 || g != 0 || b != 0 {
				t.Errorf("below black = (%d,%d,%d)", r, g, b)
			}
			if r, g, b := tt.m.ToRGB(255, 128, 128); r != 255 || g != 255 || b != 255 {
				t.Errorf("above white = (%d,%d,%d)", r, g, b)
			}
		})
	}
}

func TestRec709PrimaryRed(t *testing.T) {
	// BT.709 limited-range encoding of (255, 0, 0).
	r, g, b := Rec709.ToRGB(63, 102, 240)
	if r < 253 || g > 2 || b > 2 {
		t.Errorf("red = (%d,%d,%d)", r, g, b)
	}
}

func TestIdentityPassThrough(t *testing.T) {
	r, g, b := Identity.ToRGB(10, 20, 30)
	if r != 10 || g != 20 || b != 30 {
		t.Errorf("identity = (%d,%d,%d), want (10,20,30)", r, g, b)
	}
}
