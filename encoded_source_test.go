package yuvtex

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/jpeg"
	"testing"
)

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// webpFile wraps one chunk in a RIFF/WEBP container.
func webpFile(fourcc string, chunk []byte) []byte {
	padded := len(chunk) + len(chunk)&1
	out := make([]byte, 0, 20+padded)
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(4+8+padded))
	out = append(out, "WEBP"...)
	out = append(out, fourcc...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(chunk)))
	out = append(out, chunk...)
	if len(chunk)&1 == 1 {
		out = append(out, 0)
	}
	return out
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want EncodedFormat
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, FormatJPEG},
		{"webp", webpFile("VP8L", []byte{0x2f, 0, 0, 0, 0}), FormatWebP},
		{"png", []byte("\x89PNG\r\n\x1a\n"), FormatUnknown},
		{"empty", nil, FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SniffFormat(tt.data); got != tt.want {
				t.Errorf("SniffFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodedSourceJPEG(t *testing.T) {
	img := gradientYCbCr(13, 9, image.YCbCrSubsampleRatio420)
	data := encodeJPEG(t, img)

	src := NewEncodedSource(data)
	info, cs, ok := src.QueryLayout()
	if !ok {
		t.Fatalf("JPEG unsupported: %v", src.Err())
	}
	if cs != YUVColorSpaceJPEG {
		t.Errorf("colour space = %v, want JPEG", cs)
	}
	want := planarLayout(13, 9, 2, 2, false)
	if info != want {
		t.Errorf("layout = %v, want %v", info, want)
	}
	if src.Identity() != ContentIdentity(data) {
		t.Error("identity should hash the encoded bytes")
	}

	// Extraction yields the same planes as decoding by hand.
	padded := info.Aligned(32)
	planes := Planes{
		make([]byte, padded[PlaneY].Len()),
		make([]byte, padded[PlaneU].Len()),
		make([]byte, padded[PlaneV].Len()),
	}
	if err := src.ExtractPlanes(context.Background(), padded, planes); err != nil {
		t.Fatal(err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	ref, _ := planesFrom(t, decoded)
	for y := range 9 {
		if !bytes.Equal(planes[PlaneY][y*32:y*32+13], ref[PlaneY][y*13:y*13+13]) {
			t.Fatalf("luma row %d differs", y)
		}
	}
	for y := range 5 {
		if !bytes.Equal(planes[PlaneU][y*32:y*32+7], ref[PlaneU][y*7:y*7+7]) {
			t.Fatalf("Cb row %d differs", y)
		}
	}
}

func TestEncodedSourceGrayJPEGUnsupported(t *testing.T) {
	src := NewEncodedSource(encodeJPEG(t, image.NewGray(image.Rect(0, 0, 8, 8))))
	if _, _, ok := src.QueryLayout(); ok {
		t.Fatal("greyscale JPEG must be unsupported")
	}
	if !errors.Is(src.Err(), ErrUnsupported) {
		t.Errorf("Err() = %v, want ErrUnsupported", src.Err())
	}
}

func TestEncodedSourceWebP(t *testing.T) {
	// Lossy key frame header for 5x3: tag, start code, width, height.
	vp8 := []byte{0x10, 0x00, 0x00, 0x9d, 0x01, 0x2a, 5, 0, 3, 0}
	src := NewEncodedSource(webpFile("VP8 ", vp8))
	info, cs, ok := src.QueryLayout()
	if !ok {
		t.Fatalf("lossy WebP unsupported: %v", src.Err())
	}
	if cs != YUVColorSpaceRec601 {
		t.Errorf("colour space = %v, want Rec601", cs)
	}
	if info != planarLayout(5, 3, 2, 2, false) {
		t.Errorf("layout = %v", info)
	}

	lossless := NewEncodedSource(webpFile("VP8L", []byte{0x2f, 0, 0, 0, 0}))
	if _, _, ok := lossless.QueryLayout(); ok {
		t.Error("lossless WebP must be unsupported")
	}
}

func TestEncodedSourceGarbage(t *testing.T) {
	tests := map[string][]byte{
		"unknown":        []byte("not an image"),
		"truncated jpeg": {0xFF, 0xD8, 0xFF, 0xDB, 0x00},
		"jpeg no frame":  {0xFF, 0xD8, 0xFF, 0xD9},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			src := NewEncodedSource(data)
			if _, _, ok := src.QueryLayout(); ok {
				t.Fatal("garbage reported as supported")
			}
			if err := src.ExtractPlanes(context.Background(), PlaneSizeInfo{}, Planes{}); err == nil {
				t.Error("ExtractPlanes on unsupported source must fail")
			}
		})
	}
}

func TestEncodedSourceCorruptScan(t *testing.T) {
	data := encodeJPEG(t, gradientYCbCr(16, 16, image.YCbCrSubsampleRatio420))
	// Keep the headers, drop most of the entropy-coded data.
	sos := bytes.Index(data, []byte{0xFF, 0xDA})
	if sos < 0 {
		t.Fatal("no SOS marker")
	}
	src := NewEncodedSource(data[:sos+20])
	info, _, ok := src.QueryLayout()
	if !ok {
		t.Fatalf("headers should parse: %v", src.Err())
	}
	planes := Planes{make([]byte, info[PlaneY].Len()), make([]byte, info[PlaneU].Len()), make([]byte, info[PlaneV].Len())}
	err := src.ExtractPlanes(context.Background(), info, planes)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("got %v, want ErrExtractionFailed", err)
	}
}
