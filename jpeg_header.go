package yuvtex

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	markerStart = 0xFF
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerSOF0  = 0xC0 // baseline
	markerSOF1  = 0xC1 // extended sequential
	markerSOF2  = 0xC2 // progressive
	markerAPP0  = 0xE0
	markerAPP14 = 0xEE
)

var errJPEGHeader = errors.New("malformed jpeg header")

// jpegHeader is what the frame header and the JFIF/Adobe segments reveal
// about a JPEG without decoding any scan data.
type jpegHeader struct {
	width, height int
	components    int
	// Sampling factors, indexed by component.
	h, v [4]int
	ids  [4]byte

	jfif           bool
	adobe          bool
	adobeTransform byte
}

// parseJPEGHeader walks marker segments up to the first SOF.
func parseJPEGHeader(data []byte) (*jpegHeader, error) {
	if len(data) < 4 || data[0] != markerStart || data[1] != markerSOI {
		return nil, errJPEGHeader
	}
	hdr := &jpegHeader{}
	pos := 2
	for pos < len(data) {
		if data[pos] != markerStart {
			return nil, fmt.Errorf("%w: expected marker at %d", errJPEGHeader, pos)
		}
		for pos < len(data) && data[pos] == markerStart {
			pos++
		}
		if pos >= len(data) {
			break
		}
		marker := data[pos]
		pos++
		switch {
		case marker == markerEOI || marker == markerSOS:
			return nil, fmt.Errorf("%w: no frame header", errJPEGHeader)
		case marker >= 0xD0 && marker <= 0xD7, marker == 0x01:
			continue
		}

		if pos+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated marker", errJPEGHeader)
		}
		segLen := int(binary.BigEndian.Uint16(data[pos:]))
		if segLen < 2 || pos+segLen > len(data) {
			return nil, fmt.Errorf("%w: invalid segment length", errJPEGHeader)
		}
		payload := data[pos+2 : pos+segLen]
		pos += segLen

		switch {
		case marker == markerAPP0:
			if len(payload) >= 5 && string(payload[:5]) == "JFIF\x00" {
				hdr.jfif = true
			}
		case marker == markerAPP14:
			if len(payload) >= 12 && string(payload[:5]) == "Adobe" {
				hdr.adobe = true
				hdr.adobeTransform = payload[11]
			}
		case marker == markerSOF0 || marker == markerSOF1 || marker == markerSOF2:
			if err := hdr.parseSOF(payload); err != nil {
				return nil, err
			}
			return hdr, nil
		case marker >= 0xC3 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC:
			return nil, fmt.Errorf("%w: SOF%d coding", ErrUnsupported, marker-markerSOF0)
		}
	}
	return nil, fmt.Errorf("%w: no frame header", errJPEGHeader)
}

func (hdr *jpegHeader) parseSOF(p []byte) error {
	if len(p) < 6 {
		return fmt.Errorf("%w: short frame header", errJPEGHeader)
	}
	if p[0] != 8 {
		return fmt.Errorf("%w: %d-bit precision", ErrUnsupported, p[0])
	}
	hdr.height = int(binary.BigEndian.Uint16(p[1:]))
	hdr.width = int(binary.BigEndian.Uint16(p[3:]))
	hdr.components = int(p[5])
	if hdr.components < 1 || hdr.components > 4 {
		return fmt.Errorf("%w: %d components", errJPEGHeader, hdr.components)
	}
	if len(p) < 6+3*hdr.components {
		return fmt.Errorf("%w: short component table", errJPEGHeader)
	}
	for i := range hdr.components {
		c := p[6+3*i:]
		hdr.ids[i] = c[0]
		hdr.h[i] = int(c[1] >> 4)
		hdr.v[i] = int(c[1] & 0x0f)
	}
	return nil
}

// isRGB mirrors image/jpeg: three components are RGB when an Adobe segment
// says so, or when there is no JFIF/Adobe segment and the ids spell RGB.
func (hdr *jpegHeader) isRGB() bool {
	if hdr.jfif {
		return false
	}
	if hdr.adobe {
		return hdr.adobeTransform == 0
	}
	return hdr.ids[0] == 'R' && hdr.ids[1] == 'G' && hdr.ids[2] == 'B'
}

// layout returns the planar layout image/jpeg will produce when decoding,
// or an ErrUnsupported error for greyscale, CMYK, RGB or unusual sampling.
func (hdr *jpegHeader) layout() (PlaneSizeInfo, error) {
	if hdr.width == 0 || hdr.height == 0 {
		return PlaneSizeInfo{}, fmt.Errorf("%w: zero-sized frame", ErrUnsupported)
	}
	if hdr.components != 3 {
		return PlaneSizeInfo{}, fmt.Errorf("%w: %d-component jpeg", ErrUnsupported, hdr.components)
	}
	if hdr.isRGB() {
		return PlaneSizeInfo{}, fmt.Errorf("%w: RGB jpeg", ErrUnsupported)
	}
	for i := 1; i < 3; i++ {
		if hdr.h[i] != 1 || hdr.v[i] != 1 {
			return PlaneSizeInfo{}, fmt.Errorf("%w: chroma sampling %dx%d", ErrUnsupported, hdr.h[i], hdr.v[i])
		}
	}
	fh, fv := hdr.h[0], hdr.v[0]
	if (fh != 1 && fh != 2 && fh != 4) || (fv != 1 && fv != 2) {
		return PlaneSizeInfo{}, fmt.Errorf("%w: luma sampling %dx%d", ErrUnsupported, fh, fv)
	}
	return planarLayout(hdr.width, hdr.height, fh, fv, false), nil
}
