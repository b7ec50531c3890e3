package yuvtex

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"golang.org/x/image/webp"
)

// EncodedFormat is the container detected by EncodedSource.
type EncodedFormat uint8

// Encoded formats.
const (
	FormatUnknown EncodedFormat = iota
	FormatJPEG
	FormatWebP
)

// String returns the format name.
func (f EncodedFormat) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatWebP:
		return "webp"
	default:
		return "unknown"
	}
}

// SniffFormat detects the container of data from its magic bytes.
func SniffFormat(data []byte) EncodedFormat {
	switch {
	case len(data) >= 3 && data[0] == markerStart && data[1] == markerSOI && data[2] == markerStart:
		return FormatJPEG
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWebP
	default:
		return FormatUnknown
	}
}

// EncodedSource serves planes from JPEG or lossy WebP bytes. The layout is
// read from the headers at construction; pixels are decoded on extraction.
type EncodedSource struct {
	data   []byte
	id     SourceIdentity
	format EncodedFormat
	info   PlaneSizeInfo
	tag    YUVColorSpace
	err    error // non-nil when the data is not planar YUV
}

// NewEncodedSource wraps data with an identity hashed from its bytes.
// The caller must not modify data afterwards.
func NewEncodedSource(data []byte) *EncodedSource {
	return NewEncodedSourceWithID(data, ContentIdentity(data))
}

// NewEncodedSourceWithID wraps data with a caller-chosen identity.
func NewEncodedSourceWithID(data []byte, id SourceIdentity) *EncodedSource {
	s := &EncodedSource{data: data, id: id, format: SniffFormat(data)}
	switch s.format {
	case FormatJPEG:
		s.tag = YUVColorSpaceJPEG
		hdr, err := parseJPEGHeader(data)
		if err == nil {
			s.info, err = hdr.layout()
		}
		s.err = err
	case FormatWebP:
		s.tag = YUVColorSpaceRec601
		s.info, s.err = webpLayout(data)
	default:
		s.err = fmt.Errorf("%w: unrecognized encoding", ErrUnsupported)
	}
	return s
}

func webpLayout(data []byte) (PlaneSizeInfo, error) {
	cfg, err := webp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return PlaneSizeInfo{}, fmt.Errorf("%w: webp header: %w", ErrUnsupported, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return PlaneSizeInfo{}, fmt.Errorf("%w: zero-sized webp", ErrUnsupported)
	}
	switch cfg.ColorModel {
	case color.YCbCrModel:
		return planarLayout(cfg.Width, cfg.Height, 2, 2, false), nil
	case color.NYCbCrAModel:
		return planarLayout(cfg.Width, cfg.Height, 2, 2, true), nil
	default:
		return PlaneSizeInfo{}, fmt.Errorf("%w: lossless webp", ErrUnsupported)
	}
}

// Format returns the detected container.
func (s *EncodedSource) Format() EncodedFormat { return s.format }

// Err returns why the source is unsupported, or nil.
func (s *EncodedSource) Err() error { return s.err }

// Identity implements Source.
func (s *EncodedSource) Identity() SourceIdentity { return s.id }

// QueryLayout implements Source.
func (s *EncodedSource) QueryLayout() (PlaneSizeInfo, YUVColorSpace, bool) {
	if s.err != nil {
		return PlaneSizeInfo{}, 0, false
	}
	return s.info, s.tag, true
}

// ExtractPlanes implements Source. It decodes the whole image.
func (s *EncodedSource) ExtractPlanes(ctx context.Context, info PlaneSizeInfo, planes Planes) error {
	if s.err != nil {
		return s.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckPlanes(s.info, info, planes); err != nil {
		return err
	}

	var (
		img image.Image
		err error
	)
	switch s.format {
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(s.data))
	case FormatWebP:
		img, err = webp.Decode(bytes.NewReader(s.data))
	}
	if err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrExtractionFailed, s.format, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	decoded, ok := layoutOf(img)
	if !ok {
		return fmt.Errorf("%w: %s decoded to %T", ErrExtractionFailed, s.format, img)
	}
	if err := s.info.Compatible(decoded); err != nil {
		return fmt.Errorf("%w: decoded layout differs from header: %w", ErrExtractionFailed, err)
	}
	copyPlanes(img, info, planes)
	return nil
}
