package yuvtex

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"
	"gopkg.in/yaml.v3"
)

// Config is the file form of the provider and uploader settings.
//
//	cache_capacity: 64
//	row_alignment: 256
//	max_concurrent_extractions: 4
//	scaler: catmull-rom
//	label_prefix: thumbnails
//	fence_timeout: 5s
type Config struct {
	CacheCapacity            int    `yaml:"cache_capacity"`
	RowAlignment             int    `yaml:"row_alignment"`
	MaxConcurrentExtractions int    `yaml:"max_concurrent_extractions"`
	Scaler                   string `yaml:"scaler"`
	LabelPrefix              string `yaml:"label_prefix"`
	FenceTimeout             string `yaml:"fence_timeout"`
}

// DefaultFenceTimeout bounds how long an upload waits for the GPU.
const DefaultFenceTimeout = 5 * time.Second

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Scaler:       "catmull-rom",
		LabelPrefix:  "yuvtex",
		FenceTimeout: DefaultFenceTimeout.String(),
	}
}

// LoadConfig reads YAML from r over DefaultConfig. Unknown keys are errors.
// An empty document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("yuvtex: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig is LoadConfig over a byte slice.
func ParseConfig(b []byte) (Config, error) {
	return LoadConfig(bytes.NewReader(b))
}

// Validate checks the values without building anything.
func (c Config) Validate() error {
	switch {
	case c.CacheCapacity < 0:
		return fmt.Errorf("yuvtex: cache_capacity %d is negative", c.CacheCapacity)
	case c.RowAlignment < 0:
		return fmt.Errorf("yuvtex: row_alignment %d is negative", c.RowAlignment)
	case c.MaxConcurrentExtractions < 0:
		return fmt.Errorf("yuvtex: max_concurrent_extractions %d is negative", c.MaxConcurrentExtractions)
	}
	if _, err := ParseScaler(c.Scaler); err != nil {
		return err
	}
	if _, err := c.FenceTimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// FenceTimeoutDuration parses FenceTimeout. Empty selects
// DefaultFenceTimeout.
func (c Config) FenceTimeoutDuration() (time.Duration, error) {
	if c.FenceTimeout == "" {
		return DefaultFenceTimeout, nil
	}
	d, err := time.ParseDuration(c.FenceTimeout)
	if err != nil {
		return 0, fmt.Errorf("yuvtex: fence_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("yuvtex: fence_timeout %v must be positive", d)
	}
	return d, nil
}

// Options converts the configuration to provider options.
func (c Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	scaler, _ := ParseScaler(c.Scaler)
	opts := []Option{
		WithCacheCapacity(c.CacheCapacity),
		WithRowAlignment(c.RowAlignment),
		WithMaxConcurrentExtractions(c.MaxConcurrentExtractions),
		WithScaler(scaler),
	}
	if c.LabelPrefix != "" {
		opts = append(opts, WithLabelPrefix(c.LabelPrefix))
	}
	return opts, nil
}

// ParseScaler maps a scaler name to an x/image/draw scaler. Empty selects
// DefaultScaler.
func ParseScaler(name string) (xdraw.Scaler, error) {
	switch strings.ToLower(name) {
	case "":
		return DefaultScaler, nil
	case "nearest", "nearest-neighbor":
		return xdraw.NearestNeighbor, nil
	case "approx-bilinear":
		return xdraw.ApproxBiLinear, nil
	case "bilinear":
		return xdraw.BiLinear, nil
	case "catmull-rom":
		return xdraw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("yuvtex: unknown scaler %q", name)
	}
}
