// Command yuvdemo uploads a JPEG or WebP image as a GPU texture through
// its YUV planes and writes the converted pixels to a PNG file.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/yuvtex"
	"github.com/gogpu/yuvtex/gpu"
	gpuimpl "github.com/gogpu/yuvtex/internal/gpu"
)

var colorSpaces = map[string]*yuvtex.ColorSpace{
	"":            nil,
	"srgb":        yuvtex.SRGB,
	"linear-srgb": yuvtex.LinearSRGB,
	"display-p3":  yuvtex.DisplayP3,
	"adobe-rgb":   yuvtex.AdobeRGB,
	"rec2020":     yuvtex.Rec2020,
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML provider configuration")
		backend    = flag.String("backend", gpuimpl.BackendNoop, "HAL backend: noop or vulkan")
		width      = flag.Int("width", 0, "texture width (0 keeps the image size)")
		height     = flag.Int("height", 0, "texture height (0 keeps the image size)")
		format     = flag.String("format", "rgba", "texture format: rgba or bgra")
		dstSpace   = flag.String("colorspace", "", "destination color space")
		output     = flag.String("output", "yuvdemo.png", "output PNG file")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		yuvtex.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := yuvtex.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			log.Fatalf("Failed to open config: %v", err)
		}
		cfg, err = yuvtex.LoadConfig(f)
		_ = f.Close()
		if err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
	}
	opts, err := cfg.Options()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	gpuOpts, err := gpu.ConfigOptions(cfg)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	desc := yuvtex.TextureDescriptor{Width: *width, Height: *height}
	switch *format {
	case "rgba":
		desc.Format = gputypes.TextureFormatRGBA8Unorm
	case "bgra":
		desc.Format = gputypes.TextureFormatBGRA8Unorm
	default:
		log.Fatalf("Unknown format %q", *format)
	}
	dstCS, ok := colorSpaces[*dstSpace]
	if !ok {
		log.Fatalf("Unknown color space %q", *dstSpace)
	}

	src, err := loadSource(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to load source: %v", err)
	}
	info, tag, ok := src.QueryLayout()
	if !ok {
		log.Fatalf("Source has no planar YUV layout")
	}
	log.Printf("Source %016x: %s, %d planes, %dx%d luma, %d bytes",
		uint64(src.Identity()), tag, info.NumPlanes(), info[yuvtex.PlaneY].Width, info[yuvtex.PlaneY].Height, info.TotalSize())

	dev, err := gpuimpl.OpenDevice(*backend)
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	defer dev.Close()

	up, err := gpu.NewUploaderHAL(dev.Device, dev.Queue, gpuOpts...)
	if err != nil {
		log.Fatalf("Failed to create uploader: %v", err)
	}
	defer up.Close()

	tee := &capture{next: up}
	provider := yuvtex.NewProvider(tee, opts...)
	defer provider.Close()

	ctx := context.Background()
	var srcCS *yuvtex.ColorSpace
	if dstCS != nil {
		srcCS = yuvtex.SRGB
	}
	tex, err := provider.GetTexture(ctx, src, desc, srcCS, dstCS)
	if err != nil {
		log.Fatalf("GetTexture failed: %v", err)
	}
	if _, err := provider.GetTexture(ctx, src, desc, srcCS, dstCS); err != nil {
		log.Fatalf("GetTexture failed: %v", err)
	}
	log.Printf("Texture %s on %s: %dx%d format %v", tex.Label(), dev.Name, tex.Width(), tex.Height(), tex.Format())

	st := provider.Stats()
	log.Printf("Stats: hits=%d misses=%d uploads=%d", st.Hits, st.Misses, st.Uploads)

	if err := tee.save(*output, tex.Format()); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Pixels saved to %s", *output)
}

// loadSource reads an encoded image, or synthesizes a gradient when
// path is empty.
func loadSource(path string) (yuvtex.Source, error) {
	if path == "" {
		return yuvtex.NewImageSource(gradient(256, 192)), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	src := yuvtex.NewEncodedSource(data)
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", src.Format(), err)
	}
	return src, nil
}

func gradient(w, h int) *image.YCbCr {
	img := image.NewYCbCr(image.Rect(0, 0, w, h), image.YCbCrSubsampleRatio420)
	for y := range h {
		for x := range w {
			img.Y[img.YOffset(x, y)] = uint8(x * 255 / (w - 1))
			c := img.COffset(x, y)
			img.Cb[c] = uint8(y * 255 / (h - 1))
			img.Cr[c] = uint8(255 - y*255/(h-1))
		}
	}
	return img
}

// capture keeps a copy of the last uploaded pixels.
type capture struct {
	next yuvtex.Uploader

	mu     sync.Mutex
	pixels *image.RGBA
}

func (c *capture) Upload(ctx context.Context, req *yuvtex.UploadRequest) (*yuvtex.Texture, error) {
	c.mu.Lock()
	c.pixels = image.NewRGBA(req.Pixels.Rect)
	draw.Draw(c.pixels, c.pixels.Rect, req.Pixels, req.Pixels.Rect.Min, draw.Src)
	c.mu.Unlock()
	return c.next.Upload(ctx, req)
}

func (c *capture) save(path string, format gputypes.TextureFormat) error {
	c.mu.Lock()
	img := c.pixels
	c.mu.Unlock()
	if img == nil {
		return fmt.Errorf("nothing uploaded")
	}
	if format == gputypes.TextureFormatBGRA8Unorm {
		yuvtex.SwapRB(img)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
