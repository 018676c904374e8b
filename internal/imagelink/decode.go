package imagelink

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	svgFormat = "svg"

	// DefaultMaxPixels bounds decoded images to roughly 100 MB of RGBA.
	DefaultMaxPixels int64 = 25_000_000
)

// DecodeOptions controls how uploaded bytes become a raster image.
type DecodeOptions struct {
	// SVGFallbackWidth and SVGFallbackHeight size SVGs without explicit width/height.
	SVGFallbackWidth  int
	SVGFallbackHeight int
	// MaxPixels rejects images whose width*height exceeds it. <= 0 uses DefaultMaxPixels.
	MaxPixels int64
}

func (o DecodeOptions) maxPixels() int64 {
	if o.MaxPixels <= 0 {
		return DefaultMaxPixels
	}
	return o.MaxPixels
}

// DecodeImage turns uploaded bytes into a raster image. Raster formats are decoded
// with the registered decoders; SVG input is rasterized on a white canvas using its
// explicit width/height, or the fallback size when the document has none.
// Dimensions are checked against the pixel limit before any pixel buffer is allocated.
func DecodeImage(data []byte, opts DecodeOptions) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image data is empty")
	}

	if isSVGData(data) {
		img, err := rasterizeSVG(data, opts)
		if err != nil {
			return nil, "", err
		}
		return img, svgFormat, nil
	}

	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Debug("DecodeImage: failed to read image header", "input_size_bytes", len(data), "error", err)
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if err := checkPixels(int64(config.Width), int64(config.Height), opts.maxPixels()); err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Debug("DecodeImage: failed to decode raster image", "input_size_bytes", len(data), "error", err)
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	slog.Debug("DecodeImage: decoded raster image",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())
	return img, format, nil
}

// checkPixels fails unless both dimensions are positive and w*h stays within maxPixels.
func checkPixels(w, h, maxPixels int64) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", w, h)
	}
	if w > maxPixels/h {
		return fmt.Errorf("image dimensions %dx%d exceed the limit of %d pixels", w, h, maxPixels)
	}
	return nil
}

func rasterizeSVG(data []byte, opts DecodeOptions) (image.Image, error) {
	maxPixels := opts.maxPixels()
	w, h, ok := parseSvgExplicitSize(data, maxPixels)
	if !ok {
		if opts.SVGFallbackWidth <= 0 || opts.SVGFallbackHeight <= 0 {
			return nil, fmt.Errorf("SVG fallback size not set; cannot render SVG without explicit size")
		}
		slog.Debug("DecodeImage: SVG lacks explicit size; using fallback", "width", opts.SVGFallbackWidth, "height", opts.SVGFallbackHeight)
		w, h = int64(opts.SVGFallbackWidth), int64(opts.SVGFallbackHeight)
	}
	if err := checkPixels(w, h, maxPixels); err != nil {
		return nil, err
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	width, height := int(w), int(h)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(width, height, dst, dst.Bounds())
	dasher := rasterx.NewDasher(width, height, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}

// isSVGData checks the first 4KB for an <svg tag or the SVG namespace.
func isSVGData(data []byte) bool {
	n := len(data)
	if n > 4096 {
		n = 4096
	}
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte(`xmlns="http://www.w3.org/2000/svg"`)) ||
		bytes.Contains(header, []byte("xmlns='http://www.w3.org/2000/svg'"))
}

// parseSvgExplicitSize reads width and height from the <svg> start tag.
// viewBox is not treated as a pixel size. Values above limit come back as limit+1.
func parseSvgExplicitSize(data []byte, limit int64) (int64, int64, bool) {
	n := len(data)
	if n > 8192 {
		n = 8192
	}
	s := strings.ToLower(string(data[:n]))
	i := strings.Index(s, "<svg")
	if i < 0 {
		return 0, 0, false
	}
	tag := s[i:]
	if j := strings.Index(tag, ">"); j >= 0 {
		tag = tag[:j]
	}

	if limit > math.MaxInt32 {
		limit = math.MaxInt32
	}
	w, wOk := parseNumericAttr(tag, "width", limit)
	h, hOk := parseNumericAttr(tag, "height", limit)
	if wOk && hOk {
		return w, h, true
	}
	return 0, 0, false
}

// parseNumericAttr extracts the leading integer of a quoted attribute, e.g. width="120px".
// Parsing stops as soon as the value passes limit, which must not exceed math.MaxInt32.
func parseNumericAttr(tag, attr string, limit int64) (int64, bool) {
	for _, field := range strings.Fields(tag) {
		name, value, found := strings.Cut(field, "=")
		if !found || name != attr {
			continue
		}
		value = strings.Trim(value, `"'`)

		var num int64
		digits := 0
		for ; digits < len(value) && value[digits] >= '0' && value[digits] <= '9'; digits++ {
			num = num*10 + int64(value[digits]-'0')
			if num > limit {
				return limit + 1, true
			}
		}
		if digits == 0 || num <= 0 {
			return 0, false
		}
		return num, true
	}
	return 0, false
}
