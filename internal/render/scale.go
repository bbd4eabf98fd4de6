package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	// Formats accepted for cover data.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxCoverSide is the largest width or height Decode accepts. The header is
// checked before any pixel buffer is allocated.
const MaxCoverSide = 8192

// ErrCoverTooLarge is returned by Decode for images above MaxCoverSide.
var ErrCoverTooLarge = errors.New("cover image too large")

// FitImage computes the size of a width x height image fitted inside a
// boxWidth x boxHeight box, preserving aspect ratio. Images that already fit
// are never enlarged; scaled reports whether a resize is needed.
func FitImage(width, height, boxWidth, boxHeight int) (scaled bool, newWidth, newHeight int) {
	w, h := float64(width), float64(height)
	bw, bh := float64(boxWidth), float64(boxHeight)

	scaled = height > boxHeight || width > boxWidth
	if h > bh {
		w, h = math.Floor(w*bh/h), bh
	}
	if w > bw {
		w, h = bw, math.Floor(h*bw/w)
	}
	if h > bh {
		w, h = math.Floor(w*bh/h), bh
	}

	newWidth, newHeight = int(w), int(h)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	return scaled, newWidth, newHeight
}

// Decode decodes cover bytes in any registered format.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode cover: empty data")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}
	if cfg.Width > MaxCoverSide || cfg.Height > MaxCoverSide {
		return nil, fmt.Errorf("decode cover: %dx%d: %w", cfg.Width, cfg.Height, ErrCoverTooLarge)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("decode cover: empty %s image", format)
	}
	return img, nil
}

// Scale resamples src to exactly width x height with Catmull-Rom filtering.
func Scale(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Thumbnail fits src inside the box, resampling only when it is too large.
func Thumbnail(src image.Image, boxWidth, boxHeight int) image.Image {
	b := src.Bounds()
	scaled, w, h := FitImage(b.Dx(), b.Dy(), boxWidth, boxHeight)
	if !scaled {
		return src
	}
	return Scale(src, w, h)
}
