package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"

	// decoders for uploads
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	ThumbnailWidth  = 200
	ThumbnailHeight = 150
)

// MaxPixels bounds width*height of an accepted source image. Decoders
// allocate the full canvas from the header before reading pixel data.
const MaxPixels = 40_000_000

var (
	ErrUndecodable = errors.New("image could not be decoded")
	ErrTooLarge    = errors.New("image dimensions exceed the pixel limit")
)

// Thumbnail decodes src and returns a JPEG that fits inside
// ThumbnailWidth x ThumbnailHeight with the aspect ratio kept. Images
// already smaller than the box are re-encoded without upscaling.
func Thumbnail(src io.Reader) ([]byte, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUndecodable)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	w, h := FitWithin(img.Bounds().Dx(), img.Bounds().Dy(), ThumbnailWidth, ThumbnailHeight)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// flatten transparency onto white before dropping alpha for JPEG
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// FitWithin scales (w, h) down to fit (maxW, maxH). It never scales up
// and never returns a zero dimension.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return max(w, 1), max(h, 1)
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	return max(min(nw, maxW), 1), max(min(nh, maxH), 1)
}
