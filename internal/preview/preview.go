// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preview renders the first page of a conversion result as a PNG
// for display next to the download link.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/pdiddy/docconv/internal/multitiff"
	"github.com/pdiddy/docconv/internal/raster"
	"github.com/pdiddy/docconv/pkg/types"
)

const (
	// DPI is the resolution PDF previews are rendered at.
	DPI = types.DPI150

	// MaxWidth bounds the preview width in pixels.
	MaxWidth = 1200
)

// ErrNoPages is returned for results without a first page.
var ErrNoPages = errors.New("preview: document has no pages")

// Renderer builds previews. PDF results need a rasterizer; TIFF results
// are decoded directly.
type Renderer struct {
	Rasterizer raster.Rasterizer
}

// Render returns a PNG of the first page of res.
func (r Renderer) Render(ctx context.Context, res types.ConversionResult) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	switch res.Format {
	case types.OutputPDF:
		img, err = r.FromPDF(ctx, res.Data)
	case types.OutputTIFF:
		img, err = FromTIFF(res.Data)
	default:
		return nil, fmt.Errorf("preview: unsupported format %q", res.Format)
	}
	if err != nil {
		return nil, err
	}
	return EncodePNG(Fit(img, MaxWidth))
}

// FromPDF rasterizes page one of pdf.
func (r Renderer) FromPDF(ctx context.Context, pdf []byte) (image.Image, error) {
	if r.Rasterizer == nil {
		return nil, errors.New("preview: no rasterizer configured")
	}
	if fp, ok := r.Rasterizer.(raster.FirstPageRasterizer); ok {
		page, err := fp.RasterizeFirst(ctx, pdf, DPI)
		if err != nil {
			return nil, err
		}
		return page.Image, nil
	}
	pages, err := r.Rasterizer.Rasterize(ctx, pdf, DPI)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	return pages[0].Image, nil
}

// FromTIFF decodes page one of a TIFF.
func FromTIFF(data []byte) (image.Image, error) {
	img, err := multitiff.DecodeFirst(data)
	if err != nil {
		return nil, fmt.Errorf("preview: decoding tiff: %w", err)
	}
	return img, nil
}

// Fit scales img down to at most maxWidth pixels wide, keeping its aspect
// ratio. Narrower images are returned unchanged.
func Fit(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth {
		return img
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodePNG encodes img with the fastest PNG compression.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("preview: encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
