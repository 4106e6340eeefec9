// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package raster renders PDF pages to RGB images at a chosen DPI. This
// package holds the Rasterizer contract, the shared PDF inspection and the
// pdftoppm backend; the in-process MuPDF backend lives in raster/mupdf.
//
// A call either returns one image per page, in page order, or an error.
// Backends keep no state between calls and never retry.
package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/draw"

	"github.com/pdiddy/docconv/pkg/types"
)

// Rasterizer renders every page of a PDF.
type Rasterizer interface {
	// Name returns the backend name.
	Name() string

	// Rasterize returns one RGB PageImage per page of pdf, in page order.
	// A PDF without pages yields an empty slice.
	Rasterize(ctx context.Context, pdf []byte, dpi types.DPI) ([]types.PageImage, error)
}

// FirstPageRasterizer is implemented by backends that can render page one
// without rendering the rest of the document.
type FirstPageRasterizer interface {
	RasterizeFirst(ctx context.Context, pdf []byte, dpi types.DPI) (types.PageImage, error)
}

// Checker reports whether a backend can run on this host. It returns a
// short description of the backend (binary path and version) on success.
type Checker interface {
	Check(ctx context.Context) (string, error)
}

const opRasterize = "rasterize"

func unreadable(msg string, err error) error {
	return types.NewError(types.ErrUnreadableDocument, opRasterize, msg, err)
}

var pdfcpuOnce sync.Once

// PageCount parses pdf and returns its number of pages. Malformed and
// encrypted documents fail with ErrUnreadableDocument.
func PageCount(pdf []byte) (int, error) {
	pdfcpuOnce.Do(api.DisableConfigDir)

	if len(pdf) == 0 {
		return 0, unreadable("the PDF is empty", nil)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(pdf), conf)
	if err != nil {
		if errors.Is(err, pdfcpu.ErrWrongPassword) {
			return 0, unreadable("the PDF is password protected", err)
		}
		return 0, unreadable("the file is not a valid PDF", err)
	}
	if ctx.Encrypt != nil {
		return 0, unreadable("the PDF is encrypted", nil)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, unreadable("the PDF page tree is damaged", err)
	}
	return ctx.PageCount, nil
}

// toRGBA returns img as an opaque *image.RGBA with its origin at (0,0).
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// NewPageImage wraps a rendered page as an opaque RGB PageImage.
func NewPageImage(n int, img image.Image, dpi types.DPI) types.PageImage {
	return types.PageImage{Number: n, Image: toRGBA(img), DPI: dpi, ColorMode: types.ColorRGB}
}
