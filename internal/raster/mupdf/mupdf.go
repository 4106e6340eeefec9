// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mupdf is the in-process rasterizer backend built on go-fitz.
package mupdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"

	"github.com/pdiddy/docconv/internal/raster"
	"github.com/pdiddy/docconv/pkg/types"
)

const op = "rasterize"

func unreadable(msg string, err error) error {
	return types.NewError(types.ErrUnreadableDocument, op, msg, err)
}

// document is the part of *fitz.Document the backend uses.
type document interface {
	NumPage() int
	ImageDPI(page int, dpi float64) (*image.RGBA, error)
	Close() error
}

func openFitz(pdf []byte) (document, error) {
	return fitz.NewFromMemory(pdf)
}

// MuPDF rasterizes PDFs in-process with the MuPDF library. It needs no
// external tools, so it is the fallback on hosts without poppler.
type MuPDF struct {
	open func([]byte) (document, error)
	log  zerolog.Logger
}

// New returns the in-process backend.
func New(logger zerolog.Logger) *MuPDF {
	return &MuPDF{
		open: openFitz,
		log:  logger.With().Str("backend", string(types.BackendMuPDF)).Logger(),
	}
}

var (
	_ raster.Rasterizer          = (*MuPDF)(nil)
	_ raster.FirstPageRasterizer = (*MuPDF)(nil)
	_ raster.Checker             = (*MuPDF)(nil)
)

func (m *MuPDF) Name() string { return string(types.BackendMuPDF) }

// Check renders a blank one-page PDF. It fails with
// ErrRasterizationUnavailable when MuPDF cannot be loaded or used.
func (m *MuPDF) Check(context.Context) (detail string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = unavailable(fmt.Errorf("%v", r))
		}
	}()
	doc, err := m.open(blankPDF())
	if err != nil {
		return "", unavailable(err)
	}
	defer doc.Close()
	if n := doc.NumPage(); n != 1 {
		return "", unavailable(fmt.Errorf("test document has %d pages, want 1", n))
	}
	img, err := doc.ImageDPI(0, 72)
	if err != nil {
		return "", unavailable(err)
	}
	if img.Bounds().Empty() {
		return "", unavailable(fmt.Errorf("test page rendered empty"))
	}
	return "go-fitz (MuPDF)", nil
}

func unavailable(err error) error {
	return types.NewError(types.ErrRasterizationUnavailable, op,
		"the MuPDF library could not be used; install MuPDF or set raster.backend to pdftoppm", err)
}

// blankPDF returns a one-page 1x1 inch PDF with an empty page.
func blankPDF() []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 72 72] /Resources << >> >>",
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

// Rasterize renders every page of pdf.
func (m *MuPDF) Rasterize(ctx context.Context, pdf []byte, dpi types.DPI) ([]types.PageImage, error) {
	return m.render(ctx, pdf, dpi, 0)
}

// RasterizeFirst renders page one only.
func (m *MuPDF) RasterizeFirst(ctx context.Context, pdf []byte, dpi types.DPI) (types.PageImage, error) {
	pages, err := m.render(ctx, pdf, dpi, 1)
	if err != nil {
		return types.PageImage{}, err
	}
	if len(pages) == 0 {
		return types.PageImage{}, unreadable("the PDF has no pages", nil)
	}
	return pages[0], nil
}

// render draws the first limit pages, or all pages when limit is 0.
func (m *MuPDF) render(ctx context.Context, pdf []byte, dpi types.DPI, limit int) ([]types.PageImage, error) {
	if !dpi.Valid() {
		return nil, types.NewError(types.ErrInvalidInput, op, fmt.Sprintf("unsupported DPI %d", dpi), nil)
	}
	count, err := raster.PageCount(pdf)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []types.PageImage{}, nil
	}

	doc, err := m.open(pdf)
	if err != nil {
		return nil, unreadable("MuPDF could not open the PDF", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n != count {
		return nil, unreadable(fmt.Sprintf("page tree lists %d pages, MuPDF found %d", count, n), nil)
	}
	if limit > 0 && limit < n {
		n = limit
	}

	start := time.Now()
	pages := make([]types.PageImage, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, unreadable(fmt.Sprintf("page %d could not be rendered", i+1), err)
		}
		pages = append(pages, raster.NewPageImage(i+1, img, dpi))
	}
	m.log.Debug().Int("pages", len(pages)).Dur("took", time.Since(start)).Msg("mupdf finished")
	return pages, nil
}
