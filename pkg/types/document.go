// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures for docconv: uploaded
// documents, the slide text model, rasterized pages, conversion results and
// the settings a user picks in the UI.
package types

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
)

// Format is the declared format of an uploaded document, derived from its
// file extension.
type Format string

const (
	FormatPPTX Format = "pptx"
	FormatPPT  Format = "ppt"
	FormatPDF  Format = "pdf"
)

// FormatFromName returns the Format for a filename's extension. The match is
// case-insensitive. Unknown extensions yield ErrInvalidInput.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pptx":
		return FormatPPTX, nil
	case ".ppt":
		return FormatPPT, nil
	case ".pdf":
		return FormatPDF, nil
	}
	return "", NewError(ErrInvalidInput, "format", fmt.Sprintf("unsupported file extension %q", filepath.Ext(name)), nil)
}

// UploadedDocument is one uploaded file. It is never modified after
// creation and is discarded once its conversion finishes.
type UploadedDocument struct {
	// Name is the original filename as supplied by the browser.
	Name string

	// Format is the declared format, taken from the filename extension.
	Format Format

	// Data holds the raw file bytes.
	Data []byte
}

// NewUploadedDocument builds an UploadedDocument, deriving its Format from
// the filename.
func NewUploadedDocument(name string, data []byte) (UploadedDocument, error) {
	f, err := FormatFromName(name)
	if err != nil {
		return UploadedDocument{}, err
	}
	return UploadedDocument{Name: filepath.Base(name), Format: f, Data: data}, nil
}

// Stem returns the filename without directory and extension.
func (d UploadedDocument) Stem() string {
	base := filepath.Base(d.Name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Slide holds the text items of one slide in shape order.
type Slide struct {
	// Number is the 1-based position of the slide in the presentation.
	Number int

	// Texts are the non-empty text items, one per text-bearing shape.
	Texts []string
}

// SlideTextModel is the ordered plain text of a presentation.
type SlideTextModel struct {
	Slides []Slide
}

// TextCount returns the number of text items across all slides.
func (m SlideTextModel) TextCount() int {
	n := 0
	for _, s := range m.Slides {
		n += len(s.Texts)
	}
	return n
}

// ColorMode is the pixel layout of a rasterized page.
type ColorMode string

// ColorRGB is the only mode the rasterizers produce.
const ColorRGB ColorMode = "RGB"

// PageImage is one rasterized PDF page.
type PageImage struct {
	// Number is the 1-based page number in the source PDF.
	Number int

	// Image holds the pixels.
	Image image.Image

	// DPI is the resolution the page was rendered at.
	DPI DPI

	// ColorMode describes the pixel layout.
	ColorMode ColorMode
}

// OutputFormat tags a ConversionResult.
type OutputFormat string

const (
	OutputPDF  OutputFormat = "pdf"
	OutputTIFF OutputFormat = "tiff"
)

// MIMEType returns the media type for the output format.
func (f OutputFormat) MIMEType() string {
	switch f {
	case OutputPDF:
		return "application/pdf"
	case OutputTIFF:
		return "image/tiff"
	}
	return "application/octet-stream"
}

// ConversionResult is the output of one conversion.
type ConversionResult struct {
	// Filename is the input stem with the target extension.
	Filename string

	// Format identifies the output container.
	Format OutputFormat

	// Data holds the output bytes.
	Data []byte
}

// NewConversionResult derives the output filename from the source document.
func NewConversionResult(src UploadedDocument, f OutputFormat, data []byte) ConversionResult {
	return ConversionResult{
		Filename: src.Stem() + "." + string(f),
		Format:   f,
		Data:     data,
	}
}

// MIMEType returns the media type of the result.
func (r ConversionResult) MIMEType() string { return r.Format.MIMEType() }

// Size returns the output size in bytes.
func (r ConversionResult) Size() int { return len(r.Data) }
