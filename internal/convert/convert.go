// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert wires the document components into the two conversions
// docconv offers: PowerPoint to text-flow PDF, and PDF to multi-page TIFF.
package convert

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/pdiddy/docconv/internal/multitiff"
	"github.com/pdiddy/docconv/internal/raster"
	"github.com/pdiddy/docconv/internal/slides"
	"github.com/pdiddy/docconv/internal/textpdf"
	"github.com/pdiddy/docconv/pkg/types"
)

// SlideExtractor reads the slide text of a presentation.
type SlideExtractor interface {
	Extract(data []byte) (types.SlideTextModel, error)
}

// TextWriter lays out a slide text model as PDF pages.
type TextWriter interface {
	Write(model types.SlideTextModel) ([]byte, error)
}

// TIFFWriter encodes page images as one multi-page TIFF.
type TIFFWriter interface {
	Write(pages []types.PageImage, c types.Compression) ([]byte, error)
}

// Service runs conversions. It holds no per-request state, so one Service
// serves every request.
type Service struct {
	Extractor  SlideExtractor
	Text       TextWriter
	Rasterizer raster.Rasterizer
	TIFF       TIFFWriter
	Log        zerolog.Logger
}

// New returns a Service using the standard components with the given text
// layout and rasterizer.
func New(r raster.Rasterizer, layout textpdf.Layout, logger zerolog.Logger) *Service {
	return &Service{
		Extractor:  slides.Extractor{},
		Text:       textpdf.NewWriter(layout),
		Rasterizer: r,
		TIFF:       multitiff.Writer{},
		Log:        logger,
	}
}

// Request is one conversion to run.
type Request struct {
	Converter types.Converter
	Document  types.UploadedDocument
	Settings  types.Settings
}

// Convert dispatches req to the conversion its Converter names. A document
// whose format the converter does not accept fails with ErrInvalidInput.
func (s *Service) Convert(ctx context.Context, req Request) (types.ConversionResult, error) {
	if !req.Converter.Accepts(req.Document.Format) {
		return types.ConversionResult{}, types.NewError(types.ErrInvalidInput, "convert",
			fmt.Sprintf("%s does not accept .%s files", req.Converter.Title(), req.Document.Format), nil)
	}
	switch req.Converter {
	case types.ConverterPPTXToPDF:
		return s.ConvertPresentation(ctx, req.Document)
	case types.ConverterPDFToTIFF:
		return s.ConvertPDF(ctx, req.Document, req.Settings)
	}
	return types.ConversionResult{}, types.NewError(types.ErrInvalidInput, "convert",
		fmt.Sprintf("unknown converter %q", req.Converter), nil)
}

// ConvertPresentation extracts the slide text of doc and writes it as a PDF.
func (s *Service) ConvertPresentation(ctx context.Context, doc types.UploadedDocument) (types.ConversionResult, error) {
	if err := ctx.Err(); err != nil {
		return types.ConversionResult{}, err
	}
	start := time.Now()
	log := s.Log.With().Str("converter", string(types.ConverterPPTXToPDF)).Str("file", doc.Name).Logger()
	log.Info().Str("size", humanize.IBytes(uint64(len(doc.Data)))).Msg("conversion started")

	if doc.Format == types.FormatPPT {
		err := slides.LegacyFormatError()
		log.Warn().Err(err).Msg("conversion failed")
		return types.ConversionResult{}, err
	}

	model, err := s.Extractor.Extract(doc.Data)
	if err != nil {
		log.Warn().Err(err).Msg("conversion failed")
		return types.ConversionResult{}, err
	}
	data, err := s.Text.Write(model)
	if err != nil {
		log.Error().Err(err).Msg("conversion failed")
		return types.ConversionResult{}, fmt.Errorf("writing PDF: %w", err)
	}

	res := types.NewConversionResult(doc, types.OutputPDF, data)
	log.Info().
		Int("slides", len(model.Slides)).
		Int("texts", model.TextCount()).
		Str("output", humanize.IBytes(uint64(res.Size()))).
		Dur("took", time.Since(start)).
		Msg("conversion finished")
	return res, nil
}

// ConvertPDF rasterizes every page of doc and encodes the pages as one TIFF.
// A PDF without pages yields no images, which the TIFF writer rejects.
func (s *Service) ConvertPDF(ctx context.Context, doc types.UploadedDocument, settings types.Settings) (types.ConversionResult, error) {
	if !settings.DPI.Valid() {
		return types.ConversionResult{}, types.NewError(types.ErrInvalidInput, "convert",
			fmt.Sprintf("unsupported DPI %d", settings.DPI), nil)
	}
	if !settings.Compression.Valid() {
		return types.ConversionResult{}, types.NewError(types.ErrInvalidInput, "convert",
			fmt.Sprintf("unsupported compression %q", settings.Compression), nil)
	}

	start := time.Now()
	log := s.Log.With().
		Str("converter", string(types.ConverterPDFToTIFF)).
		Str("file", doc.Name).
		Int("dpi", int(settings.DPI)).
		Str("compression", string(settings.Compression)).
		Logger()
	log.Info().Str("size", humanize.IBytes(uint64(len(doc.Data)))).Str("backend", s.Rasterizer.Name()).Msg("conversion started")

	pages, err := s.Rasterizer.Rasterize(ctx, doc.Data, settings.DPI)
	if err != nil {
		log.Warn().Err(err).Msg("conversion failed")
		return types.ConversionResult{}, err
	}
	data, err := s.TIFF.Write(pages, settings.Compression)
	if err != nil {
		log.Warn().Err(err).Msg("conversion failed")
		return types.ConversionResult{}, err
	}

	res := types.NewConversionResult(doc, types.OutputTIFF, data)
	log.Info().
		Int("pages", len(pages)).
		Str("output", humanize.IBytes(uint64(res.Size()))).
		Dur("took", time.Since(start)).
		Msg("conversion finished")
	return res, nil
}
