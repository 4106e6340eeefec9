// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strconv"
	"strings"
)

// DPI is the rasterization resolution in dots per inch.
type DPI int

const (
	DPI150 DPI = 150
	DPI300 DPI = 300
	DPI600 DPI = 600

	DefaultDPI = DPI300
)

// DPIs lists the selectable resolutions in display order.
var DPIs = []DPI{DPI150, DPI300, DPI600}

// Valid reports whether d is one of the selectable resolutions.
func (d DPI) Valid() bool {
	for _, v := range DPIs {
		if d == v {
			return true
		}
	}
	return false
}

func (d DPI) String() string { return strconv.Itoa(int(d)) }

// ParseDPI parses a resolution from a form or config value.
func ParseDPI(s string) (DPI, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !DPI(n).Valid() {
		return 0, NewError(ErrInvalidInput, "dpi", fmt.Sprintf("DPI must be one of 150, 300 or 600, got %q", s), nil)
	}
	return DPI(n), nil
}

// Compression selects the TIFF encoding. It affects file size only, never
// the decoded pixels.
type Compression string

const (
	CompressionDeflate      Compression = "deflate"
	CompressionLZW          Compression = "lzw"
	CompressionAdobeDeflate Compression = "adobe_deflate"
	CompressionNone         Compression = "none"

	DefaultCompression = CompressionDeflate
)

// Compressions lists the selectable schemes in display order.
var Compressions = []Compression{CompressionDeflate, CompressionLZW, CompressionAdobeDeflate, CompressionNone}

// Valid reports whether c is a known scheme.
func (c Compression) Valid() bool {
	for _, v := range Compressions {
		if c == v {
			return true
		}
	}
	return false
}

// Label returns the human-readable name shown in the UI.
func (c Compression) Label() string {
	switch c {
	case CompressionDeflate:
		return "Deflate"
	case CompressionLZW:
		return "LZW"
	case CompressionAdobeDeflate:
		return "Adobe Deflate"
	case CompressionNone:
		return "None"
	}
	return string(c)
}

// ParseCompression parses a scheme name. The tiff_-prefixed labels and "None"
// are accepted as aliases.
func ParseCompression(s string) (Compression, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "tiff_")
	c := Compression(v)
	if !c.Valid() {
		return "", NewError(ErrInvalidInput, "compression", fmt.Sprintf("compression must be one of deflate, lzw, adobe_deflate or none, got %q", s), nil)
	}
	return c, nil
}

// Settings are the per-conversion options a user picks in the UI. The UI
// remembers the last values per browser session; conversion components only
// ever receive them as arguments.
type Settings struct {
	DPI         DPI         `json:"dpi" yaml:"dpi" mapstructure:"dpi"`
	Compression Compression `json:"compression" yaml:"compression" mapstructure:"compression"`
}

// DefaultSettings returns 300 DPI with deflate compression.
func DefaultSettings() Settings {
	return Settings{DPI: DefaultDPI, Compression: DefaultCompression}
}

// Normalize replaces invalid fields with their defaults.
func (s Settings) Normalize() Settings {
	if !s.DPI.Valid() {
		s.DPI = DefaultDPI
	}
	if !s.Compression.Valid() {
		s.Compression = DefaultCompression
	}
	return s
}

// Converter identifies one of the two conversion pipelines.
type Converter string

const (
	ConverterPPTXToPDF Converter = "pptx-to-pdf"
	ConverterPDFToTIFF Converter = "pdf-to-tiff"
)

// Converters lists the pipelines in navigation order.
var Converters = []Converter{ConverterPPTXToPDF, ConverterPDFToTIFF}

// ParseConverter resolves a converter from its URL slug.
func ParseConverter(s string) (Converter, error) {
	for _, c := range Converters {
		if string(c) == s {
			return c, nil
		}
	}
	return "", NewError(ErrInvalidInput, "converter", fmt.Sprintf("unknown converter %q", s), nil)
}

// Title returns the display name of the converter.
func (c Converter) Title() string {
	switch c {
	case ConverterPPTXToPDF:
		return "PowerPoint to PDF"
	case ConverterPDFToTIFF:
		return "PDF to TIFF"
	}
	return string(c)
}

// Extensions returns the file extensions the converter accepts.
func (c Converter) Extensions() []string {
	switch c {
	case ConverterPPTXToPDF:
		return []string{".ppt", ".pptx"}
	case ConverterPDFToTIFF:
		return []string{".pdf"}
	}
	return nil
}

// Accepts reports whether the document's format belongs to the converter.
func (c Converter) Accepts(f Format) bool {
	switch c {
	case ConverterPPTXToPDF:
		return f == FormatPPTX || f == FormatPPT
	case ConverterPDFToTIFF:
		return f == FormatPDF
	}
	return false
}

// ConversionState is a step of the per-request state machine:
// Idle, Validating, Converting, then Succeeded or Failed, then Idle again.
type ConversionState string

const (
	StateIdle       ConversionState = "idle"
	StateValidating ConversionState = "validating"
	StateConverting ConversionState = "converting"
	StateSucceeded  ConversionState = "succeeded"
	StateFailed     ConversionState = "failed"
)
