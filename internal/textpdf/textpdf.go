// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textpdf lays the plain text of a presentation onto fixed-size PDF
// pages. It is a text flow, not a slide renderer: no images, no shapes and
// no original fonts survive.
package textpdf

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/text/encoding/charmap"

	"github.com/pdiddy/docconv/pkg/types"
)

const (
	// coreFamily is the built-in PDF font, limited to cp1252.
	coreFamily = "Courier"

	// unicodeFamily is Go Mono, embedded when some text falls outside
	// cp1252. Both fonts advance 0.6 em per glyph.
	unicodeFamily = "GoMono"
)

// Writer renders a SlideTextModel as PDF using a fixed Layout.
type Writer struct {
	Layout Layout

	// Title is stored in the document information dictionary.
	Title string
}

// NewWriter returns a Writer using layout.
func NewWriter(layout Layout) *Writer {
	return &Writer{Layout: layout}
}

// Write returns the PDF bytes for m. An empty model still yields a valid
// one-page document.
func (w *Writer) Write(m types.SlideTextModel) ([]byte, error) {
	l := w.Layout
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: l.PageWidth, Ht: l.PageHeight},
	})
	pdf.SetMargins(l.MarginLeft, l.MarginTop, l.MarginRight)
	pdf.SetAutoPageBreak(false, l.MarginBottom)
	pdf.SetCreator("docconv", true)
	if w.Title != "" {
		pdf.SetTitle(w.Title, true)
	}
	family, tr := coreFamily, pdf.UnicodeTranslatorFromDescriptor("")
	if !fitsCP1252(m) {
		family, tr = unicodeFamily, bmpOnly
		pdf.AddUTF8FontFromBytes(unicodeFamily, "", gomono.TTF)
		pdf.AddUTF8FontFromBytes(unicodeFamily, "B", gomonobold.TTF)
		pdf.AddUTF8FontFromBytes(unicodeFamily, "I", gomonoitalic.TTF)
	}

	for _, page := range l.Paginate(m) {
		pdf.AddPage()
		for i, ln := range page {
			if ln.Kind == LineBlank {
				continue
			}
			pdf.SetFont(family, fontStyle(ln.Kind), l.FontSize)
			y := l.MarginTop + l.FontSize + float64(i)*l.LineHeight
			pdf.Text(l.MarginLeft, y, tr(ln.Text))
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("laying out PDF: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func fontStyle(k LineKind) string {
	switch k {
	case LineHeading:
		return "B"
	case LinePlaceholder:
		return "I"
	}
	return ""
}

// fitsCP1252 reports whether every text item can be written with the core
// font's code page.
func fitsCP1252(m types.SlideTextModel) bool {
	for _, sl := range m.Slides {
		for _, t := range sl.Texts {
			for _, r := range t {
				if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
					return false
				}
			}
		}
	}
	return true
}

// bmpOnly replaces runes outside the Basic Multilingual Plane, which the
// embedded font tables cannot address, with U+FFFD.
func bmpOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return utf8.RuneError
		}
		return r
	}, s)
}
