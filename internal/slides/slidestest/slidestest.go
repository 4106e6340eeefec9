// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package slidestest builds minimal .pptx packages for tests.
package slidestest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"testing"
)

// Shape is one text shape. Each element of Paragraphs becomes an a:p.
type Shape struct {
	Paragraphs []string
	// Group wraps the shape in a p:grpSp.
	Group bool
}

// Slide is a list of shapes. Every generated slide also starts with one
// shape that has no text body.
type Slide []Shape

// Text returns a slide with one single-paragraph shape per text.
func Text(texts ...string) Slide {
	s := make(Slide, len(texts))
	for i, t := range texts {
		s[i] = Shape{Paragraphs: []string{t}}
	}
	return s
}

// Options tweak the generated package layout.
type Options struct {
	// Order lists 1-based slide file numbers in presentation order. When
	// nil the files are presented in numeric order.
	Order []int

	// OmitPresentation drops ppt/presentation.xml and its relationships.
	OmitPresentation bool
}

// Build returns a .pptx package containing the given slides.
func Build(t testing.TB, slides ...Slide) []byte {
	t.Helper()
	return BuildWith(t, Options{}, slides...)
}

// BuildWith returns a .pptx package using opts.
func BuildWith(t testing.TB, opts Options, slides ...Slide) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, body string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	write("[Content_Types].xml", contentTypes)

	order := opts.Order
	if order == nil {
		order = make([]int, len(slides))
		for i := range slides {
			order[i] = i + 1
		}
	}

	if !opts.OmitPresentation {
		var ids, rels strings.Builder
		for i, n := range order {
			fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, 100+n)
		}
		for n := 1; n <= len(slides); n++ {
			fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, 100+n, n)
		}
		write("ppt/presentation.xml", fmt.Sprintf(presentationXML, ids.String()))
		write("ppt/_rels/presentation.xml.rels", fmt.Sprintf(relsXML, rels.String()))
	}

	for i, s := range slides {
		write(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slideXML(s))
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func slideXML(s Slide) string {
	var b strings.Builder
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="1" name="Picture"/></p:nvSpPr><p:spPr/></p:sp>`)
	for i, sh := range s {
		var sp strings.Builder
		fmt.Fprintf(&sp, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Shape %d"/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/>`, i+2, i+1)
		for _, p := range sh.Paragraphs {
			sp.WriteString(`<a:p>`)
			for j, line := range strings.Split(p, "\n") {
				if j > 0 {
					sp.WriteString(`<a:br/>`)
				}
				sp.WriteString(`<a:r><a:rPr lang="en-US"/><a:t>`)
				_ = xml.EscapeText(&sp, []byte(line))
				sp.WriteString(`</a:t></a:r>`)
			}
			sp.WriteString(`</a:p>`)
		}
		sp.WriteString(`</p:txBody></p:sp>`)
		if sh.Group {
			b.WriteString(`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="99" name="Group"/></p:nvGrpSpPr><p:grpSpPr/>`)
			b.WriteString(sp.String())
			b.WriteString(`</p:grpSp>`)
			continue
		}
		b.WriteString(sp.String())
	}
	return fmt.Sprintf(slideTemplate, b.String())
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`

const presentationXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:sldIdLst>%s</p:sldIdLst></p:presentation>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">%s</Relationships>`

const slideTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/></p:nvGrpSpPr><p:grpSpPr/>%s</p:spTree></p:cSld></p:sld>`
