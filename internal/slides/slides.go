// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package slides extracts the plain text of a PowerPoint presentation,
// slide by slide, in document order. Only the text of shapes is read;
// layout, images and styling are ignored.
package slides

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/richardlehane/mscfb"

	"github.com/pdiddy/docconv/pkg/types"
)

const (
	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
	slidePrefix      = "ppt/slides/slide"

	// powerPointStream is the stream name inside a legacy .ppt compound file.
	powerPointStream = "PowerPoint Document"
)

// oleSignature starts every OLE2 compound file, including legacy .ppt.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Extractor reads presentations. It holds no state; the zero value is
// ready to use.
type Extractor struct{}

// Extract parses a .pptx package and returns its slide text model.
func (Extractor) Extract(data []byte) (types.SlideTextModel, error) {
	return Extract(data)
}

// Extract parses a .pptx package and returns one Slide per slide in
// presentation order. Textless slides are kept with no texts so the slide
// count always matches the source.
func Extract(data []byte) (types.SlideTextModel, error) {
	if bytes.HasPrefix(data, oleSignature) {
		return types.SlideTextModel{}, legacyError(data)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return types.SlideTextModel{}, unreadable("file is not a valid .pptx package", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[strings.TrimPrefix(f.Name, "/")] = f
	}

	order, err := slideOrder(files)
	if err != nil {
		return types.SlideTextModel{}, err
	}

	model := types.SlideTextModel{Slides: make([]types.Slide, 0, len(order))}
	for i, name := range order {
		raw, err := readPart(files, name)
		if err != nil {
			return types.SlideTextModel{}, unreadable(fmt.Sprintf("cannot read slide %d", i+1), err)
		}
		texts, err := slideTexts(raw)
		if err != nil {
			return types.SlideTextModel{}, unreadable(fmt.Sprintf("slide %d is not valid XML", i+1), err)
		}
		model.Slides = append(model.Slides, types.Slide{Number: i + 1, Texts: texts})
	}
	return model, nil
}

// relationships is the shape of an OPC .rels part.
type relationships struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// presentation holds the slide id list of ppt/presentation.xml.
type presentation struct {
	SlideIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

// slideOrder returns the slide part names in presentation order. The
// sldIdLst of presentation.xml is authoritative; packages without it fall
// back to the numeric suffix of ppt/slides/slideN.xml.
func slideOrder(files map[string]*zip.File) ([]string, error) {
	numbered := numberedSlides(files)

	if _, ok := files[presentationPart]; !ok {
		if len(numbered) == 0 {
			return nil, unreadable("package contains no presentation part", nil)
		}
		return numbered, nil
	}

	raw, err := readPart(files, presentationPart)
	if err != nil {
		return nil, unreadable("cannot read presentation part", err)
	}
	var pres presentation
	if err := xml.Unmarshal(raw, &pres); err != nil {
		return nil, unreadable("presentation part is not valid XML", err)
	}
	if len(pres.SlideIDs) == 0 {
		return numbered, nil
	}

	targets := map[string]string{}
	if relsRaw, err := readPart(files, presentationRels); err == nil {
		var rels relationships
		if err := xml.Unmarshal(relsRaw, &rels); err != nil {
			return nil, unreadable("presentation relationships are not valid XML", err)
		}
		for _, r := range rels.Rels {
			targets[r.ID] = resolveTarget("ppt", r.Target)
		}
	}

	order := make([]string, 0, len(pres.SlideIDs))
	for _, id := range pres.SlideIDs {
		name, ok := targets[id.RID]
		if !ok {
			return nil, unreadable(fmt.Sprintf("slide relationship %q is missing", id.RID), nil)
		}
		if _, ok := files[name]; !ok {
			return nil, unreadable(fmt.Sprintf("slide part %s is missing", name), nil)
		}
		order = append(order, name)
	}
	return order, nil
}

// numberedSlides lists ppt/slides/slideN.xml parts sorted by N.
func numberedSlides(files map[string]*zip.File) []string {
	type numbered struct {
		n    int
		name string
	}
	var found []numbered
	for name := range files {
		if !strings.HasPrefix(name, slidePrefix) || !strings.HasSuffix(name, ".xml") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, slidePrefix), ".xml"))
		if err != nil || n <= 0 {
			continue
		}
		found = append(found, numbered{n, name})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.name
	}
	return names
}

// resolveTarget turns a relationship target into a package part name.
func resolveTarget(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(base, target))
}

func readPart(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// slideTexts walks a slide part and returns the text of each shape in
// document order. Group shapes are descended into. A shape's paragraphs are
// joined with newlines; shapes whose text is blank are dropped.
func slideTexts(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		texts   []string
		paras   []string
		para    strings.Builder
		inShape bool
		inPara  bool
		inText  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				inShape = true
				paras = paras[:0]
			case "p":
				if inShape {
					inPara = true
					para.Reset()
				}
			case "t":
				inText = inPara
			case "br":
				if inPara {
					para.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inPara {
					paras = append(paras, para.String())
					inPara = false
				}
			case "sp":
				if text := strings.TrimSpace(strings.Join(paras, "\n")); text != "" {
					texts = append(texts, text)
				}
				inShape = false
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return texts, nil
}

// legacyError explains why a compound file cannot be read. Legacy binary
// .ppt files are recognized by their PowerPoint Document stream.
func legacyError(data []byte) error {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return unreadable("file looks like an OLE compound document but is corrupt", err)
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name == powerPointStream {
			return LegacyFormatError()
		}
	}
	return unreadable("compound document is not a PowerPoint presentation", nil)
}

// LegacyFormatError is the error for binary PowerPoint 97-2003 input.
func LegacyFormatError() error {
	return unreadable("the .ppt format (PowerPoint 97-2003) is not supported; save the presentation as .pptx and try again", nil)
}

func unreadable(msg string, err error) error {
	return types.NewError(types.ErrUnreadableDocument, "extract slides", msg, err)
}
