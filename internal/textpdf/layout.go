// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textpdf

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/docconv/pkg/types"
)

// courierAdvance is the advance width of every Courier glyph in em.
const courierAdvance = 0.6

// noTextPlaceholder is written under the heading of a slide without text.
const noTextPlaceholder = "(No text content on this slide)"

// Layout is the fixed page geometry. All lengths are in points.
type Layout struct {
	PageWidth    float64
	PageHeight   float64
	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64
	FontSize     float64
	LineHeight   float64
}

// DefaultLayout returns an A4 portrait page with one-inch side margins and
// 11pt text on 14pt lines.
func DefaultLayout() Layout {
	return Layout{
		PageWidth:    595.28,
		PageHeight:   841.89,
		MarginLeft:   72,
		MarginRight:  72,
		MarginTop:    72,
		MarginBottom: 54,
		FontSize:     11,
		LineHeight:   14,
	}
}

// LineWidth returns how many characters fit on one line.
func (l Layout) LineWidth() int {
	usable := l.PageWidth - l.MarginLeft - l.MarginRight
	n := int(usable / (courierAdvance * l.FontSize))
	if n < 1 {
		return 1
	}
	return n
}

// LinesPerPage returns how many lines fit between the top and bottom
// margins.
func (l Layout) LinesPerPage() int {
	n := int((l.PageHeight - l.MarginTop - l.MarginBottom) / l.LineHeight)
	if n < 1 {
		return 1
	}
	return n
}

// LineKind tells the renderer which font style to use.
type LineKind int

const (
	LineBody LineKind = iota
	LineHeading
	LinePlaceholder
	LineBlank
)

// Line is one rendered line of text.
type Line struct {
	Kind LineKind
	Text string
}

// Paginate flows the model onto pages. Every slide starts with a "Slide N"
// heading followed by its wrapped paragraphs. A page is only ever closed
// because it is full, never because a slide ended. The result always has at
// least one page.
func (l Layout) Paginate(m types.SlideTextModel) [][]Line {
	width := l.LineWidth()
	perPage := l.LinesPerPage()

	pages := [][]Line{nil}
	add := func(ln Line) {
		if len(pages[len(pages)-1]) >= perPage {
			pages = append(pages, nil)
		}
		pages[len(pages)-1] = append(pages[len(pages)-1], ln)
	}

	for i, s := range m.Slides {
		num := s.Number
		if num == 0 {
			num = i + 1
		}
		if i > 0 && len(pages[len(pages)-1]) > 0 && len(pages[len(pages)-1]) < perPage {
			add(Line{Kind: LineBlank})
		}
		add(Line{Kind: LineHeading, Text: fmt.Sprintf("Slide %d", num)})

		if len(s.Texts) == 0 {
			add(Line{Kind: LinePlaceholder, Text: noTextPlaceholder})
			continue
		}
		for _, text := range s.Texts {
			for _, para := range strings.Split(text, "\n") {
				para = strings.TrimSpace(para)
				if para == "" {
					continue
				}
				for _, w := range Wrap(para, width) {
					add(Line{Kind: LineBody, Text: w})
				}
			}
		}
	}
	return pages
}

// Wrap splits text into lines of at most width characters, breaking at
// spaces. Words longer than a line are split across lines. Runs of
// whitespace collapse to one space.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var (
		lines []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if n > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			n = 0
		}
	}
	for _, word := range strings.Fields(text) {
		wl := utf8.RuneCountInString(word)
		if n > 0 && n+1+wl <= width {
			cur.WriteByte(' ')
			cur.WriteString(word)
			n += 1 + wl
			continue
		}
		flush()
		for wl > width {
			r := []rune(word)
			lines = append(lines, string(r[:width]))
			word = string(r[width:])
			wl -= width
		}
		cur.WriteString(word)
		n = wl
	}
	flush()
	return lines
}
