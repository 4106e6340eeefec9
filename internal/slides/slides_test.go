// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package slides

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docconv/internal/slides/slidestest"
	"github.com/pdiddy/docconv/pkg/types"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		data func(t *testing.T) []byte
		want []types.Slide
	}{
		{
			name: "one text per slide in order",
			data: func(t *testing.T) []byte {
				return slidestest.Build(t,
					slidestest.Text("Title"),
					slidestest.Text("Body A"),
					slidestest.Text("Body B"),
				)
			},
			want: []types.Slide{
				{Number: 1, Texts: []string{"Title"}},
				{Number: 2, Texts: []string{"Body A"}},
				{Number: 3, Texts: []string{"Body B"}},
			},
		},
		{
			name: "shape order within a slide",
			data: func(t *testing.T) []byte {
				return slidestest.Build(t, slidestest.Text("first", "second", "third"))
			},
			want: []types.Slide{{Number: 1, Texts: []string{"first", "second", "third"}}},
		},
		{
			name: "textless slide is kept",
			data: func(t *testing.T) []byte {
				return slidestest.Build(t, slidestest.Text("a"), nil, slidestest.Text("c"))
			},
			want: []types.Slide{
				{Number: 1, Texts: []string{"a"}},
				{Number: 2},
				{Number: 3, Texts: []string{"c"}},
			},
		},
		{
			name: "blank shapes contribute nothing",
			data: func(t *testing.T) []byte {
				return slidestest.Build(t, slidestest.Text("  ", "kept", ""))
			},
			want: []types.Slide{{Number: 1, Texts: []string{"kept"}}},
		},
		{
			name: "paragraphs and line breaks joined with newlines",
			data: func(t *testing.T) []byte {
				return slidestest.Build(t, slidestest.Slide{
					{Paragraphs: []string{"Heading", "line one\nline two"}},
				})
			},
			want: []types.Slide{{Number: 1, Texts: []string{"Heading\nline one\nline two"}}},
		},
		{
			name: "grouped shapes read in document order",
			data: func(t *testing.T) []byte {
				return slidestest.Build(t, slidestest.Slide{
					{Paragraphs: []string{"before"}},
					{Paragraphs: []string{"grouped"}, Group: true},
					{Paragraphs: []string{"after"}},
				})
			},
			want: []types.Slide{{Number: 1, Texts: []string{"before", "grouped", "after"}}},
		},
		{
			name: "presentation order wins over file numbering",
			data: func(t *testing.T) []byte {
				return slidestest.BuildWith(t, slidestest.Options{Order: []int{2, 1}},
					slidestest.Text("file one"),
					slidestest.Text("file two"),
				)
			},
			want: []types.Slide{
				{Number: 1, Texts: []string{"file two"}},
				{Number: 2, Texts: []string{"file one"}},
			},
		},
		{
			name: "numeric fallback without presentation part",
			data: func(t *testing.T) []byte {
				s := make([]slidestest.Slide, 11)
				for i := range s {
					s[i] = slidestest.Text(string(rune('a' + i)))
				}
				return slidestest.BuildWith(t, slidestest.Options{OmitPresentation: true}, s...)
			},
			want: func() []types.Slide {
				out := make([]types.Slide, 11)
				for i := range out {
					out[i] = types.Slide{Number: i + 1, Texts: []string{string(rune('a' + i))}}
				}
				return out
			}(),
		},
		{
			name: "escaped characters are decoded",
			data: func(t *testing.T) []byte {
				return slidestest.Build(t, slidestest.Text("R&D <draft> \"q\""))
			},
			want: []types.Slide{{Number: 1, Texts: []string{"R&D <draft> \"q\""}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := Extract(tt.data(t))
			require.NoError(t, err)
			require.Len(t, model.Slides, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want.Number, model.Slides[i].Number, "slide %d number", i)
				assert.Equal(t, want.Texts, model.Slides[i].Texts, "slide %d texts", i)
			}
		})
	}
}

func TestExtract_EmptyPresentation(t *testing.T) {
	model, err := Extract(slidestest.Build(t))
	require.NoError(t, err)
	assert.Empty(t, model.Slides)
	assert.Equal(t, 0, model.TextCount())
}

func TestExtract_Unreadable(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantMsg string
	}{
		{name: "not a zip", data: []byte("definitely not a presentation"), wantMsg: "not a valid .pptx"},
		{name: "empty input", data: nil, wantMsg: "not a valid .pptx"},
		{name: "truncated zip", data: []byte("PK\x03\x04garbage"), wantMsg: "not a valid .pptx"},
		{
			name:    "corrupt compound file",
			data:    append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 16)...),
			wantMsg: "compound",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrUnreadableDocument)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestExtract_ZipWithoutSlides(t *testing.T) {
	data := slidestest.BuildWith(t, slidestest.Options{OmitPresentation: true})
	_, err := Extract(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnreadableDocument)
}

func TestResolveTarget(t *testing.T) {
	assert.Equal(t, "ppt/slides/slide1.xml", resolveTarget("ppt", "slides/slide1.xml"))
	assert.Equal(t, "ppt/slides/slide1.xml", resolveTarget("ppt", "/ppt/slides/slide1.xml"))
	assert.Equal(t, "ppt/media/image1.png", resolveTarget("ppt/slides", "../media/image1.png"))
}
