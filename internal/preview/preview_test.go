// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docconv/internal/multitiff"
	"github.com/pdiddy/docconv/pkg/types"
)

// fakeRasterizer renders pages of a fixed size.
type fakeRasterizer struct {
	pages    int
	w, h     int
	err      error
	gotDPI   types.DPI
	fullRuns int
}

func (f *fakeRasterizer) Name() string { return "fake" }

func (f *fakeRasterizer) Rasterize(_ context.Context, _ []byte, dpi types.DPI) ([]types.PageImage, error) {
	f.fullRuns++
	f.gotDPI = dpi
	if f.err != nil {
		return nil, f.err
	}
	out := make([]types.PageImage, f.pages)
	for i := range out {
		out[i] = types.PageImage{Number: i + 1, Image: image.NewRGBA(image.Rect(0, 0, f.w, f.h)), DPI: dpi}
	}
	return out, nil
}

// firstRasterizer also implements raster.FirstPageRasterizer.
type firstRasterizer struct {
	fakeRasterizer
	firstRuns int
}

func (f *firstRasterizer) RasterizeFirst(_ context.Context, _ []byte, dpi types.DPI) (types.PageImage, error) {
	f.firstRuns++
	f.gotDPI = dpi
	return types.PageImage{Number: 1, Image: image.NewRGBA(image.Rect(0, 0, f.w, f.h)), DPI: dpi}, nil
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestRender_PDFUsesFirstPageRasterizer(t *testing.T) {
	r := &firstRasterizer{fakeRasterizer: fakeRasterizer{pages: 3, w: 100, h: 140}}
	out, err := Renderer{Rasterizer: r}.Render(context.Background(),
		types.ConversionResult{Format: types.OutputPDF, Data: []byte("%PDF")})
	require.NoError(t, err)

	assert.Equal(t, 1, r.firstRuns)
	assert.Equal(t, 0, r.fullRuns)
	assert.Equal(t, DPI, r.gotDPI)
	assert.Equal(t, image.Pt(100, 140), decodePNG(t, out).Bounds().Size())
}

func TestRender_PDFFallsBackToFullRasterize(t *testing.T) {
	r := &fakeRasterizer{pages: 2, w: 2480, h: 3508}
	out, err := Renderer{Rasterizer: r}.Render(context.Background(),
		types.ConversionResult{Format: types.OutputPDF, Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, 1, r.fullRuns)
	assert.Equal(t, image.Pt(MaxWidth, 3508*MaxWidth/2480), decodePNG(t, out).Bounds().Size())
}

func TestRender_PDFErrors(t *testing.T) {
	rasterErr := types.NewError(types.ErrRasterizationUnavailable, "rasterize", "missing", nil)
	tests := []struct {
		name string
		r    Renderer
		want error
	}{
		{"no rasterizer", Renderer{}, nil},
		{"rasterizer fails", Renderer{Rasterizer: &fakeRasterizer{err: rasterErr}}, types.ErrRasterizationUnavailable},
		{"no pages", Renderer{Rasterizer: &fakeRasterizer{}}, ErrNoPages},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.r.Render(context.Background(), types.ConversionResult{Format: types.OutputPDF})
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want))
			}
		})
	}
}

func TestRender_TIFFFirstPage(t *testing.T) {
	first := image.NewRGBA(image.Rect(0, 0, 30, 20))
	for i := 0; i < len(first.Pix); i += 4 {
		first.Pix[i], first.Pix[i+3] = 200, 255
	}
	second := image.NewRGBA(image.Rect(0, 0, 50, 50))
	data, err := multitiff.Write([]types.PageImage{{Number: 1, Image: first}, {Number: 2, Image: second}}, types.CompressionDeflate)
	require.NoError(t, err)

	out, err := Renderer{}.Render(context.Background(), types.ConversionResult{Format: types.OutputTIFF, Data: data})
	require.NoError(t, err)
	img := decodePNG(t, out)
	assert.Equal(t, image.Pt(30, 20), img.Bounds().Size())
	r, _, _, _ := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(200), r>>8)
}

func TestRender_Failures(t *testing.T) {
	_, err := Renderer{}.Render(context.Background(), types.ConversionResult{Format: types.OutputTIFF, Data: []byte("junk")})
	assert.Error(t, err)

	_, err = Renderer{}.Render(context.Background(), types.ConversionResult{Format: "docx"})
	assert.Error(t, err)
}

func TestFit(t *testing.T) {
	tests := []struct {
		name string
		in   image.Rectangle
		want image.Point
	}{
		{"narrow kept", image.Rect(0, 0, 800, 1000), image.Pt(800, 1000)},
		{"exact kept", image.Rect(0, 0, 1200, 10), image.Pt(1200, 10)},
		{"wide scaled", image.Rect(0, 0, 2400, 1000), image.Pt(1200, 500)},
		{"offset origin", image.Rect(100, 100, 4900, 200), image.Pt(1200, 25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fit(image.NewRGBA(tt.in), 1200).Bounds().Size())
		})
	}
}

func TestFit_KeepsContent(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2400, 100))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+3] = 255, 255
	}
	r, g, _, a := Fit(src, 1200).At(600, 25).RGBA()
	assert.InDelta(t, 255, r>>8, 1)
	assert.InDelta(t, 0, g>>8, 1)
	assert.InDelta(t, 255, a>>8, 1)
}
