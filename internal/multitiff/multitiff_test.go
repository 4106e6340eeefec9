// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package multitiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff/lzw"

	"github.com/pdiddy/docconv/pkg/types"
)

// gradient returns a deterministic RGBA image whose pixels depend on seed.
func gradient(w, h int, seed uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x) + seed, G: uint8(y) * 3, B: uint8(x*y) ^ seed, A: 255})
		}
	}
	return img
}

// noise returns an RGBA image of pseudo-random pixels.
func noise(w, h int, seed int64) *image.RGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(r.Intn(256))
		img.Pix[i+1] = uint8(r.Intn(256))
		img.Pix[i+2] = uint8(r.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func pages(imgs ...image.Image) []types.PageImage {
	out := make([]types.PageImage, len(imgs))
	for i, img := range imgs {
		out[i] = types.PageImage{Number: i + 1, Image: img, DPI: 150, ColorMode: types.ColorRGB}
	}
	return out
}

// assertSamePixels compares the RGB channels of two images.
func assertSamePixels(t *testing.T, want, got image.Image) {
	t.Helper()
	require.Equal(t, want.Bounds().Size(), got.Bounds().Size())
	wb, gb := want.Bounds(), got.Bounds()
	for y := 0; y < wb.Dy(); y++ {
		for x := 0; x < wb.Dx(); x++ {
			wr, wg, wbl, _ := want.At(wb.Min.X+x, wb.Min.Y+y).RGBA()
			gr, gg, gbl, _ := got.At(gb.Min.X+x, gb.Min.Y+y).RGBA()
			if wr>>8 != gr>>8 || wg>>8 != gg>>8 || wbl>>8 != gbl>>8 {
				t.Fatalf("pixel (%d,%d) differs: want %d,%d,%d got %d,%d,%d",
					x, y, wr>>8, wg>>8, wbl>>8, gr>>8, gg>>8, gbl>>8)
			}
		}
	}
}

func TestWrite_RoundTripAllCompressions(t *testing.T) {
	src := pages(gradient(120, 90, 0), noise(400, 200, 7), gradient(33, 17, 99))

	var decoded [][]image.Image
	for _, c := range types.Compressions {
		t.Run(string(c), func(t *testing.T) {
			data, err := Write(src, c)
			require.NoError(t, err)

			got, err := DecodeAll(data)
			require.NoError(t, err)
			require.Len(t, got, len(src))
			for i := range src {
				assertSamePixels(t, src[i].Image, got[i])
			}
			decoded = append(decoded, got)
		})
	}

	require.Len(t, decoded, len(types.Compressions))
	for _, other := range decoded[1:] {
		for i := range other {
			assertSamePixels(t, decoded[0][i], other[i])
		}
	}
}

func TestWrite_CompressionTagInFirstIFD(t *testing.T) {
	tests := []struct {
		comp types.Compression
		want uint16
	}{
		{types.CompressionNone, 1},
		{types.CompressionLZW, 5},
		{types.CompressionAdobeDeflate, 8},
		{types.CompressionDeflate, 32946},
	}
	for _, tt := range tests {
		t.Run(string(tt.comp), func(t *testing.T) {
			data, err := Write(pages(gradient(8, 8, 1)), tt.comp)
			require.NoError(t, err)
			assert.Equal(t, tt.want, readTag(t, data, tagCompression))
		})
	}
}

// readTag returns the first SHORT value of tag in the first IFD.
func readTag(t *testing.T, data []byte, tag uint16) uint16 {
	t.Helper()
	le := binary.LittleEndian
	off := le.Uint32(data[4:])
	n := int(le.Uint16(data[off:]))
	for i := 0; i < n; i++ {
		rec := data[int(off)+2+12*i:]
		if le.Uint16(rec) == tag {
			return le.Uint16(rec[8:])
		}
	}
	t.Fatalf("tag %d not found", tag)
	return 0
}

func TestWrite_Header(t *testing.T) {
	data, err := Write(pages(gradient(4, 4, 0)), types.CompressionDeflate)
	require.NoError(t, err)
	assert.Equal(t, []byte{'I', 'I', 42, 0}, data[:4])

	offs, order, err := PageOffsets(data)
	require.NoError(t, err)
	assert.Equal(t, binary.LittleEndian, order)
	assert.Len(t, offs, 1)
}

func TestWrite_PreservesPageOrder(t *testing.T) {
	var src []types.PageImage
	for i := 0; i < 6; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 5, 5))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p], img.Pix[p+3] = uint8(i*40), 255
		}
		src = append(src, types.PageImage{Number: i + 1, Image: img})
	}

	data, err := Write(src, types.CompressionLZW)
	require.NoError(t, err)
	got, err := DecodeAll(data)
	require.NoError(t, err)
	require.Len(t, got, 6)
	for i, img := range got {
		r, _, _, _ := img.At(2, 2).RGBA()
		assert.Equal(t, uint32(i*40), r>>8, "page %d", i+1)
	}
}

func TestWrite_EmptySequence(t *testing.T) {
	for _, in := range [][]types.PageImage{nil, {}} {
		_, err := Write(in, types.CompressionDeflate)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidInput))
	}
}

func TestWrite_InvalidPages(t *testing.T) {
	tests := []struct {
		name  string
		pages []types.PageImage
		comp  types.Compression
	}{
		{"nil image", []types.PageImage{{Number: 1}}, types.CompressionNone},
		{"empty image", pages(image.NewRGBA(image.Rect(0, 0, 0, 0))), types.CompressionNone},
		{"unknown compression", pages(gradient(2, 2, 0)), types.Compression("jpeg")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Write(tt.pages, tt.comp)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidInput))
		})
	}
}

func TestWrite_NonRGBAInputs(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 10, 6))
	gray := image.NewGray(image.Rect(0, 0, 7, 9))
	for i := range nrgba.Pix {
		nrgba.Pix[i] = uint8(i * 5)
	}
	for i := 3; i < len(nrgba.Pix); i += 4 {
		nrgba.Pix[i] = 255
	}
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i * 3)
	}
	sub := gradient(40, 40, 3).SubImage(image.Rect(10, 5, 30, 25))

	src := pages(nrgba, gray, sub)
	data, err := Write(src, types.CompressionAdobeDeflate)
	require.NoError(t, err)
	got, err := DecodeAll(data)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range src {
		assertSamePixels(t, src[i].Image, got[i])
	}
}

func TestEncode_WritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, pages(gradient(3, 3, 0)), types.CompressionNone))
	first, err := DecodeFirst(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, image.Pt(3, 3), first.Bounds().Size())
}

func TestLZWCompress_DecodesWithTIFFReader(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	random := make([]byte, 200_000)
	r.Read(random)
	runs := bytes.Repeat([]byte("abcabcabcd"), 30_000)

	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"single byte", []byte{7}},
		{"repeated", bytes.Repeat([]byte{0}, 100_000)},
		{"short text", []byte("TOBEORNOTTOBEORTOBEORNOT")},
		{"random past table reset", random},
		{"structured runs", runs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := lzwCompress(tt.in)
			require.NoError(t, err)
			rd := lzw.NewReader(bytes.NewReader(enc), lzw.MSB, 8)
			defer rd.Close()
			var out bytes.Buffer
			_, err = out.ReadFrom(rd)
			require.NoError(t, err)
			assert.Equal(t, len(tt.in), out.Len())
			assert.True(t, bytes.Equal(tt.in, out.Bytes()))
		})
	}
}

func TestPageOffsets_Malformed(t *testing.T) {
	loop := []byte{'I', 'I', 42, 0, 8, 0, 0, 0, 0, 0, 8, 0, 0, 0}
	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte("II*")},
		{"bad order", []byte("XX*\x00\x08\x00\x00\x00")},
		{"bad magic", []byte("II\x2b\x00\x08\x00\x00\x00")},
		{"offset out of range", []byte("II*\x00\xff\x00\x00\x00")},
		{"looping chain", loop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAll(tt.data)
			assert.Error(t, err)
		})
	}
}
