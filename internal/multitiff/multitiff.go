// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package multitiff writes and reads multi-page baseline TIFF files. Every
// page is stored as 8-bit RGB in its own IFD, in input order. The
// compression scheme changes the encoding only; decoded pixels are the same
// for every scheme.
package multitiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"

	"github.com/pdiddy/docconv/pkg/types"
)

const (
	tagNewSubfileType  = 254
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagXResolution     = 282
	tagYResolution     = 283
	tagPlanarConfig    = 284
	tagResolutionUnit  = 296
	tagPageNumber      = 297
	tagSoftware        = 305

	dtASCII    = 2
	dtShort    = 3
	dtLong     = 4
	dtRational = 5

	photometricRGB = 2
	resUnitInch    = 2
	subfilePage    = 2

	// stripTarget is the approximate uncompressed size of one strip.
	stripTarget = 64 << 10

	software = "docconv\x00"
)

// compressionTag maps a scheme to its TIFF Compression value.
func compressionTag(c types.Compression) (uint16, error) {
	switch c {
	case types.CompressionNone:
		return 1, nil
	case types.CompressionLZW:
		return 5, nil
	case types.CompressionAdobeDeflate:
		return 8, nil
	case types.CompressionDeflate:
		return 32946, nil
	}
	return 0, types.NewError(types.ErrInvalidInput, "encode tiff", fmt.Sprintf("unknown compression %q", c), nil)
}

// Writer encodes page sequences. The zero value is ready to use.
type Writer struct{}

// Write encodes pages with the given compression.
func (Writer) Write(pages []types.PageImage, c types.Compression) ([]byte, error) {
	return Write(pages, c)
}

// Encode writes pages to w as one multi-page TIFF.
func Encode(w io.Writer, pages []types.PageImage, c types.Compression) error {
	data, err := Write(pages, c)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Write returns pages encoded as one multi-page TIFF. An empty sequence
// fails with ErrInvalidInput.
func Write(pages []types.PageImage, c types.Compression) ([]byte, error) {
	if len(pages) == 0 {
		return nil, types.NewError(types.ErrInvalidInput, "encode tiff", "no pages to write", nil)
	}
	tag, err := compressionTag(c)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write([]byte{'I', 'I', 42, 0, 0, 0, 0, 0})
	nextPtr := 4

	for i, p := range pages {
		if p.Image == nil {
			return nil, types.NewError(types.ErrInvalidInput, "encode tiff", fmt.Sprintf("page %d has no image", i+1), nil)
		}
		ifd, err := writePage(&buf, p, i, len(pages), tag)
		if err != nil {
			return nil, fmt.Errorf("encoding page %d: %w", i+1, err)
		}
		binary.LittleEndian.PutUint32(buf.Bytes()[nextPtr:], ifd.offset)
		nextPtr = ifd.nextPtr
	}
	if int64(buf.Len()) > math.MaxUint32 {
		return nil, fmt.Errorf("encoding tiff: output exceeds 4 GiB")
	}
	return buf.Bytes(), nil
}

type ifdPos struct {
	offset  uint32
	nextPtr int
}

type entry struct {
	tag, typ uint16
	count    uint32
	data     []byte
}

// writePage appends one page's strips and IFD to buf.
func writePage(buf *bytes.Buffer, p types.PageImage, index, total int, comp uint16) (ifdPos, error) {
	b := p.Image.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return ifdPos{}, types.NewError(types.ErrInvalidInput, "encode tiff", "page image is empty", nil)
	}

	rgb := toRGB(p.Image)
	rowBytes := width * 3
	rowsPerStrip := stripTarget / rowBytes
	if rowsPerStrip < 1 {
		rowsPerStrip = 1
	}
	if rowsPerStrip > height {
		rowsPerStrip = height
	}

	var offsets, counts []uint32
	for y := 0; y < height; y += rowsPerStrip {
		end := y + rowsPerStrip
		if end > height {
			end = height
		}
		strip, err := compress(rgb[y*rowBytes:end*rowBytes], comp)
		if err != nil {
			return ifdPos{}, err
		}
		if int64(buf.Len())+int64(len(strip)) > math.MaxUint32 {
			return ifdPos{}, fmt.Errorf("output exceeds 4 GiB")
		}
		offsets = append(offsets, uint32(buf.Len()))
		counts = append(counts, uint32(len(strip)))
		buf.Write(strip)
	}
	if buf.Len()%2 == 1 {
		buf.WriteByte(0)
	}

	dpi := uint32(p.DPI)
	if dpi == 0 {
		dpi = 72
	}
	entries := []entry{
		longEntry(tagNewSubfileType, subfilePage),
		longEntry(tagImageWidth, uint32(width)),
		longEntry(tagImageLength, uint32(height)),
		shortsEntry(tagBitsPerSample, 8, 8, 8),
		shortsEntry(tagCompression, comp),
		shortsEntry(tagPhotometric, photometricRGB),
		longsEntry(tagStripOffsets, offsets...),
		shortsEntry(tagSamplesPerPixel, 3),
		longEntry(tagRowsPerStrip, uint32(rowsPerStrip)),
		longsEntry(tagStripByteCounts, counts...),
		rationalEntry(tagXResolution, dpi, 1),
		rationalEntry(tagYResolution, dpi, 1),
		shortsEntry(tagPlanarConfig, 1),
		shortsEntry(tagResolutionUnit, resUnitInch),
		shortsEntry(tagPageNumber, uint16(index), uint16(total)),
		{tag: tagSoftware, typ: dtASCII, count: uint32(len(software)), data: []byte(software)},
	}

	ifdOffset := buf.Len()
	extra := ifdOffset + 2 + 12*len(entries) + 4
	var tail bytes.Buffer

	le := binary.LittleEndian
	var hdr [2]byte
	le.PutUint16(hdr[:], uint16(len(entries)))
	buf.Write(hdr[:])
	for _, e := range entries {
		var rec [12]byte
		le.PutUint16(rec[0:], e.tag)
		le.PutUint16(rec[2:], e.typ)
		le.PutUint32(rec[4:], e.count)
		if len(e.data) <= 4 {
			copy(rec[8:], e.data)
		} else {
			le.PutUint32(rec[8:], uint32(extra+tail.Len()))
			tail.Write(e.data)
			if tail.Len()%2 == 1 {
				tail.WriteByte(0)
			}
		}
		buf.Write(rec[:])
	}
	nextPtr := buf.Len()
	buf.Write([]byte{0, 0, 0, 0})
	buf.Write(tail.Bytes())

	return ifdPos{offset: uint32(ifdOffset), nextPtr: nextPtr}, nil
}

func longEntry(tag uint16, v uint32) entry { return longsEntry(tag, v) }

func longsEntry(tag uint16, vs ...uint32) entry {
	data := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	return entry{tag: tag, typ: dtLong, count: uint32(len(vs)), data: data}
}

func shortsEntry(tag uint16, vs ...uint16) entry {
	data := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(data[2*i:], v)
	}
	return entry{tag: tag, typ: dtShort, count: uint32(len(vs)), data: data}
}

func rationalEntry(tag uint16, num, den uint32) entry {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:], num)
	binary.LittleEndian.PutUint32(data[4:], den)
	return entry{tag: tag, typ: dtRational, count: 1, data: data}
}

func compress(raw []byte, comp uint16) ([]byte, error) {
	switch comp {
	case 1:
		return raw, nil
	case 5:
		return lzwCompress(raw)
	case 8, 32946:
		var out bytes.Buffer
		zw, err := zlib.NewWriterLevel(&out, zlib.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported compression tag %d", comp)
}

// toRGB flattens img into packed 8-bit RGB rows.
func toRGB(img image.Image) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, 0, w*h*3)

	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			for x := 0; x < w; x++ {
				out = append(out, row[4*x], row[4*x+1], row[4*x+2])
			}
		}
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			for x := 0; x < w; x++ {
				out = append(out, row[4*x], row[4*x+1], row[4*x+2])
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				out = append(out, byte(r>>8), byte(g>>8), byte(bl>>8))
			}
		}
	}
	return out
}
