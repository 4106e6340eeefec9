// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package multitiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/tiff"
)

// maxPages bounds the IFD walk so a looping chain cannot run forever.
const maxPages = 1 << 16

// PageOffsets returns the file offset of every IFD in data, in chain order.
func PageOffsets(data []byte) ([]uint32, binary.ByteOrder, error) {
	if len(data) < 8 {
		return nil, nil, errors.New("tiff: file too short")
	}
	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, nil, errors.New("tiff: bad byte order marker")
	}
	if order.Uint16(data[2:]) != 42 {
		return nil, nil, errors.New("tiff: bad magic number")
	}

	var offsets []uint32
	seen := map[uint32]bool{}
	off := order.Uint32(data[4:])
	for off != 0 {
		if seen[off] || len(offsets) >= maxPages {
			return nil, nil, errors.New("tiff: IFD chain loops")
		}
		seen[off] = true
		if int64(off)+2 > int64(len(data)) {
			return nil, nil, fmt.Errorf("tiff: IFD offset %d out of range", off)
		}
		n := int64(order.Uint16(data[off:]))
		next := int64(off) + 2 + 12*n
		if next+4 > int64(len(data)) {
			return nil, nil, fmt.Errorf("tiff: IFD at %d is truncated", off)
		}
		offsets = append(offsets, off)
		off = order.Uint32(data[next:])
	}
	return offsets, order, nil
}

// DecodeAll decodes every page of a multi-page TIFF in file order.
func DecodeAll(data []byte) ([]image.Image, error) {
	offsets, order, err := PageOffsets(data)
	if err != nil {
		return nil, err
	}
	pages := make([]image.Image, 0, len(offsets))
	for i, off := range offsets {
		img, err := tiff.Decode(newPageReader(data, order, off))
		if err != nil {
			return nil, fmt.Errorf("decoding page %d: %w", i+1, err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// DecodeFirst decodes only the first page.
func DecodeFirst(data []byte) (image.Image, error) {
	return tiff.Decode(newPageReader(data, nil, 0))
}

// pageReader presents data with its first-IFD pointer redirected to one
// page, so a single-page decoder reads that page. Strip offsets are
// absolute, so nothing else has to move.
type pageReader struct {
	data []byte
	head [8]byte
	pos  int64
}

func newPageReader(data []byte, order binary.ByteOrder, off uint32) *pageReader {
	r := &pageReader{data: data}
	copy(r.head[:], data)
	if order != nil {
		order.PutUint32(r.head[4:], off)
	}
	return r
}

func (r *pageReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("tiff: negative offset")
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if off < int64(len(r.head)) {
		copy(p, r.head[off:])
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (r *pageReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}
