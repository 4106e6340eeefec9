// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package multitiff

import (
	"bytes"

	hlzw "github.com/hhrutter/lzw"
)

// lzwCompress encodes src as one TIFF LZW strip: MSB-first codes with the
// code width growing one code early.
func lzwCompress(src []byte) ([]byte, error) {
	var out bytes.Buffer
	w := hlzw.NewWriter(&out, true)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
