// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/docconv/internal/raster"
	"github.com/pdiddy/docconv/internal/raster/mupdf"
	"github.com/pdiddy/docconv/internal/textpdf"
	"github.com/pdiddy/docconv/pkg/types"
)

// rasterBackend is the rasterizer selected by configuration.
type rasterBackend interface {
	raster.Rasterizer
	raster.Checker
}

// newRasterizer builds the backend named by cfg.Raster.Backend.
func newRasterizer(c types.RasterConfig, log zerolog.Logger) (rasterBackend, error) {
	switch c.Backend {
	case types.BackendPdftoppm, "":
		return raster.NewPdftoppm(c.PdftoppmPath, log), nil
	case types.BackendMuPDF:
		return mupdf.New(log), nil
	default:
		return nil, fmt.Errorf("unknown raster backend %q", c.Backend)
	}
}

// textLayout applies the configured font metrics to the default page.
func textLayout(c types.LayoutConfig) textpdf.Layout {
	l := textpdf.DefaultLayout()
	if c.FontSize > 0 {
		l.FontSize = c.FontSize
	}
	if c.LineHeight > 0 {
		l.LineHeight = c.LineHeight
	}
	return l
}
