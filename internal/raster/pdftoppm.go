// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/docconv/pkg/types"
)

const (
	binPdftoppm = "pdftoppm"

	installHint = "pdftoppm was not found. Install poppler (apt install poppler-utils, " +
		"brew install poppler) or set raster.pdftoppm_path"
)

// Pdftoppm rasterizes PDFs by running poppler's pdftoppm in a scratch
// directory.
type Pdftoppm struct {
	// bin is the configured binary name or path.
	bin  string
	exec executor
	log  zerolog.Logger
}

// NewPdftoppm returns a backend that runs bin, or pdftoppm from PATH when
// bin is empty.
func NewPdftoppm(bin string, logger zerolog.Logger) *Pdftoppm {
	return newPdftoppm(bin, defaultExec, logger)
}

func newPdftoppm(bin string, exec executor, logger zerolog.Logger) *Pdftoppm {
	if bin == "" {
		bin = binPdftoppm
	}
	return &Pdftoppm{bin: bin, exec: exec, log: logger.With().Str("backend", binPdftoppm).Logger()}
}

var (
	_ Rasterizer          = (*Pdftoppm)(nil)
	_ FirstPageRasterizer = (*Pdftoppm)(nil)
	_ Checker             = (*Pdftoppm)(nil)
)

func (p *Pdftoppm) Name() string { return binPdftoppm }

// resolve returns the absolute path of the binary.
func (p *Pdftoppm) resolve() (string, error) {
	path, err := p.exec.LookPath(p.bin)
	if err != nil {
		return "", types.NewError(types.ErrRasterizationUnavailable, opRasterize, installHint, err)
	}
	return path, nil
}

// Check verifies that pdftoppm is installed and reports its version.
func (p *Pdftoppm) Check(ctx context.Context) (string, error) {
	path, err := p.resolve()
	if err != nil {
		return "", err
	}
	// pdftoppm -v prints its version to stderr.
	out, err := p.exec.Run(ctx, path, "-v")
	if err != nil {
		return "", types.NewError(types.ErrRasterizationUnavailable, opRasterize,
			fmt.Sprintf("%s is installed but does not run", path), err)
	}
	version := firstLine(string(out))
	if version == "" {
		return path, nil
	}
	return path + " (" + version + ")", nil
}

// Rasterize renders every page of pdf.
func (p *Pdftoppm) Rasterize(ctx context.Context, pdf []byte, dpi types.DPI) ([]types.PageImage, error) {
	return p.render(ctx, pdf, dpi, false)
}

// RasterizeFirst renders page one only.
func (p *Pdftoppm) RasterizeFirst(ctx context.Context, pdf []byte, dpi types.DPI) (types.PageImage, error) {
	pages, err := p.render(ctx, pdf, dpi, true)
	if err != nil {
		return types.PageImage{}, err
	}
	if len(pages) == 0 {
		return types.PageImage{}, unreadable("the PDF has no pages", nil)
	}
	return pages[0], nil
}

func (p *Pdftoppm) render(ctx context.Context, pdf []byte, dpi types.DPI, firstOnly bool) ([]types.PageImage, error) {
	if !dpi.Valid() {
		return nil, types.NewError(types.ErrInvalidInput, opRasterize, fmt.Sprintf("unsupported DPI %d", dpi), nil)
	}
	bin, err := p.resolve()
	if err != nil {
		return nil, err
	}
	count, err := PageCount(pdf)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []types.PageImage{}, nil
	}
	want := count
	if firstOnly {
		want = 1
	}

	dir, err := os.MkdirTemp("", "docconv-raster-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("writing scratch PDF: %w", err)
	}
	prefix := filepath.Join(dir, "page")

	args := []string{"-r", dpi.String(), "-png"}
	if firstOnly {
		args = append(args, "-f", "1", "-l", "1")
	}
	args = append(args, in, prefix)

	start := time.Now()
	p.log.Debug().Str("bin", bin).Strs("args", args).Int("pages", want).Msg("running pdftoppm")
	if _, err := p.exec.Run(ctx, bin, args...); err != nil {
		return nil, mapExitError(err)
	}

	files, err := pageFiles(dir, "page")
	if err != nil {
		return nil, err
	}
	if len(files) != want {
		return nil, unreadable(fmt.Sprintf("expected %d pages, pdftoppm produced %d", want, len(files)), nil)
	}

	pages := make([]types.PageImage, 0, len(files))
	for i, f := range files {
		img, err := decodePNG(f)
		if err != nil {
			return nil, fmt.Errorf("reading rendered page %d: %w", i+1, err)
		}
		pages = append(pages, NewPageImage(i+1, img, dpi))
	}
	p.log.Debug().Int("pages", len(pages)).Dur("took", time.Since(start)).Msg("pdftoppm finished")
	return pages, nil
}

// mapExitError classifies a failed pdftoppm run. Exit status 1 means the
// PDF could not be opened and 3 means it is protected.
func mapExitError(err error) error {
	var ee *ExitError
	if errors.As(err, &ee) {
		switch ee.Code {
		case 1:
			return unreadable("pdftoppm could not open the PDF", err)
		case 3:
			return unreadable("the PDF does not permit rendering", err)
		}
	}
	return fmt.Errorf("running pdftoppm: %w", err)
}

// pageFiles returns dir's "<prefix>-N.png" files sorted by N. pdftoppm
// zero-pads N to the width of the last page number.
func pageFiles(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing rendered pages: %w", err)
	}
	type numbered struct {
		n    int
		path string
	}
	var found []numbered
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".png") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix+"-"), ".png"))
		if err != nil {
			continue
		}
		found = append(found, numbered{n: n, path: filepath.Join(dir, name)})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	paths := make([]string, len(found))
	for i, f := range found {
		paths[i] = f.path
	}
	return paths, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
