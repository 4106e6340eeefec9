// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/pkg/types"
)

// fakeConverter records requests and returns a canned result or error.
// When block is set it waits for a value before returning.
type fakeConverter struct {
	mu      sync.Mutex
	reqs    []convert.Request
	err     error
	block   chan struct{}
	started chan struct{}
	ctxErr  error
}

func (f *fakeConverter) Convert(ctx context.Context, req convert.Request) (types.ConversionResult, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.ctxErr = ctx.Err()
	f.mu.Unlock()
	if f.err != nil {
		return types.ConversionResult{}, f.err
	}
	out := types.OutputPDF
	if req.Converter == types.ConverterPDFToTIFF {
		out = types.OutputTIFF
	}
	return types.NewConversionResult(req.Document, out, []byte("result-bytes")), nil
}

func (f *fakeConverter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakePreviewer struct {
	png []byte
	err error
}

func (f fakePreviewer) Render(context.Context, types.ConversionResult) ([]byte, error) {
	return f.png, f.err
}

func pdfUpload() Upload {
	return Upload{
		Converter: types.ConverterPDFToTIFF,
		Filename:  "scan.pdf",
		Data:      []byte("%PDF-1.4"),
		Settings:  types.DefaultSettings(),
	}
}

func TestUpload_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Upload)
		wantErr string
	}{
		{name: "valid pdf", mutate: func(*Upload) {}},
		{name: "valid pptx", mutate: func(u *Upload) {
			u.Converter, u.Filename, u.Settings = types.ConverterPPTXToPDF, "Deck.PPTX", types.Settings{}
		}},
		{name: "ppt accepted by presentation converter", mutate: func(u *Upload) {
			u.Converter, u.Filename = types.ConverterPPTXToPDF, "old.ppt"
		}},
		{name: "missing file", mutate: func(u *Upload) { u.Filename = "" }, wantErr: "choose a file"},
		{name: "empty data", mutate: func(u *Upload) { u.Data = nil }, wantErr: "empty"},
		{name: "extension mismatch", mutate: func(u *Upload) { u.Filename = "deck.pptx" }, wantErr: "accepts .pdf"},
		{name: "pdf to presentation converter", mutate: func(u *Upload) {
			u.Converter, u.Filename = types.ConverterPPTXToPDF, "a.pdf"
		}, wantErr: ".ppt or .pptx"},
		{name: "bad dpi", mutate: func(u *Upload) { u.Settings.DPI = 96 }, wantErr: "DPI"},
		{name: "bad compression", mutate: func(u *Upload) { u.Settings.Compression = "jpeg" }, wantErr: "compression"},
		{name: "too large", mutate: func(u *Upload) { u.Data = make([]byte, 11) }, wantErr: "limit"},
		{name: "unknown converter", mutate: func(u *Upload) { u.Converter = "docx-to-pdf" }, wantErr: "valid value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := pdfUpload()
			tt.mutate(&u)
			err := u.Validate(10)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDispatcher_SubmitSuccess(t *testing.T) {
	var states []types.ConversionState
	conv := &fakeConverter{}
	d := NewDispatcher(conv, zerolog.Nop(),
		WithPreviewer(fakePreviewer{png: []byte("png")}),
		WithTransitionHook(func(s types.ConversionState) { states = append(states, s) }),
	)

	out, err := d.Submit(context.Background(), pdfUpload())
	require.NoError(t, err)
	assert.Equal(t, "scan.tiff", out.Result.Filename)
	assert.Equal(t, []byte("png"), out.Preview)
	assert.NoError(t, out.PreviewErr)

	assert.Equal(t, []types.ConversionState{
		types.StateValidating, types.StateConverting, types.StateSucceeded, types.StateIdle,
	}, states)
	assert.Equal(t, types.StateIdle, d.State())

	require.Equal(t, 1, conv.calls())
	assert.Equal(t, types.FormatPDF, conv.reqs[0].Document.Format)
	assert.Equal(t, types.DefaultSettings(), conv.reqs[0].Settings)
}

func TestDispatcher_ValidationFailureSkipsConversion(t *testing.T) {
	var states []types.ConversionState
	conv := &fakeConverter{}
	d := NewDispatcher(conv, zerolog.Nop(),
		WithTransitionHook(func(s types.ConversionState) { states = append(states, s) }))

	u := pdfUpload()
	u.Filename = "deck.pptx"
	_, err := d.Submit(context.Background(), u)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
	assert.Contains(t, types.UserMessage(err), "Invalid input")
	assert.Zero(t, conv.calls())
	assert.Equal(t, []types.ConversionState{types.StateValidating, types.StateFailed, types.StateIdle}, states)
}

func TestDispatcher_ConversionFailure(t *testing.T) {
	var states []types.ConversionState
	convErr := types.NewError(types.ErrUnreadableDocument, "rasterize", "the PDF is encrypted", nil)
	d := NewDispatcher(&fakeConverter{err: convErr}, zerolog.Nop(),
		WithTransitionHook(func(s types.ConversionState) { states = append(states, s) }))

	_, err := d.Submit(context.Background(), pdfUpload())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnreadableDocument))
	assert.Equal(t, []types.ConversionState{
		types.StateValidating, types.StateConverting, types.StateFailed, types.StateIdle,
	}, states)
}

func TestDispatcher_PreviewFailureIsNotFatal(t *testing.T) {
	d := NewDispatcher(&fakeConverter{}, zerolog.Nop(),
		WithPreviewer(fakePreviewer{png: []byte("partial"), err: errors.New("no rasterizer")}))

	out, err := d.Submit(context.Background(), pdfUpload())
	require.NoError(t, err)
	assert.Nil(t, out.Preview)
	assert.Error(t, out.PreviewErr)
	assert.NotEmpty(t, out.Result.Data)
}

func TestDispatcher_RejectsConcurrentSubmit(t *testing.T) {
	conv := &fakeConverter{block: make(chan struct{}), started: make(chan struct{})}
	d := NewDispatcher(conv, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := d.Submit(context.Background(), pdfUpload())
		done <- err
	}()
	<-conv.started
	assert.Equal(t, types.StateConverting, d.State())

	_, err := d.Submit(context.Background(), pdfUpload())
	assert.ErrorIs(t, err, ErrBusy)

	close(conv.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, conv.calls())
	assert.Equal(t, types.StateIdle, d.State())
}

func TestDispatcher_ConversionIgnoresCancellation(t *testing.T) {
	conv := &fakeConverter{block: make(chan struct{}), started: make(chan struct{})}
	d := NewDispatcher(conv, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := d.Submit(ctx, pdfUpload())
		done <- err
	}()
	<-conv.started
	cancel()
	close(conv.block)

	require.NoError(t, <-done)
	conv.mu.Lock()
	defer conv.mu.Unlock()
	assert.NoError(t, conv.ctxErr)
}

func TestDispatcher_MaxUploadBytes(t *testing.T) {
	d := NewDispatcher(&fakeConverter{}, zerolog.Nop(), WithMaxUploadBytes(4))
	_, err := d.Submit(context.Background(), pdfUpload())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}
