// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"

	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/pkg/types"
)

// ErrBusy is returned when a conversion is submitted while another one is
// still running. Requests are not queued.
var ErrBusy = errors.New("another conversion is already running")

// Converter runs one conversion request.
type Converter interface {
	Convert(ctx context.Context, req convert.Request) (types.ConversionResult, error)
}

// Previewer renders the first page of a result as a PNG.
type Previewer interface {
	Render(ctx context.Context, res types.ConversionResult) ([]byte, error)
}

// Upload is one submitted form: the chosen converter, the uploaded file and
// the settings shown next to it.
type Upload struct {
	Converter types.Converter
	Filename  string
	Data      []byte
	Settings  types.Settings
}

// Validate checks the upload against the converter it was sent to. Settings
// are only checked for the PDF to TIFF converter, the only one using them.
func (u Upload) Validate(maxBytes int64) error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Converter,
			validation.Required,
			validation.In(types.ConverterPPTXToPDF, types.ConverterPDFToTIFF),
		),
		validation.Field(&u.Filename,
			validation.Required.Error("choose a file to upload"),
			validation.By(extensionRule(u.Converter)),
		),
		validation.Field(&u.Data,
			validation.Required.Error("the uploaded file is empty"),
			validation.By(sizeRule(maxBytes)),
		),
		validation.Field(&u.Settings,
			validation.When(u.Converter == types.ConverterPDFToTIFF, validation.By(settingsRule)),
		),
	)
}

func extensionRule(c types.Converter) validation.RuleFunc {
	return func(value interface{}) error {
		name, _ := value.(string)
		ext := strings.ToLower(filepath.Ext(name))
		for _, want := range c.Extensions() {
			if ext == want {
				return nil
			}
		}
		return fmt.Errorf("%s accepts %s files, got %q", c.Title(), strings.Join(c.Extensions(), " or "), filepath.Base(name))
	}
}

func sizeRule(maxBytes int64) validation.RuleFunc {
	return func(value interface{}) error {
		data, _ := value.([]byte)
		if maxBytes > 0 && int64(len(data)) > maxBytes {
			return fmt.Errorf("the file is larger than the %s limit", humanize.IBytes(uint64(maxBytes)))
		}
		return nil
	}
}

func settingsRule(value interface{}) error {
	s, _ := value.(types.Settings)
	if !s.DPI.Valid() {
		return fmt.Errorf("DPI must be one of 150, 300 or 600")
	}
	if !s.Compression.Valid() {
		return fmt.Errorf("compression must be one of deflate, lzw, adobe_deflate or none")
	}
	return nil
}

// Outcome is a finished conversion together with its preview.
type Outcome struct {
	Result types.ConversionResult

	// Preview is a PNG of the first page, or nil when PreviewErr is set.
	Preview    []byte
	PreviewErr error

	Took time.Duration
}

// Dispatcher validates uploads and runs one conversion at a time. Its state
// moves Idle, Validating, Converting, then Succeeded or Failed, and always
// returns to Idle when Submit returns.
type Dispatcher struct {
	conv     Converter
	preview  Previewer
	maxBytes int64
	log      zerolog.Logger

	// run is held for the whole of a conversion.
	run sync.Mutex

	mu           sync.RWMutex
	state        types.ConversionState
	onTransition func(types.ConversionState)
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithPreviewer renders a preview after every successful conversion.
func WithPreviewer(p Previewer) DispatcherOption {
	return func(d *Dispatcher) { d.preview = p }
}

// WithMaxUploadBytes caps the accepted upload size.
func WithMaxUploadBytes(n int64) DispatcherOption {
	return func(d *Dispatcher) { d.maxBytes = n }
}

// WithTransitionHook calls fn with every state the dispatcher enters.
func WithTransitionHook(fn func(types.ConversionState)) DispatcherOption {
	return func(d *Dispatcher) { d.onTransition = fn }
}

// NewDispatcher returns an idle Dispatcher.
func NewDispatcher(conv Converter, logger zerolog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{conv: conv, log: logger, state: types.StateIdle}
	for _, o := range opts {
		o(d)
	}
	return d
}

// State returns the current state.
func (d *Dispatcher) State() types.ConversionState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Dispatcher) enter(s types.ConversionState) {
	d.mu.Lock()
	d.state = s
	hook := d.onTransition
	d.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

// Submit validates u and, if valid, converts it. It fails with ErrBusy when
// another conversion is running. Once started, a conversion runs to the end
// even if ctx is canceled.
func (d *Dispatcher) Submit(ctx context.Context, u Upload) (Outcome, error) {
	if !d.run.TryLock() {
		return Outcome{}, ErrBusy
	}
	defer d.run.Unlock()
	defer d.enter(types.StateIdle)

	start := time.Now()
	d.enter(types.StateValidating)
	if err := u.Validate(d.maxBytes); err != nil {
		d.enter(types.StateFailed)
		return Outcome{}, types.NewError(types.ErrInvalidInput, "validate upload", validationMessage(err), err)
	}
	doc, err := types.NewUploadedDocument(u.Filename, u.Data)
	if err != nil {
		d.enter(types.StateFailed)
		return Outcome{}, err
	}

	d.enter(types.StateConverting)
	ctx = context.WithoutCancel(ctx)
	res, err := d.conv.Convert(ctx, convert.Request{Converter: u.Converter, Document: doc, Settings: u.Settings})
	if err != nil {
		d.enter(types.StateFailed)
		return Outcome{}, err
	}
	d.enter(types.StateSucceeded)

	out := Outcome{Result: res}
	if d.preview != nil {
		out.Preview, out.PreviewErr = d.preview.Render(ctx, res)
		if out.PreviewErr != nil {
			out.Preview = nil
			d.log.Warn().Err(out.PreviewErr).Str("file", res.Filename).Msg("preview not available")
		}
	}
	out.Took = time.Since(start)
	return out, nil
}

// validationMessage flattens ozzo field errors into one sentence, in a
// stable field order.
func validationMessage(err error) string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	var parts []string
	for _, field := range []string{"Filename", "Data", "Converter", "Settings"} {
		if e, ok := errs[field]; ok {
			parts = append(parts, e.Error())
		}
	}
	if len(parts) == 0 {
		return err.Error()
	}
	return strings.Join(parts, "; ")
}
