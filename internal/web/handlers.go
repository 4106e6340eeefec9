// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/pdiddy/docconv/pkg/types"
)

// pageData feeds templates/page.html.
type pageData struct {
	Version      string
	Converters   []types.Converter
	Current      types.Converter
	Accept       string
	Settings     types.Settings
	DPIs         []types.DPI
	Compressions []types.Compression
	MaxUpload    string
	Flashes      []Flash
	Result       *types.ConversionResult
	HasPreview   bool
	PreviewNote  string
}

// converterParam resolves the {converter} URL parameter.
func converterParam(r *http.Request) (types.Converter, bool) {
	c, err := types.ParseConverter(chi.URLParam(r, "converter"))
	return c, err == nil
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	conv, ok := converterParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	id := s.opts.Sessions.Open(w, r)
	flashes := s.opts.Sessions.PopFlashes(id)
	sess := s.opts.Sessions.Get(id)

	data := pageData{
		Version:      s.opts.Version,
		Converters:   types.Converters,
		Current:      conv,
		Accept:       strings.Join(conv.Extensions(), ","),
		Settings:     sess.Settings,
		DPIs:         types.DPIs,
		Compressions: types.Compressions,
		MaxUpload:    humanize.IBytes(uint64(s.opts.MaxUploadBytes)),
		Flashes:      flashes,
	}
	if out, ok := sess.Output(conv); ok {
		data.Result = &out.Result
		data.HasPreview = len(out.Preview) > 0
		data.PreviewNote = out.PreviewNote
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.tmpl.ExecuteTemplate(w, "page.html", data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("rendering page")
	}
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	conv, ok := converterParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	id := s.opts.Sessions.Open(w, r)
	back := func() { http.Redirect(w, r, toolPath(conv), http.StatusSeeOther) }
	log := hlog.FromRequest(r)

	upload, err := s.readUpload(w, r, conv, s.opts.Sessions.Get(id).Settings)
	if err != nil {
		log.Warn().Err(err).Msg("rejected upload")
		s.opts.Sessions.AddFlash(id, FlashError, userMessage(err))
		back()
		return
	}

	if conv == types.ConverterPDFToTIFF && upload.Settings.DPI.Valid() && upload.Settings.Compression.Valid() {
		s.opts.Sessions.Update(id, func(sess *Session) { sess.Settings = upload.Settings })
	}

	out, err := s.opts.Dispatcher.Submit(r.Context(), upload)
	if err != nil {
		log.Warn().Err(err).Str("file", upload.Filename).Msg("conversion failed")
		s.opts.Sessions.AddFlash(id, FlashError, userMessage(err))
		back()
		return
	}

	res := out.Result
	saved := Output{Result: res, Preview: out.Preview}
	if out.PreviewErr != nil {
		saved.PreviewNote = "Preview not available: " + userMessage(out.PreviewErr)
	}
	s.opts.Sessions.Update(id, func(sess *Session) {
		sess.SetOutput(conv, saved)
		sess.Flashes = append(sess.Flashes, Flash{
			Kind:    FlashSuccess,
			Message: fmt.Sprintf("Converted %s to %s (%s).", upload.Filename, res.Filename, humanize.IBytes(uint64(res.Size()))),
		})
	})
	back()
}

// readUpload parses the multipart form. Settings fields missing from the
// form keep the session's values.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, conv types.Converter, current types.Settings) (Upload, error) {
	limit := s.opts.MaxUploadBytes
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return Upload{}, types.NewError(types.ErrInvalidInput, "upload",
				"the file is larger than the "+humanize.IBytes(uint64(limit))+" limit", err)
		}
		return Upload{}, types.NewError(types.ErrInvalidInput, "upload", "the upload could not be read", err)
	}
	defer r.MultipartForm.RemoveAll()

	u := Upload{Converter: conv, Settings: current}
	if v := r.FormValue("dpi"); v != "" {
		n, _ := strconv.Atoi(v)
		u.Settings.DPI = types.DPI(n)
	}
	if v := r.FormValue("compression"); v != "" {
		c, err := types.ParseCompression(v)
		if err != nil {
			c = types.Compression(v)
		}
		u.Settings.Compression = c
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return u, nil
		}
		return Upload{}, types.NewError(types.ErrInvalidInput, "upload", "the upload could not be read", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, types.NewError(types.ErrInvalidInput, "upload", "the upload could not be read", err)
	}
	u.Filename = hdr.Filename
	u.Data = data
	return u, nil
}

// output returns the session's last output for the {converter} parameter.
func (s *Server) output(w http.ResponseWriter, r *http.Request) (Output, bool) {
	conv, ok := converterParam(r)
	if !ok {
		return Output{}, false
	}
	id := s.opts.Sessions.Open(w, r)
	return s.opts.Sessions.Get(id).Output(conv)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	out, ok := s.output(w, r)
	if !ok {
		http.Error(w, "no conversion result to download", http.StatusNotFound)
		return
	}
	res := out.Result
	w.Header().Set("Content-Type", res.MIMEType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(res.Size()))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(res.Data)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	out, ok := s.output(w, r)
	if !ok || len(out.Preview) == 0 {
		http.Error(w, "no preview available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(out.Preview)
}

type healthResponse struct {
	Status     string `json:"status"`
	State      string `json:"state"`
	Rasterizer string `json:"rasterizer,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Version    string `json:"version,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "ok",
		State:      string(s.opts.Dispatcher.State()),
		Rasterizer: s.opts.Backend,
		Version:    s.opts.Version,
	}
	code := http.StatusOK
	if s.opts.Health != nil {
		desc, err := s.opts.Health.Check(r.Context())
		if err != nil {
			resp.Status = "degraded"
			resp.Detail = userMessage(err)
			code = http.StatusServiceUnavailable
		} else {
			resp.Detail = desc
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// userMessage is the text shown for err in the UI.
func userMessage(err error) string {
	if errors.Is(err, ErrBusy) {
		return "Another conversion is still running. Wait for it to finish and try again."
	}
	return types.UserMessage(err)
}
