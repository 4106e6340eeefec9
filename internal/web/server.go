// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package web serves the local conversion UI: one page per converter with
// an upload form, the remembered settings, and the last result with its
// download link and preview.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/pdiddy/docconv/internal/raster"
	"github.com/pdiddy/docconv/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// formOverhead is the multipart framing allowed on top of the upload limit.
const formOverhead = 1 << 20

// Options configure a Server.
type Options struct {
	Dispatcher *Dispatcher
	Sessions   *SessionStore

	// Health reports rasterizer availability on /healthz. Optional.
	Health raster.Checker

	// Backend names the rasterizer shown on /healthz.
	Backend string

	MaxUploadBytes int64
	Version        string
	Logger         zerolog.Logger
}

// Server is the HTTP front end.
type Server struct {
	opts Options
	tmpl *template.Template
	log  zerolog.Logger
}

// NewServer parses the embedded templates and returns a Server.
func NewServer(opts Options) (*Server, error) {
	if opts.Dispatcher == nil || opts.Sessions == nil {
		return nil, errors.New("web: dispatcher and session store are required")
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"bytes": func(n int) string { return humanize.IBytes(uint64(n)) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{opts: opts, tmpl: tmpl, log: opts.Logger}, nil
}

// Routes returns the router with logging and recovery middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.log))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, took time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("took", took).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, toolPath(types.ConverterPPTXToPDF), http.StatusFound)
	})
	r.Get("/healthz", s.handleHealth)

	r.Route("/tools/{converter}", func(r chi.Router) {
		r.Get("/", s.handleTool)
		r.Post("/convert", s.handleConvert)
		r.Get("/download", s.handleDownload)
		r.Get("/preview.png", s.handlePreview)
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully. ready, when non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr())
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func toolPath(c types.Converter) string { return "/tools/" + string(c) }
