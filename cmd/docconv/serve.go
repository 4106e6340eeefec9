// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docconv/internal/config"
	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/internal/preview"
	"github.com/pdiddy/docconv/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local conversion UI",
	Long: `Serve starts the web UI on the configured address (127.0.0.1:8501 by
default) and runs until interrupted. One conversion runs at a time; a second
submission while one is in progress is rejected with a busy message.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	_ = viper.BindPFlag(config.KeyServerAddr, serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	r, err := newRasterizer(cfg.Raster, logger)
	if err != nil {
		return err
	}
	if detail, err := r.Check(cmd.Context()); err != nil {
		color.New(color.FgYellow).Fprintf(os.Stderr, "! %s: %v\n", r.Name(), err)
		fmt.Fprintln(os.Stderr, "  PDF to TIFF conversions will fail until this is fixed. Run \"docconv doctor\" for details.")
	} else {
		logger.Debug().Str("rasterizer", r.Name()).Str("detail", detail).Msg("rasterizer ready")
	}

	svc := convert.New(r, textLayout(cfg.Layout), logger)
	dispatcher := web.NewDispatcher(svc, logger,
		web.WithPreviewer(preview.Renderer{Rasterizer: r}),
		web.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
	)
	srv, err := web.NewServer(web.Options{
		Dispatcher:     dispatcher,
		Sessions:       web.NewSessionStore(cfg.Defaults),
		Health:         r,
		Backend:        r.Name(),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Version:        version,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, cfg.Server.Addr, func(addr net.Addr) {
		url := "http://" + addr.String() + "/"
		color.New(color.FgGreen, color.Bold).Fprintf(os.Stderr, "docconv %s listening on %s\n", version, url)
		fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop.")
		logger.Info().Str("addr", addr.String()).Str("rasterizer", r.Name()).Msg("server started")
	})
}
