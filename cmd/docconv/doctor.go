// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/docconv/internal/raster"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the PDF rasterizer is available",
	Long: `Doctor checks the configured rasterizer backend. With the default
pdftoppm backend it resolves the binary (raster.pdftoppm_path or PATH) and
prints its version. Exits non-zero when the rasterizer is unavailable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRasterizer(cfg.Raster, logger)
		if err != nil {
			return err
		}
		return runDoctor(cmd, r.Name(), r, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, name string, c raster.Checker, w io.Writer) error {
	fmt.Fprintf(w, "Rasterizer: %s\n", name)
	detail, err := c.Check(cmd.Context())
	if err != nil {
		color.New(color.FgRed).Fprintf(w, "  ✗ %v\n", err)
		return fmt.Errorf("rasterizer %s unavailable", name)
	}
	color.New(color.FgGreen).Fprintf(w, "  ✓ %s\n", detail)
	return nil
}
