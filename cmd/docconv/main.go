// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docconv CLI. docconv serves a
// local web UI that converts PowerPoint presentations to text-flow PDFs and
// PDFs to multi-page TIFFs.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docconv/internal/config"
	"github.com/pdiddy/docconv/internal/logging"
	"github.com/pdiddy/docconv/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the effective configuration, loaded before every command.
	cfg types.Config

	// logger is built from cfg.Log.
	logger zerolog.Logger
)

// rootCmd is the base command for the docconv CLI.
var rootCmd = &cobra.Command{
	Use:   "docconv",
	Short: "Local PowerPoint to PDF and PDF to TIFF converter",
	Long: `docconv runs a small web UI on this machine with two tools:

  PowerPoint to PDF  extracts the text of every slide and reflows it onto
                     plain pages. Layout, images and styling are not kept.
  PDF to TIFF        rasterizes every page at 150, 300 or 600 DPI and stores
                     them in one multi-page TIFF.

PDF rasterization uses poppler's pdftoppm by default; run "docconv doctor"
to check that it is installed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if len(dotenvKeys) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded .env: %s\n", strings.Join(dotenvKeys, ", "))
		}
		c, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		l, err := logging.New(c.Log, os.Stderr)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
}

// dotenvKeys lists the DOCCONV_ variables applied from .env.
var dotenvKeys []string

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docconv.yaml or ~/.config/docconv/docconv.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with DOCCONV_ overrides")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")

	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	envFile, _ := rootCmd.PersistentFlags().GetString("env-file")
	keys, err := config.LoadDotEnv(envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	dotenvKeys = keys

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	config.Setup(viper.GetViper(), cfgFile)

	used, err := config.Read(viper.GetViper())
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	} else if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
