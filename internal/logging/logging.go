// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zerolog logger shared by docconv components.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/docconv/pkg/types"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"

	service = "docconv"
)

// New returns a logger writing to out (stderr when nil) at the configured
// level and format.
func New(cfg types.LogConfig, out io.Writer) (zerolog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(cfg.Format) {
	case FormatConsole, "":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q (supported: %s, %s)", cfg.Format, FormatConsole, FormatJSON)
	}

	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", service).
		Logger(), nil
}

// ParseLevel maps a level name to a zerolog level. An empty name is info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
