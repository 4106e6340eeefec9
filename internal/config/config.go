// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads docconv settings from defaults, an optional YAML
// config file, DOCCONV_ environment variables and a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/pdiddy/docconv/internal/logging"
	"github.com/pdiddy/docconv/pkg/types"
)

const (
	// Name is the config file base name and the config directory name.
	Name = "docconv"

	// EnvPrefix prefixes every environment override, e.g. DOCCONV_SERVER_ADDR.
	EnvPrefix = "DOCCONV"
)

// Config keys.
const (
	KeyServerAddr         = "server.addr"
	KeyMaxUploadBytes     = "server.max_upload_bytes"
	KeyRasterBackend      = "raster.backend"
	KeyPdftoppmPath       = "raster.pdftoppm_path"
	KeyDefaultDPI         = "defaults.dpi"
	KeyDefaultCompression = "defaults.compression"
	KeyFontSize           = "layout.font_size"
	KeyLineHeight         = "layout.line_height"
	KeyLogLevel           = "log.level"
	KeyLogFormat          = "log.format"
)

// DefaultMaxUploadBytes is the upload limit when none is configured.
const DefaultMaxUploadBytes = 200 << 20

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerAddr, "127.0.0.1:8501")
	v.SetDefault(KeyMaxUploadBytes, DefaultMaxUploadBytes)
	v.SetDefault(KeyRasterBackend, string(types.BackendPdftoppm))
	v.SetDefault(KeyPdftoppmPath, "")
	v.SetDefault(KeyDefaultDPI, int(types.DefaultDPI))
	v.SetDefault(KeyDefaultCompression, string(types.DefaultCompression))
	v.SetDefault(KeyFontSize, 11.0)
	v.SetDefault(KeyLineHeight, 14.0)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, logging.FormatConsole)
}

// Setup points v at the config file and environment. An explicit cfgFile
// wins; otherwise docconv.yaml is searched in the working directory and in
// ~/.config/docconv/.
func Setup(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Read loads the config file if one exists. It returns the path used, or ""
// when no file was found. A file that exists but cannot be parsed is an
// error.
func Read(v *viper.Viper) (string, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes the effective configuration from v and validates it.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}

	// Accept the tiff_-prefixed compression labels in config too.
	comp, err := types.ParseCompression(v.GetString(KeyDefaultCompression))
	if err != nil {
		return types.Config{}, fmt.Errorf("%s: %w", KeyDefaultCompression, err)
	}
	cfg.Defaults.Compression = comp
	cfg.Raster.Backend = types.RasterBackend(strings.ToLower(string(cfg.Raster.Backend)))
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate checks every section of cfg.
func Validate(cfg types.Config) error {
	sections := []struct {
		key string
		err error
	}{
		{"server", validation.ValidateStruct(&cfg.Server,
			validation.Field(&cfg.Server.Addr, validation.Required),
			validation.Field(&cfg.Server.MaxUploadBytes, validation.Required, validation.Min(int64(1))),
		)},
		{"raster", validation.ValidateStruct(&cfg.Raster,
			validation.Field(&cfg.Raster.Backend, validation.Required,
				validation.In(types.BackendPdftoppm, types.BackendMuPDF)),
		)},
		{"defaults", validation.ValidateStruct(&cfg.Defaults,
			validation.Field(&cfg.Defaults.DPI, validation.Required,
				validation.In(types.DPI150, types.DPI300, types.DPI600)),
			validation.Field(&cfg.Defaults.Compression, validation.Required,
				validation.In(types.CompressionDeflate, types.CompressionLZW, types.CompressionAdobeDeflate, types.CompressionNone)),
		)},
		{"layout", validation.ValidateStruct(&cfg.Layout,
			validation.Field(&cfg.Layout.FontSize, validation.Required, validation.Min(4.0), validation.Max(72.0)),
			validation.Field(&cfg.Layout.LineHeight, validation.Required, validation.Min(cfg.Layout.FontSize)),
		)},
		{"log", validation.ValidateStruct(&cfg.Log,
			validation.Field(&cfg.Log.Format, validation.In(logging.FormatConsole, logging.FormatJSON)),
		)},
	}
	for _, s := range sections {
		if s.err != nil {
			return fmt.Errorf("invalid %s config: %w", s.key, s.err)
		}
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	return nil
}
