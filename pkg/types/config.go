// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ServerConfig holds settings for the local web UI.
type ServerConfig struct {
	// Addr is the listen address (default 127.0.0.1:8501).
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// MaxUploadBytes caps the size of one uploaded file (default 200 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// RasterBackend identifies the PDF rasterization tool.
type RasterBackend string

const (
	BackendPdftoppm RasterBackend = "pdftoppm"
	BackendMuPDF    RasterBackend = "mupdf"
)

// RasterConfig holds settings for the PDF rasterizer.
type RasterConfig struct {
	// Backend selects the rasterizer: pdftoppm or mupdf.
	Backend RasterBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// PdftoppmPath overrides the PATH lookup for the pdftoppm binary.
	PdftoppmPath string `json:"pdftoppm_path,omitempty" yaml:"pdftoppm_path,omitempty" mapstructure:"pdftoppm_path"`
}

// LayoutConfig holds the text flow settings for the PowerPoint to PDF writer.
type LayoutConfig struct {
	// FontSize is the body font size in points (default 11).
	FontSize float64 `json:"font_size" yaml:"font_size" mapstructure:"font_size"`

	// LineHeight is the distance between baselines in points (default 14).
	LineHeight float64 `json:"line_height" yaml:"line_height" mapstructure:"line_height"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all docconv settings.
type Config struct {
	Server   ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
	Raster   RasterConfig `json:"raster" yaml:"raster" mapstructure:"raster"`
	Defaults Settings     `json:"defaults" yaml:"defaults" mapstructure:"defaults"`
	Layout   LayoutConfig `json:"layout" yaml:"layout" mapstructure:"layout"`
	Log      LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}
