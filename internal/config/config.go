// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first if it exists; real
// environment variables take precedence over it. The bubble layout can be
// replaced by a YAML file named in OMR_LAYOUT_FILE.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/omr-grader-mcp/internal/bubbles"
	"github.com/ironsheep/omr-grader-mcp/internal/imaging"
	"github.com/ironsheep/omr-grader-mcp/internal/ocr"
	"github.com/ironsheep/omr-grader-mcp/internal/sheet"
)

// Environment variables.
const (
	EnvLogLevel       = "OMR_MCP_LOG_LEVEL"
	EnvLayoutFile     = "OMR_LAYOUT_FILE"
	EnvCanonicalW     = "OMR_CANONICAL_WIDTH"
	EnvCanonicalH     = "OMR_CANONICAL_HEIGHT"
	EnvDetectMaxDim   = "OMR_DETECT_MAX_DIM"
	EnvGrayMode       = "OMR_GRAY_MODE"
	EnvMultiMark      = "OMR_MULTI_MARK"
	EnvFillThreshold  = "OMR_FILL_THRESHOLD"
	EnvOCRLanguage    = "OMR_OCR_LANGUAGE"
	EnvTessdataPrefix = "OMR_TESSDATA_PREFIX"
)

// Config holds everything the grader needs.
type Config struct {
	LogLevel   string
	LayoutFile string

	Sheet   sheet.Options
	Bubbles bubbles.Options
	Layout  bubbles.Layout
	Header  ocr.HeaderReader
}

// Debug reports whether debug logging is on.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// Default returns the built-in configuration.
func Default() *Config {
	layout := bubbles.DefaultLayout()
	return &Config{
		LogLevel: "info",
		Sheet:    sheet.DefaultOptions(),
		Bubbles:  bubbles.DefaultOptions(),
		Layout:   layout,
		Header:   ocr.HeaderReader{Language: "eng", Fraction: layout.HeaderFraction},
	}
}

// Load builds the configuration from defaults, an optional .env file and
// environment variables.
func Load() (*Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	cfg := Default()
	cfg.LogLevel = getEnvOrDefault(EnvLogLevel, cfg.LogLevel)
	cfg.LayoutFile = os.Getenv(EnvLayoutFile)

	var err error
	if cfg.Sheet.Width, err = getEnvInt(EnvCanonicalW, cfg.Sheet.Width); err != nil {
		return nil, err
	}
	if cfg.Sheet.Height, err = getEnvInt(EnvCanonicalH, cfg.Sheet.Height); err != nil {
		return nil, err
	}
	if cfg.Sheet.DetectMaxDim, err = getEnvInt(EnvDetectMaxDim, cfg.Sheet.DetectMaxDim); err != nil {
		return nil, err
	}

	switch mode := strings.ToLower(os.Getenv(EnvGrayMode)); mode {
	case "":
	case string(imaging.GrayLuma), string(imaging.GrayLab):
		cfg.Sheet.GrayMode = imaging.ParseGrayMode(mode)
	default:
		return nil, fmt.Errorf("invalid %s %q (want luma or lab)", EnvGrayMode, mode)
	}

	if v := os.Getenv(EnvMultiMark); v != "" {
		mm, err := bubbles.ParseMultiMark(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvMultiMark, err)
		}
		cfg.Bubbles.MultiMark = mm
	}

	if v := os.Getenv(EnvFillThreshold); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f >= 1 {
			return nil, fmt.Errorf("invalid %s %q (want a number between 0 and 1)", EnvFillThreshold, v)
		}
		cfg.Bubbles.FillThreshold = f
	}

	cfg.Header.Language = getEnvOrDefault(EnvOCRLanguage, cfg.Header.Language)
	cfg.Header.TessdataPrefix = os.Getenv(EnvTessdataPrefix)

	if cfg.LayoutFile != "" {
		layout, err := LoadLayout(cfg.LayoutFile)
		if err != nil {
			return nil, err
		}
		cfg.Layout = layout
		cfg.Header.Fraction = layout.HeaderFraction
	}

	return cfg, nil
}

// LoadLayout reads a YAML bubble layout. Fields the file leaves out keep
// their DefaultLayout values; unknown fields are an error.
//
//	options: [a, b, c, d, e]
//	bubble_radius: 11
//	header_fraction: 0.15
//	blocks:
//	  - {first_question: 1, rows: 20, left: 90, top: 170, row_pitch: 30, col_pitch: 36}
func LoadLayout(path string) (bubbles.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bubbles.Layout{}, fmt.Errorf("failed to read layout file: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes and validates a YAML bubble layout.
func ParseLayout(data []byte) (bubbles.Layout, error) {
	layout := bubbles.DefaultLayout()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&layout); err != nil {
		return bubbles.Layout{}, fmt.Errorf("failed to parse layout: %w", err)
	}

	layout = layout.Normalized()
	if err := layout.Validate(); err != nil {
		return bubbles.Layout{}, err
	}
	return layout, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q (want a non-negative integer)", key, v)
	}
	return n, nil
}
