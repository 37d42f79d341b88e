package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/barch.go/pkg/compress/barch"
	"gopkg.in/yaml.v2"
)

// Config is the on-disk configuration of barchctl.
type Config struct {
	Log     Log     `yaml:"log"`
	Codec   Codec   `yaml:"codec"`
	Catalog Catalog `yaml:"catalog"`
}

// Log configures the slog handler and optional rotated log file.
type Log struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Codec configures the packed encoder and decoder.
type Codec struct {
	Axis              string `yaml:"axis"`
	LegacyTrailingRun bool   `yaml:"legacy_trailing_run"`
	LegacySentinel    bool   `yaml:"legacy_sentinel"`
	// Strict turns decode parity warnings into failures.
	Strict bool `yaml:"strict"`
}

// Catalog configures directory processing.
type Catalog struct {
	Workers       int    `yaml:"workers"`
	BitmapExt     string `yaml:"bitmap_ext"`
	CompressedExt string `yaml:"compressed_ext"`
}

// Defaults returns the built in configuration.
func Defaults() Config {
	return Config{
		Log: Log{
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Codec: Codec{Axis: barch.AxisColumns.String()},
		Catalog: Catalog{
			Workers:       4,
			BitmapExt:     ".bmp",
			CompressedExt: barch.Extension,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read configuration file '%s': %w", path, err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse configuration file '%s': %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, leaving fields absent from data untouched,
// then validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		var te *yaml.TypeError
		if errors.As(err, &te) {
			return fmt.Errorf("invalid fields: %s", strings.Join(te.Errors, "; "))
		}
		return err
	}
	return cfg.Validate()
}

// Validate checks values that YAML typing cannot.
func (c *Config) Validate() error {
	if _, err := barch.ParseAxis(c.Codec.Axis); err != nil {
		return err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.Catalog.Workers < 1 {
		return fmt.Errorf("catalog workers must be positive, got %d", c.Catalog.Workers)
	}
	for _, ext := range []string{c.Catalog.BitmapExt, c.Catalog.CompressedExt} {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	if strings.EqualFold(c.Catalog.BitmapExt, c.Catalog.CompressedExt) {
		return fmt.Errorf("bitmap and compressed extensions are both %q", c.Catalog.BitmapExt)
	}
	return nil
}

// SlogLevel returns the parsed log level, INFO when unparsable.
func (l Log) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Options converts the codec settings for pkg/compress/barch.
func (c Codec) Options() (*barch.Options, error) {
	axis, err := barch.ParseAxis(c.Axis)
	if err != nil {
		return nil, err
	}
	return &barch.Options{
		Axis:              axis,
		LegacyTrailingRun: c.LegacyTrailingRun,
		LegacySentinel:    c.LegacySentinel,
	}, nil
}

// Marshal renders cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(&c)
}
