// Package config loads the viewer configuration from an optional YAML file
// and provides sensible defaults when no file exists.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables that are not per-file view state.
type Config struct {
	Viewer struct {
		// MinZoom and MaxZoom bound the interactive zoom factor.
		MinZoom float64 `yaml:"minZoom"`
		MaxZoom float64 `yaml:"maxZoom"`

		// WheelZoomStep is the multiplicative zoom change per wheel notch.
		WheelZoomStep float64 `yaml:"wheelZoomStep"`

		// DefaultOverlayAlpha is the initial mask overlay opacity in percent.
		DefaultOverlayAlpha int `yaml:"defaultOverlayAlpha"`
	} `yaml:"viewer"`

	WholeSlide struct {
		// OverviewBound caps the whole-slide overview: the finest pyramid
		// level whose larger dimension fits under this bound is shown.
		OverviewBound int `yaml:"overviewBound"`
	} `yaml:"wholeSlide"`

	Logging struct {
		Level string `yaml:"level"`
		// File enables a rotating JSON log file when non-empty.
		File string `yaml:"file"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Viewer.MinZoom = 0.5
	cfg.Viewer.MaxZoom = 10.0
	cfg.Viewer.WheelZoomStep = 1.1
	cfg.Viewer.DefaultOverlayAlpha = 35

	cfg.WholeSlide.OverviewBound = 2048

	cfg.Logging.Level = "info"
	cfg.Logging.File = ""

	return cfg
}

// Load reads configuration from a YAML file. A missing file is not an
// error; the defaults are returned unchanged.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// DefaultPath returns the conventional config location under the user
// config directory (the same directory session presets live in).
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "smiv.yaml"
	}
	return filepath.Join(base, "smiv", "smiv.yaml")
}
