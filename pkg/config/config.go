// Package config provides configuration loading and management for naparij.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"naparij/pkg/colormap"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Bridge parameters
	Bridge struct {
		// ChannelColors is the positional colour palette for image channels
		ChannelColors []string `yaml:"channelColors"`

		// PointSize is the display size of imported points
		PointSize float64 `yaml:"pointSize"`

		// Colormaps are the point colormaps cycled through
		Colormaps []string `yaml:"colormaps"`

		// ConfidenceColumns are the candidate confidence headings, in priority order
		ConfidenceColumns []string `yaml:"confidenceColumns"`

		// ScreenshotMaxWidth downsizes wider screenshots; 0 disables it
		ScreenshotMaxWidth uint `yaml:"screenshotMaxWidth"`
	} `yaml:"bridge"`

	// Log parameters
	Log struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`

		// File is the log file path; empty logs to stderr
		File string `yaml:"file"`

		// MaxSizeMB is the size at which the log file is rotated
		MaxSizeMB int `yaml:"maxSizeMB"`

		// MaxBackups is the number of rotated files kept
		MaxBackups int `yaml:"maxBackups"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Bridge.ChannelColors = append([]string(nil), colormap.ChannelPalette...)
	cfg.Bridge.PointSize = 3
	cfg.Bridge.Colormaps = colormap.Names()
	cfg.Bridge.ConfidenceColumns = []string{"V", "Confidence", "confidence", "Score", "Value"}
	cfg.Bridge.ScreenshotMaxWidth = 0

	cfg.Log.Level = "info"
	cfg.Log.MaxSizeMB = 10
	cfg.Log.MaxBackups = 3

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail later
func (c *Config) Validate() error {
	if len(c.Bridge.ChannelColors) == 0 {
		return fmt.Errorf("bridge.channelColors must not be empty")
	}
	for _, name := range c.Bridge.Colormaps {
		if _, err := colormap.Get(name); err != nil {
			return fmt.Errorf("bridge.colormaps: %w", err)
		}
	}
	if c.Bridge.PointSize <= 0 {
		return fmt.Errorf("bridge.pointSize must be positive, got %g", c.Bridge.PointSize)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name onto a slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
