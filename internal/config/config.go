// Package config loads ppmfill settings.
//
// Settings are resolved in increasing priority: built-in defaults, an
// optional YAML file named by PPMFILL_CONFIG, then individual environment
// variables. A .env file in the working directory is loaded into the
// environment first when present; variables already set are not overridden.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/ppmfill/internal/raster"
)

// Environment variable names.
const (
	EnvConfigFile  = "PPMFILL_CONFIG"
	EnvLogLevel    = "PPMFILL_LOG_LEVEL"
	EnvLogFile     = "PPMFILL_LOG_FILE"
	EnvMaxPixels   = "PPMFILL_MAX_PIXELS"
	EnvPreviewSize = "PPMFILL_PREVIEW_SIZE"
)

// Config holds all runtime settings.
type Config struct {
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	MaxPixels   int    `yaml:"max_pixels"`   // largest width*height accepted on decode
	PreviewSize int    `yaml:"preview_size"` // longest edge of PNG previews
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:    "info",
		MaxPixels:   raster.DefaultMaxPixels,
		PreviewSize: 512,
	}
}

// Load resolves the configuration from .env, the optional YAML file and the
// environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c Config) Validate() error {
	if c.MaxPixels <= 0 {
		return fmt.Errorf("max_pixels must be positive, got %d", c.MaxPixels)
	}
	if c.PreviewSize <= 0 {
		return fmt.Errorf("preview_size must be positive, got %d", c.PreviewSize)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.LogFile = v
	}
	if err := envInt(EnvMaxPixels, &c.MaxPixels); err != nil {
		return err
	}
	return envInt(EnvPreviewSize, &c.PreviewSize)
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}
