// Package config loads imgconv settings from a YAML file, an optional .env
// file and IMGCONV_* environment variables, in that order of precedence
// from lowest to highest. Command-line flags are applied on top by cmd.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/AnyUserName/imgconv/internal/format"
	"github.com/AnyUserName/imgconv/internal/preset"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no explicit path is given and it exists.
const DefaultFile = "imgconv.yaml"

const envPrefix = "IMGCONV_"

type Config struct {
	// Preset names the starting parameters for new items.
	Preset string `yaml:"preset"`
	// Format, Quality, Width and Height override the preset when set.
	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`

	Workers      int    `yaml:"workers"`
	OutDir       string `yaml:"out_dir"`
	Dedupe       bool   `yaml:"dedupe"`
	BusyAdvisory bool   `yaml:"busy_advisory"`
	LogLevel     string `yaml:"log_level"`

	Presets map[string]preset.Preset `yaml:"presets"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Preset:   "default",
		Workers:  runtime.NumCPU(),
		OutDir:   "converted",
		LogLevel: "info",
	}
}

// Loader reads configuration from its sources.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for path. An empty path means DefaultFile if
// it exists, otherwise defaults only.
func NewLoader(path string) *Loader {
	return &Loader{path: path, useDotEnv: true}
}

// WithDotEnv toggles loading a .env file from the working directory.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Load merges all sources and validates the result.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := Default()

	path := l.path
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Preset = getEnv("PRESET", c.Preset)
	c.Format = getEnv("FORMAT", c.Format)
	c.Quality = getEnvInt("QUALITY", c.Quality)
	c.Width = getEnvInt("WIDTH", c.Width)
	c.Height = getEnvInt("HEIGHT", c.Height)
	c.Workers = getEnvInt("WORKERS", c.Workers)
	c.OutDir = getEnv("OUT_DIR", c.OutDir)
	c.Dedupe = getEnvBool("DEDUPE", c.Dedupe)
	c.BusyAdvisory = getEnvBool("BUSY_ADVISORY", c.BusyAdvisory)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate checks values that would otherwise fail later in a confusing way.
func (c *Config) Validate() error {
	if c.Format != "" {
		if _, err := format.Parse(c.Format); err != nil {
			return fmt.Errorf("config format: %w", err)
		}
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// PresetSet builds the preset registry including configured presets.
func (c *Config) PresetSet() (*preset.Set, error) {
	return preset.NewSet(c.Presets)
}

// Overlay returns the named preset with the Format, Quality, Width and
// Height overrides applied.
func (c *Config) Overlay(p preset.Preset) preset.Preset {
	if c.Format != "" {
		p.Format = format.Code(c.Format)
	}
	if c.Quality != 0 {
		p.Quality = c.Quality
	}
	if c.Width != 0 {
		p.Width = c.Width
	}
	if c.Height != 0 {
		p.Height = c.Height
	}
	return p
}

func getEnv(key, def string) string {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
