package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/imgconv/internal/format"
	"github.com/AnyUserName/imgconv/internal/preset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Preset)
	assert.Equal(t, "converted", cfg.OutDir)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "custom.yaml", `
preset: photo
quality: 70
workers: 3
out_dir: out
dedupe: true
log_level: debug
presets:
  thumb:
    format: webp
    width: 160
`)

	cfg, err := NewLoader(path).WithDotEnv(false).Load()
	require.NoError(t, err)
	assert.Equal(t, "photo", cfg.Preset)
	assert.Equal(t, 70, cfg.Quality)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "out", cfg.OutDir)
	assert.True(t, cfg.Dedupe)

	set, err := cfg.PresetSet()
	require.NoError(t, err)
	thumb, err := set.Get("thumb")
	require.NoError(t, err)
	assert.Equal(t, format.WebP, thumb.Format)
	assert.Equal(t, 160, thumb.Width)
}

func TestDefaultFileIsPickedUp(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, DefaultFile, "preset: web\n")

	cfg, err := NewLoader("").WithDotEnv(false).Load()
	require.NoError(t, err)
	assert.Equal(t, "web", cfg.Preset)
}

func TestExplicitMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := NewLoader("nope.yaml").WithDotEnv(false).Load()
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "c.yaml", "workers: 2\nformat: png\n")
	t.Setenv("IMGCONV_WORKERS", "7")
	t.Setenv("IMGCONV_FORMAT", "gif")
	t.Setenv("IMGCONV_DEDUPE", "true")

	cfg, err := NewLoader(path).WithDotEnv(false).Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "gif", cfg.Format)
	assert.True(t, cfg.Dedupe)
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "IMGCONV_OUT_DIR=from-dotenv\n")
	t.Setenv("IMGCONV_OUT_DIR", "")
	os.Unsetenv("IMGCONV_OUT_DIR")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.OutDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown format", func(c *Config) { c.Format = "avif" }, true},
		{"uppercase format", func(c *Config) { c.Format = "PNG" }, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"upper log level", func(c *Config) { c.LogLevel = "DEBUG" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOverlay(t *testing.T) {
	c := Default()
	c.Format = "jpeg"
	c.Width = 300
	got := c.Overlay(preset.Preset{Name: "web", Format: format.WebP, Quality: 82})
	assert.Equal(t, format.JPEG, got.Format)
	assert.Equal(t, 82, got.Quality)
	assert.Equal(t, 300, got.Width)
	assert.Zero(t, got.Height)
}
