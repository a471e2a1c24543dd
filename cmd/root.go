package cmd

import (
	"context"
	"fmt"
	"runtime"

	"github.com/AnyUserName/imgconv/internal/batch"
	"github.com/AnyUserName/imgconv/internal/config"
	"github.com/AnyUserName/imgconv/internal/encoder"
	"github.com/AnyUserName/imgconv/internal/engine"
	"github.com/AnyUserName/imgconv/internal/export"
	"github.com/AnyUserName/imgconv/internal/format"
	"github.com/AnyUserName/imgconv/internal/logging"
	"github.com/AnyUserName/imgconv/internal/notify"
	"github.com/AnyUserName/imgconv/internal/preset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version    = "0.1.0"
	verbose    bool
	configPath string
	presetName string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "imgconv",
	Short: "Batch image format converter",
	Long: `imgconv converts batches of images between formats, optionally
resizing them on the way.

Every input is decoded, resampled with Lanczos when a target size is set,
and re-encoded. jpeg, png, webp, gif, bmp and svg always work; the other
formats depend on encoders available on this machine (see "imgconv formats").`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { _ = logger.Sync() },
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().StringVarP(&presetName, "preset", "p", "", "parameter preset (default, web, photo, favicon, print, or from config)")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"imgconv %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.NewLoader(configPath).Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("preset") {
		cfg.Preset = presetName
	}
	logger, err = logging.New(cfg.LogLevel, verbose)
	if err != nil {
		return err
	}
	return nil
}

// resolvePreset picks the configured preset and applies config overrides.
func resolvePreset() (preset.Preset, error) {
	set, err := cfg.PresetSet()
	if err != nil {
		return preset.Preset{}, err
	}
	p, err := set.Get(cfg.Preset)
	if err != nil {
		return preset.Preset{}, err
	}
	return cfg.Overlay(p), nil
}

// paramFlags are the per-command parameter overrides shared by convert and
// watch.
type paramFlags struct {
	format  string
	quality int
	width   int
	height  int
}

func (f *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format (see \"imgconv formats\")")
	cmd.Flags().IntVarP(&f.quality, "quality", "q", 0, "quality 1-100 for lossy formats (0 = preset)")
	cmd.Flags().IntVar(&f.width, "width", 0, "output width in pixels (0 = source width)")
	cmd.Flags().IntVar(&f.height, "height", 0, "output height in pixels (0 = source height)")
}

// parameters merges preset, config and flags into the defaults for new items.
func (f *paramFlags) parameters(cmd *cobra.Command) (engine.Parameters, preset.Preset, error) {
	p, err := resolvePreset()
	if err != nil {
		return engine.Parameters{}, p, err
	}
	if cmd.Flags().Changed("format") {
		code, err := format.Parse(f.format)
		if err != nil {
			return engine.Parameters{}, p, err
		}
		p.Format = code
	}
	if cmd.Flags().Changed("quality") && f.quality != 0 {
		p.Quality = f.quality
	}
	if cmd.Flags().Changed("width") {
		p.Width = f.width
	}
	if cmd.Flags().Changed("height") {
		p.Height = f.height
	}
	return p.Parameters(), p, nil
}

// newBatch wires the engine, the sink and a logging notifier into a batch.
func newBatch(defaults engine.Parameters, sink export.Sink) (*batch.Batch, *encoder.Registry, error) {
	registry := encoder.NewRegistry()
	logVerbose("%s", registry.String())

	bus := notify.NewBus()
	if _, err := bus.OnNotify(notify.LogTo(logger)); err != nil {
		return nil, nil, err
	}

	b := batch.New(batch.Config{
		Converter:    engine.New(registry, engine.WithLogger(logger)),
		Sink:         sink,
		Bus:          bus,
		Logger:       logger,
		Defaults:     defaults,
		BusyAdvisory: cfg.BusyAdvisory,
	})
	return b, registry, nil
}

// logVerbose prints a debug line, shown only with --verbose or log_level debug.
func logVerbose(format string, args ...any) {
	logger.Debug(fmt.Sprintf(format, args...))
}
