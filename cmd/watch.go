package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/AnyUserName/imgconv/internal/batch"
	"github.com/AnyUserName/imgconv/internal/engine"
	"github.com/AnyUserName/imgconv/internal/export"
	"github.com/AnyUserName/imgconv/internal/ingest"
	"github.com/AnyUserName/imgconv/internal/item"
	"github.com/AnyUserName/imgconv/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	watchParams  paramFlags
	watchOutDir  string
	watchWorkers int
	watchSettle  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Convert every image that appears in a directory",
	Long: `Watches a directory tree and converts each new or changed image with
the selected preset and flags. Results go to the output directory, which is
never watched itself. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchParams.register(watchCmd)
	watchCmd.Flags().StringVarP(&watchOutDir, "out", "o", "", "output directory (default from config, \"converted\")")
	watchCmd.Flags().IntVarP(&watchWorkers, "workers", "w", 0, "parallel conversions (0 = config, NumCPU)")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", ingest.DefaultSettle, "quiet period before a changed file is read")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	params, p, err := watchParams.parameters(cmd)
	if err != nil {
		return err
	}
	outDir := cfg.OutDir
	if cmd.Flags().Changed("out") {
		outDir = watchOutDir
	}
	absOutput, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	workers := cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers = watchWorkers
	}

	// Always dedupe: a long session would otherwise keep only one file per format.
	sink, err := export.NewDirSink(absOutput, true)
	if err != nil {
		return err
	}
	b, _, err := newBatch(params, sink)
	if err != nil {
		return err
	}

	w, err := ingest.NewWatcher(args[0],
		ingest.WithSettle(watchSettle),
		ingest.WithIgnore(absOutput),
		ingest.WithWatchLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("watch %s: %w", args[0], err)
	}
	defer w.Close()

	logger.Info("watching",
		zap.String("dir", args[0]),
		zap.String("out", absOutput),
		zap.String("preset", p.Name),
		zap.String("format", string(params.Format)),
	)

	var g errgroup.Group
	g.SetLimit(pipeline.Limit(workers))

	err = w.Run(ctx, func(blob engine.ImageBlob) {
		items, err := b.IngestItems([]engine.ImageBlob{blob})
		if errors.Is(err, batch.ErrIngestionRejected) {
			return
		}
		if err != nil {
			logger.Warn("ingest failed", zap.String("file", blob.Name), zap.Error(err))
			return
		}
		for _, it := range items {
			g.Go(func() error {
				status, err := it.Trigger(ctx)
				switch {
				case errors.Is(err, item.ErrAlreadyInProgress):
					logger.Debug("conversion already running", zap.String("item", it.ID()))
				default:
					logger.Debug("conversion finished",
						zap.String("item", it.ID()),
						zap.String("file", it.Source().Name),
						zap.Stringer("status", status),
						zap.Error(it.Err()),
					)
				}
				if err := b.RemoveByID(it.ID()); err != nil {
					logger.Debug("item already gone", zap.String("item", it.ID()))
				}
				return nil
			})
		}
	})
	_ = g.Wait()
	b.Bus().Flush()

	written := sink.Written()
	logger.Info("stopped", zap.Int("written", len(written)))
	return err
}
