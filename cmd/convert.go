package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AnyUserName/imgconv/internal/batch"
	"github.com/AnyUserName/imgconv/internal/encoder"
	"github.com/AnyUserName/imgconv/internal/engine"
	"github.com/AnyUserName/imgconv/internal/export"
	"github.com/AnyUserName/imgconv/internal/ingest"
	"github.com/AnyUserName/imgconv/internal/item"
	"github.com/AnyUserName/imgconv/internal/manifest"
	"github.com/AnyUserName/imgconv/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	convertParams  paramFlags
	convertOutDir  string
	convertWorkers int
	convertDedupe  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <file_or_dir>...",
	Short: "Convert images and write them to the output directory",
	Long: `Reads the given files (directories are walked recursively), keeps the
ones whose content is an image, converts each with the selected preset and
flags, and writes the results plus ` + manifest.FileName + ` to the output
directory.

Outputs are named converted-image.<format>. Several inputs converted to the
same format overwrite each other unless --dedupe is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertParams.register(convertCmd)
	convertCmd.Flags().StringVarP(&convertOutDir, "out", "o", "", "output directory (default from config, \"converted\")")
	convertCmd.Flags().IntVarP(&convertWorkers, "workers", "w", 0, "parallel conversions (0 = config, NumCPU)")
	convertCmd.Flags().BoolVar(&convertDedupe, "dedupe", false, "suffix colliding output names with -1, -2, ...")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	start := time.Now()

	params, p, err := convertParams.parameters(cmd)
	if err != nil {
		return err
	}
	outDir := cfg.OutDir
	if cmd.Flags().Changed("out") {
		outDir = convertOutDir
	}
	absOutput, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	workers := cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers = convertWorkers
	}
	dedupe := cfg.Dedupe || convertDedupe

	logVerbose("output:  %s", absOutput)
	logVerbose("preset:  %s (format=%s, quality=%d, size=%dx%d)",
		p.Name, params.Format, params.Quality, params.Width, params.Height)

	sink, err := export.NewDirSink(absOutput, dedupe)
	if err != nil {
		return err
	}
	b, registry, err := newBatch(params, sink)
	if err != nil {
		return err
	}

	blobs, err := ingest.Load(args)
	if err != nil {
		return err
	}
	items, err := b.IngestItems(blobs)
	if errors.Is(err, batch.ErrIngestionRejected) {
		return fmt.Errorf("none of the %d input file(s) is an image", len(blobs))
	}
	if err != nil {
		return err
	}

	runner := pipeline.New(workers, logger)
	sum := runner.Run(cmd.Context(), items)
	b.Bus().Flush()

	r := buildReport(b, p.Name, blobs, items, sink)
	r.RunInfo = &manifest.RunInfo{
		Workers:   runner.Workers(),
		ElapsedMS: time.Since(start).Milliseconds(),
		Encoders:  encoderNames(registry),
	}
	reportPath := filepath.Join(absOutput, manifest.FileName)
	if err := manifest.WriteJSON(r, reportPath); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Debug("report written", zap.String("path", reportPath))

	printConvertReport(r, sum)

	if sum.Succeeded == 0 && sum.Failed > 0 {
		return fmt.Errorf("all %d conversions failed", sum.Failed)
	}
	return nil
}

// buildReport pairs every input with its item (ingestion keeps image blobs
// in order) and lists what the sink wrote.
func buildReport(b *batch.Batch, presetName string, blobs []engine.ImageBlob, items []*item.Item, sink *export.DirSink) *manifest.Report {
	r := manifest.New(b.Session().String(), presetName)
	next := 0
	for _, blob := range blobs {
		in := manifest.Input{Name: blob.Name, MIMEType: blob.MIMEType, Size: blob.Size()}
		if !blob.IsImage() || next >= len(items) {
			in.Status = manifest.StatusSkipped
			r.AddInput(in)
			continue
		}
		it := items[next]
		next++
		in.Format = string(it.Parameters().Format)
		if it.Status() == item.Succeeded {
			in.Status = manifest.StatusSucceeded
		} else {
			in.Status = manifest.StatusFailed
			if err := it.Err(); err != nil {
				in.Error = err.Error()
			}
		}
		r.AddInput(in)
	}
	for _, w := range sink.Written() {
		r.AddWritten(w)
	}
	r.ComputeStats()
	return r
}

func encoderNames(r *encoder.Registry) []string {
	codes := r.Available()
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}

func printConvertReport(r *manifest.Report, sum pipeline.Summary) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║             imgconv convert complete             ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	s := r.Stats
	fmt.Printf("  Inputs:      %d (%d skipped)\n", s.TotalInputs, s.Skipped)
	fmt.Printf("  Converted:   %d\n", sum.Succeeded)
	if sum.Failed > 0 {
		fmt.Printf("  Failed:      %d\n", sum.Failed)
	}
	fmt.Printf("  Written:     %d file(s)\n", s.TotalOutputs)
	fmt.Printf("  Input size:  %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Printf("  Time:        %s\n", sum.Elapsed.Round(time.Millisecond))
	if r.RunInfo != nil {
		fmt.Printf("  Workers:     %d\n", r.RunInfo.Workers)
	}
	fmt.Println()

	if collisions := overwritten(r); len(collisions) > 0 {
		fmt.Printf("  Overwritten: %s (use --dedupe to keep all)\n", strings.Join(collisions, ", "))
		fmt.Println()
	}

	var failed []manifest.Input
	for _, in := range r.Inputs {
		if in.Status == manifest.StatusFailed {
			failed = append(failed, in)
		}
	}
	if len(failed) > 0 {
		fmt.Printf("  Failures (%d):\n", len(failed))
		for _, in := range failed {
			fmt.Printf("    ✗ %-30s → %-5s %s\n", truncKey(in.Name, 30), in.Format, in.Error)
		}
		fmt.Println()
	}

	fmt.Printf("  Report:      %s\n", manifest.FileName)
	fmt.Println()
}

// overwritten lists output paths written more than once.
func overwritten(r *manifest.Report) []string {
	counts := map[string]int{}
	for _, o := range r.Outputs {
		if o.Overwritten {
			counts[o.Path]++
		}
	}
	var out []string
	for p, n := range counts {
		out = append(out, fmt.Sprintf("%s ×%d", p, n+1))
	}
	sort.Strings(out)
	return out
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
