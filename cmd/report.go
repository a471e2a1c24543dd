package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/imgconv/internal/manifest"
	"github.com/spf13/cobra"
)

var reportNoCheck bool

var reportCmd = &cobra.Command{
	Use:   "report <out_dir|report.json>",
	Short: "Show statistics of a conversion run and verify its output files",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportNoCheck, "no-check", false, "only print statistics, skip file verification")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, args []string) error {
	r, path, err := manifest.ReadJSON(args[0])
	if err != nil {
		return err
	}
	printStats(r)

	if reportNoCheck {
		return nil
	}
	errs := manifest.Validate(r, filepath.Dir(path))
	if len(errs) == 0 {
		fmt.Println("  ✓ Report is valid")
		fmt.Printf("  ✓ %d output(s), all files present and intact\n", r.Stats.TotalOutputs)
		fmt.Println()
		return nil
	}

	fmt.Printf("  ✗ Report has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	fmt.Println()
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func printStats(r *manifest.Report) {
	fmt.Println()
	fmt.Printf("  Report version:   %d\n", r.Version)
	fmt.Printf("  Generated:        %s\n", r.GeneratedAt)
	fmt.Printf("  Session:          %s\n", r.Session)
	fmt.Printf("  Preset:           %s\n", r.Preset)
	if r.RunInfo != nil {
		fmt.Printf("  Workers:          %d\n", r.RunInfo.Workers)
		fmt.Printf("  Elapsed:          %d ms\n", r.RunInfo.ElapsedMS)
	}
	fmt.Println()

	s := r.Stats
	fmt.Printf("  Inputs:           %d (%d succeeded, %d failed, %d skipped)\n",
		s.TotalInputs, s.Succeeded, s.Failed, s.Skipped)
	fmt.Printf("  Outputs:          %d\n", s.TotalOutputs)
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Printf("  Size ratio:       %.1f%% of input\n", ratio)
	}
	fmt.Println()

	formatStats := map[string]struct {
		count int
		bytes int64
	}{}
	for _, o := range r.Outputs {
		fs := formatStats[o.Format]
		fs.count++
		fs.bytes += o.Size
		formatStats[o.Format] = fs
	}
	var formats []string
	for f := range formatStats {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	if len(formats) > 0 {
		fmt.Println("  Format breakdown:")
		for _, f := range formats {
			fs := formatStats[f]
			fmt.Printf("    %-6s  %4d files  %s\n", f, fs.count, formatBytes(fs.bytes))
		}
		fmt.Println()
	}

	var warnings []string
	for _, o := range r.Outputs {
		if o.Overwritten {
			warnings = append(warnings, fmt.Sprintf("output of %q was overwritten at %s", o.Source, o.Path))
		}
	}
	for _, in := range r.Inputs {
		if in.Status == manifest.StatusFailed {
			warnings = append(warnings, fmt.Sprintf("%s → %s failed: %s", in.Name, in.Format, in.Error))
		}
	}
	if len(warnings) > 0 {
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
		fmt.Println()
	}
}
