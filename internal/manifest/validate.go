package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AnyUserName/imgconv/internal/format"
	"github.com/AnyUserName/imgconv/internal/hasher"
)

// Validate checks r for internal consistency and checks that every output
// it lists exists under baseDir with the recorded size and hash. It returns
// one message per problem.
func Validate(r *Report, baseDir string) []string {
	var errs []string

	if r.Version != SupportedReportVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version: %d", r.Version))
	}

	seenPaths := map[string]bool{}
	for i, o := range r.Outputs {
		if _, err := format.Parse(o.Format); err != nil {
			errs = append(errs, fmt.Sprintf("output[%d]: %v", i, err))
		}
		if o.Width <= 0 || o.Height <= 0 {
			errs = append(errs, fmt.Sprintf("output[%d]: invalid dimensions %dx%d", i, o.Width, o.Height))
		}
		if o.Hash == "" {
			errs = append(errs, fmt.Sprintf("output[%d]: missing hash", i))
		}
		if o.Path == "" {
			errs = append(errs, fmt.Sprintf("output[%d]: missing path", i))
			continue
		}

		if o.Overwritten {
			continue
		}
		if seenPaths[o.Path] {
			errs = append(errs, fmt.Sprintf("output[%d]: duplicate path %q", i, o.Path))
			continue
		}
		seenPaths[o.Path] = true

		data, err := os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(o.Path)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("output[%d]: file not found: %s", i, o.Path))
			continue
		}
		if int64(len(data)) != o.Size {
			errs = append(errs, fmt.Sprintf("output[%d]: size mismatch: report=%d, disk=%d", i, o.Size, len(data)))
		}
		if o.Hash != "" && hasher.ContentHash(data, len(o.Hash)) != o.Hash {
			errs = append(errs, fmt.Sprintf("output[%d]: hash mismatch for %s", i, o.Path))
		}
	}

	for i, in := range r.Inputs {
		switch in.Status {
		case StatusSucceeded, StatusFailed, StatusSkipped:
		default:
			errs = append(errs, fmt.Sprintf("input[%d]: unknown status %q", i, in.Status))
		}
	}

	var want Report
	want.Inputs, want.Outputs = r.Inputs, r.Outputs
	want.ComputeStats()
	if r.Stats.TotalInputs != want.Stats.TotalInputs {
		errs = append(errs, fmt.Sprintf("stats.total_inputs mismatch: %d != %d", r.Stats.TotalInputs, want.Stats.TotalInputs))
	}
	if r.Stats.TotalOutputs != want.Stats.TotalOutputs {
		errs = append(errs, fmt.Sprintf("stats.total_outputs mismatch: %d != %d", r.Stats.TotalOutputs, want.Stats.TotalOutputs))
	}

	return errs
}
