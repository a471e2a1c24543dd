package manifest

// Report is written next to the converted files after a run.
type Report struct {
	Version     int      `json:"version"`
	GeneratedAt string   `json:"generated_at"`
	Session     string   `json:"session"`
	Preset      string   `json:"preset"`
	BasePath    string   `json:"base_path"`
	RunInfo     *RunInfo `json:"run_info,omitempty"`
	Inputs      []Input  `json:"inputs"`
	Outputs     []Output `json:"outputs"`
	Stats       Stats    `json:"stats"`
}

// RunInfo captures run parameters for diagnostics.
type RunInfo struct {
	Workers   int      `json:"workers"`
	ElapsedMS int64    `json:"elapsed_ms"`
	Encoders  []string `json:"encoders"` // formats with a working encoder on the host
}

// Input is one file offered to the batch and what became of it.
type Input struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Format   string `json:"format,omitempty"` // requested target
	Status   string `json:"status"`           // "succeeded", "failed", "skipped"
	Error    string `json:"error,omitempty"`
}

// Output is one exported file.
type Output struct {
	Source string `json:"source"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"` // bytes on disk
	Hash   string `json:"hash"` // first 16 hex chars of xxhash64
	Path   string `json:"path"` // relative to base_path
	// Overwritten is set when a later output reused Path.
	Overwritten bool `json:"overwritten,omitempty"`
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalInputs      int   `json:"total_inputs"`
	TotalOutputs     int   `json:"total_outputs"`
	Succeeded        int   `json:"succeeded"`
	Failed           int   `json:"failed"`
	Skipped          int   `json:"skipped,omitempty"`
}

// Input statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// SupportedReportVersion is the current schema version.
const SupportedReportVersion = 1

// FileName is the report's name inside the output directory.
const FileName = "imgconv.report.json"
