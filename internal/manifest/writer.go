package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AnyUserName/imgconv/internal/export"
	"github.com/AnyUserName/imgconv/internal/hasher"
)

// New creates an empty report.
func New(session, preset string) *Report {
	return &Report{
		Version:     SupportedReportVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Session:     session,
		Preset:      preset,
		BasePath:    "./",
		Inputs:      []Input{},
		Outputs:     []Output{},
	}
}

// AddInput records one offered file.
func (r *Report) AddInput(in Input) {
	r.Inputs = append(r.Inputs, in)
}

// AddWritten records a file produced by a DirSink. Earlier outputs with the
// same path are marked Overwritten.
func (r *Report) AddWritten(w export.Written) {
	path := filepath.ToSlash(w.Path)
	for i := range r.Outputs {
		if r.Outputs[i].Path == path {
			r.Outputs[i].Overwritten = true
		}
	}
	r.Outputs = append(r.Outputs, Output{
		Source: w.Blob.Source,
		Format: string(w.Blob.Format),
		Width:  w.Blob.Width,
		Height: w.Blob.Height,
		Size:   w.Blob.Size(),
		Hash:   hasher.ContentHash(w.Blob.Data, 16),
		Path:   path,
	})
}

// ComputeStats recalculates aggregate statistics.
func (r *Report) ComputeStats() {
	var s Stats
	s.TotalInputs = len(r.Inputs)
	s.TotalOutputs = len(r.Outputs)
	for _, in := range r.Inputs {
		s.TotalInputBytes += in.Size
		switch in.Status {
		case StatusSucceeded:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
	for _, o := range r.Outputs {
		s.TotalOutputBytes += o.Size
	}
	r.Stats = s
}

// WriteJSON serializes the report to path.
func WriteJSON(r *Report, path string) error {
	r.ComputeStats()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a report. path may be the report file or the directory
// holding it.
func ReadJSON(path string) (*Report, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if info.IsDir() {
		path = filepath.Join(path, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, "", fmt.Errorf("parse report: %w", err)
	}
	return &r, path, nil
}
