// Package export receives finished conversions and hands them to the host.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/AnyUserName/imgconv/internal/engine"
)

// Sink receives the output of every successful conversion.
type Sink interface {
	Export(ctx context.Context, out engine.OutputBlob) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, out engine.OutputBlob) error

func (f SinkFunc) Export(ctx context.Context, out engine.OutputBlob) error { return f(ctx, out) }

// Written records one file a DirSink produced.
type Written struct {
	Path string // relative to the sink directory
	Blob engine.OutputBlob
}

// DirSink writes outputs into a directory under their suggested names.
// Two outputs with the same name overwrite each other unless Dedupe is set,
// in which case later ones get "-1", "-2", ... before the extension.
type DirSink struct {
	Dir    string
	Dedupe bool

	mu      sync.Mutex
	taken   map[string]int
	written []Written
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string, dedupe bool) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &DirSink{Dir: dir, Dedupe: dedupe, taken: make(map[string]int)}, nil
}

func (s *DirSink) Export(_ context.Context, out engine.OutputBlob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := filepath.Base(out.Name)
	if s.Dedupe {
		name = s.reserve(name)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, name), out.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	s.written = append(s.written, Written{Path: name, Blob: out})
	return nil
}

func (s *DirSink) reserve(name string) string {
	n := s.taken[name]
	s.taken[name] = n + 1
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + strconv.Itoa(n) + ext
}

// Written returns every file exported so far, in export order.
func (s *DirSink) Written() []Written {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Written, len(s.written))
	copy(out, s.written)
	return out
}

// Memory keeps outputs in memory.
type Memory struct {
	mu   sync.Mutex
	outs []engine.OutputBlob
}

func (m *Memory) Export(_ context.Context, out engine.OutputBlob) error {
	m.mu.Lock()
	m.outs = append(m.outs, out)
	m.mu.Unlock()
	return nil
}

// Outputs returns a copy of everything exported so far.
func (m *Memory) Outputs() []engine.OutputBlob {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]engine.OutputBlob, len(m.outs))
	copy(out, m.outs)
	return out
}
