package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AnyUserName/imgconv/internal/engine"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long a file must stay quiet before it is read.
const DefaultSettle = 500 * time.Millisecond

// Watcher reports files that appear or change under a directory tree.
type Watcher struct {
	root   string
	settle time.Duration
	ignore []string
	log    *zap.Logger
	w      *fsnotify.Watcher

	pending map[string]*time.Timer
	ready   chan string
	done    chan struct{}
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithSettle overrides DefaultSettle.
func WithSettle(d time.Duration) WatchOption {
	return func(w *Watcher) { w.settle = d }
}

// WithIgnore skips events under any of dirs, typically the output directory.
func WithIgnore(dirs ...string) WatchOption {
	return func(w *Watcher) {
		for _, d := range dirs {
			if abs, err := filepath.Abs(d); err == nil {
				w.ignore = append(w.ignore, abs)
			}
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(l *zap.Logger) WatchOption {
	return func(w *Watcher) { w.log = l }
}

// NewWatcher registers root and all its subdirectories.
func NewWatcher(root string, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	wr := &Watcher{
		root:    abs,
		settle:  DefaultSettle,
		log:     zap.NewNop(),
		w:       fw,
		pending: make(map[string]*time.Timer),
		ready:   make(chan string, 64),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(wr)
	}
	if err := wr.addTree(abs); err != nil {
		fw.Close()
		return nil, err
	}
	return wr, nil
}

// Close stops watching.
func (wr *Watcher) Close() error { return wr.w.Close() }

// Run delivers each settled file to fn until ctx is done. fn is called on
// the Run goroutine. Run must be called at most once.
func (wr *Watcher) Run(ctx context.Context, fn func(engine.ImageBlob)) error {
	defer close(wr.done)
	defer wr.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-wr.w.Events:
			if !ok {
				return nil
			}
			wr.handle(ev)
		case err, ok := <-wr.w.Errors:
			if !ok {
				return nil
			}
			wr.log.Warn("watcher error", zap.Error(err))
		case path := <-wr.ready:
			delete(wr.pending, path)
			b, err := ReadFile(path)
			if err != nil {
				wr.log.Debug("file vanished before it could be read", zap.String("path", path), zap.Error(err))
				continue
			}
			fn(b)
		}
	}
}

func (wr *Watcher) handle(ev fsnotify.Event) {
	if wr.ignored(ev.Name) || hidden(filepath.Base(ev.Name)) {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	fi, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if fi.IsDir() {
		if err := wr.addTree(ev.Name); err != nil {
			wr.log.Warn("cannot watch new directory", zap.String("path", ev.Name), zap.Error(err))
		}
		return
	}
	if !fi.Mode().IsRegular() {
		return
	}

	path := ev.Name
	if t, ok := wr.pending[path]; ok {
		t.Reset(wr.settle)
		return
	}
	wr.pending[path] = time.AfterFunc(wr.settle, func() {
		select {
		case wr.ready <- path:
		case <-wr.done:
		}
	})
}

func (wr *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != wr.root && (hidden(d.Name()) || wr.ignored(path)) {
			return filepath.SkipDir
		}
		return wr.w.Add(path)
	})
}

func (wr *Watcher) ignored(path string) bool {
	for _, dir := range wr.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (wr *Watcher) stopTimers() {
	for p, t := range wr.pending {
		t.Stop()
		delete(wr.pending, p)
	}
}
