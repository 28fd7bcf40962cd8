// Package watch re-triggers work when input files change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before a change is reported.
const DefaultDebounce = 150 * time.Millisecond

// ErrAlreadyRunning is returned when Run is called twice.
var ErrAlreadyRunning = errors.New("watcher already running")

// Watcher reports writes to a fixed set of files.
//
// Parent directories are watched rather than the files themselves, so
// editors that save by renaming a temp file over the original are seen.
type Watcher struct {
	mu      sync.Mutex
	running bool

	files    map[string]bool
	dirs     []string
	debounce time.Duration
	logger   *zap.Logger

	afterFunc func(time.Duration, func()) *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithLogger sets the logger for the watcher.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New creates a watcher for paths. Every path must exist.
func New(paths []string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		files:    make(map[string]bool, len(paths)),
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),

		afterFunc: time.AfterFunc,
	}
	for _, opt := range opts {
		opt(w)
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}
		w.files[abs] = true

		dir := filepath.Dir(abs)
		if !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Run blocks until ctx is done, calling onChange with the absolute path of
// each watched file after it is written and the debounce period passes.
// onChange runs on the Run goroutine, one call at a time.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	w.logger.Info("watching for changes",
		zap.Int("files", len(w.files)),
		zap.Duration("debounce", w.debounce))

	return w.loop(ctx, fsw.Events, fsw.Errors, onChange)
}

// debounced is the pending timer for one path. gen tells a timer apart from
// the one that replaced it.
type debounced struct {
	timer *time.Timer
	gen   uint64
}

type firing struct {
	path string
	gen  uint64
}

func (w *Watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, onChange func(path string)) error {
	fire := make(chan firing)
	done := make(chan struct{})
	pending := make(map[string]debounced)
	var gen uint64
	defer func() {
		close(done)
		for _, d := range pending {
			d.timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if !w.files[path] || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("file event", zap.String("path", path), zap.Stringer("op", event.Op))

			if d, ok := pending[path]; ok && d.timer.Stop() {
				d.timer.Reset(w.debounce)
				continue
			}
			// A timer that already fired may still be waiting to deliver;
			// replacing it makes that delivery stale.
			gen++
			f := firing{path: path, gen: gen}
			pending[path] = debounced{gen: gen, timer: w.afterFunc(w.debounce, func() {
				select {
				case fire <- f:
				case <-done:
				}
			})}

		case f := <-fire:
			if d, ok := pending[f.path]; !ok || d.gen != f.gen {
				continue
			}
			delete(pending, f.path)
			onChange(f.path)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}
