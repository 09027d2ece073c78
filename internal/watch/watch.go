// Package watch processes documents dropped into an input directory.
//
// New files are debounced until writes settle, then handed to a handler with
// at most MaxConcurrent runs in flight. Finished inputs are moved into
// processed/ or failed/ subdirectories so they are never picked up twice. A
// run interrupted by shutdown leaves its input where it was.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"shortreel/internal/fileutil"
	"shortreel/internal/logging"
)

// Archive subdirectories inside the watched directory.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Handler processes one settled input file.
type Handler func(ctx context.Context, path string) error

// Options configures a Watcher.
type Options struct {
	Dir           string
	MaxConcurrent int
	// Settle is how long a file must go without writes before it is handled.
	Settle time.Duration
	// Accept filters candidate paths. Nil accepts every regular file.
	Accept func(path string) bool
	// ScanExisting handles files already present when Run starts.
	ScanExisting bool
}

// Watcher monitors a directory with fsnotify.
type Watcher struct {
	opts    Options
	handler Handler
	logger  *slog.Logger
	fsw     *fsnotify.Watcher
	sem     chan struct{}
	ready   chan string
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*time.Timer
	active  map[string]bool
}

// New starts watching opts.Dir.
func New(opts Options, handler Handler, logger *slog.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: handler required")
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 2
	}
	if opts.Settle <= 0 {
		opts.Settle = 500 * time.Millisecond
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create watch dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(opts.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	return &Watcher{
		opts:    opts,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "watch"),
		fsw:     fsw,
		sem:     make(chan struct{}, opts.MaxConcurrent),
		ready:   make(chan string, 16),
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
		active:  make(map[string]bool),
	}, nil
}

// Run blocks until ctx is cancelled, then waits for in-flight runs.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer close(w.done)
	w.logger.Info("watching for documents",
		logging.String("dir", w.opts.Dir),
		logging.Int("max_concurrent", w.opts.MaxConcurrent),
		logging.Duration("settle", w.opts.Settle),
	)
	if w.opts.ScanExisting {
		w.scanExisting()
	}

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			w.logger.Info("waiting for in-flight runs")
			w.wg.Wait()
			w.logger.Info("watcher stopped")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.schedule(event.Name)
			}

		case path := <-w.ready:
			w.dispatch(ctx, path)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logging.WarnWithContext(w.logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some file events may be missed"),
			)
		}
	}
}

func (w *Watcher) accept(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return w.opts.Accept == nil || w.opts.Accept(path)
}

func (w *Watcher) scanExisting() {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		w.logger.Debug("initial scan failed", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			w.schedule(filepath.Join(w.opts.Dir, entry.Name()))
		}
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(path string) {
	if !w.accept(path) {
		w.logger.Debug("ignoring file", logging.String("path", path))
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active[path] {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.opts.Settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.opts.Settle, func() {
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) dispatch(ctx context.Context, path string) {
	w.mu.Lock()
	delete(w.pending, path)
	if w.active[path] {
		w.mu.Unlock()
		return
	}
	w.active[path] = true
	w.mu.Unlock()

	select {
	case w.sem <- struct{}{}:
	case <-ctx.Done():
		w.release(path)
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.sem }()
		defer w.release(path)
		w.handle(ctx, path)
	}()
}

func (w *Watcher) release(path string) {
	w.mu.Lock()
	delete(w.active, path)
	w.mu.Unlock()
}

func (w *Watcher) handle(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	w.logger.Info("document detected", logging.String("path", path))
	err := w.handler(ctx, path)
	if err != nil && (ctx.Err() != nil || errors.Is(err, context.Canceled)) {
		w.logger.Info("document interrupted; left in place for next start",
			logging.String("path", path),
			logging.Error(err),
		)
		return
	}
	dest := ProcessedDir
	if err != nil {
		dest = FailedDir
		logging.ErrorWithContext(w.logger, "document failed", "watch_run_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the input and copy it back into the watch directory"),
		)
	}
	moved, moveErr := fileutil.MoveToDir(path, filepath.Join(w.opts.Dir, dest))
	if moveErr != nil {
		logging.WarnWithContext(w.logger, "could not archive input", "watch_archive_failed",
			logging.String("path", path),
			logging.Error(moveErr),
			logging.String(logging.FieldImpact, "input may be processed again on restart"),
		)
		return
	}
	w.logger.Debug("input archived", logging.String("path", moved))
}
