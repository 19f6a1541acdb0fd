// Package watch validates extraction files as they land in a staging
// directory.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Handler is invoked once per settled file. Errors are logged and do not
// stop the watcher.
type Handler func(ctx context.Context, path string) error

// Options configures a Watcher.
type Options struct {
	Dir        string
	Debounce   time.Duration
	Extensions []string
}

// Watcher collects write and create events under Dir and hands each file
// to the handler after it has been quiet for the debounce interval.
type Watcher struct {
	dir        string
	debounce   time.Duration
	extensions map[string]bool
	handler    Handler
	fsw        *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]time.Time
}

// New creates a Watcher. The directory is created if it does not exist.
func New(opts Options, handler Handler) (*Watcher, error) {
	if opts.Dir == "" {
		return nil, eris.New("watch: dir is required")
	}
	if handler == nil {
		return nil, eris.New("watch: handler is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "watch: create %s", opts.Dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, eris.Wrap(err, "watch: new watcher")
	}
	if err := fsw.Add(opts.Dir); err != nil {
		fsw.Close() //nolint:errcheck
		return nil, eris.Wrapf(err, "watch: add %s", opts.Dir)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	exts := make(map[string]bool)
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}
	if len(exts) == 0 {
		exts[".json"] = true
	}

	return &Watcher{
		dir:        opts.Dir,
		debounce:   debounce,
		extensions: exts,
		handler:    handler,
		fsw:        fsw,
		pending:    make(map[string]time.Time),
	}, nil
}

// Run processes events until ctx is cancelled, then closes the underlying
// fsnotify watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close() //nolint:errcheck

	tick := w.debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	zap.L().Info("watching staging directory",
		zap.String("dir", w.dir),
		zap.Duration("debounce", w.debounce),
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.observe(event, time.Now())

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			zap.L().Error("watch: fsnotify error", zap.Error(err))

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

// Matches reports whether path has one of the watched extensions.
func (w *Watcher) Matches(path string) bool {
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

func (w *Watcher) observe(event fsnotify.Event, at time.Time) {
	if !w.Matches(event.Name) {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		delete(w.pending, event.Name)
		return
	}
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		w.pending[event.Name] = at
	}
}

// settled removes and returns the pending files whose last event is older
// than the debounce interval, sorted by path.
func (w *Watcher) settled(now time.Time) []string {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}

func (w *Watcher) flush(ctx context.Context, now time.Time) {
	for _, path := range w.settled(now) {
		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := w.handler(ctx, path); err != nil {
			zap.L().Warn("watch: handle file failed",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}
}
