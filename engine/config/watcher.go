package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a TOML file into a Store whenever it changes on disk.
type Watcher struct {
	path     string
	store    *Store
	logger   common.Logger
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger used for reload and parse failures.
func WithWatcherLogger(l common.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// WithDebounce sets how long the watcher waits for writes to settle before reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher watches the directory holding path. Editors and Save replace files by
// rename, so the directory is watched rather than the file itself.
//
// Parameters:
//   - path: the TOML file to follow
//   - store: destination of reloaded configs
//   - options: functional options
//
// Returns:
//   - *Watcher: the watcher, not yet running
//   - error: error if the fsnotify watcher cannot be created
func NewWatcher(path string, store *Store, options ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		store:    store,
		logger:   common.NopLogger(),
		debounce: 100 * time.Millisecond,
		fsw:      fsw,
	}
	for _, opt := range options {
		opt(w)
	}
	return w, nil
}

// Run processes file events until ctx is cancelled. A file that fails to parse
// leaves the Store untouched.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("config watcher: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warnf("config reload skipped: %v", err)
		return
	}
	w.store.Replace(cfg)
	w.logger.Infof("config reloaded from %s", w.path)
}
