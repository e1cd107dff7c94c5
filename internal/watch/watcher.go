// Package watch re-runs the configuration build when config files change
// and matches changed source files against content globs.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yacobolo/twconfig/internal/logging"
)

// DefaultDebounce coalesces the burst of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// ChangeFunc handles a config change. It returns the config paths to watch
// from now on; a nil slice keeps the current set.
type ChangeFunc func(ctx context.Context, changed string) ([]string, error)

// Watcher watches config files and calls OnChange once per burst of
// changes. Calls never overlap. Errors from OnChange are logged and watching
// continues.
type Watcher struct {
	OnChange ChangeFunc
	Debounce time.Duration
	Logger   logging.Logger

	fs    *fsnotify.Watcher
	files []string // absolute, cleaned
	dirs  []string
}

// New returns a watcher calling onChange.
func New(onChange ChangeFunc, logger logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Watcher{OnChange: onChange, Debounce: DefaultDebounce, Logger: logger}
}

// Run watches paths until ctx is canceled. Parent directories are watched so
// that files replaced by a rename, or created later, are still seen.
func (w *Watcher) Run(ctx context.Context, paths []string) error {
	if w.OnChange == nil {
		return errors.New("watch: OnChange is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	w.fs = fsw
	defer func() {
		_ = fsw.Close()
		w.fs, w.files, w.dirs = nil, nil, nil
	}()

	if err := w.sync(paths); err != nil {
		return err
	}
	w.Logger.Info("watching config files", logging.FieldEvent, "watch.started", logging.FieldTotal, len(w.files))

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var pending string

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("config watcher stopped", logging.FieldEvent, "watch.stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			pending = filepath.Clean(event.Name)
			timer.Reset(debounce)

		case <-timer.C:
			w.Logger.Info("config changed", logging.FieldEvent, "watch.changed", logging.FieldPath, pending)
			next, err := w.OnChange(ctx, pending)
			if err != nil {
				w.Logger.Error("rebuild failed", logging.FieldEvent, "watch.rebuild_failed", logging.FieldError, err)
				continue
			}
			if next != nil {
				if err := w.sync(next); err != nil {
					return err
				}
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Error("watcher error", logging.FieldEvent, "watch.error", logging.FieldError, err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	return slices.Contains(w.files, filepath.Clean(event.Name))
}

// sync makes the watched directory set match paths.
func (w *Watcher) sync(paths []string) error {
	files := make([]string, 0, len(paths))
	var dirs []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		files = append(files, abs)
		if d := filepath.Dir(abs); !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
	}

	for _, d := range w.dirs {
		if !slices.Contains(dirs, d) {
			_ = w.fs.Remove(d)
		}
	}
	for _, d := range dirs {
		if slices.Contains(w.dirs, d) {
			continue
		}
		if err := w.fs.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	w.files, w.dirs = files, dirs
	return nil
}
