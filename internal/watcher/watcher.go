// Package watcher reports changes to document files so the index can be rebuilt.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"ragscholar/internal/logging"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches directories with fsnotify and emits debounced batches of
// changed document paths.
type Watcher struct {
	fs       *fsnotify.Watcher
	supports func(path string) bool
	debounce time.Duration
	logger   *slog.Logger
}

// New watches the directories behind paths. A file path watches its parent
// directory; a directory is watched with all of its subdirectories.
// supports filters event paths; nil accepts everything.
func New(paths []string, supports func(string) bool, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if supports == nil {
		supports = func(string) bool { return true }
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{fs: fw, supports: supports, debounce: debounce, logger: logging.OrDiscard(logger)}

	dirs, err := Dirs(paths)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Dirs returns the sorted set of directories to watch for paths, which may
// be files, directories or glob patterns.
func Dirs(paths []string) ([]string, error) {
	set := make(map[string]struct{})
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, err
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				set[filepath.Dir(m)] = struct{}{}
				continue
			}
			err = filepath.WalkDir(m, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					set[filepath.Clean(path)] = struct{}{}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}
	dirs := make([]string, 0, len(set))
	for d := range set {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs, nil
}

// Run emits batches of changed paths until ctx is done or the watcher is
// closed. The returned channel is closed when Run stops.
func (w *Watcher) Run(ctx context.Context) <-chan []string {
	out := make(chan []string, 1)
	go func() {
		defer close(out)

		pending := make(map[string]struct{})
		timer := time.NewTimer(w.debounce)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.fs.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				if event.Has(fsnotify.Create) {
					// new subdirectories need their own watch
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := w.fs.Add(event.Name); err != nil {
							w.logger.Warn("watching new directory", "dir", event.Name, "error", err)
						}
						continue
					}
				}
				if !w.supports(event.Name) {
					continue
				}
				pending[event.Name] = struct{}{}
				timer.Reset(w.debounce)
			case err, ok := <-w.fs.Errors:
				if !ok {
					return
				}
				w.logger.Warn("file watcher error", "error", err)
			case <-timer.C:
				if len(pending) == 0 {
					continue
				}
				batch := make([]string, 0, len(pending))
				for p := range pending {
					batch = append(batch, p)
				}
				slices.Sort(batch)
				clear(pending)
				w.logger.Debug("documents changed", "paths", batch)
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
