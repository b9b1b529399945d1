package analysis

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-runs the analysis whenever archived run data changes. New
// snapshot directories appear as runs get archived, so subdirectories are
// added to the watch as they show up.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func()
	logger   *slog.Logger
}

// NewWatcher creates a watcher over the archive root. Each burst of file
// events triggers onChange once, after the debounce interval passes quietly.
func NewWatcher(dir string, debounce time.Duration, onChange func(), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}
}

// Watch blocks until the context is cancelled, invoking onChange after each
// debounced burst of archive changes.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	if err := w.addSubdirs(watcher, w.dir); err != nil {
		w.logger.Warn("failed to watch some archive subdirectories", "error", err)
	}

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			w.logger.Debug("archive change detected", "file", event.Name, "op", event.Op.String())

			// A created directory is a new snapshot; watch inside it too.
			if event.Has(fsnotify.Create) {
				if err := w.addSubdirs(watcher, event.Name); err != nil {
					w.logger.Debug("failed to watch new directory", "path", event.Name, "error", err)
				}
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := filepath.Ext(event.Name)
	ignoredExts := map[string]bool{
		".swp": true, ".swo": true, ".swn": true,
		".tmp": true, ".bak": true,
		".log": true,
	}
	return !ignoredExts[ext]
}

func (w *Watcher) addSubdirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			if err := watcher.Add(path); err != nil {
				w.logger.Debug("failed to watch directory", "path", path, "error", err)
			}
		}
		return nil
	})
}
