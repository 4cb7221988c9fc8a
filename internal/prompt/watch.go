package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultWatchDebounce groups bursts of filesystem events into one reload.
const DefaultWatchDebounce = 250 * time.Millisecond

// Watch reloads the tree whenever a watched source directory changes and
// calls onReload with the result. Call it after Load; it blocks until ctx is
// done.
func (l *Loader) Watch(ctx context.Context, debounce time.Duration, onReload func(err error)) error {
	if ctx == nil {
		return errors.New("watch requires a context")
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close() // nolint:errcheck // best-effort cleanup

	watched := make(map[string]bool)
	l.syncWatches(watcher, watched)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if skipEntry(filepath.Base(event.Name)) {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				delete(watched, event.Name)
			}
			l.logger.Debug("prompt source changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()))
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("prompt watcher error", zap.Error(err))
		case <-timer.C:
			err := l.Reload(ctx)
			l.syncWatches(watcher, watched)
			if onReload != nil {
				onReload(err)
			}
		}
	}
}

// WatchDirs returns every directory below the current sources that the
// watcher follows.
func (l *Loader) WatchDirs() []string {
	var dirs []string
	for _, src := range l.Sources() {
		info, err := os.Stat(src.Path)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			dirs = append(dirs, filepath.Dir(src.Path))
			continue
		}
		_ = filepath.WalkDir(src.Path, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if path != src.Path && skipEntry(d.Name()) {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
			return nil
		})
	}
	return dirs
}

// syncWatches adds directories that appeared since the last call. fsnotify
// drops watches on removed directories by itself.
func (l *Loader) syncWatches(watcher *fsnotify.Watcher, watched map[string]bool) {
	for _, dir := range l.WatchDirs() {
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			l.logger.Warn("cannot watch prompt directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		watched[dir] = true
	}
}
