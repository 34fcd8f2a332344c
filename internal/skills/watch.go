package skills

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// rebuildDebounce coalesces bursts of filesystem events into one rebuild.
const rebuildDebounce = 500 * time.Millisecond

// Watch rebuilds the registry when either skill root changes on disk.
// Blocks until ctx is cancelled.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range []string{r.cfg.BundledDir, r.cfg.ImportedDir} {
		if root == "" {
			continue
		}
		if err := watcher.Add(root); err != nil {
			slog.Warn("skill watch: cannot watch root", "dir", root, "error", err)
			continue
		}
		// Watch one level down so edits inside skill directories are seen.
		for _, s := range r.List() {
			if err := watcher.Add(s.RootDir); err != nil {
				slog.Debug("skill watch: cannot watch skill dir", "dir", s.RootDir, "error", err)
			}
		}
	}

	var timer *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(rebuildDebounce)
			} else {
				timer.Reset(rebuildDebounce)
			}
			pending = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("skill watch error", "error", err)
		case <-pending:
			pending = nil
			r.Rebuild()
			// Newly created skill directories need their own watch.
			for _, s := range r.List() {
				_ = watcher.Add(s.RootDir)
			}
		}
	}
}
