package backend

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/atomicstack/castaway/internal/logging"
	"github.com/atomicstack/castaway/internal/logging/events"
)

// startDirWatcher watches the download directory and each podcast folder
// inside it. Files removed or renamed away from outside the program are
// forgotten in the store.
func (w *Workers) startDirWatcher() error {
	root := w.opts.DownloadDir
	if root == "" {
		return fmt.Errorf("watch downloads: no download directory")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("watch downloads: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch downloads: %w", err)
	}
	if err := watcher.Add(root); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", root, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", root, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := watcher.Add(filepath.Join(root, entry.Name())); err != nil {
				logging.Error(fmt.Errorf("watch %s: %w", entry.Name(), err))
			}
		}
	}

	w.wg.Add(1)
	go w.watchLoop(watcher)
	return nil
}

func (w *Workers) watchLoop(watcher *fsnotify.Watcher) {
	defer w.wg.Done()
	defer watcher.Close()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleFileEvent(watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error(fmt.Errorf("watch downloads: %w", err))
		}
	}
}

func (w *Workers) handleFileEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := watcher.Add(event.Name); err != nil {
				logging.Error(fmt.Errorf("watch %s: %w", event.Name, err))
			}
		}
		return
	}
	if event.Op&fsnotify.Remove != fsnotify.Remove && event.Op&fsnotify.Rename != fsnotify.Rename {
		return
	}
	cleared, err := w.store.ClearPath(w.ctx, event.Name)
	if err != nil {
		if w.ctx.Err() == nil {
			logging.Error(err)
		}
		return
	}
	if len(cleared) == 0 {
		return
	}
	events.Watch.Removed(event.Name)
	w.emit(Event{Kind: KindFileRemoved, Data: cleared})
}
