package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/markusressel/fancurve/internal/ui"
)

const watcherDebounce = 500 * time.Millisecond

// Watcher reports changes to curve files in a set of directories.
// Bursts of events are collapsed into a single notification.
type Watcher struct {
	dirs    []string
	changes chan string
}

func NewWatcher(dirs ...string) *Watcher {
	return &Watcher{
		dirs:    dirs,
		changes: make(chan string, 1),
	}
}

// Changes emits the path of the last changed curve file of a burst
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Run watches until ctx is cancelled. Directories that do not exist are skipped.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	watching := 0
	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				ui.Debug("Not watching missing curve directory %s", dir)
				continue
			}
			ui.Warning("Cannot watch curve directory %s: %v", dir, err)
			continue
		}
		watching++
	}
	if watching == 0 {
		<-ctx.Done()
		return nil
	}

	var pending string
	timer := time.NewTimer(watcherDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isCurveFileEvent(event) {
				continue
			}
			pending = event.Name
			timer.Reset(watcherDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			ui.Warning("Curve directory watcher error: %v", err)
		case <-timer.C:
			w.emit(pending)
		}
	}
}

func (w *Watcher) emit(path string) {
	select {
	case w.changes <- path:
	default:
		// replace the unread notification with the newer one
		select {
		case <-w.changes:
		default:
		}
		w.changes <- path
	}
}

func isCurveFileEvent(event fsnotify.Event) bool {
	if !strings.HasSuffix(filepath.Base(event.Name), curveFileExtension) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}
