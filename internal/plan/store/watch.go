package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	apperrors "github.com/Iron-Ham/autoplan/internal/errors"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events editors emit for one save.
const watchDebounce = 50 * time.Millisecond

// Watch signals on the returned channel each time the document at location
// is written, created or replaced. The parent directory is watched so that
// editors that save by renaming a temp file over the document are seen.
// Signals are coalesced: a slow reader sees at most one pending signal.
// The channel is closed once ctx is done.
func (s *FileStore) Watch(ctx context.Context, location string) (<-chan struct{}, error) {
	target, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return nil, classifyError(apperrors.ReasonUnreadable, location, err)
	}

	out := make(chan struct{}, 1)
	go s.watchLoop(ctx, w, target, out)
	return out, nil
}

func (s *FileStore) watchLoop(ctx context.Context, w *fsnotify.Watcher, target string, out chan<- struct{}) {
	defer close(out)
	defer w.Close()

	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)

		case <-debounce.C:
			select {
			case out <- struct{}{}:
			default:
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("plan watcher error", "path", target, "error", err)
		}
	}
}
