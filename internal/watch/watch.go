// Package watch reports changes to a single file, such as the saved filter
// state edited by hand or by another process.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/KaramelBytes/punctuality-cli/internal/utils"
)

// DefaultDebounce coalesces the bursts of events an editor or an atomic
// rename produces.
const DefaultDebounce = 150 * time.Millisecond

// Watcher follows one file through its parent directory, so replacing the
// file by rename is seen too.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	log      *slog.Logger
}

// New starts watching the directory of path, creating it when needed.
func New(path string, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure watch dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{path: abs, debounce: debounce, watcher: w, log: log}, nil
}

// Path is the watched file.
func (w *Watcher) Path() string { return w.path }

// Run calls onChange after each settled change of the file until ctx is done
// or the watcher fails. Calls are sequential.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug("watched file event", "path", ev.Name, "op", ev.Op.String())
			settle = time.After(w.debounce)
		case <-settle:
			settle = nil
			onChange(w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", w.path, err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error { return w.watcher.Close() }
