package warehouse

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes an extract drop directory and invokes a callback when
// new or rewritten extract files settle. Events are debounced so a file
// still being copied in does not trigger a premature pass.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher over dir. A zero debounce defaults to two
// seconds.
func NewWatcher(dir string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{dir: dir, debounce: debounce, logger: logger}
}

// Run blocks until ctx is cancelled, calling fn after each settled batch
// of extract file changes. An error from fn stops the watcher; fn should
// swallow failures it considers retriable.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("Watching extract directory", "dir", w.dir, "debounce", w.debounce)

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("Extract change observed", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)

		case <-pending:
			pending = nil
			if err := fn(ctx); err != nil {
				w.logger.Error("Watch pass failed", "error", err)
				return err
			}
		}
	}
}

// relevant filters for extract file writes; editors and transfer tools
// produce chmod noise that should not trigger a pass.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	return ext == ".csv" || ext == ".db" || ext == ".sqlite"
}
