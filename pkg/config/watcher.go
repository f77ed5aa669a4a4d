package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives the freshly loaded configuration after a file change.
type ReloadFunc func(*Config)

// Watcher watches a configuration file for changes and reloads it.
// Changes are debounced so editors that write in several steps trigger a
// single reload, and a reload that fails validation keeps the previous
// configuration in effect.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
}

// NewWatcher creates a watcher for the configuration file at path.
// debounce <= 0 defaults to 250ms.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	// Watch the directory rather than the file itself: editors that
	// rename-over the file would otherwise detach the watch.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		path:     path,
		debounce: debounce,
		watcher:  fsw,
		logger:   slog.Default().With("component", "config.watcher"),
	}, nil
}

// Watch blocks processing file events until ctx is cancelled, invoking
// onReload with each successfully loaded configuration. Load failures are
// logged and skipped.
func (w *Watcher) Watch(ctx context.Context, onReload ReloadFunc) error {
	defer w.watcher.Close()

	w.logger.Info("Config watcher started",
		"path", w.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Config watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.shouldProcess(event) {
				continue
			}
			w.logger.Debug("Config file event",
				"path", event.Name,
				"op", event.Op.String(),
			)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-pending:
			timer = nil
			pending = nil
			cfg, err := LoadConfigWithEnvOverrides(w.path)
			if err != nil {
				w.logger.Error("Config reload failed, keeping previous configuration",
					"path", w.path,
					"error", err,
				)
				continue
			}
			w.logger.Info("Config reloaded", "path", w.path)
			onReload(cfg)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Config watcher error", "error", err)
		}
	}
}

// shouldProcess reports whether an event concerns the watched file and a
// write-like operation.
func (w *Watcher) shouldProcess(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}
