// Package watcher re-reads the configuration file when it changes on disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"lanchat/internal/config"
	"lanchat/internal/util/logger/sl"

	"github.com/fsnotify/fsnotify"
)

type ConfigWatcher struct {
	watcher   *fsnotify.Watcher
	path      string
	debouncer *Debouncer
	load      LoadFunc
	onReload  ReloadFunc
	metrics   *Metrics
	log       *slog.Logger
}

// NewConfigWatcher watches the directory holding path, so files replaced by
// rename are still picked up.
func NewConfigWatcher(path string, onReload ReloadFunc, log *slog.Logger, cfg Config) (*ConfigWatcher, error) {
	const op = "watcher.NewConfigWatcher"

	if path == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPath)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidPath, err)
	}

	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = DefaultDebounceDuration
	}
	if cfg.Load == nil {
		cfg.Load = config.Load
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ConfigWatcher{
		watcher:   fw,
		path:      abs,
		debouncer: NewDebouncer(cfg.DebounceDuration),
		load:      cfg.Load,
		onReload:  onReload,
		metrics:   &Metrics{},
		log:       log.With(slog.String("component", "config_watcher"), slog.String("path", abs)),
	}, nil
}

func (w *ConfigWatcher) Metrics() MetricsSnapshot {
	return w.metrics.Snapshot()
}

// Run handles file events until ctx is done, then releases the watcher.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	const op = "watcher.ConfigWatcher.Run"
	log := w.log.With(slog.String("op", op))

	defer w.Close()
	log.Info("Watching config file")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&WatchedEvents == 0 {
				continue
			}
			w.metrics.RecordEvent()
			log.Debug("Config file event", slog.String("event", event.Op.String()))

			w.debouncer.Debounce(w.path, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			w.metrics.RecordError()
			log.Warn("Watcher error", sl.Err(err))
		}
	}
}

func (w *ConfigWatcher) reload() {
	const op = "watcher.ConfigWatcher.reload"
	log := w.log.With(slog.String("op", op))

	cfg, err := w.load(w.path)
	if err != nil {
		// файл мог быть записан не до конца, ждём следующего события
		w.metrics.RecordError()
		log.Warn("Failed to reload config", sl.Err(err))
		return
	}

	w.metrics.RecordReload()
	log.Info("Config reloaded")
	if w.onReload != nil {
		w.onReload(cfg)
	}
}

func (w *ConfigWatcher) Close() error {
	w.debouncer.Stop()
	return w.watcher.Close()
}
