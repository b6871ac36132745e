package config

import (
	"fmt"
	"sync"

	"github.com/knadh/koanf/providers/file"

	"github.com/tbracken/newsgraph/internal/logging"
)

// ReloadCallback is called when the config file is successfully
// reloaded. Errors returned by the callback are logged; the watcher
// keeps watching with the previous valid config.
type ReloadCallback func(cfg *Config) error

// Watcher watches a config file and hot-reloads tunable thresholds.
// Invalid configs during reload are logged but never crash the
// watcher or replace the last valid config.
type Watcher struct {
	path     string
	callback ReloadCallback
	provider *file.File
	logger   *logging.Logger

	mu      sync.Mutex
	started bool
}

// NewWatcher creates a watcher for the given config file
func NewWatcher(path string, callback ReloadCallback) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}
	return &Watcher{
		path:     path,
		callback: callback,
		provider: file.Provider(path),
		logger:   logging.GetLogger("config.watcher"),
	}, nil
}

// Start loads the initial config, invokes the callback with it, then
// watches the file for changes. Returns an error if the initial load
// or initial callback fails.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	initial, err := Load(w.path)
	if err != nil {
		return fmt.Errorf("failed to load initial config: %w", err)
	}
	if err := w.callback(initial); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	err = w.provider.Watch(func(event interface{}, err error) {
		if err != nil {
			w.logger.ErrorWithErr("config watch error", err)
			return
		}
		cfg, err := Load(w.path)
		if err != nil {
			w.logger.ErrorWithErr("ignoring invalid config reload", err)
			return
		}
		if err := w.callback(cfg); err != nil {
			w.logger.ErrorWithErr("config reload callback failed", err)
			return
		}
		w.logger.Info("reloaded config from %s", w.path)
	})
	if err != nil {
		return fmt.Errorf("failed to watch config file: %w", err)
	}

	w.started = true
	return nil
}

// Stop stops watching the config file
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return nil
	}
	w.started = false
	return w.provider.Unwatch()
}
