package watcher

import (
	"time"

	"lanchat/internal/config"
)

// ReloadFunc receives every successfully re-read configuration.
type ReloadFunc func(cfg *config.Config)

// LoadFunc reads the configuration file at path.
type LoadFunc func(path string) (*config.Config, error)

// Config содержит настройки для ConfigWatcher
type Config struct {
	DebounceDuration time.Duration
	Load             LoadFunc
}
