package toylsp

import (
	"log/slog"

	"github.com/gossip-lsp/toylsp/config"
)

// LoadSettings reads the TOML file at path over the default settings and
// applies override, if non-nil, on top. A missing file yields the defaults.
func LoadSettings(path string, override func(*config.Settings)) (*config.Settings, error) {
	defaults := config.Defaults()
	if path == "" {
		if override != nil {
			override(&defaults)
		}
		return &defaults, defaults.Validate()
	}
	return config.NewReloader(nil, path, defaults, override).Load()
}

// WatchSettings reloads the TOML file at path into store whenever it
// changes. A file that fails to load or validate is logged and the
// previous settings stay in effect.
func WatchSettings(store *config.Store[config.Settings], path string, override func(*config.Settings), logger *slog.Logger) (*config.Watcher, error) {
	defaults := config.Defaults()
	reloader := config.NewReloader(store, path, defaults, override)

	return config.NewWatcher(path, func() {
		if err := reloader.Reload(); err != nil {
			logger.Warn("failed to reload config", "path", path, "error", err)
			return
		}
		logger.Info("config reloaded", "path", path)
	}, config.WithWatcherLogger(logger))
}
