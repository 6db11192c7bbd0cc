package toylsp

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gossip-lsp/toylsp/config"
)

// loggerCloser stops the level from following the store and closes the
// log file, if any.
type loggerCloser struct {
	stopFollowing func()
	file          io.Closer
}

func (c *loggerCloser) Close() error {
	c.stopFollowing()
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}

// NewLogger builds a logger from the current settings in store. Records go
// to w and, when log_file is set, also to a size-rotated file. The level
// follows later changes to log_level; the other logging settings are read
// once. The returned Closer detaches the level from store and closes the
// log file.
func NewLogger(w io.Writer, store *config.Store[config.Settings]) (*slog.Logger, io.Closer) {
	cfg := store.Get()

	level := new(slog.LevelVar)
	if l, err := cfg.Level(); err == nil {
		level.Set(l)
	}

	closer := &loggerCloser{}
	if cfg.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		}
		w = io.MultiWriter(w, file)
		closer.file = file
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)

	closer.stopFollowing = store.OnChange(func(old, new_ *config.Settings) {
		l, err := new_.Level()
		if err != nil {
			logger.Warn("ignoring log level", "error", err)
			return
		}
		if l != level.Level() {
			level.Set(l)
			logger.Info("log level changed", "level", l.String())
		}
	})
	return logger, closer
}
