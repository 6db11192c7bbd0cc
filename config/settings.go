package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Settings is the server's configuration file schema.
type Settings struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`

	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogFile       string `toml:"log_file"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb"`
	LogMaxBackups int    `toml:"log_max_backups"`

	// ReplyErrors answers unrecognized methods, undecodable params and
	// unparseable requests with JSON-RPC errors instead of dropping them.
	ReplyErrors bool `toml:"reply_errors"`

	MaxContentLength int `toml:"max_content_length"`
}

// Defaults returns the settings used when no config file exists.
func Defaults() Settings {
	return Settings{
		Name:             "toy-lsp",
		Version:          "0.1.0",
		LogLevel:         "info",
		LogFormat:        "text",
		LogMaxSizeMB:     10,
		LogMaxBackups:    3,
		MaxContentLength: 64 << 20,
	}
}

// Level parses LogLevel. Level names are those understood by slog
// ("debug", "info", "warn", "error", optionally with an offset like "info+2").
func (s *Settings) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

func (s *Settings) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if _, err := s.Level(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: unknown format %q", s.LogFormat))
	}
	if s.LogMaxSizeMB < 0 || s.LogMaxBackups < 0 {
		errs = append(errs, errors.New("log rotation limits must not be negative"))
	}
	if s.MaxContentLength <= 0 {
		errs = append(errs, fmt.Errorf("max_content_length must be positive, got %d", s.MaxContentLength))
	}
	return errors.Join(errs...)
}
