package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

type validator interface {
	Validate() error
}

// LoadTOML decodes the TOML file at path over a copy of defaults and
// validates the result when T has a Validate method. A missing file yields
// the copy unchanged. The caller's defaults are never modified.
func LoadTOML[T any](path string, defaults T) (*T, error) {
	cfg := defaults
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return &cfg, nil
}

// decodeFile overlays the keys set in path onto cfg. Keys that match no
// field are rejected so a misspelt setting is reported rather than ignored.
func decodeFile(path string, cfg any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("parsing config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func validate(cfg any) error {
	if v, ok := cfg.(validator); ok {
		return v.Validate()
	}
	return nil
}
