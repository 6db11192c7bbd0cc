package config

import "fmt"

// Reloader re-reads a TOML file into a Store. It is the callback a Watcher
// runs when the file changes.
type Reloader[T any] struct {
	store    *Store[T]
	path     string
	defaults T
	override func(*T)
}

// NewReloader creates a reloader for path. Each load starts from a copy of
// defaults. override, if non-nil, is applied to the decoded value before it
// is validated, so command-line flags keep winning over the file.
func NewReloader[T any](store *Store[T], path string, defaults T, override func(*T)) *Reloader[T] {
	return &Reloader[T]{
		store:    store,
		path:     path,
		defaults: defaults,
		override: override,
	}
}

// Load reads the file without touching the store.
func (r *Reloader[T]) Load() (*T, error) {
	cfg := r.defaults
	if err := decodeFile(r.path, &cfg); err != nil {
		return nil, err
	}
	if r.override != nil {
		r.override(&cfg)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", r.path, err)
	}
	return &cfg, nil
}

// Reload loads the file and swaps it into the store. On error the store
// keeps its current value.
func (r *Reloader[T]) Reload() error {
	cfg, err := r.Load()
	if err != nil {
		return err
	}
	r.store.Swap(cfg)
	return nil
}
