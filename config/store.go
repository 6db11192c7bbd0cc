// Package config holds the server settings and keeps them current: a TOML
// loader, a store that readers poll without locking, and a file watcher
// that reloads the store when the file changes.
package config

import (
	"sync"
	"sync/atomic"
)

// Store publishes the current settings value. Values handed to Swap are
// treated as immutable; a change is made by swapping in a new value.
type Store[T any] struct {
	value atomic.Pointer[T]

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(old, new_ *T)
}

// NewStore creates a store holding initial, which must not be nil.
func NewStore[T any](initial *T) *Store[T] {
	s := &Store[T]{listeners: make(map[int]func(old, new_ *T))}
	s.value.Store(initial)
	return s
}

// Get returns the current value.
func (s *Store[T]) Get() *T {
	return s.value.Load()
}

// Swap publishes next and runs the listeners with the value it replaced.
// A nil next is ignored and the current value is returned.
func (s *Store[T]) Swap(next *T) *T {
	if next == nil {
		return s.Get()
	}

	// Listeners run in registration order under the lock, so two racing
	// swaps are observed in the order they were published.
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.value.Swap(next)
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			fn(old, next)
		}
	}
	return old
}

// OnChange registers fn to run after every Swap. The returned function
// removes it.
func (s *Store[T]) OnChange(fn func(old, new_ *T)) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
