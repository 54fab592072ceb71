package store

import (
	"log/slog"
	"time"

	"github.com/nfrund/bosstracker/internal/persist"
)

const (
	// DefaultDebounce is how long a change waits before it is written.
	DefaultDebounce = 150 * time.Millisecond

	// DefaultMinInterval is the minimum spacing between two writes.
	DefaultMinInterval = time.Second

	// DefaultKey is the storage key of the state document.
	DefaultKey = "fight-state"
)

// Option configures a Store.
type Option func(*Store)

// WithStorage enables persistence to st. Without it the store is
// memory-only.
func WithStorage(st persist.Storage) Option {
	return func(s *Store) {
		s.storage = st
	}
}

// WithKey sets the storage key of the state document.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithDebounce sets the delay between a change and its write. Set to 0 to
// write on the next timer tick.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		s.debounce = d
	}
}

// WithMinInterval sets the minimum spacing between two writes.
func WithMinInterval(d time.Duration) Option {
	return func(s *Store) {
		s.minInterval = d
	}
}

// WithClock replaces the system clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}
