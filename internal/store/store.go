// Package store hosts the fight state for an application. It runs every
// action through the reducer, notifies subscribers, derives live stats on
// demand and writes the state to storage in debounced batches.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/bosstracker/internal/domain"
	"github.com/nfrund/bosstracker/internal/fight"
	"github.com/nfrund/bosstracker/internal/persist"
)

// StateListener is called after every state change.
type StateListener func(*fight.State)

// StatsListener is called whenever derived stats are recomputed.
type StatsListener func(fight.Stats)

// Store owns the current fight state. Dispatch, Tick and the subscription
// methods are safe to call from any goroutine; listeners run on the caller's
// goroutine outside the store lock.
type Store struct {
	mu       sync.Mutex
	reducer  *fight.Reducer
	defaults *fight.State
	state    *fight.State
	frame    float64

	// aggregate cache keyed by DamageLogVersion
	aggValid   bool
	aggVersion int
	agg        fight.Aggregates

	statsValid bool
	stats      fight.Stats

	nextSubID int
	stateSubs map[int]StateListener
	statsSubs map[int]StatsListener

	storage     persist.Storage
	key         string
	debounce    time.Duration
	minInterval time.Duration
	clock       Clock
	logger      *slog.Logger

	writeMu   sync.Mutex
	pending   Timer
	gen       uint64
	dirty     bool
	lastWrite time.Time
	closed    bool
}

// New creates a store whose state starts as defaults, overwritten by the
// sanitized document found in storage when one is configured.
func New(ctx context.Context, reducer *fight.Reducer, defaults *fight.State, opts ...Option) *Store {
	s := &Store{
		reducer:     reducer,
		defaults:    defaults,
		state:       defaults,
		stateSubs:   make(map[int]StateListener),
		statsSubs:   make(map[int]StatsListener),
		key:         DefaultKey,
		debounce:    DefaultDebounce,
		minInterval: DefaultMinInterval,
		clock:       systemClock{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "store")
	s.frame = float64(s.clock.Now().UnixMilli())
	s.state = s.hydrate(ctx)
	return s
}

func (s *Store) hydrate(ctx context.Context) *fight.State {
	if s.storage == nil {
		return s.defaults
	}
	data, err := s.storage.Load(ctx, s.key)
	if errors.Is(err, domain.ErrNotFound) {
		return s.defaults
	}
	if err != nil {
		s.logger.Warn("failed to load stored state, starting fresh", "key", s.key, "error", err)
		return s.defaults
	}

	restored := persist.Restore(data, s.defaults)
	if restored == s.defaults {
		s.logger.Warn("stored state discarded", "key", s.key)
		return s.defaults
	}
	next := s.settle(s.reducer.Normalize(restored))
	s.logger.Debug("state restored", "key", s.key, "attacks", len(next.DamageLog), "sequence", next.ActiveSequenceID)
	return next
}

// settle points a freshly normalized state whose target no longer exists at
// the default target.
func (s *Store) settle(next *fight.State) *fight.State {
	if !s.knownTarget(next.SelectedBossID) {
		next.SelectedBossID = s.defaults.SelectedBossID
	}
	return next
}

func (s *Store) knownTarget(id string) bool {
	if id == fight.CustomTargetID {
		return true
	}
	_, ok := s.reducer.Catalog().Boss(id)
	return ok
}

// State returns the current state. The value must not be modified.
func (s *Store) State() *fight.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and returns the resulting state. An action that
// changes nothing neither notifies nor persists.
func (s *Store) Dispatch(a fight.Action) *fight.State {
	s.mu.Lock()
	next := s.reducer.Reduce(s.state, a)
	if next == s.state {
		s.mu.Unlock()
		return next
	}
	s.commitAndUnlock(next)
	return next
}

// Rebase re-validates the state after the game data changed from prev to
// the reducer's current catalog. Listeners are notified and the result is
// persisted as for a dispatch.
func (s *Store) Rebase(prev fight.Catalog) *fight.State {
	s.mu.Lock()
	next := s.settle(s.reducer.Rebase(s.state, prev))
	s.aggValid = false
	s.commitAndUnlock(next)
	return next
}

// commitAndUnlock installs next, schedules a write and notifies listeners
// once the lock is released.
func (s *Store) commitAndUnlock(next *fight.State) {
	s.state = next
	s.statsValid = false
	s.schedulePersistLocked()
	stats := s.statsLocked()
	stateSubs, statsSubs := s.listenersLocked()
	s.mu.Unlock()

	for _, fn := range stateSubs {
		fn(next)
	}
	for _, fn := range statsSubs {
		fn(stats)
	}
}

// Tick advances the frame timestamp used as "now" for a running fight and
// republishes the stats.
func (s *Store) Tick(frameTimestamp float64) fight.Stats {
	s.mu.Lock()
	if frameTimestamp != s.frame {
		s.frame = frameTimestamp
		s.statsValid = false
	}
	stats := s.statsLocked()
	_, statsSubs := s.listenersLocked()
	s.mu.Unlock()

	for _, fn := range statsSubs {
		fn(stats)
	}
	return stats
}

// Stats returns the stats for the current state at the last frame.
func (s *Store) Stats() fight.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Store) statsLocked() fight.Stats {
	if !s.statsValid {
		s.stats = fight.ComputeStats(s.state, s.reducer.Catalog(), s.frame, s.aggregatesLocked())
		s.statsValid = true
	}
	return s.stats
}

// aggregatesLocked returns the aggregate of the active log, re-deriving it
// only when the log version moved.
func (s *Store) aggregatesLocked() fight.Aggregates {
	if !s.aggValid || s.aggVersion != s.state.DamageLogVersion {
		s.agg = fight.DeriveFromLog(s.state.DamageLog)
		s.aggVersion = s.state.DamageLogVersion
		s.aggValid = true
	}
	return s.agg
}

func (s *Store) listenersLocked() ([]StateListener, []StatsListener) {
	stateSubs := make([]StateListener, 0, len(s.stateSubs))
	for _, fn := range s.stateSubs {
		stateSubs = append(stateSubs, fn)
	}
	statsSubs := make([]StatsListener, 0, len(s.statsSubs))
	for _, fn := range s.statsSubs {
		statsSubs = append(statsSubs, fn)
	}
	return stateSubs, statsSubs
}

// SubscribeState registers fn for state changes. The returned function
// removes it.
func (s *Store) SubscribeState(fn StateListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.stateSubs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.stateSubs, id)
	}
}

// SubscribeStats registers fn for stats updates. The returned function
// removes it.
func (s *Store) SubscribeStats(fn StatsListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.statsSubs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.statsSubs, id)
	}
}

// schedulePersistLocked marks the state dirty and arms the write timer if
// none is pending. Later changes ride on the pending write.
func (s *Store) schedulePersistLocked() {
	if s.storage == nil || s.closed {
		return
	}
	s.dirty = true
	if s.pending != nil {
		return
	}
	delay := s.debounce
	if !s.lastWrite.IsZero() {
		delay = max(delay, s.minInterval-s.clock.Now().Sub(s.lastWrite))
	}
	s.gen++
	gen := s.gen
	s.pending = s.clock.AfterFunc(delay, func() { s.onTimer(gen) })
}

func (s *Store) cancelPendingLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.gen++
}

func (s *Store) onTimer(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.mu.Unlock()

	if err := s.write(context.Background()); err != nil {
		s.logger.Warn("failed to persist state", "key", s.key, "error", err)
	}
}

// write saves the latest state if it has unsaved changes. Writes are
// serialized so an older state never lands after a newer one.
func (s *Store) write(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	state := s.state
	s.dirty = false
	s.lastWrite = s.clock.Now()
	s.mu.Unlock()

	data, err := persist.Serialize(state)
	if err != nil {
		return err
	}
	if err := s.storage.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Flush cancels any pending write and writes the latest state now.
func (s *Store) Flush(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	s.mu.Lock()
	s.cancelPendingLocked()
	s.mu.Unlock()

	if err := s.write(ctx); err != nil {
		s.logger.Warn("failed to flush state", "key", s.key, "error", err)
		return err
	}
	return nil
}

// Clear deletes the stored document and resets the state to defaults.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.cancelPendingLocked()
	s.dirty = false
	next := *s.defaults
	next.DamageLogVersion = s.state.DamageLogVersion + 1
	s.state = &next
	s.statsValid = false
	stats := s.statsLocked()
	stateSubs, statsSubs := s.listenersLocked()
	s.mu.Unlock()

	var err error
	if s.storage != nil {
		s.writeMu.Lock()
		err = s.storage.Delete(ctx, s.key)
		s.writeMu.Unlock()
		if err != nil {
			s.logger.Warn("failed to clear stored state", "key", s.key, "error", err)
		}
	}

	for _, fn := range stateSubs {
		fn(&next)
	}
	for _, fn := range statsSubs {
		fn(stats)
	}
	return err
}

// Close stops any pending write without performing it. Call Flush first
// to keep unsaved changes.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPendingLocked()
	s.closed = true
}
