package resilience

import (
	"sync"
	"time"
)

// BreakerStore tracks consecutive failures per operation key. Entries are
// created lazily and never deleted; an open circuit closes again on its own
// once the cool-down window has elapsed. Each key carries its own lock so
// sessions hammering different keys never contend with each other.
type BreakerStore struct {
	Threshold int
	Cooldown  time.Duration
	Now       func() time.Time

	entries sync.Map // string -> *breakerEntry
}

type breakerEntry struct {
	mu                  sync.Mutex
	consecutiveFailures int
	lastFailure         time.Time
}

// CircuitState is a read-only snapshot of one key's circuit.
type CircuitState struct {
	Open                bool
	ConsecutiveFailures int
	LastFailure         time.Time
}

func NewBreakerStore(threshold int, cooldown time.Duration) *BreakerStore {
	return &BreakerStore{
		Threshold: threshold,
		Cooldown:  cooldown,
		Now:       time.Now,
	}
}

func (s *BreakerStore) entry(key string) *breakerEntry {
	if e, ok := s.entries.Load(key); ok {
		return e.(*breakerEntry)
	}
	e, _ := s.entries.LoadOrStore(key, &breakerEntry{})
	return e.(*breakerEntry)
}

// Allow reports whether a call for key may proceed. A circuit past the
// failure threshold rejects calls until the cool-down has elapsed, at which
// point it resets to closed.
func (s *BreakerStore) Allow(key string) bool {
	e := s.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.consecutiveFailures < s.Threshold {
		return true
	}
	if s.Now().Sub(e.lastFailure) >= s.Cooldown {
		e.consecutiveFailures = 0
		return true
	}
	return false
}

// RecordFailure increments the consecutive failure count for key.
func (s *BreakerStore) RecordFailure(key string) {
	e := s.entry(key)
	e.mu.Lock()
	e.consecutiveFailures++
	e.lastFailure = s.Now()
	e.mu.Unlock()
}

// Reset clears the failure count for key after a success.
func (s *BreakerStore) Reset(key string) {
	e := s.entry(key)
	e.mu.Lock()
	e.consecutiveFailures = 0
	e.mu.Unlock()
}

// State returns a snapshot of the circuit for key.
func (s *BreakerStore) State(key string) CircuitState {
	e := s.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	open := e.consecutiveFailures >= s.Threshold &&
		s.Now().Sub(e.lastFailure) < s.Cooldown
	return CircuitState{
		Open:                open,
		ConsecutiveFailures: e.consecutiveFailures,
		LastFailure:         e.lastFailure,
	}
}
