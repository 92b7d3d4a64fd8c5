// Package rendezvous bridges tool invocations streamed to the remote executor
// with the results it later posts back on a separate request.
//
// Results are keyed by call id. Each entry is delivered at most once: the
// first Retrieve (or Wait) that finds it removes it. Entries nobody consumes
// are evicted by a periodic sweep once they are older than the retention
// window.
//
// Flow:
//
//	runner: emit tool_use(id) -> Wait(id) ... receiver: Put(id, result) -> runner wakes
package rendezvous

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/metrics"
)

const (
	DefaultRetention     = 5 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
	DefaultPollInterval  = 100 * time.Millisecond
)

// Config holds store timing.
type Config struct {
	Retention     time.Duration // entries older than this are swept
	SweepInterval time.Duration // how often the sweep runs after Start
	PollInterval  time.Duration // re-check cadence for waiters
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Retention:     DefaultRetention,
		SweepInterval: DefaultSweepInterval,
		PollInterval:  DefaultPollInterval,
	}
}

type entry struct {
	value      json.RawMessage
	insertedAt time.Time
}

// Store is an in-memory, TTL-bounded map from call id to tool result.
// All methods are safe for concurrent use.
type Store struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]entry
	waiters map[string][]chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Store. The sweep does not run until Start is called.
func New(cfg Config, logger *slog.Logger) *Store {
	def := DefaultConfig()
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]entry),
		waiters: make(map[string][]chan struct{}),
	}
}

// SetClock replaces the time source used for insertion stamps and sweeps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Put inserts or overwrites the result for callID and wakes its waiters.
func (s *Store) Put(callID string, value json.RawMessage) {
	s.mu.Lock()
	s.entries[callID] = entry{value: value, insertedAt: s.now()}
	waiting := s.waiters[callID]
	delete(s.waiters, callID)
	n := len(s.entries)
	s.mu.Unlock()

	metrics.PendingResults.Set(float64(n))
	for _, ch := range waiting {
		close(ch)
	}
}

// Has reports whether a result for callID is waiting to be consumed.
func (s *Store) Has(callID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[callID]
	return ok
}

// Retrieve removes and returns the result for callID. The boolean is false
// when no result is present; a present result may itself be any JSON value.
func (s *Store) Retrieve(callID string) (json.RawMessage, bool) {
	s.mu.Lock()
	e, ok := s.entries[callID]
	if ok {
		delete(s.entries, callID)
	}
	n := len(s.entries)
	s.mu.Unlock()

	if ok {
		metrics.PendingResults.Set(float64(n))
		metrics.ResultsConsumed.Inc()
	}
	return e.value, ok
}

// Len returns the number of unconsumed results.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Wait blocks until a result for callID is available, timeout elapses, or ctx
// is done. The result is consumed; ok is false on timeout or cancellation.
func (s *Store) Wait(ctx context.Context, callID string, timeout time.Duration) (json.RawMessage, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		v, ok, ch := s.claimOrSubscribe(callID)
		if ok {
			return v, true
		}
		select {
		case <-ch:
		case <-ticker.C:
		case <-deadline.C:
			s.unsubscribe(callID, ch)
			// A Put may have landed between the last claim and the deadline.
			return s.Retrieve(callID)
		case <-ctx.Done():
			s.unsubscribe(callID, ch)
			return nil, false
		}
		s.unsubscribe(callID, ch)
	}
}

// claimOrSubscribe consumes the entry for callID if present; otherwise it
// registers a channel that Put closes. Both happen under one lock so a Put
// cannot slip between the check and the registration.
func (s *Store) claimOrSubscribe(callID string) (json.RawMessage, bool, chan struct{}) {
	s.mu.Lock()
	if e, ok := s.entries[callID]; ok {
		delete(s.entries, callID)
		n := len(s.entries)
		s.mu.Unlock()
		metrics.PendingResults.Set(float64(n))
		metrics.ResultsConsumed.Inc()
		return e.value, true, nil
	}
	ch := make(chan struct{})
	s.waiters[callID] = append(s.waiters[callID], ch)
	s.mu.Unlock()
	return nil, false, ch
}

func (s *Store) unsubscribe(callID string, ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.waiters[callID]
	for i, c := range list {
		if c == ch {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(s.waiters, callID)
	} else {
		s.waiters[callID] = list
	}
}

// Sweep deletes every entry older than the retention window and returns how
// many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	cutoff := s.now().Add(-s.cfg.Retention)
	removed := 0
	for id, e := range s.entries {
		if e.insertedAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	metrics.PendingResults.Set(float64(n))
	if removed > 0 {
		metrics.ResultsSwept.Add(float64(removed))
		s.logger.Info("rendezvous sweep evicted unconsumed results", "removed", removed, "remaining", n)
	}
	return removed
}

// Start begins the periodic sweep loop. Calling it on a running store is a
// no-op.
func (s *Store) Start() {
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()

	s.logger.Info("rendezvous sweep started", "interval", s.cfg.SweepInterval, "retention", s.cfg.Retention)
}

// Stop halts the sweep loop and waits for it to exit.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.wg.Wait()
		s.cancel = nil
		s.logger.Info("rendezvous sweep stopped")
	}
}
