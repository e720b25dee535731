package ratelimit

import (
	"sync"
	"time"
)

// Store holds named limiters shared across executions. Buckets are created
// lazily on first use and live until cleared. The store lock guards only the
// maps; each limiter carries its own mutex, so contention on one bucket
// never blocks access to another.
type Store struct {
	mu      sync.Mutex
	buckets map[string]*TokenBucket
	windows map[string]*SlidingWindow
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		buckets: make(map[string]*TokenBucket),
		windows: make(map[string]*SlidingWindow),
	}
}

// TokenBucket returns the bucket with the given id, creating it with the
// supplied parameters on first use. An existing bucket keeps its original
// parameters; reconfiguring requires Clear first.
func (s *Store) TokenBucket(id string, capacity, refillRate float64) *TokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[id]
	if !ok {
		b = NewTokenBucket(capacity, refillRate)
		s.buckets[id] = b
	}
	return b
}

// SlidingWindow returns the window with the given id, creating it on first
// use. An existing window keeps its original parameters.
func (s *Store) SlidingWindow(id string, window time.Duration, limit int) *SlidingWindow {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[id]
	if !ok {
		w = NewSlidingWindow(window, limit)
		s.windows[id] = w
	}
	return w
}

// Clear removes the limiter(s) registered under id, if any.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buckets, id)
	delete(s.windows, id)
}

// ClearAll removes every limiter. Intended for test isolation and
// operational reset; there is no cross-restart persistence to reconcile.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets = make(map[string]*TokenBucket)
	s.windows = make(map[string]*SlidingWindow)
}

// DefaultStore is the process-wide store used when none is injected.
var DefaultStore = NewStore()
