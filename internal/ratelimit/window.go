package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow admits at most limit requests within any window of the
// configured length. Each access first drops timestamps older than
// (now - window), so no stale entry survives a cleanup.
type SlidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	stamps []time.Time
}

// NewSlidingWindow returns an empty window. A limit below one admits nothing.
func NewSlidingWindow(window time.Duration, limit int) *SlidingWindow {
	if window <= 0 {
		window = time.Second
	}
	return &SlidingWindow{
		window: window,
		limit:  limit,
	}
}

// prune drops expired timestamps. Caller must hold mu.
func (w *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// TryAdmit records the request and returns true if fewer than limit requests
// remain in the window, otherwise false without recording anything.
func (w *SlidingWindow) TryAdmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.prune(now)
	if len(w.stamps) >= w.limit {
		return false
	}
	w.stamps = append(w.stamps, now)
	return true
}

// WaitTime returns how long until the oldest in-window timestamp expires and
// a slot opens up. Zero means a slot is free now; a negative duration means
// no slot will ever open (limit < 1).
func (w *SlidingWindow) WaitTime() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.prune(now)
	if len(w.stamps) < w.limit {
		return 0
	}
	if w.limit < 1 {
		return -1
	}
	oldest := w.stamps[0]
	return oldest.Add(w.window).Sub(now)
}

// Count returns the number of requests currently inside the window.
func (w *SlidingWindow) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(time.Now())
	return len(w.stamps)
}

// Limit returns the configured request cap.
func (w *SlidingWindow) Limit() int { return w.limit }
