package nodes

import (
	"sync"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// mergeState is the synchronization barrier for one merge point within one
// execution. Concurrent callers append their inputs; the arrival that
// reaches the expected count finalizes the state, closes done, and becomes
// the primary. On timeout or cancellation, the first caller to observe it
// finalizes with whatever arrived.
//
// final is the input snapshot fixed at finalization time, so every waiter
// observes the same combined result even if stragglers arrive afterwards
// (the benign over-arrival race).
type mergeState struct {
	mu       sync.Mutex
	expected int
	inputs   []api.Payload

	done      chan struct{}
	finalized bool
	timedOut  bool
	primary   int
	final     []api.Payload
}

// arrive records an input. It returns the caller's arrival index and whether
// this arrival completed the barrier.
func (st *mergeState) arrive(p api.Payload) (idx int, completed bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	idx = len(st.inputs)
	st.inputs = append(st.inputs, p.Clone())

	if !st.finalized && len(st.inputs) >= st.expected {
		st.finalize(idx, false)
		completed = true
	}
	return idx, completed
}

// finalizeEarly finalizes on timeout or cancellation. It reports whether
// this caller performed the finalization (false if someone else already had).
func (st *mergeState) finalizeEarly(idx int) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.finalized {
		return false
	}
	st.finalize(idx, true)
	return true
}

// finalize fixes the snapshot and releases every waiter. Caller holds mu.
func (st *mergeState) finalize(primary int, timedOut bool) {
	st.finalized = true
	st.timedOut = timedOut
	st.primary = primary
	st.final = make([]api.Payload, len(st.inputs))
	copy(st.final, st.inputs)
	close(st.done)
}

// snapshot returns the finalized inputs and outcome. Only valid after done
// is closed.
func (st *mergeState) snapshot() (inputs []api.Payload, primary int, timedOut bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.final, st.primary, st.timedOut
}

// mergeArena owns the per-execution merge states, keyed by execution id plus
// node id. States are created on first arrival and removed explicitly on
// completion or timeout; correctness never depends on garbage-collection
// timing, and no state leaks across runs.
type mergeArena struct {
	mu     sync.Mutex
	states map[string]*mergeState
}

func newMergeArena() *mergeArena {
	return &mergeArena{states: make(map[string]*mergeState)}
}

// get returns the state for key, creating it with the given expected count
// on first arrival.
func (a *mergeArena) get(key string, expected int) *mergeState {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.states[key]
	if !ok {
		st = &mergeState{
			expected: expected,
			done:     make(chan struct{}),
		}
		a.states[key] = st
	}
	return st
}

func (a *mergeArena) remove(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.states, key)
}

// size reports the number of live states; used by tests to verify teardown.
func (a *mergeArena) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.states)
}
