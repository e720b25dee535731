package nodes

import (
	"context"
	"time"

	"github.com/tolgayilmaz86/NerveMind-sub001/internal/ratelimit"
	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// RateLimitExecutor gates an inline operation list behind a named,
// process-wide shared limiter, effective across concurrent and successive
// executions.
//
// Configuration:
//
//	bucketId          limiter name (required)
//	algorithm         tokenBucket | slidingWindow (default tokenBucket)
//	operations        inline operation list (required)
//
//	capacity          token bucket capacity (default 10)
//	refillRate        tokens per second (default 1)
//	tokensPerRequest  cost per request (default 1)
//
//	windowMs          sliding window length (default 1000)
//	maxRequests       request cap within the window (default 10)
//
//	waitForTokens     sleep until capacity is available (default false)
//	maxWaitMs         bound on the wait (default 5000)
//
// When capacity is unavailable within the bound, the node reports a
// throttled result (throttled=true) without running the operations instead
// of failing. When admitted, the operations' result merges into the output
// together with throttled=false and the observed waitedMs.
type RateLimitExecutor struct {
	store *ratelimit.Store
}

// NewRateLimitExecutor returns a rate-limit executor backed by the
// process-wide default bucket store.
func NewRateLimitExecutor() *RateLimitExecutor {
	return &RateLimitExecutor{store: ratelimit.DefaultStore}
}

// NewRateLimitExecutorWithStore returns an executor backed by the given
// store; used by tests that need bucket isolation.
func NewRateLimitExecutorWithStore(store *ratelimit.Store) *RateLimitExecutor {
	return &RateLimitExecutor{store: store}
}

// Store exposes the administrative surface (clear-all, clear-by-id) of the
// backing bucket store.
func (e *RateLimitExecutor) Store() *ratelimit.Store { return e.store }

func (e *RateLimitExecutor) Type() string { return "rateLimit" }

func (e *RateLimitExecutor) Execute(ctx context.Context, node api.Node, payload api.Payload, ec *api.ExecutionContext) (api.Payload, error) {
	bucketID := stringParam(node, "bucketId", "")
	if bucketID == "" {
		return nil, api.NewConfigError("rateLimit node %q: bucketId is required", node.ID)
	}
	ops, err := operationsParam(node, "operations")
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, api.NewConfigError("rateLimit node %q: no operations configured", node.ID)
	}

	algorithm := stringParam(node, "algorithm", "tokenBucket")
	var try func() bool
	var waitTime func() time.Duration

	switch algorithm {
	case "tokenBucket":
		capacity := floatParam(node, "capacity", 10)
		refillRate := floatParam(node, "refillRate", 1)
		cost := floatParam(node, "tokensPerRequest", 1)
		bucket := e.store.TokenBucket(bucketID, capacity, refillRate)
		try = func() bool { return bucket.TryTake(cost) }
		waitTime = func() time.Duration { return bucket.WaitTime(cost) }
	case "slidingWindow":
		window := durationMsParam(node, "windowMs", time.Second)
		limit := intParam(node, "maxRequests", 10)
		win := e.store.SlidingWindow(bucketID, window, limit)
		try = win.TryAdmit
		waitTime = win.WaitTime
	default:
		return nil, api.NewConfigError("rateLimit node %q: unknown algorithm %q", node.ID, algorithm)
	}

	waitForTokens := boolParam(node, "waitForTokens", false)
	maxWait := durationMsParam(node, "maxWaitMs", 5*time.Second)

	start := time.Now()
	admitted := false
	for {
		if try() {
			admitted = true
			break
		}
		if !waitForTokens {
			break
		}
		remaining := maxWait - time.Since(start)
		if remaining <= 0 {
			break
		}

		// Re-compute the remaining wait each pass: other consumers may have
		// drained or released capacity in the meantime.
		w := waitTime()
		if w < 0 {
			// Capacity can never become available (cost above bucket size).
			break
		}
		if w <= 0 {
			w = time.Millisecond
		}
		if w > remaining {
			w = remaining
		}

		timer := time.NewTimer(w)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	waited := time.Since(start)

	if !admitted {
		return payload.Overlay(map[string]any{
			"throttled": true,
			"waitedMs":  waited.Milliseconds(),
			"bucketId":  bucketID,
			"algorithm": algorithm,
		}), nil
	}

	out, err := runOperations(ctx, ec, ops, payload.Clone())
	if err != nil {
		return nil, api.NewNodeError(node, err)
	}
	return out.Overlay(map[string]any{
		"throttled": false,
		"waitedMs":  waited.Milliseconds(),
		"bucketId":  bucketID,
		"algorithm": algorithm,
	}), nil
}
