package nodes

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"time"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// RetryExecutor re-runs a configured inline operation list on failure.
//
// Configuration:
//
//	operations          inline operation list (required)
//	maxRetries          extra attempts after the first (default 3)
//	strategy            fixed | linear | exponential | fibonacci
//	initialDelayMs      base delay (default 1000)
//	maxDelayMs          delay cap (default 30000)
//	multiplier          growth factor for linear/exponential (default 2)
//	jitterFactor        adds ±jitterFactor×delay uniform noise (default 0)
//	retryableErrors     error kinds worth retrying; empty retries all
//	nonRetryableErrors  error kinds that stop retrying immediately
//
// Exhausted attempts yield success=false with per-attempt error records and
// the last error in the payload rather than a returned error; callers must
// check the success flag. Cancellation during a backoff sleep aborts
// retrying and is treated as attempts exhausted.
type RetryExecutor struct{}

// NewRetryExecutor returns the retry control-flow executor.
func NewRetryExecutor() *RetryExecutor { return &RetryExecutor{} }

func (e *RetryExecutor) Type() string { return "retry" }

func (e *RetryExecutor) Execute(ctx context.Context, node api.Node, payload api.Payload, ec *api.ExecutionContext) (api.Payload, error) {
	ops, err := operationsParam(node, "operations")
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, api.NewConfigError("retry node %q: no operations configured", node.ID)
	}

	maxRetries := intParam(node, "maxRetries", 3)
	if maxRetries < 0 {
		maxRetries = 0
	}
	strategy := stringParam(node, "strategy", "exponential")
	initial := durationMsParam(node, "initialDelayMs", time.Second)
	maxDelay := durationMsParam(node, "maxDelayMs", 30*time.Second)
	multiplier := floatParam(node, "multiplier", 2)
	jitterFactor := floatParam(node, "jitterFactor", 0)
	retryable := stringListParam(node, "retryableErrors")
	nonRetryable := stringListParam(node, "nonRetryableErrors")

	var (
		attempts []any
		lastErr  error
		lastKind string
	)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		out, err := runOperations(ctx, ec, ops, payload.Clone())
		if err == nil {
			return out.Overlay(map[string]any{
				"success":      true,
				"attemptCount": attempt + 1,
				"attempts":     attempts,
			}), nil
		}

		// Configuration errors are reported immediately, never retried.
		if api.IsConfigError(err) || errors.Is(err, api.ErrUnknownNodeType) {
			return nil, err
		}

		lastErr = err
		lastKind = api.ErrorKind(err)
		attempts = append(attempts, map[string]any{
			"attempt":   attempt + 1,
			"error":     err.Error(),
			"errorType": lastKind,
		})

		if attempt == maxRetries || !shouldRetry(lastKind, retryable, nonRetryable) {
			break
		}

		// n is 0-indexed from the first retry.
		delay := backoffDelay(strategy, attempt, initial, maxDelay, multiplier)
		delay = applyJitter(delay, jitterFactor)

		select {
		case <-ctx.Done():
			// Cancellation mid-backoff aborts retrying.
			attempts = append(attempts, map[string]any{
				"attempt":   attempt + 2,
				"error":     ctx.Err().Error(),
				"errorType": "cancelled",
			})
			return exhausted(payload, attempts, ctx.Err(), "cancelled"), nil
		case <-time.After(delay):
		}
	}

	return exhausted(payload, attempts, lastErr, lastKind), nil
}

func exhausted(payload api.Payload, attempts []any, lastErr error, kind string) api.Payload {
	return payload.Overlay(map[string]any{
		"success":       false,
		"attemptCount":  len(attempts),
		"attempts":      attempts,
		"lastError":     lastErr.Error(),
		"lastErrorType": kind,
	})
}

// shouldRetry applies the retry decision: never when the kind is listed
// non-retryable; otherwise when the retryable list is empty (retry all) or
// names the kind.
func shouldRetry(kind string, retryable, nonRetryable []string) bool {
	if slices.Contains(nonRetryable, kind) {
		return false
	}
	if len(retryable) == 0 {
		return true
	}
	return slices.Contains(retryable, kind)
}

// backoffDelay computes the delay before retry n (0-indexed), capped at
// maxDelay.
func backoffDelay(strategy string, n int, initial, maxDelay time.Duration, multiplier float64) time.Duration {
	var d time.Duration
	switch strategy {
	case "fixed":
		d = initial
	case "linear":
		d = time.Duration(float64(initial) * (1 + float64(n)*multiplier))
	case "fibonacci":
		d = time.Duration(float64(initial) * float64(fib(n+1)))
	default: // exponential
		d = initial
		for i := 0; i < n; i++ {
			d = time.Duration(float64(d) * multiplier)
			if maxDelay > 0 && d > maxDelay {
				break
			}
		}
	}
	if d < 0 {
		d = 0
	}
	if maxDelay > 0 && d > maxDelay {
		d = maxDelay
	}
	return d
}

// fib returns the k-th Fibonacci number (fib(1) = fib(2) = 1).
func fib(k int) int64 {
	if k <= 2 {
		return 1
	}
	var a, b int64 = 1, 1
	for i := 3; i <= k; i++ {
		a, b = b, a+b
	}
	return b
}

// applyJitter adds uniform noise in [-f×d, +f×d], floored at zero.
func applyJitter(d time.Duration, f float64) time.Duration {
	if f <= 0 || d <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * f * float64(d)
	out := time.Duration(float64(d) + delta)
	if out < 0 {
		return 0
	}
	return out
}
