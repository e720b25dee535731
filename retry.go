package nervemind

import "time"

// RetryBuilder provides a fluent way to construct the parameter map of a
// retry node for use with RetryNode.
type RetryBuilder struct {
	params map[string]any
}

// Retry creates a RetryBuilder allowing the given number of extra attempts
// after the first. maxRetries < 0 is treated as 0 (no retries).
func Retry(maxRetries int) RetryBuilder {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return RetryBuilder{
		params: map[string]any{
			"maxRetries": maxRetries,
		},
	}
}

func (r RetryBuilder) with(keys map[string]any) RetryBuilder {
	params := make(map[string]any, len(r.params)+len(keys))
	for k, v := range r.params {
		params[k] = v
	}
	for k, v := range keys {
		params[k] = v
	}
	return RetryBuilder{params: params}
}

// WithFixedBackoff configures a constant delay between retries.
func (r RetryBuilder) WithFixedBackoff(delay time.Duration) RetryBuilder {
	return r.with(map[string]any{
		"strategy":       "fixed",
		"initialDelayMs": float64(delay.Milliseconds()),
	})
}

// WithLinearBackoff configures linearly growing delays:
// initial × (1 + n×multiplier) before retry n, capped at max.
func (r RetryBuilder) WithLinearBackoff(initial time.Duration, multiplier float64, max time.Duration) RetryBuilder {
	return r.with(map[string]any{
		"strategy":       "linear",
		"initialDelayMs": float64(initial.Milliseconds()),
		"multiplier":     multiplier,
		"maxDelayMs":     float64(max.Milliseconds()),
	})
}

// WithExponentialBackoff configures exponential backoff:
//
//   - initial is the delay before the first retry.
//   - multiplier > 1 grows the delay each attempt (default 2.0 if <= 0).
//   - max caps the delay.
//
// Example:
//
//	Retry(3).WithExponentialBackoff(100*time.Millisecond, 2.0, 2*time.Second)
func (r RetryBuilder) WithExponentialBackoff(initial time.Duration, multiplier float64, max time.Duration) RetryBuilder {
	if multiplier <= 0 {
		multiplier = 2.0
	}
	return r.with(map[string]any{
		"strategy":       "exponential",
		"initialDelayMs": float64(initial.Milliseconds()),
		"multiplier":     multiplier,
		"maxDelayMs":     float64(max.Milliseconds()),
	})
}

// WithFibonacciBackoff configures delays of initial × fib(n+1) before retry
// n, capped at max.
func (r RetryBuilder) WithFibonacciBackoff(initial time.Duration, max time.Duration) RetryBuilder {
	return r.with(map[string]any{
		"strategy":       "fibonacci",
		"initialDelayMs": float64(initial.Milliseconds()),
		"maxDelayMs":     float64(max.Milliseconds()),
	})
}

// WithJitter adds up to ±factor×delay of uniform random noise to every
// delay, floored at zero.
func (r RetryBuilder) WithJitter(factor float64) RetryBuilder {
	return r.with(map[string]any{"jitterFactor": factor})
}

// RetryOn restricts retrying to the given error kinds; an empty list (the
// default) retries every kind not listed as non-retryable.
func (r RetryBuilder) RetryOn(kinds ...string) RetryBuilder {
	return r.with(map[string]any{"retryableErrors": kinds})
}

// GiveUpOn marks error kinds that stop retrying immediately.
func (r RetryBuilder) GiveUpOn(kinds ...string) RetryBuilder {
	return r.with(map[string]any{"nonRetryableErrors": kinds})
}

// Params returns the parameter map to be passed to RetryNode.
func (r RetryBuilder) Params() map[string]any {
	return r.params
}
