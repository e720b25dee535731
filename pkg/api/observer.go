package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks for run and node lifecycle events, for logging
// and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay execution.
type Observer interface {
	// OnRunStart is called once when an execution starts, before any node runs.
	OnRunStart(ctx context.Context, ec *ExecutionContext)

	// OnRunCompleted is called when an execution finishes successfully.
	OnRunCompleted(ctx context.Context, ec *ExecutionContext)

	// OnRunFailed is called when an execution fails.
	OnRunFailed(ctx context.Context, ec *ExecutionContext, err error)

	// OnNodeStart is called before a node executor is invoked.
	OnNodeStart(ctx context.Context, ec *ExecutionContext, node Node)

	// OnNodeCompleted is called after a node executor returns, for both
	// successes and failures (err != nil). Halted branches report
	// ErrHaltBranch here.
	OnNodeCompleted(ctx context.Context, ec *ExecutionContext, node Node, err error, duration time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(ctx context.Context, ec *ExecutionContext)                {}
func (NoopObserver) OnRunCompleted(ctx context.Context, ec *ExecutionContext)            {}
func (NoopObserver) OnRunFailed(ctx context.Context, ec *ExecutionContext, err error)    {}
func (NoopObserver) OnNodeStart(ctx context.Context, ec *ExecutionContext, node Node)    {}
func (NoopObserver) OnNodeCompleted(ctx context.Context, ec *ExecutionContext, node Node, err error, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnRunStart(ctx context.Context, ec *ExecutionContext) {
	for _, o := range c.observers {
		o.OnRunStart(ctx, ec)
	}
}

func (c *CompositeObserver) OnRunCompleted(ctx context.Context, ec *ExecutionContext) {
	for _, o := range c.observers {
		o.OnRunCompleted(ctx, ec)
	}
}

func (c *CompositeObserver) OnRunFailed(ctx context.Context, ec *ExecutionContext, err error) {
	for _, o := range c.observers {
		o.OnRunFailed(ctx, ec, err)
	}
}

func (c *CompositeObserver) OnNodeStart(ctx context.Context, ec *ExecutionContext, node Node) {
	for _, o := range c.observers {
		o.OnNodeStart(ctx, ec, node)
	}
}

func (c *CompositeObserver) OnNodeCompleted(ctx context.Context, ec *ExecutionContext, node Node, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnNodeCompleted(ctx, ec, node, err, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs run / node lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnRunStart(ctx context.Context, ec *ExecutionContext) {
	o.Logger.InfoContext(ctx, "run_start",
		slog.String("workflow", ec.Workflow().Name),
		slog.String("execution_id", ec.ID()),
	)
}

func (o *LoggingObserver) OnRunCompleted(ctx context.Context, ec *ExecutionContext) {
	o.Logger.InfoContext(ctx, "run_completed",
		slog.String("workflow", ec.Workflow().Name),
		slog.String("execution_id", ec.ID()),
	)
}

func (o *LoggingObserver) OnRunFailed(ctx context.Context, ec *ExecutionContext, err error) {
	o.Logger.ErrorContext(ctx, "run_failed",
		slog.String("workflow", ec.Workflow().Name),
		slog.String("execution_id", ec.ID()),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnNodeStart(ctx context.Context, ec *ExecutionContext, node Node) {
	o.Logger.DebugContext(ctx, "node_start",
		slog.String("execution_id", ec.ID()),
		slog.String("node", node.ID),
		slog.String("node_type", node.Type),
	)
}

func (o *LoggingObserver) OnNodeCompleted(ctx context.Context, ec *ExecutionContext, node Node, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil && !IsHaltBranch(err) {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "node_completed",
		slog.String("execution_id", ec.ID()),
		slog.String("node", node.ID),
		slog.String("node_type", node.Type),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate node durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	runsStarted       atomic.Int64
	runsCompleted     atomic.Int64
	runsFailed        atomic.Int64
	nodesCompleted    atomic.Int64
	totalNodeDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	RunsStarted   int64
	RunsCompleted int64
	RunsFailed    int64
	PendingRuns   int64

	NodesCompleted  int64
	AvgNodeDuration time.Duration
}

func (m *BasicMetrics) OnRunStart(ctx context.Context, ec *ExecutionContext) {
	m.runsStarted.Add(1)
}

func (m *BasicMetrics) OnRunCompleted(ctx context.Context, ec *ExecutionContext) {
	m.runsCompleted.Add(1)
}

func (m *BasicMetrics) OnRunFailed(ctx context.Context, ec *ExecutionContext, err error) {
	m.runsFailed.Add(1)
}

func (m *BasicMetrics) OnNodeCompleted(ctx context.Context, ec *ExecutionContext, node Node, err error, d time.Duration) {
	// Only count successful nodes for average duration.
	if err == nil {
		m.nodesCompleted.Add(1)
		m.totalNodeDuration.Add(d.Nanoseconds())
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.runsStarted.Load()
	completed := m.runsCompleted.Load()
	failed := m.runsFailed.Load()
	nodes := m.nodesCompleted.Load()
	totalNs := m.totalNodeDuration.Load()

	var avg time.Duration
	if nodes > 0 {
		avg = time.Duration(totalNs / nodes)
	}

	return BasicMetricsSnapshot{
		RunsStarted:   started,
		RunsCompleted: completed,
		RunsFailed:    failed,
		PendingRuns:   started - completed - failed,

		NodesCompleted:  nodes,
		AvgNodeDuration: avg,
	}
}
