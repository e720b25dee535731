package api

import (
	"context"
	"time"
)

// NodeExecutor is the capability implemented by every node kind.
//
// Execute runs the node against the given payload and returns a new payload;
// the input payload must not be mutated. Implementations must be safe under
// concurrent invocation, both across executions and within one execution
// when branches fan out, and must never block unboundedly: every wait honors
// a deadline derived from configuration or from ctx.
//
// Type returns the type identifier the executor is registered under.
type NodeExecutor interface {
	Execute(ctx context.Context, node Node, payload Payload, ec *ExecutionContext) (Payload, error)
	Type() string
}

// ExecutorLookup resolves a node type identifier to its executor. Lookups
// must be re-entrant: control-flow executors call back into the lookup while
// executing, to run inline operations through other node types.
type ExecutorLookup interface {
	Lookup(nodeType string) (NodeExecutor, error)
}

// Operation is one step of an inline operation list: a node type plus its
// configuration, run through the registry without full graph traversal.
// Control-flow nodes (Retry, TryCatch, RateLimit, Parallel) use operation
// lists for their sub-logic.
type Operation struct {
	Type   string         `json:"type"`
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// WorkflowRef identifies a workflow by id or name; either field may be
// empty, but not both.
type WorkflowRef struct {
	ID   string
	Name string
}

// RunResult is the outcome of a synchronous nested workflow run.
type RunResult struct {
	ExecutionID string
	Status      string
	Output      Payload
	Duration    time.Duration
	Err         error
}

// Run statuses reported by WorkflowRunner implementations.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusRunning   = "running"
)

// WorkflowRunner is the boundary to the graph-walking engine, consumed by
// the Subworkflow executor. RunWorkflow blocks until the child run finishes
// or ctx expires; StartWorkflow launches the child and returns its execution
// id immediately.
type WorkflowRunner interface {
	RunWorkflow(ctx context.Context, ref WorkflowRef, input Payload) (*RunResult, error)
	StartWorkflow(ctx context.Context, ref WorkflowRef, input Payload) (string, error)
}
