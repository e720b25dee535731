// Package api defines the public execution contract of the NerveMind
// workflow core: the graph model (Node, Connection, Workflow), the payload
// that flows between nodes, the per-run ExecutionContext, and the
// NodeExecutor capability implemented by every node kind.
//
// The package is deliberately free of execution logic. Control-flow
// executors live in internal/nodes and are registered into a Registry; the
// graph-walking engine that originates runs is an external collaborator and
// only its boundary (WorkflowRunner, ExecutorLookup) is defined here.
//
// # Execution model
//
// A node is executed as
//
//	out, err := executor.Execute(ctx, node, payload, ec)
//
// where ctx carries cancellation and deadlines, payload is the
// JSON-compatible state flowing along the graph, and ec is the per-run
// ExecutionContext (execution id, workflow reference, trigger input, logger,
// credential resolver, registry and runner handles).
//
// Executors must be safe under concurrent invocation, must never mutate the
// input payload in place, and must honor ctx at every blocking wait.
//
// # Error taxonomy
//
// Configuration problems (missing operation lists, unknown node types,
// subworkflow self-recursion) are returned as errors from Execute.
// Operational failures inside inline operations are captured into the output
// payload with a success:false indicator rather than propagated, so a single
// failing branch never silently aborts a run. ErrHaltBranch is a
// distinguished signal: an executor that returns it tells the engine to stop
// traversal from that call site without failing the run.
package api
