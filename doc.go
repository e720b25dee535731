// Package nervemind provides the execution substrate of a node-based
// workflow automation engine: the graph model, the node-execution contract,
// and the control-flow node executors that provide concurrency,
// synchronization, retry and throttling semantics.
//
// Users compose directed graphs of typed nodes linked by typed connections;
// the engine threads a mutable JSON-compatible payload through the graph
// with cancellation, retry and concurrency semantics for branches that fan
// out and later reconverge.
//
// # Core Concepts
//
// The programming model is intentionally small and idiomatic:
//
//  1. Workflow — a static graph of Nodes and Connections
//  2. NodeExecutor — the capability implemented by every node kind
//  3. Registry — type identifier → executor lookup
//  4. ExecutionContext — per-run state shared by every node invocation
//  5. Runner — a minimal in-process graph walker for development and tests
//
// # Control-flow executors
//
// The concurrency core ships seven control-flow node kinds, each of which
// recursively invokes other node types through the registry:
//
//   - loop: sequential or batched-concurrent iteration with order-preserving
//     result assembly
//   - parallel: inline branch fan-out with timeout, failFast and
//     deterministic combine strategies
//   - merge: fan-in synchronization with bounded waits and partial results
//     on timeout
//   - retry: backoff with fixed/linear/exponential/fibonacci strategies and
//     jitter
//   - rateLimit: process-wide token-bucket or sliding-window throttling
//   - tryCatch: scoped try/catch/finally around inline operations
//   - subworkflow: bounded nested workflow invocation with a self-recursion
//     guard
//
// Every blocking wait honors a deadline and the run's cancellation signal.
//
// # Example
//
//	reg := nervemind.NewDefaultRegistry()
//	runner := nervemind.NewRunner(reg, nervemind.RunnerConfig{})
//
//	wf, _ := nervemind.NewWorkflow("fanout").
//	    Node(nervemind.ParallelNode("split", []nervemind.Branch{...},
//	        map[string]any{"combineResults": "merge"})).
//	    Build()
//
//	_ = runner.AddWorkflow(wf)
//	res, err := runner.Run(ctx, "fanout", nervemind.Payload{"q": "hello"})
//
// The graph-walking engine that originates production runs, persistence,
// credential storage and trigger scheduling live outside this module; their
// boundaries are the WorkflowRunner, CredentialResolver and ExecutorLookup
// interfaces in pkg/api.
package nervemind
