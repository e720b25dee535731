package nodes

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// ParallelExecutor fans execution out over concurrent branches.
//
// The mode is selected by the shape of the "branches" parameter. When it is
// absent, numeric, or an empty list, the node is a pass-through marker: true
// fan-out along outgoing connections belongs to the graph engine, and the
// node only flags the payload so the engine follows every connection
// concurrently. When "branches" is a non-empty list of {name, operations}
// objects, each branch's operations run as an independent concurrent task
// sharing the starting payload, with no visibility into sibling state.
//
// Configuration:
//
//	timeoutMs       bound on the whole fan-out (default 60000)
//	failFast        cancel remaining branches on first failure (default false)
//	combineResults  merge | array | first | "" (branch-name map)
//
// The output always reports successCount, hasErrors, and a branch→error map
// when any branch failed. On timeout, finished results are kept and the
// outstanding branches are recorded as timed out.
type ParallelExecutor struct{}

// NewParallelExecutor returns the parallel control-flow executor.
func NewParallelExecutor() *ParallelExecutor { return &ParallelExecutor{} }

func (e *ParallelExecutor) Type() string { return "parallel" }

type parallelBranch struct {
	name string
	ops  []api.Operation
}

func (e *ParallelExecutor) Execute(ctx context.Context, node api.Node, payload api.Payload, ec *api.ExecutionContext) (api.Payload, error) {
	branches, err := parseBranches(node)
	if err != nil {
		return nil, err
	}
	if len(branches) == 0 {
		// Pass-through marker for engine-level fan-out.
		return payload.Overlay(map[string]any{
			"parallel":    true,
			"passThrough": true,
		}), nil
	}

	timeout := durationMsParam(node, "timeoutMs", 60*time.Second)
	failFast := boolParam(node, "failFast", false)
	combine := stringParam(node, "combineResults", "")

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	n := len(branches)
	outputs := make([]api.Payload, n)
	failures := make([]error, n)

	var wg sync.WaitGroup
	for i, b := range branches {
		i, b := i, b
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := runOperations(runCtx, ec, b.ops, payload.Clone())
			if err != nil {
				failures[i] = err
				if failFast {
					cancel()
				}
				return
			}
			outputs[i] = out
		}()
	}
	wg.Wait()

	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	if err := ctx.Err(); err != nil {
		// Run-level cancellation propagates; partial results are dropped.
		return nil, err
	}

	successCount := 0
	errMap := map[string]any{}
	for i, b := range branches {
		switch {
		case failures[i] == nil:
			successCount++
		case timedOut && errors.Is(failures[i], context.DeadlineExceeded):
			errMap[b.name] = "timed out"
		default:
			errMap[b.name] = failures[i].Error()
		}
	}

	var out api.Payload
	switch combine {
	case "merge":
		// Shallow-merge branch outputs onto the input in declaration order;
		// later branches overwrite.
		out = payload.Clone()
		for i := range branches {
			if failures[i] == nil {
				out = out.Merge(outputs[i])
			}
		}
	case "array":
		positional := make([]any, n)
		for i := range branches {
			if failures[i] == nil {
				positional[i] = map[string]any(outputs[i])
			}
		}
		out = payload.Overlay(map[string]any{"results": positional})
	case "first":
		// First in declaration order with a result, not fastest to finish,
		// so the outcome is deterministic.
		out = payload.Clone()
		for i := range branches {
			if failures[i] == nil {
				out["result"] = map[string]any(outputs[i])
				out["resultBranch"] = branches[i].name
				break
			}
		}
	case "":
		byName := make(map[string]any, n)
		for i, b := range branches {
			if failures[i] == nil {
				byName[b.name] = map[string]any(outputs[i])
			}
		}
		out = payload.Overlay(map[string]any{"branches": byName})
	default:
		return nil, api.NewConfigError("parallel node %q: unknown combineResults %q", node.ID, combine)
	}

	status := map[string]any{
		"branchCount":  n,
		"successCount": successCount,
		"hasErrors":    len(errMap) > 0,
		"timedOut":     timedOut,
	}
	if len(errMap) > 0 {
		status["errors"] = errMap
	}
	return out.Overlay(status), nil
}

// parseBranches decodes the "branches" parameter. Absent, numeric, or empty
// values select pass-through mode (nil result).
func parseBranches(node api.Node) ([]parallelBranch, error) {
	v, exists := node.Parameters["branches"]
	if !exists || v == nil {
		return nil, nil
	}
	switch v.(type) {
	case int, int64, float64:
		return nil, nil
	}

	list, ok := v.([]any)
	if !ok {
		return nil, api.NewConfigError("parallel node %q: branches is neither a list nor a count", node.ID)
	}
	out := make([]parallelBranch, 0, len(list))
	for i, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, api.NewConfigError("parallel node %q: branches[%d] is not an object", node.ID, i)
		}
		b := parallelBranch{}
		if s, ok := m["name"].(string); ok && s != "" {
			b.name = s
		} else {
			b.name = "branch" + strconv.Itoa(i)
		}
		ops, err := toOperations(node, "branches", m["operations"])
		if err != nil {
			return nil, err
		}
		if len(ops) == 0 {
			return nil, api.NewConfigError("parallel node %q: branch %q has no operations", node.ID, b.name)
		}
		b.ops = ops
		out = append(out, b)
	}
	return out, nil
}
