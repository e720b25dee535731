package nodes

import (
	"context"
	"time"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// MergeExecutor synchronizes concurrent arrivals at one node within one
// execution (fan-in).
//
// The expected input count comes from the "inputCount" parameter, else the
// number of connections targeting the node, else 2.
//
// Modes ("mode" parameter):
//
//	waitAny      return on first arrival, no synchronization
//	waitAll      block until all arrive, expose the raw input list
//	append       same synchronization as waitAll, same output shape
//	merge        block until all arrive, shallow-merge the inputs
//	passThrough  with waitForAll=false the single caller proceeds
//	             immediately; with waitForAll=true every caller blocks, the
//	             arrival completing the count becomes primary and continues
//	             with the flattened union of every branch, and all other
//	             callers receive api.ErrHaltBranch
//
// Waits are bounded by "timeoutMs" (default 30000). On timeout, callers
// proceed with whatever arrived; when waitForAll is true (the default) the
// output is uniformly marked timedOut and partial across all modes. With
// waitForAll=false a timeout simply means "proceed now" with no degraded
// marker. Merge state is torn down on completion, timeout or cancellation.
type MergeExecutor struct {
	arena *mergeArena
}

// NewMergeExecutor returns the merge control-flow executor.
func NewMergeExecutor() *MergeExecutor {
	return &MergeExecutor{arena: newMergeArena()}
}

func (e *MergeExecutor) Type() string { return "merge" }

func (e *MergeExecutor) Execute(ctx context.Context, node api.Node, payload api.Payload, ec *api.ExecutionContext) (api.Payload, error) {
	mode := stringParam(node, "mode", "waitAll")

	if mode == "waitAny" {
		// First arrival wins; no synchronization, nothing to tear down.
		return payload.Clone(), nil
	}

	waitForAll := boolParam(node, "waitForAll", true)
	if mode == "passThrough" && !waitForAll {
		// Exclusive/conditional branches: only one caller ever arrives.
		return payload.Clone(), nil
	}

	expected := e.expectedInputs(node, ec)
	timeout := durationMsParam(node, "timeoutMs", 30*time.Second)
	key := ec.ID() + "/" + node.ID

	inputs, idx, primary, timedOut, err := e.await(ctx, key, expected, payload, timeout)
	if err != nil {
		return nil, err
	}

	switch mode {
	case "waitAll", "append":
		outputKey := stringParam(node, "outputKey", "merged")
		list := make([]any, len(inputs))
		for i, in := range inputs {
			list[i] = map[string]any(in)
		}
		out := payload.Overlay(map[string]any{
			outputKey:       list,
			"receivedCount": len(inputs),
			"expectedCount": expected,
		})
		return markTimeout(out, timedOut, waitForAll), nil

	case "merge":
		combined := api.Payload{}.Merge(inputs...)
		out := combined.Overlay(map[string]any{
			"receivedCount": len(inputs),
			"expectedCount": expected,
		})
		return markTimeout(out, timedOut, waitForAll), nil

	case "passThrough":
		if idx != primary {
			// The engine must not continue traversal from this call site.
			return nil, api.ErrHaltBranch
		}
		union := api.Payload{}.Merge(inputs...)
		out := union.Overlay(map[string]any{
			"receivedCount": len(inputs),
			"expectedCount": expected,
		})
		return markTimeout(out, timedOut, waitForAll), nil
	}

	return nil, api.NewConfigError("merge node %q: unknown mode %q", node.ID, mode)
}

// expectedInputs derives the expected arrival count: explicit configuration,
// else incoming connection count, else 2.
func (e *MergeExecutor) expectedInputs(node api.Node, ec *api.ExecutionContext) int {
	if n := intParam(node, "inputCount", 0); n > 0 {
		return n
	}
	if wf := ec.Workflow(); wf != nil {
		if n := len(wf.ConnectionsTo(node.ID)); n > 0 {
			return n
		}
	}
	return 2
}

// await adds the caller's input to the barrier and blocks until the expected
// count arrives, the timeout fires, or ctx is cancelled. Cancellation
// finalizes and tears down the state so sibling waiters unblock.
func (e *MergeExecutor) await(ctx context.Context, key string, expected int, payload api.Payload, timeout time.Duration) (inputs []api.Payload, idx, primary int, timedOut bool, err error) {
	st := e.arena.get(key, expected)

	idx, completed := st.arrive(payload)
	if completed {
		e.arena.remove(key)
	} else {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-st.done:
		case <-timer.C:
			if st.finalizeEarly(idx) {
				e.arena.remove(key)
			}
		case <-ctx.Done():
			if st.finalizeEarly(idx) {
				e.arena.remove(key)
			}
			return nil, 0, 0, false, ctx.Err()
		}
	}

	inputs, primary, timedOut = st.snapshot()
	return inputs, idx, primary, timedOut, nil
}

// markTimeout applies the uniform timeout-reporting shape. With
// waitForAll=false a timeout is just "proceed now" and adds no markers.
func markTimeout(p api.Payload, timedOut, waitForAll bool) api.Payload {
	if !timedOut || !waitForAll {
		return p
	}
	p["timedOut"] = true
	p["partial"] = true
	return p
}
