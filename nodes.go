package nervemind

import (
	"github.com/google/uuid"
)

// Constructors for the built-in control-flow node kinds. Each returns a
// configured api.Node with a fresh id; the parameter maps follow the shapes
// documented on the corresponding executors in internal/nodes.

// Branch names one concurrent branch of a parallel node.
type Branch struct {
	Name       string
	Operations []Operation
}

// NewNode builds a node of an arbitrary type with the given parameters.
func NewNode(nodeType, name string, params map[string]any) Node {
	return Node{
		ID:         uuid.NewString(),
		Type:       nodeType,
		Name:       name,
		Parameters: params,
	}
}

// LoopNode iterates the sequence at itemsKey, optionally running operations
// per item. Extra parameters (parallel, batchSize) may be overlaid.
func LoopNode(name, itemsKey string, operations []Operation, extra map[string]any) Node {
	n := NewNode("loop", name, map[string]any{
		"itemsKey": itemsKey,
	})
	if len(operations) > 0 {
		n.Parameters["operations"] = operations
	}
	return n.WithParameters(extra)
}

// ParallelNode fans out over inline branches. With no branches it is the
// pass-through marker for engine-level fan-out.
func ParallelNode(name string, branches []Branch, extra map[string]any) Node {
	n := NewNode("parallel", name, map[string]any{})
	if len(branches) > 0 {
		list := make([]any, len(branches))
		for i, b := range branches {
			list[i] = map[string]any{
				"name":       b.Name,
				"operations": b.Operations,
			}
		}
		n.Parameters["branches"] = list
	}
	return n.WithParameters(extra)
}

// MergeNode synchronizes fan-in arrivals. Mode is one of waitAny, waitAll,
// append, merge or passThrough.
func MergeNode(name, mode string, extra map[string]any) Node {
	n := NewNode("merge", name, map[string]any{
		"mode": mode,
	})
	return n.WithParameters(extra)
}

// RetryNode re-runs the operations on failure under the given policy,
// typically built with the Retry builder:
//
//	nervemind.RetryNode("call", ops, nervemind.Retry(5).
//	    WithExponentialBackoff(100*time.Millisecond, 2, time.Minute).
//	    Params())
func RetryNode(name string, operations []Operation, policy map[string]any) Node {
	n := NewNode("retry", name, map[string]any{
		"operations": operations,
	})
	return n.WithParameters(policy)
}

// RateLimitNode gates the operations behind the named process-wide bucket.
func RateLimitNode(name, bucketID string, operations []Operation, extra map[string]any) Node {
	n := NewNode("rateLimit", name, map[string]any{
		"bucketId":   bucketID,
		"operations": operations,
	})
	return n.WithParameters(extra)
}

// TryCatchNode scopes error handling around the try operations.
func TryCatchNode(name string, try, catch, finally []Operation, extra map[string]any) Node {
	params := map[string]any{
		"try": try,
	}
	if len(catch) > 0 {
		params["catch"] = catch
	}
	if len(finally) > 0 {
		params["finally"] = finally
	}
	n := NewNode("tryCatch", name, params)
	return n.WithParameters(extra)
}

// SubworkflowNode invokes another workflow by reference.
func SubworkflowNode(name string, ref WorkflowRef, extra map[string]any) Node {
	params := map[string]any{}
	if ref.ID != "" {
		params["workflowId"] = ref.ID
	}
	if ref.Name != "" {
		params["workflowName"] = ref.Name
	}
	n := NewNode("subworkflow", name, params)
	return n.WithParameters(extra)
}
