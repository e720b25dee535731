package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// SubworkflowExecutor invokes another workflow as a nested unit through the
// WorkflowRunner boundary on the execution context.
//
// Configuration:
//
//	workflowId / workflowName  target workflow (one required)
//	mode                       sync | async (default sync)
//	timeoutMs                  bound on a synchronous wait (default 60000)
//	inputMapping               childField → value spec; a string "$.a.b"
//	                           extracts a dotted path from the parent
//	                           payload, any other string is a direct key
//	                           reference, and non-string values are literals.
//	                           Empty mapping passes the whole payload.
//	outputMapping              parentField → child output field (same path
//	                           syntax); empty mapping exposes the child
//	                           output under "output".
//
// Invoking the currently-executing workflow is an immediate hard failure
// (single self-reference check, no depth counting). Synchronous mode blocks
// for the child's status, output and duration; asynchronous mode starts the
// child and returns identifying info only.
type SubworkflowExecutor struct{}

// NewSubworkflowExecutor returns the subworkflow control-flow executor.
func NewSubworkflowExecutor() *SubworkflowExecutor { return &SubworkflowExecutor{} }

func (e *SubworkflowExecutor) Type() string { return "subworkflow" }

func (e *SubworkflowExecutor) Execute(ctx context.Context, node api.Node, payload api.Payload, ec *api.ExecutionContext) (api.Payload, error) {
	ref := api.WorkflowRef{
		ID:   stringParam(node, "workflowId", ""),
		Name: stringParam(node, "workflowName", ""),
	}
	if ref.ID == "" && ref.Name == "" {
		return nil, api.NewConfigError("subworkflow node %q: workflowId or workflowName is required", node.ID)
	}

	if cur := ec.Workflow(); cur != nil {
		if (ref.ID != "" && ref.ID == cur.ID) || (ref.Name != "" && ref.Name == cur.Name) {
			return nil, fmt.Errorf("%w: %q", api.ErrSelfRecursion, cur.Name)
		}
	}

	runner := ec.Runner()
	if runner == nil {
		return nil, api.NewConfigError("subworkflow node %q: no workflow runner attached", node.ID)
	}

	childInput := mapInput(payload, mapParam(node, "inputMapping"))

	if stringParam(node, "mode", "sync") == "async" {
		execID, err := runner.StartWorkflow(ctx, ref, childInput)
		if err != nil {
			return nil, err
		}
		return payload.Overlay(map[string]any{
			"started":     true,
			"executionId": execID,
			"mode":        "async",
		}), nil
	}

	timeout := durationMsParam(node, "timeoutMs", 60*time.Second)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := runner.RunWorkflow(runCtx, ref, childInput)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			// Distinguished timed-out condition, reported rather than thrown.
			return payload.Overlay(map[string]any{
				"success":  false,
				"timedOut": true,
			}), nil
		}
		return nil, err
	}

	out := payload.Overlay(map[string]any{
		"success":     res.Status == api.RunStatusCompleted,
		"status":      res.Status,
		"executionId": res.ExecutionID,
		"durationMs":  res.Duration.Milliseconds(),
	})
	if res.Err != nil {
		out["error"] = res.Err.Error()
	}

	if mapping := mapParam(node, "outputMapping"); len(mapping) > 0 {
		for parentField, spec := range mapping {
			childField, ok := spec.(string)
			if !ok {
				continue
			}
			out[parentField] = resolveField(res.Output, childField)
		}
	} else {
		out["output"] = map[string]any(res.Output)
	}
	return out, nil
}

// mapInput builds the child's input payload from the mapping. An empty
// mapping passes the whole parent payload through.
func mapInput(parent api.Payload, mapping map[string]any) api.Payload {
	if len(mapping) == 0 {
		return parent.Clone()
	}
	child := api.Payload{}
	for field, spec := range mapping {
		if s, ok := spec.(string); ok {
			child[field] = resolveField(parent, s)
			continue
		}
		child[field] = spec
	}
	return child
}

// resolveField resolves "$.a.b" as a dotted-path extraction and any other
// string as a direct key reference.
func resolveField(p api.Payload, spec string) any {
	if path, ok := strings.CutPrefix(spec, "$."); ok {
		return extractPath(p, path)
	}
	return p[spec]
}

// extractPath walks nested maps along a dotted path; a missing segment
// yields nil.
func extractPath(p api.Payload, path string) any {
	var cur any = map[string]any(p)
	for _, seg := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			cur = m[seg]
		case api.Payload:
			cur = m[seg]
		default:
			return nil
		}
	}
	return cur
}
