package nervemind

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// stampExecutor overlays the "values" parameter onto the payload; the
// minimal stand-in for an integration adapter.
type stampExecutor struct{}

func (stampExecutor) Type() string { return "stamp" }

func (stampExecutor) Execute(ctx context.Context, node Node, payload Payload, ec *ExecutionContext) (Payload, error) {
	values, _ := node.Parameters["values"].(map[string]any)
	return payload.Overlay(values), nil
}

// explodeExecutor always fails.
type explodeExecutor struct{}

func (explodeExecutor) Type() string { return "explode" }

func (explodeExecutor) Execute(ctx context.Context, node Node, payload Payload, ec *ExecutionContext) (Payload, error) {
	return nil, errors.New("exploded")
}

// blockExecutor waits for ctx so cancellation paths can be exercised.
type blockExecutor struct{}

func (blockExecutor) Type() string { return "block" }

func (blockExecutor) Execute(ctx context.Context, node Node, payload Payload, ec *ExecutionContext) (Payload, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(30 * time.Second):
		return payload, nil
	}
}

func stamp(id string, values map[string]any) Node {
	return Node{ID: id, Type: "stamp", Name: id, Parameters: map[string]any{"values": values}}
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	reg := NewDefaultRegistry()
	reg.MustRegister(stampExecutor{})
	reg.MustRegister(explodeExecutor{})
	reg.MustRegister(blockExecutor{})
	return NewRunner(reg, RunnerConfig{})
}

func TestRunnerLinearWorkflow(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	wf := NewWorkflow("linear").
		Node(stamp("a", map[string]any{"a": 1})).
		Node(stamp("b", map[string]any{"b": 2})).
		Connect("a", "b").
		MustBuild()
	require.NoError(t, r.AddWorkflow(wf))

	res, err := r.Run(context.Background(), "linear", Payload{"in": true})
	require.NoError(t, err)

	require.Equal(t, api.RunStatusCompleted, res.Status)
	require.NotEmpty(t, res.ExecutionID)
	require.Equal(t, true, res.Output["in"])
	require.Equal(t, 1, res.Output["a"])
	require.Equal(t, 2, res.Output["b"])
}

func TestRunnerFanOutThroughMerge(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	wf := NewWorkflow("fanout").
		Node(stamp("start", nil)).
		Node(stamp("left", map[string]any{"x": 1})).
		Node(stamp("right", map[string]any{"y": 2})).
		Node(Node{ID: "join", Type: "merge", Name: "join", Parameters: map[string]any{"mode": "merge"}}).
		Connect("start", "left").
		Connect("start", "right").
		Connect("left", "join").
		Connect("right", "join").
		MustBuild()
	require.NoError(t, r.AddWorkflow(wf))

	res, err := r.Run(context.Background(), "fanout", Payload{})
	require.NoError(t, err)

	require.Equal(t, api.RunStatusCompleted, res.Status)
	require.Equal(t, 1, res.Output["x"], "left branch result must survive the merge")
	require.Equal(t, 2, res.Output["y"], "right branch result must survive the merge")
	require.Equal(t, 2, res.Output["receivedCount"])
}

func TestRunnerPassThroughMergeExclusivity(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	wf := NewWorkflow("race").
		Node(stamp("start", nil)).
		Node(stamp("a", map[string]any{"a": true})).
		Node(stamp("b", map[string]any{"b": true})).
		Node(stamp("c", map[string]any{"c": true})).
		Node(Node{ID: "gate", Type: "merge", Name: "gate", Parameters: map[string]any{"mode": "passThrough"}}).
		Node(stamp("after", map[string]any{"after": true})).
		Connect("start", "a").
		Connect("start", "b").
		Connect("start", "c").
		Connect("a", "gate").
		Connect("b", "gate").
		Connect("c", "gate").
		Connect("gate", "after").
		MustBuild()
	require.NoError(t, r.AddWorkflow(wf))

	res, err := r.Run(context.Background(), "race", Payload{})
	require.NoError(t, err)

	// Exactly one branch continued past the gate, carrying the union of all
	// three; the downstream node ran once.
	require.Equal(t, api.RunStatusCompleted, res.Status)
	require.Equal(t, true, res.Output["a"])
	require.Equal(t, true, res.Output["b"])
	require.Equal(t, true, res.Output["c"])
	require.Equal(t, true, res.Output["after"])
}

func TestRunnerNodeFailureYieldsFailedResult(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	wf := NewWorkflow("failing").
		Node(Node{ID: "boom", Type: "explode", Name: "boom"}).
		MustBuild()
	require.NoError(t, r.AddWorkflow(wf))

	res, err := r.Run(context.Background(), "failing", Payload{})
	require.NoError(t, err, "node failures are reported in the result")

	require.Equal(t, api.RunStatusFailed, res.Status)
	require.Error(t, res.Err)

	var nodeErr *api.NodeError
	require.ErrorAs(t, res.Err, &nodeErr)
	require.Equal(t, "boom", nodeErr.NodeID)
}

func TestRunnerCallerCancellation(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	wf := NewWorkflow("stuck").
		Node(Node{ID: "wait", Type: "block", Name: "wait"}).
		MustBuild()
	require.NoError(t, r.AddWorkflow(wf))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Run(ctx, "stuck", Payload{})
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestRunnerDisabledNodePassesThrough(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	skipped := stamp("skipped", map[string]any{"skipped": true})
	skipped.Disabled = true
	wf := NewWorkflow("disabled").
		Node(stamp("a", map[string]any{"a": 1})).
		Node(skipped).
		Node(stamp("b", map[string]any{"b": 2})).
		Connect("a", "skipped").
		Connect("skipped", "b").
		MustBuild()
	require.NoError(t, r.AddWorkflow(wf))

	res, err := r.Run(context.Background(), "disabled", Payload{})
	require.NoError(t, err)

	require.Equal(t, 1, res.Output["a"])
	require.Equal(t, 2, res.Output["b"])
	_, ran := res.Output["skipped"]
	require.False(t, ran, "disabled nodes must not execute")
}

func TestRunnerRejectsCyclesAndDuplicates(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	cyclic := NewWorkflow("cyclic").
		Node(stamp("a", nil)).
		Node(stamp("b", nil)).
		Connect("a", "b").
		Connect("b", "a").
		MustBuild()
	require.Error(t, r.AddWorkflow(cyclic))

	wf := NewWorkflow("once").Node(stamp("a", nil)).MustBuild()
	require.NoError(t, r.AddWorkflow(wf))
	require.Error(t, r.AddWorkflow(wf), "same id registered twice")

	sameName := NewWorkflow("once").Node(stamp("a", nil)).MustBuild()
	require.Error(t, r.AddWorkflow(sameName), "same name registered twice")

	require.Error(t, r.AddWorkflow(nil))
}

func TestRunnerUnknownWorkflow(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	_, err := r.Run(context.Background(), "ghost", Payload{})
	require.Error(t, err)
}

func TestRunnerSubworkflowEndToEnd(t *testing.T) {
	t.Parallel()

	r := newRunner(t)

	child := NewWorkflow("child").
		Node(stamp("work", map[string]any{"childRan": true})).
		MustBuild()
	require.NoError(t, r.AddWorkflow(child))

	parent := NewWorkflow("parent").
		Node(Node{ID: "call", Type: "subworkflow", Name: "call", Parameters: map[string]any{
			"workflowName": "child",
		}}).
		MustBuild()
	require.NoError(t, r.AddWorkflow(parent))

	res, err := r.Run(context.Background(), "parent", Payload{})
	require.NoError(t, err)

	require.Equal(t, api.RunStatusCompleted, res.Status)
	require.Equal(t, true, res.Output["success"])
	out := res.Output["output"].(map[string]any)
	require.Equal(t, true, out["childRan"])
}

func TestRunnerSubworkflowSelfRecursionFailsRun(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	wf := NewWorkflow("ouroboros").
		Node(Node{ID: "self", Type: "subworkflow", Name: "self", Parameters: map[string]any{
			"workflowName": "ouroboros",
		}}).
		MustBuild()
	require.NoError(t, r.AddWorkflow(wf))

	res, err := r.Run(context.Background(), "ouroboros", Payload{})
	require.NoError(t, err)

	require.Equal(t, api.RunStatusFailed, res.Status)
	require.ErrorIs(t, res.Err, ErrSelfRecursion)
}

func TestRunnerStartWorkflowAsync(t *testing.T) {
	t.Parallel()

	r := newRunner(t)
	wf := NewWorkflow("bg").
		Node(stamp("work", map[string]any{"done": true})).
		MustBuild()
	require.NoError(t, r.AddWorkflow(wf))

	execID, err := r.StartWorkflow(context.Background(), WorkflowRef{Name: "bg"}, Payload{})
	require.NoError(t, err)
	require.NotEmpty(t, execID)

	require.Eventually(t, func() bool {
		res, ok := r.Result(execID)
		return ok && res.Status == api.RunStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	res, ok := r.Result(execID)
	require.True(t, ok)
	require.Equal(t, execID, res.ExecutionID)
	require.Equal(t, true, res.Output["done"])
}

func TestRunnerObserverSeesLifecycle(t *testing.T) {
	t.Parallel()

	metrics := &BasicMetrics{}
	reg := NewDefaultRegistry()
	reg.MustRegister(stampExecutor{})
	r := NewRunner(reg, RunnerConfig{Observer: metrics})

	wf := NewWorkflow("observed").
		Node(stamp("a", nil)).
		Node(stamp("b", nil)).
		Connect("a", "b").
		MustBuild()
	require.NoError(t, r.AddWorkflow(wf))

	_, err := r.Run(context.Background(), "observed", Payload{})
	require.NoError(t, err)

	snap := metrics.Snapshot()
	require.Equal(t, int64(1), snap.RunsStarted)
	require.Equal(t, int64(1), snap.RunsCompleted)
	require.Equal(t, int64(2), snap.NodesCompleted)
}
