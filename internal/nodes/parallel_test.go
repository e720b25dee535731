package nodes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

func parallelNode(params map[string]any) api.Node {
	return api.Node{ID: "par-1", Type: "parallel", Name: "parallel", Parameters: params}
}

func branchParam(name string, ops ...api.Operation) map[string]any {
	return map[string]any{"name": name, "operations": ops}
}

func TestParallelPassThroughMarker(t *testing.T) {
	t.Parallel()

	exec := NewParallelExecutor()
	ec := newTestContext(newTestRegistry(), nil)

	for _, params := range []map[string]any{
		{},
		{"branches": 3},
		{"branches": []any{}},
	} {
		out, err := exec.Execute(context.Background(), parallelNode(params), api.Payload{"in": 1}, ec)
		require.NoError(t, err)
		require.Equal(t, true, out["parallel"])
		require.Equal(t, true, out["passThrough"])
		require.Equal(t, 1, out["in"])
	}
}

func TestParallelMergeCombinesBranchOutputs(t *testing.T) {
	t.Parallel()

	exec := NewParallelExecutor()
	ec := newTestContext(newTestRegistry(), nil)

	node := parallelNode(map[string]any{
		"combineResults": "merge",
		"branches": []any{
			branchParam("a", setOp(map[string]any{"x": 1})),
			branchParam("b", setOp(map[string]any{"y": 2})),
		},
	})

	out, err := exec.Execute(context.Background(), node, api.Payload{"base": true}, ec)
	require.NoError(t, err)

	require.Equal(t, 1, out["x"])
	require.Equal(t, 2, out["y"])
	require.Equal(t, true, out["base"])
	require.Equal(t, 2, out["branchCount"])
	require.Equal(t, 2, out["successCount"])
	require.Equal(t, false, out["hasErrors"])
	require.Equal(t, false, out["timedOut"])
	_, hasErrMap := out["errors"]
	require.False(t, hasErrMap)
}

func TestParallelBranchIsolation(t *testing.T) {
	t.Parallel()

	exec := NewParallelExecutor()
	ec := newTestContext(newTestRegistry(), nil)

	// Both branches write the same key; with a branch-name map each sees only
	// its own write, proving they worked on independent copies.
	node := parallelNode(map[string]any{
		"branches": []any{
			branchParam("a", setOp(map[string]any{"v": "a"})),
			branchParam("b", setOp(map[string]any{"v": "b"})),
		},
	})

	input := api.Payload{"v": "orig"}
	out, err := exec.Execute(context.Background(), node, input, ec)
	require.NoError(t, err)

	require.Equal(t, "orig", input["v"], "input must not be mutated")
	byName := out["branches"].(map[string]any)
	require.Equal(t, "a", byName["a"].(map[string]any)["v"])
	require.Equal(t, "b", byName["b"].(map[string]any)["v"])
}

func TestParallelCollectsErrorsWithoutFailFast(t *testing.T) {
	t.Parallel()

	exec := NewParallelExecutor()
	ec := newTestContext(newTestRegistry(), nil)

	node := parallelNode(map[string]any{
		"combineResults": "merge",
		"branches": []any{
			branchParam("ok", setOp(map[string]any{"x": 1})),
			branchParam("bad", api.Operation{Type: "flaky"}),
		},
	})

	out, err := exec.Execute(context.Background(), node, api.Payload{}, ec)
	require.NoError(t, err, "branch failures are reported in the output, not as a node error")

	require.Equal(t, 1, out["successCount"])
	require.Equal(t, true, out["hasErrors"])
	require.Equal(t, 1, out["x"], "the successful branch still contributed")
	errMap := out["errors"].(map[string]any)
	require.Contains(t, errMap, "bad")
	require.NotContains(t, errMap, "ok")
}

func TestParallelFailFastCancelsSiblings(t *testing.T) {
	t.Parallel()

	exec := NewParallelExecutor()
	ec := newTestContext(newTestRegistry(), nil)

	node := parallelNode(map[string]any{
		"failFast": true,
		"branches": []any{
			branchParam("slow", api.Operation{Type: "sleep", Config: map[string]any{"ms": 5000}}),
			branchParam("bad", api.Operation{Type: "flaky"}),
		},
	})

	start := time.Now()
	out, err := exec.Execute(context.Background(), node, api.Payload{}, ec)
	require.NoError(t, err)
	require.Less(t, time.Since(start), 2*time.Second, "failFast should have cancelled the slow branch")

	require.Equal(t, 0, out["successCount"])
	require.Equal(t, true, out["hasErrors"])
	errMap := out["errors"].(map[string]any)
	require.Contains(t, errMap, "slow")
	require.Contains(t, errMap, "bad")
}

func TestParallelTimeoutKeepsFinishedBranches(t *testing.T) {
	t.Parallel()

	exec := NewParallelExecutor()
	ec := newTestContext(newTestRegistry(), nil)

	node := parallelNode(map[string]any{
		"timeoutMs":      float64(200),
		"combineResults": "merge",
		"branches": []any{
			branchParam("fast", setOp(map[string]any{"fast": true})),
			branchParam("slow", api.Operation{Type: "sleep", Config: map[string]any{"ms": 5000}}),
		},
	})

	out, err := exec.Execute(context.Background(), node, api.Payload{}, ec)
	require.NoError(t, err)

	require.Equal(t, true, out["timedOut"])
	require.Equal(t, 1, out["successCount"])
	require.Equal(t, true, out["fast"])
	errMap := out["errors"].(map[string]any)
	require.Equal(t, "timed out", errMap["slow"])
}

func TestParallelFirstIsDeclarationOrder(t *testing.T) {
	t.Parallel()

	exec := NewParallelExecutor()
	ec := newTestContext(newTestRegistry(), nil)

	// The first declared branch finishes last; "first" must still pick it.
	node := parallelNode(map[string]any{
		"combineResults": "first",
		"branches": []any{
			branchParam("slow",
				api.Operation{Type: "sleep", Config: map[string]any{"ms": 100}},
				setOp(map[string]any{"who": "slow"})),
			branchParam("quick", setOp(map[string]any{"who": "quick"})),
		},
	})

	out, err := exec.Execute(context.Background(), node, api.Payload{}, ec)
	require.NoError(t, err)

	require.Equal(t, "slow", out["resultBranch"])
	require.Equal(t, "slow", out["result"].(map[string]any)["who"])
}

func TestParallelArrayCombinePositional(t *testing.T) {
	t.Parallel()

	exec := NewParallelExecutor()
	ec := newTestContext(newTestRegistry(), nil)

	node := parallelNode(map[string]any{
		"combineResults": "array",
		"branches": []any{
			branchParam("a", setOp(map[string]any{"n": 0})),
			branchParam("b", setOp(map[string]any{"n": 1})),
			branchParam("c", setOp(map[string]any{"n": 2})),
		},
	})

	out, err := exec.Execute(context.Background(), node, api.Payload{}, ec)
	require.NoError(t, err)

	results := out["results"].([]any)
	require.Len(t, results, 3)
	for i, r := range results {
		require.Equal(t, i, r.(map[string]any)["n"])
	}
}

func TestParallelUnknownCombineIsConfigError(t *testing.T) {
	t.Parallel()

	exec := NewParallelExecutor()
	ec := newTestContext(newTestRegistry(), nil)

	node := parallelNode(map[string]any{
		"combineResults": "zip",
		"branches": []any{
			branchParam("a", setOp(nil)),
		},
	})

	_, err := exec.Execute(context.Background(), node, api.Payload{}, ec)
	require.Error(t, err)
	require.True(t, api.IsConfigError(err))
}

func TestParallelRunCancellationPropagates(t *testing.T) {
	t.Parallel()

	exec := NewParallelExecutor()
	ec := newTestContext(newTestRegistry(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	node := parallelNode(map[string]any{
		"branches": []any{
			branchParam("slow", api.Operation{Type: "sleep", Config: map[string]any{"ms": 5000}}),
		},
	})

	_, err := exec.Execute(ctx, node, api.Payload{}, ec)
	require.ErrorIs(t, err, context.Canceled)
}
