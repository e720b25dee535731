package nodes

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/tolgayilmaz86/NerveMind-sub001/internal/registry"
	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// Test scaffolding shared by the executor tests: a few scripted node kinds
// standing in for integration adapters, and a helper wiring them into an
// execution context.

// setExecutor overlays the "values" map from its configuration onto the
// payload.
type setExecutor struct{}

func (setExecutor) Type() string { return "set" }

func (setExecutor) Execute(ctx context.Context, node api.Node, payload api.Payload, ec *api.ExecutionContext) (api.Payload, error) {
	values, _ := node.Parameters["values"].(map[string]any)
	return payload.Overlay(values), nil
}

// failExecutor fails with a typed error. With "failuresBeforeSuccess" set it
// succeeds once the shared counter passes the threshold.
type failExecutor struct {
	calls atomic.Int64
}

func (f *failExecutor) Type() string { return "flaky" }

func (f *failExecutor) Execute(ctx context.Context, node api.Node, payload api.Payload, ec *api.ExecutionContext) (api.Payload, error) {
	call := f.calls.Add(1)
	if n, ok := node.Parameters["failuresBeforeSuccess"].(int); ok && call > int64(n) {
		return payload.Overlay(map[string]any{"recovered": true}), nil
	}
	kind, _ := node.Parameters["kind"].(string)
	if kind == "" {
		kind = "error"
	}
	return nil, api.NewTypedError(kind, errors.New("scripted failure"))
}

// sleepExecutor sleeps for "ms" milliseconds (or the numeric payload "item"
// when "fromItem" is set), honoring ctx, then marks the payload.
type sleepExecutor struct{}

func (sleepExecutor) Type() string { return "sleep" }

func (sleepExecutor) Execute(ctx context.Context, node api.Node, payload api.Payload, ec *api.ExecutionContext) (api.Payload, error) {
	ms, _ := node.Parameters["ms"].(int)
	if b, _ := node.Parameters["fromItem"].(bool); b {
		if v, ok := payload.Number("item"); ok {
			ms = int(v)
		}
	}
	if ms > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(ms) * time.Millisecond):
		}
	}
	return payload.Overlay(map[string]any{"slept": true}), nil
}

func newTestRegistry(extra ...api.NodeExecutor) *registry.Registry {
	r := registry.New()
	r.MustRegister(setExecutor{})
	r.MustRegister(sleepExecutor{})
	r.MustRegister(&failExecutor{})
	for _, e := range extra {
		r.MustRegister(e)
	}
	return r
}

func newTestContext(reg api.ExecutorLookup, wf *api.Workflow) *api.ExecutionContext {
	return api.NewExecutionContext(context.Background(), wf, api.Payload{}, api.ContextConfig{
		Registry: reg,
	})
}

func setOp(values map[string]any) api.Operation {
	return api.Operation{Type: "set", Config: map[string]any{"values": values}}
}
