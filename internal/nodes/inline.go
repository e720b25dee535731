package nodes

import (
	"context"

	"github.com/google/uuid"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// runOperations chains the payload through an inline operation list: each
// step is resolved via the registry, wrapped in a throwaway node, and
// executed with the previous step's output as input. The first failure stops
// the chain; the error carries the failing node's identity.
func runOperations(ctx context.Context, ec *api.ExecutionContext, ops []api.Operation, payload api.Payload) (api.Payload, error) {
	reg := ec.Registry()
	if reg == nil {
		return payload, api.NewConfigError("execution context has no registry; inline operations cannot run")
	}

	current := payload
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return current, err
		}
		if op.Type == "" {
			return current, api.NewConfigError("inline operation %d has no type", i)
		}

		exec, err := reg.Lookup(op.Type)
		if err != nil {
			return current, err
		}

		name := op.Name
		if name == "" {
			name = op.Type
		}
		node := api.Node{
			ID:         uuid.NewString(),
			Type:       op.Type,
			Name:       name,
			Parameters: op.Config,
		}

		out, err := exec.Execute(ctx, node, current, ec)
		if err != nil {
			return current, api.NewNodeError(node, err)
		}
		current = out
	}
	return current, nil
}
