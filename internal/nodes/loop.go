package nodes

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// LoopExecutor iterates a sequence found at a configured payload key.
//
// Configuration:
//
//	itemsKey    payload key holding the sequence (default "items");
//	            a non-sequence value is treated as a singleton
//	operations  optional inline operations run once per item
//	parallel    run items concurrently in fixed-size batches
//	batchSize   items per batch when parallel (default 10)
//
// For each element the caller's payload is overlaid with item, index,
// loopIndex, loopTotal, isFirst and isLast before the per-item operations
// (if any) run. Results appear under "results" ordered by original index
// regardless of completion order; a single item's failure fails its whole
// batch and the node.
type LoopExecutor struct{}

// NewLoopExecutor returns the loop control-flow executor.
func NewLoopExecutor() *LoopExecutor { return &LoopExecutor{} }

func (e *LoopExecutor) Type() string { return "loop" }

func (e *LoopExecutor) Execute(ctx context.Context, node api.Node, payload api.Payload, ec *api.ExecutionContext) (api.Payload, error) {
	itemsKey := stringParam(node, "itemsKey", "items")
	v, exists := payload[itemsKey]
	if !exists {
		return nil, api.NewConfigError("loop node %q: payload has no %q key", node.ID, itemsKey)
	}

	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	total := len(items)

	ops, err := operationsParam(node, "operations")
	if err != nil {
		return nil, err
	}

	results := make([]any, total)

	runItem := func(ctx context.Context, i int) error {
		itemPayload := payload.Overlay(map[string]any{
			"item":      items[i],
			"index":     i,
			"loopIndex": i,
			"loopTotal": total,
			"isFirst":   i == 0,
			"isLast":    i == total-1,
		})
		if len(ops) > 0 {
			out, err := runOperations(ctx, ec, ops, itemPayload)
			if err != nil {
				return err
			}
			itemPayload = out
		}
		results[i] = map[string]any(itemPayload)
		return nil
	}

	if boolParam(node, "parallel", false) {
		batchSize := intParam(node, "batchSize", 10)
		if batchSize < 1 {
			batchSize = 1
		}

		// Fixed-size batches: every item of a batch must finish before the
		// next batch starts. Slots in results are disjoint per task, so the
		// only synchronization needed is the batch join.
		for start := 0; start < total; start += batchSize {
			end := start + batchSize
			if end > total {
				end = total
			}

			g, gctx := errgroup.WithContext(ctx)
			for i := start; i < end; i++ {
				i := i
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					return runItem(gctx, i)
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}
		}
	} else {
		for i := 0; i < total; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := runItem(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	return payload.Overlay(map[string]any{
		"results": results,
		"count":   total,
	}), nil
}
