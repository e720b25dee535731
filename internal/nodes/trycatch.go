package nodes

import (
	"context"
	"errors"
	"time"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// TryCatchExecutor scopes error handling around inline operation lists.
//
// The "try" list runs first. On failure, structured error info (message,
// type, cause, timestamp) is captured under "errorKey" (default "error") and
// the "catch" list, if configured, runs with that info visible. A catch
// failure is captured under "catchErrorKey" (default "catchError"). The
// "finally" list, if configured, always runs last and sees
// trySucceeded/catchSucceeded flags.
//
// With continueOnError=true (the default) captured errors are soft: the node
// reports success=false but does not fail. With continueOnError=false any
// captured error at any stage turns into a hard failure of the whole node.
type TryCatchExecutor struct{}

// NewTryCatchExecutor returns the try/catch control-flow executor.
func NewTryCatchExecutor() *TryCatchExecutor { return &TryCatchExecutor{} }

func (e *TryCatchExecutor) Type() string { return "tryCatch" }

func (e *TryCatchExecutor) Execute(ctx context.Context, node api.Node, payload api.Payload, ec *api.ExecutionContext) (api.Payload, error) {
	tryOps, err := operationsParam(node, "try")
	if err != nil {
		return nil, err
	}
	if len(tryOps) == 0 {
		return nil, api.NewConfigError("tryCatch node %q: no try operations configured", node.ID)
	}
	catchOps, err := operationsParam(node, "catch")
	if err != nil {
		return nil, err
	}
	finallyOps, err := operationsParam(node, "finally")
	if err != nil {
		return nil, err
	}

	errorKey := stringParam(node, "errorKey", "error")
	catchErrorKey := stringParam(node, "catchErrorKey", "catchError")
	continueOnError := boolParam(node, "continueOnError", true)

	current := payload.Clone()
	trySucceeded := true
	catchSucceeded := true
	var firstErr error

	out, tryErr := runOperations(ctx, ec, tryOps, current)
	if tryErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// Cancellation is never swallowed into a captured error.
			return nil, ctxErr
		}
		trySucceeded = false
		firstErr = tryErr
		current = current.Overlay(map[string]any{errorKey: captureError(tryErr)})

		if len(catchOps) > 0 {
			cout, catchErr := runOperations(ctx, ec, catchOps, current)
			if catchErr != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				catchSucceeded = false
				current = current.Overlay(map[string]any{catchErrorKey: captureError(catchErr)})
			} else {
				current = cout
			}
		}
	} else {
		current = out
	}

	finallySucceeded := true
	if len(finallyOps) > 0 {
		finInput := current.Overlay(map[string]any{
			"trySucceeded":   trySucceeded,
			"catchSucceeded": catchSucceeded,
		})
		fout, finErr := runOperations(ctx, ec, finallyOps, finInput)
		if finErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			finallySucceeded = false
			if firstErr == nil {
				firstErr = finErr
			}
			current = current.Overlay(map[string]any{"finallyError": captureError(finErr)})
		} else {
			current = fout
		}
	}

	succeeded := trySucceeded && catchSucceeded && finallySucceeded
	if !succeeded && !continueOnError {
		if firstErr == nil {
			firstErr = errors.New("tryCatch: captured error")
		}
		return nil, api.NewNodeError(node, firstErr)
	}

	return current.Overlay(map[string]any{"success": succeeded}), nil
}

// captureError builds the structured error record exposed to catch/finally
// operations.
func captureError(err error) map[string]any {
	info := map[string]any{
		"message":   err.Error(),
		"type":      api.ErrorKind(err),
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if cause := errors.Unwrap(err); cause != nil && cause.Error() != err.Error() {
		info["cause"] = cause.Error()
	}
	return info
}
