package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// CredentialResolver resolves stored credentials for nodes that reference
// them. Credential storage and encryption live outside this module; the
// resolver is consumed, not implemented, here.
type CredentialResolver interface {
	CredentialByID(id string) (map[string]any, error)
	CredentialByName(name string) (map[string]any, error)
}

// ContextConfig carries the collaborators wired into a new ExecutionContext.
// Nil fields get safe defaults (slog.Default for the logger, a resolver that
// fails every lookup, no runner).
type ContextConfig struct {
	Logger      *slog.Logger
	Credentials CredentialResolver
	Registry    ExecutorLookup
	Runner      WorkflowRunner

	// ExecutionID overrides the generated id; used when resuming or when
	// the engine owns id allocation.
	ExecutionID string
}

// ExecutionContext is the per-run state handed to every node invocation of
// one execution: execution id, workflow reference, trigger input, log sink,
// credential resolver, registry and runner handles, and the run's shared
// cancellation signal. Its lifetime is exactly one run.
type ExecutionContext struct {
	id       string
	workflow *Workflow
	input    Payload
	logger   *slog.Logger
	creds    CredentialResolver
	registry ExecutorLookup
	runner   WorkflowRunner

	ctx    context.Context
	cancel context.CancelFunc
}

// NewExecutionContext creates the context for one run. The returned
// ExecutionContext derives its cancellation signal from parent; cancelling
// parent, or calling Cancel, aborts every wait in the run.
func NewExecutionContext(parent context.Context, wf *Workflow, input Payload, cfg ContextConfig) *ExecutionContext {
	if parent == nil {
		parent = context.Background()
	}
	id := cfg.ExecutionID
	if id == "" {
		id = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	return &ExecutionContext{
		id:       id,
		workflow: wf,
		input:    input.Clone(),
		logger:   logger.With(slog.String("execution_id", id)),
		creds:    cfg.Credentials,
		registry: cfg.Registry,
		runner:   cfg.Runner,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ID returns the execution id.
func (ec *ExecutionContext) ID() string { return ec.id }

// Workflow returns the workflow being executed. Merge uses it to derive
// expected input counts from incoming connections.
func (ec *ExecutionContext) Workflow() *Workflow { return ec.workflow }

// Input returns the trigger-time input of the run.
func (ec *ExecutionContext) Input() Payload { return ec.input }

// Logger returns the run-scoped structured logger.
func (ec *ExecutionContext) Logger() *slog.Logger { return ec.logger }

// Registry returns the executor lookup for this run. Control-flow executors
// use it to run inline operations through other node types.
func (ec *ExecutionContext) Registry() ExecutorLookup { return ec.registry }

// Runner returns the workflow runner boundary, or nil when no engine is
// attached (subworkflow nodes then fail with a configuration error).
func (ec *ExecutionContext) Runner() WorkflowRunner { return ec.runner }

// Context returns the run's cancellation context. Engines pass it as the ctx
// argument to Execute; executors that fan out derive sub-contexts from it.
func (ec *ExecutionContext) Context() context.Context { return ec.ctx }

// Cancel aborts the run. Every suspension point observing the signal
// returns a cancelled result instead of completing its wait.
func (ec *ExecutionContext) Cancel() { ec.cancel() }

// Cancelled reports whether the run has been cancelled.
func (ec *ExecutionContext) Cancelled() bool {
	return ec.ctx.Err() != nil
}

// CredentialByID resolves a credential by id via the configured resolver.
func (ec *ExecutionContext) CredentialByID(id string) (map[string]any, error) {
	if ec.creds == nil {
		return nil, newConfigError("no credential resolver configured")
	}
	return ec.creds.CredentialByID(id)
}

// CredentialByName resolves a credential by name via the configured resolver.
func (ec *ExecutionContext) CredentialByName(name string) (map[string]any, error) {
	if ec.creds == nil {
		return nil, newConfigError("no credential resolver configured")
	}
	return ec.creds.CredentialByName(name)
}
