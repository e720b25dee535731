package nervemind

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// RunnerConfig carries the optional collaborators of a Runner.
type RunnerConfig struct {
	Observer    api.Observer
	Logger      *slog.Logger
	Credentials api.CredentialResolver
}

// Runner is a minimal in-process graph walker: it registers workflows,
// dispatches nodes through the registry, forwards payloads along
// connections (concurrently on fan-out), and honors the halt-branch signal
// emitted by merge points.
//
// It implements api.WorkflowRunner, so subworkflow nodes work end-to-end
// against it. It is intended for development, examples and tests; the
// production graph engine is an external collaborator.
//
// Typical usage:
//
//	runner := nervemind.NewRunner(nervemind.NewDefaultRegistry(), nervemind.RunnerConfig{})
//	_ = runner.AddWorkflow(wf)
//	res, err := runner.Run(ctx, wf.Name, input)
type Runner struct {
	registry api.ExecutorLookup
	obs      api.Observer
	logger   *slog.Logger
	creds    api.CredentialResolver

	mu     sync.RWMutex
	byID   map[string]*api.Workflow
	byName map[string]*api.Workflow
	runs   map[string]*api.RunResult
}

// NewRunner constructs a Runner dispatching through the given registry.
func NewRunner(reg api.ExecutorLookup, cfg RunnerConfig) *Runner {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry: reg,
		obs:      obs,
		logger:   logger,
		creds:    cfg.Credentials,
		byID:     make(map[string]*api.Workflow),
		byName:   make(map[string]*api.Workflow),
		runs:     make(map[string]*api.RunResult),
	}
}

// AddWorkflow validates and registers a workflow by id and name. Graphs must
// be acyclic; registering the same id or name twice is an error.
func (r *Runner) AddWorkflow(wf *api.Workflow) error {
	if wf == nil {
		return fmt.Errorf("nervemind: nil workflow")
	}
	if err := wf.Validate(); err != nil {
		return err
	}
	if err := checkAcyclic(wf); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[wf.ID]; exists {
		return fmt.Errorf("nervemind: workflow id %q already registered", wf.ID)
	}
	if _, exists := r.byName[wf.Name]; exists {
		return fmt.Errorf("nervemind: workflow name %q already registered", wf.Name)
	}
	r.byID[wf.ID] = wf
	r.byName[wf.Name] = wf
	return nil
}

// Run runs a registered workflow by name to completion.
func (r *Runner) Run(ctx context.Context, name string, input Payload) (*RunResult, error) {
	return r.RunWorkflow(ctx, api.WorkflowRef{Name: name}, input)
}

// RunWorkflow implements api.WorkflowRunner. It blocks until the run
// finishes or ctx expires. A node failure yields a result with
// RunStatusFailed and the error in Err; only lookup problems and context
// expiry are returned as errors.
func (r *Runner) RunWorkflow(ctx context.Context, ref api.WorkflowRef, input Payload) (*api.RunResult, error) {
	wf, err := r.lookup(ref)
	if err != nil {
		return nil, err
	}

	ec := api.NewExecutionContext(ctx, wf, input, api.ContextConfig{
		Logger:      r.logger,
		Credentials: r.creds,
		Registry:    r.registry,
		Runner:      r,
	})

	start := time.Now()
	r.obs.OnRunStart(ec.Context(), ec)

	out, walkErr := r.walk(ec, input)
	res := &api.RunResult{
		ExecutionID: ec.ID(),
		Duration:    time.Since(start),
	}

	if walkErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// Cancellation and deadlines propagate to the caller.
			r.obs.OnRunFailed(ec.Context(), ec, ctxErr)
			return nil, ctxErr
		}
		res.Status = api.RunStatusFailed
		res.Err = walkErr
		r.obs.OnRunFailed(ec.Context(), ec, walkErr)
		return res, nil
	}

	res.Status = api.RunStatusCompleted
	res.Output = out
	r.obs.OnRunCompleted(ec.Context(), ec)
	return res, nil
}

// StartWorkflow implements api.WorkflowRunner. It launches the run detached
// from the caller's cancellation and returns its execution id immediately.
func (r *Runner) StartWorkflow(ctx context.Context, ref api.WorkflowRef, input Payload) (string, error) {
	wf, err := r.lookup(ref)
	if err != nil {
		return "", err
	}

	execID := uuid.NewString()
	r.mu.Lock()
	r.runs[execID] = &api.RunResult{ExecutionID: execID, Status: api.RunStatusRunning}
	r.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		res, err := r.RunWorkflow(detached, api.WorkflowRef{ID: wf.ID}, input)
		if err != nil {
			res = &api.RunResult{ExecutionID: execID, Status: api.RunStatusFailed, Err: err}
		}
		res.ExecutionID = execID

		r.mu.Lock()
		r.runs[execID] = res
		r.mu.Unlock()
	}()
	return execID, nil
}

// Result returns the result of a run started with StartWorkflow. While the
// run is in flight the status is RunStatusRunning.
func (r *Runner) Result(execID string) (*api.RunResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.runs[execID]
	return res, ok
}

func (r *Runner) lookup(ref api.WorkflowRef) (*api.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ref.ID != "" {
		if wf, ok := r.byID[ref.ID]; ok {
			return wf, nil
		}
	}
	if ref.Name != "" {
		if wf, ok := r.byName[ref.Name]; ok {
			return wf, nil
		}
	}
	return nil, fmt.Errorf("nervemind: workflow not found (id=%q name=%q)", ref.ID, ref.Name)
}

// walk delivers the input to every root node and propagates outputs along
// connections, one goroutine per delivery, so fan-out branches genuinely run
// concurrently and merge points see concurrent arrivals. A halted branch
// stops propagating; the first node failure cancels the run.
func (r *Runner) walk(ec *api.ExecutionContext, input Payload) (Payload, error) {
	wf := ec.Workflow()
	ctx := ec.Context()

	var (
		mu       sync.Mutex
		finals   []Payload
		firstErr error
		wg       sync.WaitGroup
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			ec.Cancel()
		}
		mu.Unlock()
	}

	var deliver func(nodeID string, payload Payload)
	deliver = func(nodeID string, payload Payload) {
		defer wg.Done()

		if ctx.Err() != nil {
			return
		}
		node, ok := wf.NodeByID(nodeID)
		if !ok {
			fail(fmt.Errorf("nervemind: connection targets unknown node %q", nodeID))
			return
		}

		out := payload
		if !node.Disabled {
			exec, err := r.registry.Lookup(node.Type)
			if err != nil {
				fail(api.NewNodeError(node, err))
				return
			}

			start := time.Now()
			r.obs.OnNodeStart(ctx, ec, node)
			out, err = exec.Execute(ctx, node, payload, ec)
			r.obs.OnNodeCompleted(ctx, ec, node, err, time.Since(start))

			if api.IsHaltBranch(err) {
				// Merge point consumed this branch; stop traversal here.
				return
			}
			if err != nil {
				fail(api.NewNodeError(node, err))
				return
			}
		}

		conns := wf.ConnectionsFrom(node.ID)
		if len(conns) == 0 {
			mu.Lock()
			finals = append(finals, out)
			mu.Unlock()
			return
		}
		for _, c := range conns {
			wg.Add(1)
			go deliver(c.TargetNode, out.Clone())
		}
	}

	started := false
	for _, n := range wf.Nodes {
		if len(wf.ConnectionsTo(n.ID)) == 0 {
			started = true
			wg.Add(1)
			go deliver(n.ID, input.Clone())
		}
	}
	if !started {
		return nil, fmt.Errorf("nervemind: workflow %q has no root node", wf.Name)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return Payload{}.Merge(finals...), nil
}

// checkAcyclic rejects cyclic graphs with Kahn's algorithm; the walker
// would otherwise never terminate.
func checkAcyclic(wf *api.Workflow) error {
	indegree := make(map[string]int, len(wf.Nodes))
	for _, n := range wf.Nodes {
		indegree[n.ID] = 0
	}
	for _, c := range wf.Connections {
		indegree[c.TargetNode]++
	}

	queue := make([]string, 0, len(wf.Nodes))
	for id, d := range indegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, c := range wf.Connections {
			if c.SourceNode != id {
				continue
			}
			indegree[c.TargetNode]--
			if indegree[c.TargetNode] == 0 {
				queue = append(queue, c.TargetNode)
			}
		}
	}
	if visited != len(wf.Nodes) {
		return fmt.Errorf("nervemind: workflow %q contains a cycle", wf.Name)
	}
	return nil
}
