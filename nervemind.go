package nervemind

import (
	"github.com/tolgayilmaz86/NerveMind-sub001/internal/nodes"
	"github.com/tolgayilmaz86/NerveMind-sub001/internal/ratelimit"
	"github.com/tolgayilmaz86/NerveMind-sub001/internal/registry"
	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Node             = api.Node
	Connection       = api.Connection
	Workflow         = api.Workflow
	Position         = api.Position
	Payload          = api.Payload
	Operation        = api.Operation
	ExecutionContext = api.ExecutionContext
	ContextConfig    = api.ContextConfig
	NodeExecutor     = api.NodeExecutor
	ExecutorLookup   = api.ExecutorLookup
	WorkflowRef      = api.WorkflowRef
	WorkflowRunner   = api.WorkflowRunner
	RunResult        = api.RunResult

	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	NoopObserver         = api.NoopObserver
	CompositeObserver    = api.CompositeObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot

	Registry = registry.Registry
)

// Re-export common helpers and sentinels.

var (
	NewExecutionContext  = api.NewExecutionContext
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver

	ErrHaltBranch    = api.ErrHaltBranch
	ErrSelfRecursion = api.ErrSelfRecursion
	IsHaltBranch     = api.IsHaltBranch
)

// NewRegistry returns an empty executor registry for callers that want full
// control over which node kinds are available.
func NewRegistry() *Registry {
	return registry.New()
}

// NewDefaultRegistry returns a registry with every control-flow executor
// registered: loop, parallel, merge, retry, rateLimit, tryCatch and
// subworkflow. Integration adapters (HTTP, LLM, ...) are registered by the
// embedding application on top.
func NewDefaultRegistry() *Registry {
	r := registry.New()
	r.MustRegister(nodes.NewLoopExecutor())
	r.MustRegister(nodes.NewParallelExecutor())
	r.MustRegister(nodes.NewMergeExecutor())
	r.MustRegister(nodes.NewRetryExecutor())
	r.MustRegister(nodes.NewRateLimitExecutor())
	r.MustRegister(nodes.NewTryCatchExecutor())
	r.MustRegister(nodes.NewSubworkflowExecutor())
	return r
}

// ClearRateLimitBuckets removes every process-wide rate-limit bucket.
// Intended for test isolation and operational reset.
func ClearRateLimitBuckets() {
	ratelimit.DefaultStore.ClearAll()
}

// ClearRateLimitBucket removes the named process-wide rate-limit bucket.
func ClearRateLimitBucket(bucketID string) {
	ratelimit.DefaultStore.Clear(bucketID)
}
