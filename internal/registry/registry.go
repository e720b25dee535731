// Package registry maps node type identifiers to their executors.
package registry

import (
	"fmt"
	"sync"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// Registry is a concurrency-safe type-identifier to executor lookup.
// Lookups take only a read lock, so executors may call back into the
// registry re-entrantly while executing inline operations.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]api.NodeExecutor
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		executors: make(map[string]api.NodeExecutor),
	}
}

// Register adds an executor under its own type identifier. Registering the
// same type twice is an error; replacing executors at run time is not
// supported.
func (r *Registry) Register(exec api.NodeExecutor) error {
	if exec == nil {
		return fmt.Errorf("registry: nil executor")
	}
	t := exec.Type()
	if t == "" {
		return fmt.Errorf("registry: executor with empty type identifier")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executors[t]; exists {
		return fmt.Errorf("registry: node type %q already registered", t)
	}
	r.executors[t] = exec
	return nil
}

// MustRegister is like Register but panics on error.
// Useful for initialization in main().
func (r *Registry) MustRegister(exec api.NodeExecutor) {
	if err := r.Register(exec); err != nil {
		panic(err)
	}
}

// Lookup resolves a type identifier. It returns api.ErrUnknownNodeType
// (wrapped with the identifier) when no executor is registered.
func (r *Registry) Lookup(nodeType string) (api.NodeExecutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exec, ok := r.executors[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", api.ErrUnknownNodeType, nodeType)
	}
	return exec, nil
}

// Types returns the registered type identifiers in unspecified order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.executors))
	for t := range r.executors {
		out = append(out, t)
	}
	return out
}
