package nervemind

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// WorkflowBuilder provides a fluent API for defining workflow graphs:
//
//	wf, err := nervemind.NewWorkflow("enrich-orders").
//	    Node(fetch).
//	    Node(split).
//	    Node(join).
//	    Connect(fetch.ID, split.ID).
//	    Connect(split.ID, join.ID).
//	    Build()
type WorkflowBuilder struct {
	wf api.Workflow
}

// NewWorkflow creates a new workflow builder with the given name.
func NewWorkflow(name string) *WorkflowBuilder {
	if name == "" {
		panic("nervemind: workflow name must not be empty")
	}
	return &WorkflowBuilder{
		wf: api.Workflow{
			ID:   uuid.NewString(),
			Name: name,
		},
	}
}

// ID overrides the generated workflow id.
func (b *WorkflowBuilder) ID(id string) *WorkflowBuilder {
	b.wf.ID = id
	return b
}

// Node appends a node to the workflow.
func (b *WorkflowBuilder) Node(n Node) *WorkflowBuilder {
	if n.ID == "" {
		panic(fmt.Sprintf("nervemind: node %q has empty id", n.Name))
	}
	b.wf.Nodes = append(b.wf.Nodes, n)
	return b
}

// Connect links the main output of src to the main input of dst.
func (b *WorkflowBuilder) Connect(srcID, dstID string) *WorkflowBuilder {
	return b.ConnectPorts(srcID, api.MainOutput, dstID, api.MainInput)
}

// ConnectPorts links a named output handle of src to a named input handle
// of dst.
func (b *WorkflowBuilder) ConnectPorts(srcID, output, dstID, input string) *WorkflowBuilder {
	b.wf.Connections = append(b.wf.Connections, api.Connection{
		ID:           uuid.NewString(),
		SourceNode:   srcID,
		SourceOutput: output,
		TargetNode:   dstID,
		TargetInput:  input,
	})
	return b
}

// Setting records a workflow-level setting visible to every node of a run.
func (b *WorkflowBuilder) Setting(key string, value any) *WorkflowBuilder {
	if b.wf.Settings == nil {
		b.wf.Settings = make(map[string]any)
	}
	b.wf.Settings[key] = value
	return b
}

// Build validates the graph and returns the workflow. Connection endpoints
// must reference nodes added to this builder.
func (b *WorkflowBuilder) Build() (*Workflow, error) {
	wf := b.wf
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return &wf, nil
}

// MustBuild is like Build but panics on error.
// Useful for initialization in main() and in tests.
func (b *WorkflowBuilder) MustBuild() *Workflow {
	wf, err := b.Build()
	if err != nil {
		panic(err)
	}
	return wf
}
