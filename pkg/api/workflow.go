package api

// Position is the canvas location of a node. It is display-only and has no
// effect on execution.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node describes a single node in a workflow graph.
//
// Node values are treated as immutable: edits produce a new value (see
// WithParameters). The Parameters map is the node's configuration and is
// interpreted by the executor registered for Type.
type Node struct {
	// ID uniquely identifies the node within its workflow.
	ID string `json:"id"`

	// Type selects the NodeExecutor that runs this node, e.g. "retry"
	// or "rateLimit".
	Type string `json:"type"`

	// Name is the display name shown in editors and logs.
	Name string `json:"name"`

	// Position is the canvas position; display-only.
	Position Position `json:"position"`

	// Parameters is the node configuration. Values are JSON-compatible.
	Parameters map[string]any `json:"parameters,omitempty"`

	// CredentialID optionally references a stored credential resolved
	// through the ExecutionContext at run time.
	CredentialID string `json:"credentialId,omitempty"`

	// Disabled nodes are skipped by the engine; their input passes through.
	Disabled bool `json:"disabled,omitempty"`

	// Notes is free-form documentation attached to the node.
	Notes string `json:"notes,omitempty"`
}

// WithParameters returns a copy of the node with the given parameters
// overlaid onto the existing ones. The receiver is not modified.
func (n Node) WithParameters(params map[string]any) Node {
	merged := make(map[string]any, len(n.Parameters)+len(params))
	for k, v := range n.Parameters {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	n.Parameters = merged
	return n
}

// Connection links a named output handle of one node to a named input handle
// of another. Multiple connections may fan in to or out of a single node.
type Connection struct {
	ID string `json:"id"`

	SourceNode   string `json:"sourceNode"`
	SourceOutput string `json:"sourceOutput"`
	TargetNode   string `json:"targetNode"`
	TargetInput  string `json:"targetInput"`
}

// MainOutput and MainInput are the default handle names used when a node has
// a single output or input.
const (
	MainOutput = "main"
	MainInput  = "main"
)

// Workflow is a static description of a node graph: the nodes, the typed
// connections between them, and workflow-level settings visible to every
// node during a run.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Nodes       []Node         `json:"nodes"`
	Connections []Connection   `json:"connections"`
	Settings    map[string]any `json:"settings,omitempty"`

	// Active marks the workflow as enabled for trigger-originated runs.
	// Trigger mechanics themselves live outside this module.
	Active bool `json:"active,omitempty"`
}

// NodeByID returns the node with the given id, or false if absent.
func (w *Workflow) NodeByID(id string) (Node, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// ConnectionsTo returns every connection whose target is the given node.
// Merge uses this to derive its expected input count when the node's
// configuration does not state one explicitly.
func (w *Workflow) ConnectionsTo(nodeID string) []Connection {
	var out []Connection
	for _, c := range w.Connections {
		if c.TargetNode == nodeID {
			out = append(out, c)
		}
	}
	return out
}

// ConnectionsFrom returns every connection originating at the given node.
func (w *Workflow) ConnectionsFrom(nodeID string) []Connection {
	var out []Connection
	for _, c := range w.Connections {
		if c.SourceNode == nodeID {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks structural invariants: node ids are unique and every
// connection endpoint references a node in this workflow.
func (w *Workflow) Validate() error {
	seen := make(map[string]bool, len(w.Nodes))
	for _, n := range w.Nodes {
		if n.ID == "" {
			return newConfigError("workflow %q: node with empty id", w.Name)
		}
		if seen[n.ID] {
			return newConfigError("workflow %q: duplicate node id %q", w.Name, n.ID)
		}
		seen[n.ID] = true
	}
	for _, c := range w.Connections {
		if !seen[c.SourceNode] {
			return newConfigError("workflow %q: connection %q references unknown source node %q", w.Name, c.ID, c.SourceNode)
		}
		if !seen[c.TargetNode] {
			return newConfigError("workflow %q: connection %q references unknown target node %q", w.Name, c.ID, c.TargetNode)
		}
	}
	return nil
}
