package nodes

import (
	"time"

	"github.com/tolgayilmaz86/NerveMind-sub001/pkg/api"
)

// Node parameters arrive as JSON-shaped map[string]any values. The helpers
// below read them defensively: a missing or mistyped value yields the
// default rather than an error, matching how node editors tolerate partial
// configuration. Required parameters are validated by each executor.

func stringParam(n api.Node, key, def string) string {
	if s, ok := n.Parameters[key].(string); ok && s != "" {
		return s
	}
	return def
}

func boolParam(n api.Node, key string, def bool) bool {
	if b, ok := n.Parameters[key].(bool); ok {
		return b
	}
	return def
}

func floatParam(n api.Node, key string, def float64) float64 {
	switch v := n.Parameters[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

func intParam(n api.Node, key string, def int) int {
	switch v := n.Parameters[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// durationMsParam reads a millisecond count.
func durationMsParam(n api.Node, key string, def time.Duration) time.Duration {
	ms := floatParam(n, key, -1)
	if ms < 0 {
		return def
	}
	return time.Duration(ms * float64(time.Millisecond))
}

func stringListParam(n api.Node, key string) []string {
	switch v := n.Parameters[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func mapParam(n api.Node, key string) map[string]any {
	if m, ok := n.Parameters[key].(map[string]any); ok {
		return m
	}
	return nil
}

// operationsParam decodes an inline operation list from the node
// configuration. It accepts []api.Operation set programmatically as well as
// the JSON shape []any of {type, name, config} maps. A missing key yields
// (nil, nil); a malformed list is a configuration error.
func operationsParam(n api.Node, key string) ([]api.Operation, error) {
	v, exists := n.Parameters[key]
	if !exists || v == nil {
		return nil, nil
	}
	return toOperations(n, key, v)
}

func toOperations(n api.Node, key string, v any) ([]api.Operation, error) {
	switch list := v.(type) {
	case []api.Operation:
		return list, nil
	case []any:
		out := make([]api.Operation, 0, len(list))
		for i, e := range list {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, api.NewConfigError("node %q: %s[%d] is not an operation object", n.ID, key, i)
			}
			op := api.Operation{}
			if t, ok := m["type"].(string); ok {
				op.Type = t
			}
			if name, ok := m["name"].(string); ok {
				op.Name = name
			}
			if cfg, ok := m["config"].(map[string]any); ok {
				op.Config = cfg
			}
			if op.Type == "" {
				return nil, api.NewConfigError("node %q: %s[%d] has no type", n.ID, key, i)
			}
			out = append(out, op)
		}
		return out, nil
	}
	return nil, api.NewConfigError("node %q: %s is not an operation list", n.ID, key)
}
