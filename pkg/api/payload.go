package api

// Payload is the JSON-compatible key/value mapping that flows from node to
// node during one execution. Values are strings, numbers, booleans, nil,
// nested map[string]any, or []any of those.
//
// Executors must never mutate the payload they receive; they return a new
// payload, typically the input overlaid with new or overwritten keys.
type Payload map[string]any

// Clone returns a shallow copy of the payload. Nested maps and slices are
// shared with the original; callers that need to rewrite nested structure
// must copy it themselves.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Overlay returns a copy of the payload with the given keys set, overwriting
// any existing values. The receiver is not modified.
func (p Payload) Overlay(keys map[string]any) Payload {
	out := make(Payload, len(p)+len(keys))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range keys {
		out[k] = v
	}
	return out
}

// Merge shallow-merges every payload in order onto a copy of p; later
// payloads overwrite earlier keys. Nil payloads are skipped.
func (p Payload) Merge(others ...Payload) Payload {
	out := p.Clone()
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// String returns the string value at key, or ok=false if the key is absent
// or holds a non-string.
func (p Payload) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// Bool returns the boolean value at key, or ok=false if absent or not a bool.
func (p Payload) Bool(key string) (bool, bool) {
	b, ok := p[key].(bool)
	return b, ok
}

// Number returns the numeric value at key as a float64. JSON decoding
// produces float64, but int and int64 values set programmatically are
// accepted too.
func (p Payload) Number(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
