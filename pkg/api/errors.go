package api

import (
	"context"
	"errors"
	"fmt"
)

// ErrHaltBranch tells the engine to stop traversal from the call site that
// received it, without failing the run. Merge returns it to every
// non-primary caller of a passThrough merge with waitForAll enabled.
var ErrHaltBranch = errors.New("halt branch")

// IsHaltBranch reports whether err is (or wraps) ErrHaltBranch.
func IsHaltBranch(err error) bool {
	return errors.Is(err, ErrHaltBranch)
}

// ErrUnknownNodeType is returned by registry lookups for unregistered types.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrSelfRecursion is returned when a subworkflow node targets the workflow
// that is currently executing. It is fatal and reported before any nested
// run is started.
var ErrSelfRecursion = errors.New("subworkflow recursion: workflow invokes itself")

// configError marks a configuration problem (missing operation lists,
// malformed parameters). Configuration errors are reported immediately and
// never retried.
type configError struct {
	msg string
}

func (e *configError) Error() string { return e.msg }

func newConfigError(format string, args ...any) error {
	return &configError{msg: fmt.Sprintf(format, args...)}
}

// NewConfigError returns an error classified as a configuration error.
// Retry treats configuration errors as non-retryable regardless of its
// retryable/non-retryable lists.
func NewConfigError(format string, args ...any) error {
	return newConfigError(format, args...)
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var ce *configError
	return errors.As(err, &ce)
}

// NodeError wraps a failure with the identity of the node that produced it.
type NodeError struct {
	NodeID   string
	NodeType string
	Err      error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q (%s): %v", e.NodeID, e.NodeType, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// NewNodeError wraps err with node identity. Returns nil if err is nil.
func NewNodeError(node Node, err error) error {
	if err == nil {
		return nil
	}
	return &NodeError{NodeID: node.ID, NodeType: node.Type, Err: err}
}

// TypedError carries an application-level error kind that Retry matches
// against its retryableErrors / nonRetryableErrors lists. Integration
// adapters are expected to tag transient failures ("timeout", "rate_limit",
// ...) so retry policies can discriminate.
type TypedError struct {
	Kind string
	Err  error
}

func (e *TypedError) Error() string {
	if e.Err == nil {
		return e.Kind
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TypedError) Unwrap() error { return e.Err }

// NewTypedError tags err with the given kind.
func NewTypedError(kind string, err error) error {
	return &TypedError{Kind: kind, Err: err}
}

// ErrorKind classifies an error for retry matching:
//
//   - a wrapped TypedError yields its Kind
//   - context cancellation yields "cancelled"
//   - deadline expiry yields "timeout"
//   - configuration errors yield "config"
//   - anything else yields "error"
func ErrorKind(err error) string {
	var te *TypedError
	if errors.As(err, &te) {
		return te.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case IsConfigError(err):
		return "config"
	}
	return "error"
}
