package interview

import "errors"

// Fault taxonomy. Only ErrStartNodeMissing escapes Advance as an error;
// the per-request faults are converted to terminal results and logged
// with their distinct cause.
var (
	// ErrStartNodeMissing means the graph has no start node. Graph
	// loading rejects this, so seeing it at runtime indicates the
	// engine was built with an unvalidated graph.
	ErrStartNodeMissing = errors.New("interview: start node missing from graph")

	// ErrInvalidStep means the caller supplied a current step id that
	// is not a graph node.
	ErrInvalidStep = errors.New("interview: invalid step")

	// ErrMisconfiguredFlow means a branch or fallback points at a node
	// that does not exist.
	ErrMisconfiguredFlow = errors.New("interview: next step not found")
)
