package layer

import "errors"

var (
	// ErrGeometry indicates an empty or degenerate geometry whose bounding
	// rectangle is undefined.
	ErrGeometry = errors.New("geometry error")
	// ErrInvariantViolation indicates a layer ID that must exist does not.
	// It is a protocol bug, not a recoverable condition.
	ErrInvariantViolation = errors.New("invariant violation")
)
