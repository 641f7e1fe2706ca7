package hierarchy

import "errors"

// Errors returned by Controller operations. Callers test them with
// errors.Is; none of them leaves the controller unusable.
var (
	// ErrNotFound means the operation named a node id that is not in the tree.
	// The tree is unchanged.
	ErrNotFound = errors.New("node not found")

	// ErrInvalidInput means a caller-supplied value was rejected, e.g. a name
	// that is empty after trimming. The tree is unchanged.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPersistence means the in-memory mutation succeeded but the tree could
	// not be saved. The mutation is kept and the save is not retried.
	ErrPersistence = errors.New("persistence failure")
)
