package hierarchy

import (
	"errors"
	"fmt"
)

// Inference errors.
var (
	ErrNoBases    = errors.New("hierarchy: no base meshes")
	ErrNoLeaves   = errors.New("hierarchy: no candidate children besides the base meshes")
	ErrNotMesh    = errors.New("hierarchy: object is not a mesh")
	ErrDepthLimit = errors.New("hierarchy: depth limit exceeded")
	ErrDuplicate  = errors.New("hierarchy: object listed twice")
)

// DefaultMaxDepth is the deepest hierarchy, in levels, the attribute
// textures can encode.
const DefaultMaxDepth = 4

// DepthExceededError reports a hierarchy deeper than the encodable limit.
// It matches ErrDepthLimit.
type DepthExceededError struct {
	Depth int
	Max   int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("hierarchy depth %d exceeds the limit of %d levels", e.Depth, e.Max)
}

func (e *DepthExceededError) Unwrap() error {
	return ErrDepthLimit
}

// CheckDepth returns a DepthExceededError when depth levels exceed max.
func CheckDepth(depth, max int) error {
	if max > 0 && depth > max {
		return &DepthExceededError{Depth: depth, Max: max}
	}
	return nil
}
