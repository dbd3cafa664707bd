package scene

import "errors"

var (
	// ErrInvalidNode is returned for node ids outside the arena
	ErrInvalidNode = errors.New("invalid node id")
	// ErrCycle is returned when a node would become its own ancestor
	ErrCycle = errors.New("scene graph contains a cycle")
	// ErrInvalidAxis is returned for rotation axis labels other than x, y or z
	ErrInvalidAxis = errors.New("invalid rotation axis")
	// ErrSingularTransform is returned when a transform would lose its inverse
	ErrSingularTransform = errors.New("transform is not invertible")
	// ErrUnknownScene is returned for unregistered built-in scene names
	ErrUnknownScene = errors.New("unknown scene")
)
