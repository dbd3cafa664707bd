package geometry

import (
	"fmt"
	"strings"

	"github.com/df07/scenegraph-raytracer/pkg/core"
)

// Primitive is the closed set of shapes a scene node can carry.
// Every primitive is defined in its node's local object space.
type Primitive int

const (
	// PrimitiveNone never collides; used for grouping nodes
	PrimitiveNone Primitive = iota
	// PrimitiveSphere is the unit sphere centered at the local origin
	PrimitiveSphere
)

// Collision is the local-space result of a ray hitting a primitive
type Collision struct {
	T      float64   // Distance along the normalized ray direction
	Normal core.Vec3 // Local-space surface normal
	U, V   float64   // Surface parameterization
}

// Collides tests a local-space ray against the primitive.
// A miss is reported through the boolean, never as an error.
func (p Primitive) Collides(ray core.Ray) (Collision, bool) {
	switch p {
	case PrimitiveSphere:
		return collideUnitSphere(ray)
	case PrimitiveNone:
		return Collision{}, false
	default:
		return Collision{}, false
	}
}

// String returns the primitive's name as used in scene files
func (p Primitive) String() string {
	switch p {
	case PrimitiveSphere:
		return "sphere"
	case PrimitiveNone:
		return "none"
	default:
		return fmt.Sprintf("primitive(%d)", int(p))
	}
}

// ParsePrimitive maps a scene file name back to a primitive
func ParsePrimitive(name string) (Primitive, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sphere":
		return PrimitiveSphere, nil
	case "none", "":
		return PrimitiveNone, nil
	default:
		return PrimitiveNone, fmt.Errorf("unknown primitive %q", name)
	}
}
