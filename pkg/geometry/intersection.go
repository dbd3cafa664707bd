package geometry

import "github.com/df07/scenegraph-raytracer/pkg/core"

// Intersection is the immutable record of a ray hitting a scene node.
// T is only comparable with other intersections computed in the same frame.
type Intersection struct {
	T      float64   // Ray parameter in the frame the hit was found in
	Point  core.Vec3 // Hit point in the current frame
	NodeID int       // Node whose primitive was hit
	Normal core.Vec3 // Unit surface normal in the current frame
	U, V   float64   // Surface parameterization (not used by shading)
}

// NewIntersection builds the intersection for a primitive collision along ray
func NewIntersection(ray core.Ray, nodeID int, c Collision) Intersection {
	return Intersection{
		T:      c.T,
		Point:  ray.At(c.T),
		NodeID: nodeID,
		Normal: c.Normal,
		U:      c.U,
		V:      c.V,
	}
}

// ApplyTransform lifts the intersection one level up, from a node's local space into its parent's.
// The point goes through the forward matrix, the normal through the inverse transpose.
// Scalar fields pass through unchanged.
func (i Intersection) ApplyTransform(t core.Transform) Intersection {
	return Intersection{
		T:      i.T,
		Point:  t.Point(i.Point),
		NodeID: i.NodeID,
		Normal: t.Normal(i.Normal),
		U:      i.U,
		V:      i.V,
	}
}

// DistanceSquared returns the squared distance from the hit point to p
func (i Intersection) DistanceSquared(p core.Vec3) float64 {
	return i.Point.DistanceSquared(p)
}
