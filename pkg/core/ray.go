package core

// Ray represents a ray with an origin and direction.
// The direction is not normalized on construction.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// NewRay creates a new ray
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// NewRayFromPoints creates a ray starting at from and passing through to
func NewRayFromPoints(from, to Vec3) Ray {
	return Ray{Origin: from, Direction: to.Subtract(from)}
}

// At returns the point at distance t along the normalized ray direction
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Normalize().Multiply(t))
}

// Transform returns the ray mapped by t: the origin as a point, the direction as a vector.
// The receiver is left untouched.
func (r Ray) Transform(t Transform) Ray {
	return Ray{
		Origin:    t.Point(r.Origin),
		Direction: t.Vector(r.Direction),
	}
}

// ToLocal maps the ray into the space t is defined in, using the precomputed inverse
func (r Ray) ToLocal(t Transform) Ray {
	return Ray{
		Origin:    transformPoint(t.Inverse(), r.Origin),
		Direction: transformVector(t.Inverse(), r.Direction),
	}
}
