package geometry

import (
	"math"

	"github.com/df07/scenegraph-raytracer/pkg/core"
)

// collideUnitSphere intersects a ray with the radius 1 sphere at the origin.
// The ray direction is normalized first so T is a distance.
func collideUnitSphere(ray core.Ray) (Collision, bool) {
	direction := ray.Direction.Normalize()
	if direction.LengthSquared() == 0 {
		return Collision{}, false
	}

	// Quadratic equation coefficients with a == 1: t² + 2·halfB·t + c = 0
	oc := ray.Origin
	halfB := oc.Dot(direction)
	c := oc.Dot(oc) - 1

	discriminant := halfB*halfB - c
	if discriminant < 0 {
		return Collision{}, false
	}
	sqrtD := math.Sqrt(discriminant)

	// Try the closer root first, intersections behind the origin are rejected
	root := -halfB - sqrtD
	if root <= 0 {
		root = -halfB + sqrtD
		if root <= 0 {
			return Collision{}, false
		}
	}

	// On a unit sphere the hit point is already the unit normal
	point := ray.Origin.Add(direction.Multiply(root))
	normal := point.Normalize()
	u, v := sphereUV(normal)

	return Collision{T: root, Normal: normal, U: u, V: v}, true
}

// sphereUV returns spherical coordinates of a point on the unit sphere, both in [0,1]
func sphereUV(p core.Vec3) (float64, float64) {
	u := 0.5 + math.Atan2(p.Z, p.X)/(2*math.Pi)
	v := 0.5 - math.Asin(max(-1, min(1, p.Y)))/math.Pi
	return u, v
}
