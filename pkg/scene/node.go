package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/scenegraph-raytracer/pkg/core"
	"github.com/df07/scenegraph-raytracer/pkg/geometry"
	"github.com/df07/scenegraph-raytracer/pkg/material"
	"github.com/go-gl/mathgl/mgl64"
)

// Node is one entry of the scene arena. Its ID is also its index in Scene.Nodes.
type Node struct {
	ID        int
	Name      string // Diagnostic only
	Children  []int
	Primitive geometry.Primitive
	Material  material.Material

	transform core.Transform // Local to parent, always paired with its inverse
}

func newNode(id int, name string) *Node {
	return &Node{
		ID:        id,
		Name:      name,
		Primitive: geometry.PrimitiveNone,
		Material:  material.None(),
		transform: core.IdentityTransform(),
	}
}

// Transform returns the local-to-parent transform and its inverse
func (n *Node) Transform() core.Transform {
	return n.transform
}

// ApplyMatrix pre-multiplies an arbitrary affine matrix
func (n *Node) ApplyMatrix(m mgl64.Mat4) error {
	return n.applyTransform(m)
}

// Scale pre-multiplies a non-uniform scale
func (n *Node) Scale(x, y, z float64) error {
	return n.applyTransform(mgl64.Scale3D(x, y, z))
}

// Translate pre-multiplies a translation
func (n *Node) Translate(x, y, z float64) error {
	return n.applyTransform(mgl64.Translate3D(x, y, z))
}

// Rotate pre-multiplies a rotation of angle degrees about the x, y or z axis
func (n *Node) Rotate(axis string, angle float64) error {
	radians := angle * math.Pi / 180
	var m mgl64.Mat4
	switch axis {
	case "x", "X":
		m = mgl64.HomogRotate3DX(radians)
	case "y", "Y":
		m = mgl64.HomogRotate3DY(radians)
	case "z", "Z":
		m = mgl64.HomogRotate3DZ(radians)
	default:
		return fmt.Errorf("rotating node %q about %q: %w", n.Name, axis, ErrInvalidAxis)
	}
	return n.applyTransform(m)
}

// applyTransform sets transform = t * transform and recomputes the inverse in the same step.
// On failure the node is unchanged.
func (n *Node) applyTransform(t mgl64.Mat4) error {
	next, err := n.transform.PreMultiply(t)
	if errors.Is(err, core.ErrSingular) {
		return fmt.Errorf("node %q: %w", n.Name, ErrSingularTransform)
	}
	if err != nil {
		return err
	}
	n.transform = next
	return nil
}

// Intersects tests the node's own primitive against a ray already in the node's local space
func (n *Node) Intersects(localRay core.Ray) (geometry.Intersection, bool) {
	c, ok := n.Primitive.Collides(localRay)
	if !ok {
		return geometry.Intersection{}, false
	}
	return geometry.NewIntersection(localRay, n.ID, c), true
}
