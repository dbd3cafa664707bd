package geometry

import (
	"math"
	"testing"

	"github.com/df07/scenegraph-raytracer/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

func TestIntersection_ApplyTransform(t *testing.T) {
	tr, err := core.IdentityTransform().PreMultiply(mgl64.Scale3D(2, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	tr, err = tr.PreMultiply(mgl64.Translate3D(0, 0, -10))
	if err != nil {
		t.Fatal(err)
	}

	local := Intersection{
		T:      3,
		Point:  core.NewVec3(1, 0, 0),
		NodeID: 7,
		Normal: core.NewVec3(1, 0, 0),
		U:      0.25,
		V:      0.75,
	}
	world := local.ApplyTransform(tr)

	const tolerance = 1e-9
	if world.Point.Subtract(core.NewVec3(2, 0, -10)).Length() > tolerance {
		t.Errorf("Expected point (2,0,-10), got %v", world.Point)
	}
	if world.Normal.Subtract(core.NewVec3(1, 0, 0)).Length() > tolerance {
		t.Errorf("Expected normal (1,0,0), got %v", world.Normal)
	}
	if world.T != 3 || world.NodeID != 7 || world.U != 0.25 || world.V != 0.75 {
		t.Errorf("Expected scalar fields to pass through, got %+v", world)
	}
	if math.Abs(world.Normal.Length()-1) > tolerance {
		t.Errorf("Expected normalized normal, got %v", world.Normal)
	}
}
