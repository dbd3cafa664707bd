package renderer

import (
	"math"
	"testing"

	"github.com/df07/scenegraph-raytracer/pkg/core"
)

func assertVec(t *testing.T, label string, got, want core.Vec3) {
	t.Helper()
	const tolerance = 1e-9
	if math.Abs(got.X-want.X) > tolerance || math.Abs(got.Y-want.Y) > tolerance || math.Abs(got.Z-want.Z) > tolerance {
		t.Errorf("%s: expected %v, got %v", label, want, got)
	}
}

func TestCamera_CenterRay(t *testing.T) {
	tests := []struct {
		name      string
		config    core.CameraConfig
		direction core.Vec3
	}{
		{
			name:      "default camera",
			config:    core.DefaultCameraConfig(),
			direction: core.NewVec3(0, 0, -1),
		},
		{
			name: "looking along +x",
			config: core.CameraConfig{
				Eye:    core.NewVec3(1, 2, 3),
				LookAt: core.NewVec3(5, 2, 3),
				Up:     core.NewVec3(0, 1, 0),
				FovY:   30,
			},
			direction: core.NewVec3(1, 0, 0),
		},
		{
			name: "looking down -y with +z up",
			config: core.CameraConfig{
				Eye:    core.NewVec3(0, 10, 0),
				LookAt: core.NewVec3(0, 0, 0),
				Up:     core.NewVec3(0, 0, -1),
				FovY:   60,
			},
			direction: core.NewVec3(0, -1, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			camera := NewCamera(tt.config, 1, 1)
			ray := camera.GetRay(0, 0)

			assertVec(t, "origin", ray.Origin, tt.config.Eye)
			assertVec(t, "direction", ray.Direction.Normalize(), tt.direction)
		})
	}
}

func TestCamera_ImagePlaneGeometry(t *testing.T) {
	config := core.DefaultCameraConfig()
	config.FovY = 90

	// With a 90 degree field of view the image plane at depth 1 spans [-1, 1]
	camera := NewCamera(config, 2, 2)
	assertVec(t, "top-left", camera.GetRay(0, 0).Direction, core.NewVec3(-0.5, 0.5, -1))
	assertVec(t, "bottom-right", camera.GetRay(1, 1).Direction, core.NewVec3(0.5, -0.5, -1))

	// Wide images keep the vertical extent and stretch horizontally
	wide := NewCamera(config, 4, 2)
	assertVec(t, "wide top-left", wide.GetRay(0, 0).Direction, core.NewVec3(-1.5, 0.5, -1))
}

func TestCamera_Symmetry(t *testing.T) {
	camera := NewCamera(core.DefaultCameraConfig(), 5, 3)

	left := camera.GetRay(0, 1).Direction
	right := camera.GetRay(4, 1).Direction
	if math.Abs(left.X+right.X) > 1e-12 || left.X >= 0 {
		t.Errorf("Expected mirrored horizontal directions, got %v and %v", left, right)
	}

	top := camera.GetRay(2, 0).Direction
	bottom := camera.GetRay(2, 2).Direction
	if math.Abs(top.Y+bottom.Y) > 1e-12 || top.Y <= 0 {
		t.Errorf("Expected mirrored vertical directions with top up, got %v and %v", top, bottom)
	}
}
