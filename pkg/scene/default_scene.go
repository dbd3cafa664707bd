package scene

import (
	"github.com/df07/scenegraph-raytracer/pkg/core"
	"github.com/df07/scenegraph-raytracer/pkg/geometry"
	"github.com/df07/scenegraph-raytracer/pkg/lights"
	"github.com/df07/scenegraph-raytracer/pkg/material"
)

// NewEmptyScene creates a scene with only the root group node. Every pixel shows background.
func NewEmptyScene() *Scene {
	return NewScene()
}

// NewDefaultScene creates a small hierarchy: a planet with an orbiting moon over a flattened
// ground sphere, lit by a soft area light
func NewDefaultScene() *Scene {
	s := NewScene()
	s.Camera = core.CameraConfig{
		Eye:    core.NewVec3(0, 2, 4),
		LookAt: core.NewVec3(0, 0, -12),
		Up:     core.NewVec3(0, 1, 0),
		FovY:   40,
	}
	s.Width = 400
	s.Height = 300

	s.AddLight(lights.NewAreaLight(
		core.NewVec3(6, 12, -6), // center
		core.NewVec3(1, 1, 1),   // white
		[3]float64{1, 0, 0},     // no falloff
		4,                       // edge length
		4,                       // 4x4 samples
	))

	root := s.RootRef()

	ground := s.CreateNode("ground")
	ground.SetMaterial(material.NewPhong(core.NewVec3(0.45, 0.45, 0.5), core.NewVec3(0.1, 0.1, 0.1), 2))
	mustApply(ground.Scale(40, 1, 40))
	mustApply(ground.Translate(0, -3, -12))
	mustApply(root.AddChild(ground))

	// The planet group carries the shared placement; its own primitive is None
	system := s.CreateNode("system")
	system.SetPrimitive(geometry.PrimitiveNone)
	system.SetMaterial(material.None())
	mustApply(system.Translate(0, 0, -12))
	mustApply(root.AddChild(system))

	planet := s.CreateNode("planet")
	mustApply(planet.Scale(2, 2, 2))
	mustApply(system.AddChild(planet))

	orbit := s.CreateNode("orbit")
	orbit.SetPrimitive(geometry.PrimitiveNone)
	orbit.SetMaterial(material.None())
	mustApply(orbit.Rotate("y", 35))
	mustApply(system.AddChild(orbit))

	moon := s.CreateNode("moon")
	moon.SetMaterial(material.NewPhong(core.NewVec3(0.2, 0.4, 0.9), core.NewVec3(0.8, 0.8, 0.8), 20))
	mustApply(moon.Scale(0.6, 0.6, 0.6))
	mustApply(moon.Translate(3.5, 0.5, 0))
	mustApply(orbit.AddChild(moon))

	return s
}

// NewShadowScene creates a sphere hovering between a point light and a ground disc, so the
// ground shows a hard shadow
func NewShadowScene() *Scene {
	s := NewScene()
	s.Camera = core.CameraConfig{
		Eye:    core.NewVec3(0, 4, 6),
		LookAt: core.NewVec3(0, 0, -6),
		Up:     core.NewVec3(0, 1, 0),
		FovY:   45,
	}
	s.Width = 320
	s.Height = 240

	s.AddLight(lights.NewPointLight(core.NewVec3(0, 10, -6), core.NewVec3(1, 1, 1), [3]float64{1, 0, 0}))

	root := s.RootRef()

	ground := s.CreateNode("ground")
	ground.SetMaterial(material.NewPhong(core.NewVec3(0.8, 0.8, 0.8), core.NewVec3(0, 0, 0), 1))
	mustApply(ground.Scale(20, 0.5, 20))
	mustApply(ground.Translate(0, -2, -6))
	mustApply(root.AddChild(ground))

	blocker := s.CreateNode("blocker")
	mustApply(blocker.Translate(0, 1, -6))
	mustApply(root.AddChild(blocker))

	return s
}

// mustApply panics on construction errors in built-in scenes, whose parameters are fixed
func mustApply(err error) {
	if err != nil {
		panic(err)
	}
}
