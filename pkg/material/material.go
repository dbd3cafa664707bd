package material

import (
	"fmt"

	"github.com/df07/scenegraph-raytracer/pkg/core"
	"github.com/df07/scenegraph-raytracer/pkg/geometry"
)

// MaterialType selects the shading model of a Material
type MaterialType int

const (
	// MaterialNone shades everything black
	MaterialNone MaterialType = iota
	// MaterialPhong uses ambient + diffuse + specular Phong lighting
	MaterialPhong
)

// String returns the name used in scene files
func (t MaterialType) String() string {
	switch t {
	case MaterialNone:
		return "none"
	case MaterialPhong:
		return "phong"
	default:
		return fmt.Sprintf("material(%d)", int(t))
	}
}

// Material is the closed set of surface models. Only the fields of the selected
// Type are meaningful.
type Material struct {
	Type      MaterialType
	Kd        core.Vec3 // Diffuse reflectance
	Ks        core.Vec3 // Specular reflectance
	Shininess float64   // Specular exponent
}

// None returns the black material
func None() Material {
	return Material{Type: MaterialNone}
}

// NewPhong creates a Phong material
func NewPhong(kd, ks core.Vec3, shininess float64) Material {
	return Material{
		Type:      MaterialPhong,
		Kd:        kd,
		Ks:        ks,
		Shininess: shininess,
	}
}

// Color shades a world-space intersection. It returns the color and the number of
// shadow rays cast.
func (m Material) Color(hit geometry.Intersection, ctx ShadingContext) (core.Vec3, int) {
	switch m.Type {
	case MaterialPhong:
		return phong(m, hit, ctx)
	default:
		return core.Vec3{}, 0
	}
}
