package renderer

import (
	"math"

	"github.com/df07/scenegraph-raytracer/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// zNear is the view-space depth of the image plane; the camera looks down -Z
const zNear = -1.0

// Camera generates one primary ray per pixel from a right-handed look-at view
type Camera struct {
	eye         core.Vec3
	side        float64 // -2·tan(fovY/2), the image plane height at zNear with sign folded in
	width       float64
	height      float64
	viewToWorld mgl64.Mat4
}

// NewCamera creates a camera for an image of the given size
func NewCamera(config core.CameraConfig, width, height int) *Camera {
	view := mgl64.LookAtV(config.Eye.Mgl(), config.LookAt.Mgl(), config.Up.Mgl())
	return &Camera{
		eye:         config.Eye,
		side:        -2 * math.Tan(mgl64.DegToRad(config.FovY)/2),
		width:       float64(width),
		height:      float64(height),
		viewToWorld: view.Inv(),
	}
}

// Eye returns the camera position
func (c *Camera) Eye() core.Vec3 {
	return c.eye
}

// GetRay returns the world-space ray through the center of pixel (x, y), with y = 0 the top row
func (c *Camera) GetRay(x, y int) core.Ray {
	fx := float64(x) + 0.5
	fy := float64(y) + 0.5

	direction := mgl64.Vec3{
		zNear * ((fx / c.width) - 0.5) * c.side * c.width / c.height,
		zNear * -((fy / c.height) - 0.5) * c.side,
		zNear,
	}
	world := c.viewToWorld.Mul4x1(direction.Vec4(0)).Vec3()

	return core.NewRay(c.eye, core.FromMgl(world))
}
