package core

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// NopLogger discards everything
type NopLogger struct{}

// Printf implements Logger
func (NopLogger) Printf(format string, args ...interface{}) {}

// CameraConfig describes a look-at pinhole camera
type CameraConfig struct {
	Eye    Vec3    // Camera position
	LookAt Vec3    // Point the camera looks at
	Up     Vec3    // Up direction
	FovY   float64 // Vertical field of view in degrees
}

// DefaultCameraConfig looks down -Z from the origin with a 30 degree field of view
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Eye:    NewVec3(0, 0, 0),
		LookAt: NewVec3(0, 0, -1),
		Up:     NewVec3(0, 1, 0),
		FovY:   30,
	}
}
