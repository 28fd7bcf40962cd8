// Package camera provides the perspective camera and its automatic framing from mesh bounds.
package camera

import (
	"errors"
	"fmt"
	gomath "math"
	"strings"

	"github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/mesh"
)

// Framing errors.
var (
	ErrInvalidGeometry     = errors.New("bounding sphere cannot be framed")
	ErrDegenerateDirection = errors.New("camera direction is zero or not finite")
	ErrUnknownFraming      = errors.New("unknown framing mode")
)

// Camera defaults.
const (
	DefaultFOV  = 30.0
	DefaultNear = 1.0
	DefaultFar  = 1000.0

	// MinNear is the near plane used when framing would place it at or behind the eye.
	MinNear = 1e-6

	// FrameMargin scales the bounding radius when deriving near and far.
	FrameMargin = 1.1
)

// FramingMode selects how a caller's camera position is interpreted.
type FramingMode int

const (
	// FramingDirection treats the position as a viewing direction from the mesh center.
	FramingDirection FramingMode = iota
	// FramingEye treats the position as an absolute eye point in the sphere's
	// coordinate space; only its bearing from the center is kept.
	FramingEye
)

func (m FramingMode) String() string {
	switch m {
	case FramingDirection:
		return "direction"
	case FramingEye:
		return "eye"
	default:
		return fmt.Sprintf("FramingMode(%d)", int(m))
	}
}

// ParseFramingMode accepts "direction" or "eye".
func ParseFramingMode(s string) (FramingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direction", "":
		return FramingDirection, nil
	case "eye":
		return FramingEye, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFraming, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *FramingMode) UnmarshalText(text []byte) error {
	parsed, err := ParseFramingMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m FramingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Camera is a perspective camera. View and Projection are cached and rebuilt by
// LookAt and UpdateProjectionMatrix.
type Camera struct {
	// FOV is the vertical field of view in degrees.
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64

	Position math.Vec3
	Target   math.Vec3
	Up       math.Vec3

	View       math.Mat4
	Projection math.Mat4
}

// New creates a camera at the origin with the default field of view and clip planes.
func New(aspect float64) *Camera {
	c := &Camera{
		FOV:    DefaultFOV,
		Aspect: aspect,
		Near:   DefaultNear,
		Far:    DefaultFar,
		Target: math.Vec3{Z: -1},
		Up:     math.Vec3{Y: 1},
	}
	c.LookAt(c.Target)
	c.UpdateProjectionMatrix()
	return c
}

// LookAt points the camera at target and rebuilds the view matrix.
// Up is +Y unless the view direction is parallel to it, then +Z.
func (c *Camera) LookAt(target math.Vec3) {
	c.Target = target
	forward := target.Sub(c.Position).Normalize()
	c.Up = math.Vec3{Y: 1}
	if gomath.Abs(forward.Dot(c.Up)) > 0.999999 {
		c.Up = math.Vec3{Z: 1}
	}
	c.View = math.LookAt(c.Position, target, c.Up)
}

// UpdateProjectionMatrix rebuilds the projection from FOV, Aspect, Near and Far.
func (c *Camera) UpdateProjectionMatrix() {
	c.Projection = math.Perspective(math.Radians(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjection returns Projection * View.
func (c *Camera) ViewProjection() math.Mat4 {
	return c.Projection.Mul(c.View)
}

// Forward returns the unit viewing direction.
func (c *Camera) Forward() math.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

// ViewDepth returns the distance of p in front of the camera along its viewing axis.
func (c *Camera) ViewDepth(p math.Vec3) float64 {
	return -c.View.TransformPoint(p).Z
}

// Project maps a world point to normalized device coordinates.
func (c *Camera) Project(p math.Vec3) math.Vec3 {
	return c.ViewProjection().TransformPoint(p)
}

// Autoframe places cam so the whole bounding sphere is visible and centered.
// position is interpreted according to mode. Near and far hug the sphere with
// a FrameMargin allowance on each side.
func Autoframe(cam *Camera, sphere mesh.Sphere, position math.Vec3, mode FramingMode) error {
	r := sphere.Radius
	if r <= 0 || gomath.IsNaN(r) || gomath.IsInf(r, 0) || !sphere.Center.IsFinite() {
		return fmt.Errorf("%w: radius %v center %v", ErrInvalidGeometry, r, sphere.Center)
	}

	fov := math.Radians(cam.FOV)
	distance := gomath.Abs(r / gomath.Sin(fov/2))

	var dir math.Vec3
	switch mode {
	case FramingDirection:
		dir = position
	case FramingEye:
		dir = position.Sub(sphere.Center)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFraming, mode)
	}
	unit := dir.Normalize()
	if !unit.IsFinite() || unit.IsZero() {
		return fmt.Errorf("%w: %v", ErrDegenerateDirection, dir)
	}

	cam.Position = unit.Scale(distance).Add(sphere.Center)
	toCenter := cam.Position.Distance(sphere.Center)

	cam.Far = toCenter + r*FrameMargin
	cam.Near = toCenter - r*FrameMargin
	if cam.Near <= 0 {
		cam.Near = MinNear
	}

	cam.LookAt(sphere.Center)
	cam.UpdateProjectionMatrix()
	return nil
}
