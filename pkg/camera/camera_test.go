package camera

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/mesh"
)

func TestAutoframeDefaultPosition(t *testing.T) {
	cam := New(768.0 / 512.0)
	sphere := mesh.Sphere{Radius: gomath.Sqrt(3)}

	require.NoError(t, Autoframe(cam, sphere, math.Vec3{Y: -25, Z: 20}, FramingDirection))

	distance := sphere.Radius / gomath.Sin(math.Radians(15))
	assert.InDelta(t, distance, cam.Position.Length(), 1e-9)
	assert.InDelta(t, distance-sphere.Radius*1.1, cam.Near, 1e-9)
	assert.InDelta(t, distance+sphere.Radius*1.1, cam.Far, 1e-9)
	assert.Equal(t, math.Vec3{}, cam.Target)

	// Direction is kept: the eye stays on the ray through (0,-25,20).
	want := math.Vec3{Y: -25, Z: 20}.Normalize()
	got := cam.Position.Normalize()
	assert.InDelta(t, want.Y, got.Y, 1e-12)
	assert.InDelta(t, want.Z, got.Z, 1e-12)

	center := cam.Project(math.Vec3{})
	assert.InDelta(t, 0, center.X, 1e-9)
	assert.InDelta(t, 0, center.Y, 1e-9)
}

func TestAutoframeIsScaleInvariant(t *testing.T) {
	small := New(1.5)
	large := New(1.5)
	p := math.Vec3{X: 3, Y: -4, Z: 5}

	require.NoError(t, Autoframe(small, mesh.Sphere{Radius: 0.001}, p, FramingDirection))
	require.NoError(t, Autoframe(large, mesh.Sphere{Radius: 10000}, p, FramingDirection))

	corner := math.Vec3{X: 1, Y: 1, Z: 1}.Normalize()
	a := small.Project(corner.Scale(0.001))
	b := large.Project(corner.Scale(10000))
	assert.InDelta(t, a.X, b.X, 1e-9)
	assert.InDelta(t, a.Y, b.Y, 1e-9)
	assert.InDelta(t, a.Z, b.Z, 1e-6)
}

func TestAutoframeModes(t *testing.T) {
	sphere := mesh.Sphere{Center: math.Vec3{X: 10, Y: 10, Z: 10}, Radius: 2}
	p := math.Vec3{X: 10, Y: 10, Z: 30}

	eye := New(1)
	require.NoError(t, Autoframe(eye, sphere, p, FramingEye))
	// Eye mode: bearing from the center is +Z.
	assert.InDelta(t, 10, eye.Position.X, 1e-9)
	assert.InDelta(t, 10, eye.Position.Y, 1e-9)
	assert.Greater(t, eye.Position.Z, 10.0)

	dir := New(1)
	require.NoError(t, Autoframe(dir, sphere, p, FramingDirection))
	// Direction mode: bearing is normalize(p), offset from the center.
	bearing := dir.Position.Sub(sphere.Center).Normalize()
	want := p.Normalize()
	assert.InDelta(t, want.X, bearing.X, 1e-12)
	assert.InDelta(t, want.Z, bearing.Z, 1e-12)

	assert.Equal(t, sphere.Center, eye.Target)
	assert.Equal(t, sphere.Center, dir.Target)
}

func TestAutoframeInvalidGeometry(t *testing.T) {
	for _, r := range []float64{0, -1, gomath.NaN(), gomath.Inf(1)} {
		cam := New(1)
		err := Autoframe(cam, mesh.Sphere{Radius: r}, math.Vec3{Z: 1}, FramingDirection)
		assert.ErrorIs(t, err, ErrInvalidGeometry, "radius %v", r)
		assert.False(t, gomath.IsNaN(cam.Position.X))
	}
}

func TestAutoframeDegenerateDirection(t *testing.T) {
	sphere := mesh.Sphere{Center: math.Vec3{X: 1}, Radius: 1}

	err := Autoframe(New(1), sphere, math.Vec3{}, FramingDirection)
	assert.ErrorIs(t, err, ErrDegenerateDirection)

	err = Autoframe(New(1), sphere, math.Vec3{X: 1}, FramingEye)
	assert.ErrorIs(t, err, ErrDegenerateDirection)

	err = Autoframe(New(1), sphere, math.Vec3{X: gomath.NaN()}, FramingDirection)
	assert.ErrorIs(t, err, ErrDegenerateDirection)

	err = Autoframe(New(1), sphere, math.Vec3{Z: 1}, FramingMode(7))
	assert.ErrorIs(t, err, ErrUnknownFraming)
}

func TestLookAtVertical(t *testing.T) {
	cam := New(1)
	require.NoError(t, Autoframe(cam, mesh.Sphere{Radius: 1}, math.Vec3{Y: 5}, FramingDirection))
	assert.Equal(t, math.Vec3{Z: 1}, cam.Up)
	for _, v := range cam.View {
		assert.False(t, gomath.IsNaN(v))
	}
}

func TestParseFramingMode(t *testing.T) {
	m, err := ParseFramingMode("EYE")
	require.NoError(t, err)
	assert.Equal(t, FramingEye, m)

	m, err = ParseFramingMode("")
	require.NoError(t, err)
	assert.Equal(t, FramingDirection, m)

	_, err = ParseFramingMode("orbit")
	assert.ErrorIs(t, err, ErrUnknownFraming)

	var u FramingMode
	require.NoError(t, u.UnmarshalText([]byte("eye")))
	assert.Equal(t, "eye", u.String())
}

func vec3Gen(lo, hi float64) *rapid.Generator[math.Vec3] {
	return rapid.Custom(func(t *rapid.T) math.Vec3 {
		return math.Vec3{
			X: rapid.Float64Range(lo, hi).Draw(t, "x"),
			Y: rapid.Float64Range(lo, hi).Draw(t, "y"),
			Z: rapid.Float64Range(lo, hi).Draw(t, "z"),
		}
	})
}

func TestAutoframeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		center := vec3Gen(-1e3, 1e3).Draw(t, "center")
		radius := rapid.Float64Range(1e-3, 1e3).Draw(t, "radius")
		mode := rapid.SampledFrom([]FramingMode{FramingDirection, FramingEye}).Draw(t, "mode")
		position := vec3Gen(-1e3, 1e3).Filter(func(p math.Vec3) bool {
			if mode == FramingEye {
				return p.Sub(center).Length() > 1e-3
			}
			return p.Length() > 1e-3
		}).Draw(t, "position")
		aspect := rapid.Float64Range(0.25, 4).Draw(t, "aspect")

		cam := New(aspect)
		sphere := mesh.Sphere{Center: center, Radius: radius}
		if err := Autoframe(cam, sphere, position, mode); err != nil {
			t.Fatalf("Autoframe: %v", err)
		}

		if cam.Near <= 0 {
			t.Fatalf("near %v is not positive", cam.Near)
		}
		if cam.Far <= cam.Near {
			t.Fatalf("far %v <= near %v", cam.Far, cam.Near)
		}

		depth := cam.ViewDepth(center)
		eps := 1e-9 * (depth + radius)
		if depth-radius < cam.Near-eps {
			t.Fatalf("sphere front %v before near %v", depth-radius, cam.Near)
		}
		if depth+radius > cam.Far+eps {
			t.Fatalf("sphere back %v beyond far %v", depth+radius, cam.Far)
		}
	})
}
