// Package testmesh builds small STL fixtures for tests.
package testmesh

import (
	"bytes"

	"github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/stl"
)

// Box returns an axis-aligned box spanning min..max as 12 outward-facing triangles.
func Box(min, max math.Vec3) *stl.Model {
	c := func(x, y, z int) math.Vec3 {
		p := min
		if x == 1 {
			p.X = max.X
		}
		if y == 1 {
			p.Y = max.Y
		}
		if z == 1 {
			p.Z = max.Z
		}
		return p
	}

	// Each face lists its corners counter-clockwise seen from outside.
	faces := [6][4]math.Vec3{
		{c(0, 0, 0), c(0, 1, 0), c(1, 1, 0), c(1, 0, 0)}, // -Z
		{c(0, 0, 1), c(1, 0, 1), c(1, 1, 1), c(0, 1, 1)}, // +Z
		{c(0, 0, 0), c(1, 0, 0), c(1, 0, 1), c(0, 0, 1)}, // -Y
		{c(0, 1, 0), c(0, 1, 1), c(1, 1, 1), c(1, 1, 0)}, // +Y
		{c(0, 0, 0), c(0, 0, 1), c(0, 1, 1), c(0, 1, 0)}, // -X
		{c(1, 0, 0), c(1, 1, 0), c(1, 1, 1), c(1, 0, 1)}, // +X
	}

	m := &stl.Model{Name: "box"}
	for _, f := range faces {
		n := f[1].Sub(f[0]).Cross(f[2].Sub(f[0])).Normalize()
		m.Triangles = append(m.Triangles,
			stl.Triangle{Normal: n, Vertices: [3]math.Vec3{f[0], f[1], f[2]}},
			stl.Triangle{Normal: n, Vertices: [3]math.Vec3{f[0], f[2], f[3]}},
		)
	}
	return m
}

// UnitCube returns a cube of edge length 1 centered at the origin.
func UnitCube() *stl.Model {
	return Box(math.Vec3{X: -0.5, Y: -0.5, Z: -0.5}, math.Vec3{X: 0.5, Y: 0.5, Z: 0.5})
}

// Collapsed returns a single triangle whose vertices coincide at p.
func Collapsed(p math.Vec3) *stl.Model {
	return &stl.Model{
		Name:      "point",
		Triangles: []stl.Triangle{{Vertices: [3]math.Vec3{p, p, p}}},
	}
}

// Binary encodes m as binary STL.
func Binary(m *stl.Model) []byte {
	data, _ := m.MarshalBinary()
	return data
}

// ASCII encodes m as ASCII STL.
func ASCII(m *stl.Model) []byte {
	var buf bytes.Buffer
	_ = m.WriteASCII(&buf)
	return buf.Bytes()
}
