// Package mesh holds normalized triangle geometry: positions, per-vertex
// normals and bounding volumes.
package mesh

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/stl2png/pkg/math"
)

// Mesh geometry errors.
var (
	ErrEmpty              = errors.New("mesh has no triangles")
	ErrIncompleteTriangle = errors.New("position count is not a multiple of 3")
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min math.Vec3
	Max math.Vec3
}

// Center returns the center point of the box.
func (b Box) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the extent along each axis.
func (b Box) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center math.Vec3
	Radius float64
}

// Mesh is non-indexed triangle geometry: every three consecutive positions form a triangle.
// Normals and bounds are derived data; every method that moves positions recomputes them.
type Mesh struct {
	Name      string
	Positions []math.Vec3
	Normals   []math.Vec3

	// Origin is the point of the source coordinate space that now sits at
	// the local origin. Translate keeps it current.
	Origin math.Vec3

	BoundingBox    Box
	BoundingSphere Sphere
}

// New creates a mesh from triangle positions. The slice is copied.
func New(positions []math.Vec3) (*Mesh, error) {
	if len(positions)%3 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrIncompleteTriangle, len(positions))
	}
	if len(positions) == 0 {
		return nil, ErrEmpty
	}
	return &Mesh{Positions: append([]math.Vec3(nil), positions...)}, nil
}

// Normalize runs the full ingestion sequence: normals, bounds, then centering on the origin.
func (m *Mesh) Normalize() {
	m.ComputeNormals()
	m.ComputeBoundingSphere()
	m.ComputeBoundingBox()
	m.Center()
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Positions) / 3
}

// Triangle returns the three corners of triangle i.
func (m *Mesh) Triangle(i int) [3]math.Vec3 {
	return [3]math.Vec3{m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2]}
}

// FaceNormal returns the unit normal of triangle i from its winding, or zero if degenerate.
func (m *Mesh) FaceNormal(i int) math.Vec3 {
	t := m.Triangle(i)
	return faceNormal(t[0], t[1], t[2])
}

func faceNormal(a, b, c math.Vec3) math.Vec3 {
	return c.Sub(b).Cross(a.Sub(b)).Normalize()
}

// ComputeNormals sets each vertex normal to its face normal. Non-indexed
// geometry shares no vertices, so this matches flat shading.
func (m *Mesh) ComputeNormals() {
	if cap(m.Normals) < len(m.Positions) {
		m.Normals = make([]math.Vec3, len(m.Positions))
	}
	m.Normals = m.Normals[:len(m.Positions)]

	for i := 0; i < m.TriangleCount(); i++ {
		n := m.FaceNormal(i)
		m.Normals[i*3] = n
		m.Normals[i*3+1] = n
		m.Normals[i*3+2] = n
	}
}

// ComputeBoundingBox recomputes the axis-aligned bounds of all positions.
func (m *Mesh) ComputeBoundingBox() {
	b := Box{
		Min: math.Vec3{X: gomath.Inf(1), Y: gomath.Inf(1), Z: gomath.Inf(1)},
		Max: math.Vec3{X: gomath.Inf(-1), Y: gomath.Inf(-1), Z: gomath.Inf(-1)},
	}
	for _, p := range m.Positions {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	if len(m.Positions) == 0 {
		b = Box{}
	}
	m.BoundingBox = b
}

// ComputeBoundingSphere recomputes the bounding sphere: centered on the box
// center with the radius reaching the farthest vertex.
func (m *Mesh) ComputeBoundingSphere() {
	m.ComputeBoundingBox()
	center := m.BoundingBox.Center()

	var maxSq float64
	for _, p := range m.Positions {
		if d := p.Sub(center).LengthSq(); d > maxSq {
			maxSq = d
		}
	}
	m.BoundingSphere = Sphere{Center: center, Radius: gomath.Sqrt(maxSq)}
}

// Center moves the geometry so its bounding box center sits at the origin and
// returns the applied offset.
func (m *Mesh) Center() math.Vec3 {
	m.ComputeBoundingBox()
	offset := m.BoundingBox.Center().Negate()
	m.Translate(offset)
	return offset
}

// Translate moves every position by offset and refreshes derived data.
func (m *Mesh) Translate(offset math.Vec3) {
	m.ApplyMatrix(math.Translate(offset.X, offset.Y, offset.Z))
	m.Origin = m.Origin.Sub(offset)
}

// ToLocal maps a point from the source coordinate space into the mesh's
// current, translated space.
func (m *Mesh) ToLocal(p math.Vec3) math.Vec3 {
	return p.Sub(m.Origin)
}

// ApplyMatrix transforms every position by mat and refreshes derived data.
func (m *Mesh) ApplyMatrix(mat math.Mat4) {
	for i := range m.Positions {
		m.Positions[i] = mat.TransformPoint(m.Positions[i])
	}
	if m.Normals != nil {
		m.ComputeNormals()
	}
	m.ComputeBoundingSphere()
}
