package mesh

import (
	gomath "math"

	"github.com/Faultbox/stl2png/pkg/math"
)

// DefaultEdgeThreshold is the minimum dihedral angle, in degrees, between two
// faces for their shared edge to count as a feature edge.
const DefaultEdgeThreshold = 1.0

// Vertices closer than 1/edgePrecision on every axis are welded when matching edges.
const edgePrecision = 1e4

// Segment is a single line segment.
type Segment [2]math.Vec3

// EdgeGeometry is the set of feature and boundary edges of a mesh.
type EdgeGeometry struct {
	Segments []Segment
}

type vertexKey [3]int64

type edgeKey [2]vertexKey

type openEdge struct {
	segment Segment
	normal  math.Vec3
	closed  bool
}

// Edges extracts the edges whose adjacent faces meet at more than
// thresholdDeg degrees, plus every edge used by only one face. The output
// order is deterministic: matched edges in face order, then open edges in
// the order they were first seen.
func (m *Mesh) Edges(thresholdDeg float64) *EdgeGeometry {
	thresholdDot := gomath.Cos(math.Radians(thresholdDeg))
	g := &EdgeGeometry{}

	index := make(map[edgeKey]int)
	var open []openEdge

	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.Triangle(i)
		keys := [3]vertexKey{weld(tri[0]), weld(tri[1]), weld(tri[2])}
		if keys[0] == keys[1] || keys[1] == keys[2] || keys[2] == keys[0] {
			continue
		}
		normal := faceNormal(tri[0], tri[1], tri[2])

		for j := 0; j < 3; j++ {
			next := (j + 1) % 3
			key := edgeKey{keys[j], keys[next]}
			reverse := edgeKey{keys[next], keys[j]}

			if k, ok := index[reverse]; ok && !open[k].closed {
				if normal.Dot(open[k].normal) <= thresholdDot {
					g.Segments = append(g.Segments, Segment{tri[j], tri[next]})
				}
				open[k].closed = true
				continue
			}
			if _, ok := index[key]; !ok {
				index[key] = len(open)
				open = append(open, openEdge{segment: Segment{tri[j], tri[next]}, normal: normal})
			}
		}
	}

	for _, e := range open {
		if !e.closed {
			g.Segments = append(g.Segments, e.segment)
		}
	}
	return g
}

func weld(p math.Vec3) vertexKey {
	return vertexKey{
		int64(gomath.Round(p.X * edgePrecision)),
		int64(gomath.Round(p.Y * edgePrecision)),
		int64(gomath.Round(p.Z * edgePrecision)),
	}
}
