// Package scene assembles the draw list handed to the rasterizer.
package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/stl2png/pkg/lighting"
	"github.com/Faultbox/stl2png/pkg/material"
	"github.com/Faultbox/stl2png/pkg/mesh"
	"github.com/Faultbox/stl2png/pkg/rgb"
)

// ErrMaterialKind is returned when a fill material is an edge line or the reverse.
var ErrMaterialKind = errors.New("material used in the wrong layer")

// EdgeThreshold is the dihedral angle, in degrees, above which an edge is drawn.
const EdgeThreshold = mesh.DefaultEdgeThreshold

// Layer separates surface fills from line overlays.
type Layer int

const (
	LayerFill Layer = iota
	LayerEdge
)

func (l Layer) String() string {
	if l == LayerEdge {
		return "edge"
	}
	return "fill"
}

// Draw is one draw pair. Fill draws reference Mesh; edge draws reference Edges.
type Draw struct {
	Layer    Layer
	Mesh     *mesh.Mesh
	Edges    *mesh.EdgeGeometry
	Material material.Material
}

// Background is the clear color of the frame.
type Background struct {
	Color rgb.Color
	Alpha float64
}

// Scene is the background, the lights and the ordered draw list.
// Draws are in paint order: every fill before every edge.
type Scene struct {
	Background Background
	Lights     []lighting.Light
	Draws      []Draw
}

// EdgeSource extracts feature edges. *mesh.Mesh implements it.
type EdgeSource interface {
	Edges(thresholdDeg float64) *mesh.EdgeGeometry
}

// Compose builds a scene with one fill draw per material sharing m and, when
// edgeMaterials is non-empty, one edge draw per edge material sharing a single
// edge extraction from edges.
func Compose(
	m *mesh.Mesh,
	edges EdgeSource,
	lights []lighting.Light,
	materials []material.Material,
	edgeMaterials []material.Material,
	background Background,
) (*Scene, error) {
	s := &Scene{
		Background: background,
		Lights:     append([]lighting.Light(nil), lights...),
		Draws:      make([]Draw, 0, len(materials)+len(edgeMaterials)),
	}

	for i, mat := range materials {
		if !material.IsFill(mat) {
			return nil, fmt.Errorf("%w: materials[%d] is %v", ErrMaterialKind, i, kindOf(mat))
		}
		s.Draws = append(s.Draws, Draw{Layer: LayerFill, Mesh: m, Material: mat})
	}

	if len(edgeMaterials) == 0 {
		return s, nil
	}

	for i, mat := range edgeMaterials {
		if _, ok := mat.(*material.Edge); !ok {
			return nil, fmt.Errorf("%w: edge_materials[%d] is %v", ErrMaterialKind, i, kindOf(mat))
		}
	}

	geometry := edges.Edges(EdgeThreshold)
	for _, mat := range edgeMaterials {
		s.Draws = append(s.Draws, Draw{Layer: LayerEdge, Edges: geometry, Material: mat})
	}
	return s, nil
}

// Fills returns the fill draws in order.
func (s *Scene) Fills() []Draw {
	return s.layer(LayerFill)
}

// EdgeDraws returns the edge draws in order.
func (s *Scene) EdgeDraws() []Draw {
	return s.layer(LayerEdge)
}

func (s *Scene) layer(l Layer) []Draw {
	var out []Draw
	for _, d := range s.Draws {
		if d.Layer == l {
			out = append(out, d)
		}
	}
	return out
}

func kindOf(m material.Material) string {
	if m == nil {
		return "nil"
	}
	return m.Kind().String()
}
