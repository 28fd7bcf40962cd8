package render

import (
	"github.com/Faultbox/stl2png/pkg/mesh"
	"github.com/Faultbox/stl2png/pkg/stl"
)

// Parser turns input bytes into a normalized mesh.
type Parser interface {
	Parse(data []byte) (*mesh.Mesh, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(data []byte) (*mesh.Mesh, error)

// Parse calls f(data).
func (f ParserFunc) Parse(data []byte) (*mesh.Mesh, error) {
	return f(data)
}

// STLParser reads binary or ASCII STL and returns a centered mesh with
// normals and bounds computed. The mesh keeps the solid name and the file
// coordinates of its center in Origin.
type STLParser struct{}

// Parse implements Parser.
func (STLParser) Parse(data []byte) (*mesh.Mesh, error) {
	model, err := stl.Parse(data)
	if err != nil {
		return nil, err
	}
	m, err := mesh.New(model.Positions())
	if err != nil {
		return nil, err
	}
	m.Name = model.Name
	m.Normalize()
	return m, nil
}
