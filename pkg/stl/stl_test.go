package stl_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	gomath "math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/stl2png/internal/testmesh"
	"github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/stl"
)

func TestParse_Binary(t *testing.T) {
	data := testmesh.Binary(testmesh.UnitCube())

	if !stl.IsBinary(data) {
		t.Fatal("expected binary detection")
	}

	m, err := stl.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !m.Binary {
		t.Error("expected Binary flag")
	}
	if m.TriangleCount() != 12 {
		t.Errorf("expected 12 triangles, got %d", m.TriangleCount())
	}
	if m.Name != "box" {
		t.Errorf("expected name 'box', got %q", m.Name)
	}
	if got := len(m.Positions()); got != 36 {
		t.Errorf("expected 36 positions, got %d", got)
	}
}

func TestParse_BinaryWithSolidHeader(t *testing.T) {
	cube := testmesh.UnitCube()
	cube.Name = "solid exported by some CAD tool"
	data := testmesh.Binary(cube)

	// The facet count matches the buffer length, so the header text is ignored.
	m, err := stl.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !m.Binary || m.TriangleCount() != 12 {
		t.Errorf("expected 12 binary triangles, got binary=%v count=%d", m.Binary, m.TriangleCount())
	}
}

func TestParse_ASCII(t *testing.T) {
	data := testmesh.ASCII(testmesh.UnitCube())

	if stl.IsBinary(data) {
		t.Fatal("expected ASCII detection")
	}

	m, err := stl.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Binary {
		t.Error("expected ASCII model")
	}
	if m.TriangleCount() != 12 {
		t.Errorf("expected 12 triangles, got %d", m.TriangleCount())
	}
	if m.Name != "box" {
		t.Errorf("expected name 'box', got %q", m.Name)
	}
}

func TestParse_ASCIIMatchesBinary(t *testing.T) {
	cube := testmesh.UnitCube()
	a, err := stl.Parse(testmesh.ASCII(cube))
	if err != nil {
		t.Fatalf("ASCII parse failed: %v", err)
	}
	b, err := stl.Parse(testmesh.Binary(cube))
	if err != nil {
		t.Fatalf("binary parse failed: %v", err)
	}

	pa, pb := a.Positions(), b.Positions()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("position %d differs: %v vs %v", i, pa[i], pb[i])
		}
	}
}

func TestParse_ASCIILeadingWhitespace(t *testing.T) {
	src := `
  solid tri
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 1 0
  endloop
endfacet
endsolid tri
`
	m, err := stl.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.TriangleCount() != 1 {
		t.Fatalf("expected 1 triangle, got %d", m.TriangleCount())
	}
	if m.Triangles[0].Vertices[1] != (math.Vec3{X: 1}) {
		t.Errorf("unexpected vertex %v", m.Triangles[0].Vertices[1])
	}
	if m.Triangles[0].Normal != (math.Vec3{Z: 1}) {
		t.Errorf("unexpected normal %v", m.Triangles[0].Normal)
	}
}

func TestParse_ASCIIWrongVertexCount(t *testing.T) {
	src := "solid bad\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\nendfacet\nendsolid bad\n"

	_, err := stl.Parse([]byte(src))
	if !errors.Is(err, stl.ErrInvalidASCII) {
		t.Errorf("expected ErrInvalidASCII, got %v", err)
	}
	if !errors.Is(err, stl.ErrMalformed) {
		t.Errorf("expected ErrMalformed in chain, got %v", err)
	}
}

func TestParse_ASCIIBadNumber(t *testing.T) {
	src := "solid bad\nfacet normal 0 0 1\nouter loop\nvertex 0 zero 0\nvertex 1 0 0\nvertex 0 1 0\nendloop\nendfacet\nendsolid\n"

	if _, err := stl.Parse([]byte(src)); !errors.Is(err, stl.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestParse_ASCIIUnterminated(t *testing.T) {
	src := "solid bad\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\n"

	if _, err := stl.Parse([]byte(src)); !errors.Is(err, stl.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestParse_ASCIINonFinite(t *testing.T) {
	src := "solid bad\nfacet normal 0 0 1\nouter loop\nvertex NaN 0 0\nvertex 1 0 0\nvertex 0 1 0\nendloop\nendfacet\nendsolid\n"

	if _, err := stl.Parse([]byte(src)); !errors.Is(err, stl.ErrNonFiniteValue) {
		t.Errorf("expected ErrNonFiniteValue, got %v", err)
	}
}

func TestParse_TruncatedBinary(t *testing.T) {
	data := testmesh.Binary(testmesh.UnitCube())

	_, err := stl.Parse(data[:len(data)-10])
	if !errors.Is(err, stl.ErrTruncatedSTLData) {
		t.Errorf("expected ErrTruncatedSTLData, got %v", err)
	}
}

func TestParse_TooShort(t *testing.T) {
	_, err := stl.Parse([]byte{1, 2, 3})
	if !errors.Is(err, stl.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestParse_BinaryNonFinite(t *testing.T) {
	data := testmesh.Binary(testmesh.UnitCube())
	// First vertex X of the first facet.
	binary.LittleEndian.PutUint32(data[84+12:], gomath.Float32bits(float32(gomath.Inf(1))))

	if _, err := stl.Parse(data); !errors.Is(err, stl.ErrNonFiniteValue) {
		t.Errorf("expected ErrNonFiniteValue, got %v", err)
	}
}

func TestParse_EmptyBinary(t *testing.T) {
	data := make([]byte, 84)

	m, err := stl.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.TriangleCount() != 0 {
		t.Errorf("expected 0 triangles, got %d", m.TriangleCount())
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.stl")
	if err := os.WriteFile(path, testmesh.Binary(testmesh.UnitCube()), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	m, err := stl.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if m.TriangleCount() != 12 {
		t.Errorf("expected 12 triangles, got %d", m.TriangleCount())
	}

	if _, err := stl.ParseFile(filepath.Join(t.TempDir(), "missing.stl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteASCII_RoundTripsName(t *testing.T) {
	var buf bytes.Buffer
	m := &stl.Model{Name: "named part"}
	if err := m.WriteASCII(&buf); err != nil {
		t.Fatalf("WriteASCII failed: %v", err)
	}

	parsed, err := stl.Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.Name != "named part" {
		t.Errorf("expected name 'named part', got %q", parsed.Name)
	}
}

func TestParse_LegacyHeaderEncoding(t *testing.T) {
	cube := testmesh.UnitCube()
	cube.Name = "Pi\xe8ce \xa9 ACME"

	m, err := stl.Parse(testmesh.Binary(cube))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Name != "Pièce © ACME" {
		t.Errorf("expected Windows-1252 header to decode, got %q", m.Name)
	}

	cube.Name = "déjà vu"
	m, err = stl.Parse(testmesh.Binary(cube))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Name != "déjà vu" {
		t.Errorf("expected UTF-8 header to pass through, got %q", m.Name)
	}
}
