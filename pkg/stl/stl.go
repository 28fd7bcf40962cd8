// Package stl provides a parser for binary and ASCII STL triangle meshes.
package stl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/Faultbox/stl2png/pkg/math"
)

// ErrMalformed is the root of every parse failure.
var ErrMalformed = errors.New("malformed STL data")

// STL format errors.
var (
	ErrTruncatedSTLData = fmt.Errorf("%w: truncated binary data", ErrMalformed)
	ErrInvalidASCII     = fmt.Errorf("%w: invalid ASCII data", ErrMalformed)
	ErrNonFiniteValue   = fmt.Errorf("%w: non-finite coordinate", ErrMalformed)
)

const (
	headerSize     = 80
	binaryPrologue = headerSize + 4
	// Each binary facet is a normal, three vertices and a 2-byte attribute count.
	binaryFacetSize = 4*3*4 + 2
)

// Triangle is a single facet. Normal is the value stored in the file and may be zero.
type Triangle struct {
	Normal   math.Vec3
	Vertices [3]math.Vec3
}

// Model is a parsed STL file.
type Model struct {
	Name      string
	Binary    bool
	Triangles []Triangle
}

// TriangleCount returns the number of triangles in the model.
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// Positions returns the vertex positions, three per triangle, in file order.
func (m *Model) Positions() []math.Vec3 {
	positions := make([]math.Vec3, 0, len(m.Triangles)*3)
	for _, tri := range m.Triangles {
		positions = append(positions, tri.Vertices[:]...)
	}
	return positions
}

// IsBinary reports whether data should be decoded as binary STL.
// A buffer whose length matches the facet count in its prologue is binary even
// when its header starts with "solid"; otherwise a "solid" keyword within the
// first bytes marks ASCII.
func IsBinary(data []byte) bool {
	if len(data) >= binaryPrologue {
		n := binary.LittleEndian.Uint32(data[headerSize:binaryPrologue])
		if int64(binaryPrologue)+int64(n)*binaryFacetSize == int64(len(data)) {
			return true
		}
	}

	for off := 0; off < 5 && off < len(data); off++ {
		if bytes.HasPrefix(data[off:], []byte("solid")) {
			return false
		}
	}
	return true
}

// Parse parses an STL file from raw bytes, detecting the encoding.
func Parse(data []byte) (*Model, error) {
	if IsBinary(data) {
		return parseBinary(data)
	}
	return parseASCII(data)
}

// ParseFile parses an STL file from disk.
func ParseFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	return Parse(data)
}

func parseBinary(data []byte) (*Model, error) {
	if len(data) < binaryPrologue {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTruncatedSTLData, len(data), binaryPrologue)
	}

	count := binary.LittleEndian.Uint32(data[headerSize:binaryPrologue])
	want := int64(binaryPrologue) + int64(count)*binaryFacetSize
	if want > int64(len(data)) {
		return nil, fmt.Errorf("%w: header declares %d facets (%d bytes), got %d bytes",
			ErrTruncatedSTLData, count, want, len(data))
	}

	m := &Model{
		Name:      strings.TrimRight(decodeName(bytes.TrimRight(data[:headerSize], "\x00")), " "),
		Binary:    true,
		Triangles: make([]Triangle, count),
	}

	for i := range m.Triangles {
		rec := data[binaryPrologue+i*binaryFacetSize:]
		tri := &m.Triangles[i]
		tri.Normal = readVec3(rec[0:])
		for v := range tri.Vertices {
			tri.Vertices[v] = readVec3(rec[12+12*v:])
		}
		if !tri.Vertices[0].IsFinite() || !tri.Vertices[1].IsFinite() || !tri.Vertices[2].IsFinite() {
			return nil, fmt.Errorf("facet %d: %w", i, ErrNonFiniteValue)
		}
	}

	return m, nil
}

func readVec3(b []byte) math.Vec3 {
	return math.Vec3{
		X: float64(gomath.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
		Y: float64(gomath.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
		Z: float64(gomath.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
	}
}

// decodeName converts header text to UTF-8. Text that is not valid UTF-8 is
// read as Windows-1252, the code page most CAD exporters write.
func decodeName(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// asciiParser walks whitespace-separated tokens of an ASCII STL body.
type asciiParser struct {
	tokens []string
	pos    int
	facet  int
}

func parseASCII(data []byte) (*Model, error) {
	text := string(data)
	m := &Model{}

	trimmed := strings.TrimLeft(text, " \t\r\n")
	if !strings.HasPrefix(trimmed, "solid") {
		return nil, fmt.Errorf("%w: missing 'solid' keyword", ErrInvalidASCII)
	}
	firstLine, _, _ := strings.Cut(trimmed[len("solid"):], "\n")
	m.Name = strings.TrimSpace(decodeName([]byte(firstLine)))

	p := &asciiParser{tokens: strings.Fields(text)}
	for p.pos < len(p.tokens) {
		switch p.tokens[p.pos] {
		case "facet":
			tri, err := p.parseFacet()
			if err != nil {
				return nil, err
			}
			m.Triangles = append(m.Triangles, tri)
		default:
			// solid/endsolid keywords and solid names
			p.pos++
		}
	}

	return m, nil
}

// parseFacet consumes "facet normal nx ny nz outer loop (vertex x y z)x3 endloop endfacet".
func (p *asciiParser) parseFacet() (Triangle, error) {
	var tri Triangle
	index := p.facet
	p.facet++
	p.pos++ // facet

	if p.peek() == "normal" {
		p.pos++
		n, err := p.vec3()
		if err != nil {
			return Triangle{}, fmt.Errorf("facet %d normal: %w", index, err)
		}
		tri.Normal = n
	}

	vertices := 0
	for {
		tok := p.peek()
		switch tok {
		case "":
			return Triangle{}, fmt.Errorf("%w: facet %d not terminated", ErrInvalidASCII, index)
		case "outer", "loop", "endloop":
			p.pos++
		case "vertex":
			p.pos++
			v, err := p.vec3()
			if err != nil {
				return Triangle{}, fmt.Errorf("facet %d vertex %d: %w", index, vertices, err)
			}
			if vertices < 3 {
				tri.Vertices[vertices] = v
			}
			vertices++
		case "endfacet":
			p.pos++
			if vertices != 3 {
				return Triangle{}, fmt.Errorf("%w: facet %d has %d vertices, want 3", ErrInvalidASCII, index, vertices)
			}
			return tri, nil
		default:
			return Triangle{}, fmt.Errorf("%w: unexpected token %q in facet %d", ErrInvalidASCII, tok, index)
		}
	}
}

func (p *asciiParser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *asciiParser) vec3() (math.Vec3, error) {
	if p.pos+3 > len(p.tokens) {
		return math.Vec3{}, fmt.Errorf("%w: expected 3 numbers", ErrInvalidASCII)
	}
	var c [3]float64
	for i := range c {
		f, err := strconv.ParseFloat(p.tokens[p.pos+i], 64)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("%w: %q is not a number", ErrInvalidASCII, p.tokens[p.pos+i])
		}
		if !math.IsFinite(f) {
			return math.Vec3{}, ErrNonFiniteValue
		}
		c[i] = f
	}
	p.pos += 3
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}
