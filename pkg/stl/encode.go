package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	gomath "math"
	"strconv"

	"github.com/Faultbox/stl2png/pkg/math"
)

// MarshalBinary encodes the model as binary STL. The name is truncated to the 80-byte header.
func (m *Model) MarshalBinary() ([]byte, error) {
	buf := make([]byte, binaryPrologue+len(m.Triangles)*binaryFacetSize)
	copy(buf[:headerSize], m.Name)
	binary.LittleEndian.PutUint32(buf[headerSize:], uint32(len(m.Triangles)))

	for i, tri := range m.Triangles {
		rec := buf[binaryPrologue+i*binaryFacetSize:]
		putVec3(rec[0:], tri.Normal)
		for v, p := range tri.Vertices {
			putVec3(rec[12+12*v:], p)
		}
	}
	return buf, nil
}

func putVec3(b []byte, v math.Vec3) {
	binary.LittleEndian.PutUint32(b[0:], gomath.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(b[4:], gomath.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(b[8:], gomath.Float32bits(float32(v.Z)))
}

// WriteASCII writes the model as ASCII STL.
func (m *Model) WriteASCII(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", m.Name)
	for _, tri := range m.Triangles {
		fmt.Fprintf(bw, "  facet normal %s\n", formatVec3(tri.Normal))
		fmt.Fprintln(bw, "    outer loop")
		for _, v := range tri.Vertices {
			fmt.Fprintf(bw, "      vertex %s\n", formatVec3(v))
		}
		fmt.Fprintln(bw, "    endloop")
		fmt.Fprintln(bw, "  endfacet")
	}
	fmt.Fprintf(bw, "endsolid %s\n", m.Name)
	return bw.Flush()
}

func formatVec3(v math.Vec3) string {
	return strconv.FormatFloat(v.X, 'e', -1, 64) + " " +
		strconv.FormatFloat(v.Y, 'e', -1, 64) + " " +
		strconv.FormatFloat(v.Z, 'e', -1, 64)
}
