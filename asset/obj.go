package asset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrNoGeometry is returned when an OBJ file yields no triangles.
var ErrNoGeometry = errors.New("asset: no geometry in OBJ")

// MeshData is interleaved vertex data with position, normal and uv per
// vertex, matching the renderer's vertex layout.
type MeshData struct {
	// Vertices holds 8 floats per vertex.
	Vertices []float32
	Indices  []uint32
}

// LoadOBJ reads and parses a Wavefront OBJ file.
func LoadOBJ(path string) (*MeshData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asset: opening %s: %w", path, err)
	}
	defer f.Close()
	md, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("asset: parsing %s: %w", path, err)
	}
	return md, nil
}

// ParseOBJ reads v and f statements from a Wavefront OBJ stream. Face
// vertices may carry /vt/vn suffixes, which are ignored; indices are
// 1-based per the format. Faces with more than three vertices are
// fan-triangulated. Vertex normals are accumulated from the face cross
// products and normalized, so shared vertices come out smooth-shaded.
func ParseOBJ(r io.Reader) (*MeshData, error) {
	var positions [][3]float32
	var faces [][3]uint32

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("asset: line %d: short vertex", lineNo)
			}
			var p [3]float32
			for i := 0; i < 3; i++ {
				v, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return nil, fmt.Errorf("asset: line %d: bad coordinate %q", lineNo, fields[i+1])
				}
				p[i] = float32(v)
			}
			positions = append(positions, p)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("asset: line %d: short face", lineNo)
			}
			idx := make([]uint32, 0, len(fields)-1)
			for _, field := range fields[1:] {
				// Keep only the position index from v/vt/vn.
				if slash := strings.IndexByte(field, '/'); slash >= 0 {
					field = field[:slash]
				}
				n, err := strconv.Atoi(field)
				if err != nil {
					return nil, fmt.Errorf("asset: line %d: bad index %q", lineNo, field)
				}
				if n < 0 {
					n += len(positions) + 1
				}
				if n < 1 || n > len(positions) {
					return nil, fmt.Errorf("asset: line %d: index %d out of range", lineNo, n)
				}
				idx = append(idx, uint32(n-1))
			}
			for i := 1; i+1 < len(idx); i++ {
				faces = append(faces, [3]uint32{idx[0], idx[i], idx[i+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("asset: reading OBJ: %w", err)
	}
	if len(faces) == 0 {
		return nil, ErrNoGeometry
	}

	normals := make([][3]float32, len(positions))
	for _, f := range faces {
		a, b, c := positions[f[0]], positions[f[1]], positions[f[2]]
		e1 := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		e2 := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		cross := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		for _, vi := range f {
			normals[vi][0] += cross[0]
			normals[vi][1] += cross[1]
			normals[vi][2] += cross[2]
		}
	}
	for i := range normals {
		n := &normals[i]
		length := float32(math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
		if length > 0 {
			n[0] /= length
			n[1] /= length
			n[2] /= length
		}
	}

	md := &MeshData{
		Vertices: make([]float32, 0, len(positions)*8),
		Indices:  make([]uint32, 0, len(faces)*3),
	}
	for i, p := range positions {
		n := normals[i]
		md.Vertices = append(md.Vertices, p[0], p[1], p[2], n[0], n[1], n[2], 0, 0)
	}
	for _, f := range faces {
		md.Indices = append(md.Indices, f[0], f[1], f[2])
	}
	return md, nil
}
