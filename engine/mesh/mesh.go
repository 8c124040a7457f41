package mesh

import (
	"fmt"
	"unsafe"
)

// VertexSize is the byte stride of a single Vertex in the vertex buffer.
const VertexSize = int(unsafe.Sizeof(Vertex{}))

// Vertex is one point of the sphere as uploaded to the GPU.
// Layout: position (3×f32, offset 0) followed by color (3×f32, offset 12), 24 bytes, no padding.
type Vertex struct {
	Position [3]float32
	Color    [3]float32
}

// Mesh is an indexed triangle list.
// Every three consecutive Indices form one triangle and every index addresses a Vertex.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Positions returns a copy of the vertex positions in generation order.
//
// Returns:
//   - [][3]float32: the positions, one per vertex
func (m Mesh) Positions() [][3]float32 {
	out := make([][3]float32, len(m.Vertices))
	for i := range m.Vertices {
		out[i] = m.Vertices[i].Position
	}
	return out
}

// TriangleCount returns the number of triangles described by the index list.
//
// Returns:
//   - int: len(Indices) / 3
func (m Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Validate checks that the index list describes whole triangles and stays in range.
//
// Returns:
//   - error: nil when every index addresses a vertex and the index count is a multiple of 3
func (m Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("index %d at position %d out of range (%d vertices)", idx, i, len(m.Vertices))
		}
	}
	return nil
}

// WithColors returns a mesh sharing this mesh's indices with the given vertex list.
//
// Parameters:
//   - vertices: the recolored vertices, same length and order as m.Vertices
//
// Returns:
//   - Mesh: a mesh with the new vertices and unchanged indices
func (m Mesh) WithColors(vertices []Vertex) Mesh {
	return Mesh{Vertices: vertices, Indices: m.Indices}
}
