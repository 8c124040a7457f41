package mesh

import (
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// DefaultStacks is the number of latitude bands used when none is given.
	DefaultStacks = 18

	// DefaultSectors is the number of longitude bands used when none is given.
	DefaultSectors = 36
)

type sphereParams struct {
	stacks  int
	sectors int
}

// SphereBuilderOption is a functional option applied to sphere generation via GenerateSphere.
type SphereBuilderOption func(*sphereParams)

// WithStacks sets the number of latitude bands. Values below 1 fall back to DefaultStacks.
//
// Parameters:
//   - stacks: the latitude band count
//
// Returns:
//   - SphereBuilderOption: a function that applies the stack count
func WithStacks(stacks int) SphereBuilderOption {
	return func(p *sphereParams) {
		p.stacks = stacks
	}
}

// WithSectors sets the number of longitude bands. Values below 1 fall back to DefaultSectors.
//
// Parameters:
//   - sectors: the longitude band count
//
// Returns:
//   - SphereBuilderOption: a function that applies the sector count
func WithSectors(sectors int) SphereBuilderOption {
	return func(p *sphereParams) {
		p.sectors = sectors
	}
}

// GenerateSphere builds a UV sphere of the given radius centered at the origin.
//
// Vertices are emitted row by row from the north pole (i = 0) to the south pole (i = stacks),
// each row holding sectors+1 vertices; the seam column is duplicated. Triangles are wound
// counter-clockwise when viewed from outside. The polar rows produce a single triangle per
// sector instead of a quad. All vertex colors start at black.
//
// Parameters:
//   - radius: the sphere radius
//   - options: variadic SphereBuilderOption functions (WithStacks, WithSectors)
//
// Returns:
//   - Mesh: the generated vertices and indices
func GenerateSphere(radius float32, options ...SphereBuilderOption) Mesh {
	p := &sphereParams{stacks: DefaultStacks, sectors: DefaultSectors}
	for _, opt := range options {
		opt(p)
	}
	if p.stacks < 1 {
		p.stacks = DefaultStacks
	}
	if p.sectors < 1 {
		p.sectors = DefaultSectors
	}

	stacks, sectors := p.stacks, p.sectors
	stackStep := math.Pi / float64(stacks)
	sectorStep := 2 * math.Pi / float64(sectors)
	r := float64(radius)

	vertices := make([]Vertex, 0, (stacks+1)*(sectors+1))
	for i := 0; i <= stacks; i++ {
		stackAngle := math.Pi/2 - float64(i)*stackStep
		xy := r * math.Cos(stackAngle)
		z := r * math.Sin(stackAngle)
		for j := 0; j <= sectors; j++ {
			sectorAngle := float64(j) * sectorStep
			vertices = append(vertices, Vertex{
				Position: [3]float32{
					float32(xy * math.Cos(sectorAngle)),
					float32(xy * math.Sin(sectorAngle)),
					float32(z),
				},
			})
		}
	}

	indices := make([]uint32, 0, indexCount(stacks, sectors))
	for i := 0; i < stacks; i++ {
		k1 := uint32(i * (sectors + 1))
		k2 := k1 + uint32(sectors) + 1
		for j := 0; j < sectors; j, k1, k2 = j+1, k1+1, k2+1 {
			if i != 0 {
				indices = append(indices, k1, k2, k1+1)
			}
			if i != stacks-1 {
				indices = append(indices, k1+1, k2, k2+1)
			}
		}
	}

	return Mesh{Vertices: vertices, Indices: indices}
}

func indexCount(stacks, sectors int) int {
	if stacks < 2 {
		return 0
	}
	return 3 * sectors * (2*stacks - 2)
}

// VertexLayout describes the Vertex struct to the render pipeline.
//
// Returns:
//   - wgpu.VertexBufferLayout: position at location 0, color at location 1, stride VertexSize
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(VertexSize),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		},
	}
}
