package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUUniform is the GPU-aligned representation of the uniform buffer bound at group 0, binding 0.
// Matches the WGSL `Uniforms` struct of the sphere shader. Size: 64 bytes.
type GPUUniform struct {
	ViewProj [16]float32 // offset 0: remap · projection · view · model (mat4x4<f32>)
}

// Size returns the size of the GPUUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	return buf
}
