package camera

import (
	"sync"

	"github.com/Carmen-Shannon/kartina/common"
)

// ModelRotationStep is the model rotation about +Z added by every Update, in degrees.
const ModelRotationStep float32 = 2.0

type uniformStaging struct {
	mu     *sync.Mutex
	camera Camera
	angle  float32 // degrees, accumulates without wrapping
	matrix [16]float32
}

// UniformStaging owns the camera and the model rotation and produces the
// single matrix uploaded to the GPU each tick:
//
//	OpenGLToWGPU · projection · view · rotate_z(angle)
type UniformStaging interface {
	// Update advances the model rotation by ModelRotationStep and recomputes the matrix.
	Update()

	// Refresh recomputes the matrix without advancing the rotation, e.g. after an aspect change.
	Refresh()

	// Matrix returns the staged matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the uniform matrix
	Matrix() [16]float32

	// Uniform returns the staged matrix wrapped for upload.
	//
	// Returns:
	//   - GPUUniform: the uniform struct
	Uniform() GPUUniform

	// Angle returns the accumulated model rotation in degrees.
	//
	// Returns:
	//   - float32: the rotation in degrees
	Angle() float32

	// Camera returns the staged camera.
	//
	// Returns:
	//   - Camera: the camera
	Camera() Camera
}

var _ UniformStaging = &uniformStaging{}

// NewUniformStaging creates a staging area for cam with a zero model rotation.
//
// Parameters:
//   - cam: the camera to stage
//
// Returns:
//   - UniformStaging: the staging area with its matrix already computed
func NewUniformStaging(cam Camera) UniformStaging {
	s := &uniformStaging{
		mu:     &sync.Mutex{},
		camera: cam,
	}
	s.recompute()
	return s
}

func (s *uniformStaging) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.angle += ModelRotationStep
	s.recompute()
}

func (s *uniformStaging) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recompute()
}

func (s *uniformStaging) Matrix() [16]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matrix
}

func (s *uniformStaging) Uniform() GPUUniform {
	return GPUUniform{ViewProj: s.Matrix()}
}

func (s *uniformStaging) Angle() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle
}

func (s *uniformStaging) Camera() Camera {
	return s.camera
}

// recompute rebuilds the staged matrix. Caller must hold the mutex.
func (s *uniformStaging) recompute() {
	var model [16]float32
	common.RotateZ(model[:], common.Radians(s.angle))
	s.matrix = common.MulChain(common.OpenGLToWGPU, s.camera.ViewProjectionMatrix(), model)
}
