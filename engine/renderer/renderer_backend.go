package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeVSync:
		return "vsync"
	case PresentModeUncapped:
		return "uncapped"
	default:
		return "unknown"
	}
}

// PipelineID identifies a render pipeline created by a backend.
// It stays the same for as long as the pipeline lives.
type PipelineID uint64

// RendererBackend is the GPU API seam beneath the Renderer.
// Every method is called from the single render goroutine.
type RendererBackend interface {
	// Connect creates the instance and surface and negotiates the adapter and device.
	// This is the one blocking step of initialization.
	//
	// Returns:
	//   - error: an error if no adapter or device could be acquired
	Connect() error

	// SurfaceFormat returns the name of the preferred surface texture format.
	// Valid after Connect.
	//
	// Returns:
	//   - string: the format name
	SurfaceFormat() string

	// CreatePipeline builds the render pipeline for the given vertex layout.
	//
	// Parameters:
	//   - layout: the vertex buffer layout
	//
	// Returns:
	//   - PipelineID: the identity of the created pipeline
	//   - error: an error if shader or pipeline creation fails
	CreatePipeline(layout wgpu.VertexBufferLayout) (PipelineID, error)

	// CreateUniform creates the uniform buffer and its bind group.
	//
	// Parameters:
	//   - size: the uniform buffer size in bytes
	//
	// Returns:
	//   - error: an error if buffer or bind group creation fails
	CreateUniform(size uint64) error

	// ConfigureSurface (re)builds the swap configuration.
	// Pipeline and device are left untouched.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	//   - mode: the present mode
	//
	// Returns:
	//   - error: an error if the surface could not be configured
	ConfigureSurface(width, height int, mode PresentMode) error

	// AcquireFrame acquires the next presentable surface texture.
	//
	// Returns:
	//   - error: the raw acquisition error, classified by the Renderer
	AcquireFrame() error

	// WriteUniform rewrites the uniform buffer in place.
	//
	// Parameters:
	//   - data: the uniform bytes
	WriteUniform(data []byte)

	// DrawFrame uploads fresh vertex and index buffers, records one render pass that clears
	// to clear and issues a single indexed draw, then submits it. The buffers are released
	// after submission.
	//
	// Parameters:
	//   - vertexData: the vertex bytes
	//   - indexData: the uint32 index bytes
	//   - indexCount: the number of indices to draw
	//   - clear: the background color
	//
	// Returns:
	//   - error: an error if buffer creation or encoding fails
	DrawFrame(vertexData, indexData []byte, indexCount uint32, clear wgpu.Color) error

	// Present presents the acquired frame and releases it.
	Present()

	// DiscardFrame releases an acquired frame without presenting it.
	DiscardFrame()

	// WaitIdle blocks until all submitted GPU work has completed.
	WaitIdle()

	// Release frees every GPU object held by the backend.
	Release()
}
