package renderer

import (
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/kartina/common"
	"github.com/Carmen-Shannon/kartina/engine/camera"
	"github.com/Carmen-Shannon/kartina/engine/mesh"
	"github.com/cogentcore/webgpu/wgpu"
)

// State is the lifecycle state of a Renderer.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateReconfiguring
	StateLost
	StateShutDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateReconfiguring:
		return "reconfiguring"
	case StateLost:
		return "lost"
	case StateShutDown:
		return "shut down"
	default:
		return "unknown"
	}
}

// uniformSize is the byte size of camera.GPUUniform.
var uniformSize = uint64((&camera.GPUUniform{}).Size())

// SurfaceConfig is the swap configuration negotiated with the presentation surface.
type SurfaceConfig struct {
	Width       uint32
	Height      uint32
	Format      string
	PresentMode PresentMode
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backend    RendererBackend
	state      State
	config     SurfaceConfig
	pipelineID PipelineID
	clearColor wgpu.Color

	// configured reports whether the surface has been configured at the current size
	configured bool
}

// Renderer manages the surface and device lifecycle and draws one mesh per frame.
//
// States: Uninitialized → Ready → Reconfiguring → Ready | Lost, terminal ShutDown.
// The Renderer is owned by the render goroutine; the mutex only guards reads of
// its state from other goroutines.
type Renderer interface {
	// Init connects to the GPU, builds the pipeline and uniform buffer and configures
	// the surface at the given size. Blocks until device negotiation completes.
	//
	// Parameters:
	//   - width: the initial surface width in pixels
	//   - height: the initial surface height in pixels
	//
	// Returns:
	//   - error: a fatal error if any step fails
	Init(width, height int) error

	// Resize stores the new surface size and rebuilds the swap configuration only.
	// It is a no-op when the size is unchanged and the surface is healthy; after a Lost
	// frame it always reconfigures. A zero width or height is stored but not configured.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if reconfiguration failed; the Renderer stays Lost
	Resize(width, height int) error

	// Render draws m with the given uniform and presents the frame.
	//
	// Parameters:
	//   - m: the mesh to draw
	//   - uniform: the staged camera uniform uploaded to the uniform buffer
	//
	// Returns:
	//   - error: nil, ErrNotReady, or a *PresentError classifying the failure
	Render(m mesh.Mesh, uniform camera.GPUUniform) error

	// Shutdown waits for submitted GPU work to complete and releases every resource.
	// Safe to call more than once.
	Shutdown()

	// State returns the current lifecycle state.
	//
	// Returns:
	//   - State: the state
	State() State

	// Config returns the current swap configuration.
	//
	// Returns:
	//   - SurfaceConfig: the configuration
	Config() SurfaceConfig

	// PipelineID returns the identity of the render pipeline. It does not change across resizes.
	//
	// Returns:
	//   - PipelineID: the pipeline identity, zero before Init
	PipelineID() PipelineID
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer over the given backend.
// The Renderer is Uninitialized until Init is called.
//
// Parameters:
//   - backend: the GPU backend, e.g. from NewWGPUBackend
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer
func NewRenderer(backend RendererBackend, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:         &sync.Mutex{},
		backend:    backend,
		state:      StateUninitialized,
		clearColor: wgpu.Color{R: 1, G: 1, B: 1, A: 1},
		config:     SurfaceConfig{PresentMode: PresentModeVSync},
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) Init(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateUninitialized {
		return fmt.Errorf("renderer: init called in state %s", r.state)
	}

	if err := r.backend.Connect(); err != nil {
		return fmt.Errorf("acquiring GPU device: %w", err)
	}

	id, err := r.backend.CreatePipeline(mesh.VertexLayout())
	if err != nil {
		return fmt.Errorf("creating render pipeline: %w", err)
	}
	r.pipelineID = id

	if err := r.backend.CreateUniform(uniformSize); err != nil {
		return fmt.Errorf("creating uniform buffer: %w", err)
	}

	r.config.Format = r.backend.SurfaceFormat()
	r.setSize(width, height)
	if err := r.configure(); err != nil {
		return fmt.Errorf("configuring surface: %w", err)
	}

	r.state = StateReady
	log.Printf("[Renderer] ready: %dx%d %s %s", r.config.Width, r.config.Height, r.config.Format, r.config.PresentMode)
	return nil
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateReady, StateLost:
	default:
		return ErrNotReady
	}

	changed := uint32(max(width, 0)) != r.config.Width || uint32(max(height, 0)) != r.config.Height
	if !changed && r.state == StateReady && r.configured {
		return nil
	}

	r.setSize(width, height)
	prev := r.state
	r.state = StateReconfiguring
	if err := r.configure(); err != nil {
		r.state = StateLost
		return fmt.Errorf("reconfiguring surface: %w", err)
	}
	if prev == StateLost {
		log.Printf("[Renderer] surface reconfigured after loss at %dx%d", r.config.Width, r.config.Height)
	}
	r.state = StateReady
	return nil
}

func (r *renderer) Render(m mesh.Mesh, uniform camera.GPUUniform) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateReady:
	case StateLost:
		return &PresentError{Kind: PresentErrorLost, Err: ErrSurfaceLost}
	default:
		return ErrNotReady
	}
	if !r.configured {
		return &PresentError{Kind: PresentErrorTransient, Err: ErrZeroSize}
	}

	if err := r.backend.AcquireFrame(); err != nil {
		pe := classify(err)
		if pe.Kind == PresentErrorLost {
			r.state = StateLost
		}
		return pe
	}

	r.backend.WriteUniform(uniform.Marshal())

	err := r.backend.DrawFrame(
		common.SliceToBytes(m.Vertices),
		common.SliceToBytes(m.Indices),
		uint32(len(m.Indices)),
		r.clearColor,
	)
	if err != nil {
		r.backend.DiscardFrame()
		pe := classify(err)
		if pe.Kind == PresentErrorLost {
			r.state = StateLost
		}
		return pe
	}

	r.backend.Present()
	return nil
}

func (r *renderer) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateShutDown {
		return
	}
	if r.state != StateUninitialized {
		r.backend.WaitIdle()
	}
	r.backend.Release()
	r.state = StateShutDown
	r.configured = false
	log.Printf("[Renderer] shut down")
}

func (r *renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *renderer) Config() SurfaceConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config
}

func (r *renderer) PipelineID() PipelineID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineID
}

// setSize stores the surface size. Caller must hold the mutex.
func (r *renderer) setSize(width, height int) {
	r.config.Width = uint32(max(width, 0))
	r.config.Height = uint32(max(height, 0))
}

// configure applies the stored size to the surface, deferring while it has no area.
// Caller must hold the mutex.
func (r *renderer) configure() error {
	if r.config.Width == 0 || r.config.Height == 0 {
		r.configured = false
		return nil
	}
	if err := r.backend.ConfigureSurface(int(r.config.Width), int(r.config.Height), r.config.PresentMode); err != nil {
		r.configured = false
		return err
	}
	r.config.Format = r.backend.SurfaceFormat()
	r.configured = true
	return nil
}
