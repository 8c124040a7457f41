package renderer

import (
	_ "embed"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// sphereShaderSource holds the vertex and fragment stages for the colored sphere.
//
//go:embed assets/sphere.wgsl
var sphereShaderSource string

// pipelineCount is an atomic counter used to hand out pipeline identities.
var pipelineCount atomic.Uint64

type wgpuRendererBackendImpl struct {
	mu *sync.Mutex

	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentModes  []wgpu.PresentMode
	maxDimension  uint32

	shaderModule    *wgpu.ShaderModule
	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
	pipeline        *wgpu.RenderPipeline

	uniformBuffer *wgpu.Buffer
	bindGroup     *wgpu.BindGroup

	// Frame state between AcquireFrame and Present
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

// WGPUBackendOption is a functional option applied to the WebGPU backend via NewWGPUBackend.
type WGPUBackendOption func(*wgpuRendererBackendImpl)

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - WGPUBackendOption: a function that applies the option to the backend
func WithForceSoftwareRenderer(force bool) WGPUBackendOption {
	return func(b *wgpuRendererBackendImpl) {
		b.forceFallbackAdapter = force
	}
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// NewWGPUBackend creates a WebGPU backend for the given platform surface.
// No GPU object is created until Connect.
//
// Parameters:
//   - surfaceDescriptor: the platform-specific surface descriptor, typically from Window.SurfaceDescriptor()
//   - options: variadic WGPUBackendOption functions
//
// Returns:
//   - RendererBackend: the backend
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...WGPUBackendOption) RendererBackend {
	b := &wgpuRendererBackendImpl{
		mu:                &sync.Mutex{},
		surfaceDescriptor: surfaceDescriptor,
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *wgpuRendererBackendImpl) Connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceDescriptor == nil {
		return errors.New("no surface descriptor")
	}

	runtime.LockOSThread()
	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(b.surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return fmt.Errorf("requesting adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return fmt.Errorf("requesting device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return errors.New("surface is not compatible with the adapter")
	}
	b.surfaceFormat = capabilities.Formats[0]
	b.alphaMode = capabilities.AlphaModes[0]
	b.presentModes = capabilities.PresentModes
	b.maxDimension = d.GetLimits().Limits.MaxTextureDimension2D

	return nil
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fmt.Sprint(b.surfaceFormat)
}

func (b *wgpuRendererBackendImpl) CreatePipeline(layout wgpu.VertexBufferLayout) (PipelineID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "sphere.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: sphereShaderSource,
		},
	})
	if err != nil {
		return 0, err
	}
	b.shaderModule = module

	entry := wgpu.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: wgpu.ShaderStageVertex,
	}
	entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	entry.Buffer.MinBindingSize = uniformSize

	bgl, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Uniform Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{entry},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create bind group layout: %w", err)
	}
	b.bindGroupLayout = bgl

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Sphere Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return 0, err
	}
	b.pipelineLayout = pipelineLayout

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Sphere Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{layout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return 0, err
	}
	b.pipeline = created

	return PipelineID(pipelineCount.Add(1)), nil
}

func (b *wgpuRendererBackendImpl) CreateUniform(size uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Uniform Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	b.uniformBuffer = buf

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Uniform Bind Group",
		Layout: b.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		return err
	}
	b.bindGroup = bindGroup

	return nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int, mode PresentMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// wgpuSurfaceConfigure reports nothing back through the binding, so a
	// configuration the surface cannot take is rejected here instead.
	cfg, err := surfaceConfiguration(width, height, mode, b.surfaceFormat, b.alphaMode, b.presentModes, b.maxDimension)
	if err != nil {
		return err
	}
	b.surface.Configure(b.adapter, b.device, cfg)
	return nil
}

// surfaceConfiguration builds the surface configuration for the given size and mode,
// checked against the surface capabilities and the device texture limit.
// A maxDimension of 0 or wgpu.LimitU32Undefined disables the limit check.
func surfaceConfiguration(
	width, height int,
	mode PresentMode,
	format wgpu.TextureFormat,
	alphaMode wgpu.CompositeAlphaMode,
	supported []wgpu.PresentMode,
	maxDimension uint32,
) (*wgpu.SurfaceConfiguration, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("configure surface %dx%d: %w", width, height, ErrZeroSize)
	}
	if maxDimension != 0 && maxDimension != wgpu.LimitU32Undefined &&
		(uint32(width) > maxDimension || uint32(height) > maxDimension) {
		return nil, fmt.Errorf("configure surface %dx%d: exceeds max texture dimension %d", width, height, maxDimension)
	}

	presentMode := wgpu.PresentModeFifo
	if mode == PresentModeUncapped {
		presentMode = wgpu.PresentModeImmediate
	}
	// fifo is always available
	if presentMode != wgpu.PresentModeFifo && !slices.Contains(supported, presentMode) {
		return nil, fmt.Errorf("configure surface: present mode %v not supported", presentMode)
	}

	return &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   alphaMode,
	}, nil
}

func (b *wgpuRendererBackendImpl) AcquireFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// if a previous frame's surface texture is still held, acquiring another one
	// fails with "Surface image is already acquired"
	if b.frameSurface != nil {
		return errors.New("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackendImpl) WriteUniform(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(b.uniformBuffer, 0, data)
}

func (b *wgpuRendererBackendImpl) DrawFrame(vertexData, indexData []byte, indexCount uint32, clear wgpu.Color) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameView == nil {
		return errors.New("no acquired frame")
	}

	var vertexBuffer, indexBuffer *wgpu.Buffer
	defer func() {
		if vertexBuffer != nil {
			vertexBuffer.Release()
		}
		if indexBuffer != nil {
			indexBuffer.Release()
		}
	}()

	draw := indexCount > 0 && len(vertexData) > 0
	if draw {
		var err error
		vertexBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            "Sphere Vertex Buffer",
			Size:             uint64(len(vertexData)),
			Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return err
		}
		b.queue.WriteBuffer(vertexBuffer, 0, vertexData)

		indexBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            "Sphere Index Buffer",
			Size:             uint64(len(indexData)),
			Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return err
		}
		b.queue.WriteBuffer(indexBuffer, 0, indexData)
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.frameView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: clear,
			},
		},
	})
	if draw {
		pass.SetPipeline(b.pipeline)
		pass.SetBindGroup(0, b.bindGroup, nil)
		pass.SetVertexBuffer(0, vertexBuffer, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(indexCount, 1, 0, 0, 0)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()

	b.queue.Submit(commandBuffer)
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil {
		return
	}

	b.surface.Present()
	b.releaseFrame()
}

func (b *wgpuRendererBackendImpl) DiscardFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseFrame()
}

func (b *wgpuRendererBackendImpl) WaitIdle() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device != nil {
		b.device.Poll(true, nil)
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrame()
	if b.bindGroup != nil {
		b.bindGroup.Release()
		b.bindGroup = nil
	}
	if b.uniformBuffer != nil {
		b.uniformBuffer.Release()
		b.uniformBuffer = nil
	}
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.pipelineLayout != nil {
		b.pipelineLayout.Release()
		b.pipelineLayout = nil
	}
	if b.bindGroupLayout != nil {
		b.bindGroupLayout.Release()
		b.bindGroupLayout = nil
	}
	if b.shaderModule != nil {
		b.shaderModule.Release()
		b.shaderModule = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// releaseFrame drops the acquired surface texture and its view. Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) releaseFrame() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}
