package renderer

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/kartina/engine/camera"
	"github.com/Carmen-Shannon/kartina/engine/mesh"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identity = camera.GPUUniform{ViewProj: [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}}

func readyRenderer(t *testing.T, options ...RendererBuilderOption) (Renderer, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	r := NewRenderer(fb, options...)
	require.NoError(t, r.Init(800, 600))
	require.Equal(t, StateReady, r.State())
	return r, fb
}

func TestRenderer_Init(t *testing.T) {
	t.Parallel()

	r, fb := readyRenderer(t, WithPresentMode(PresentModeUncapped))

	assert.Equal(t, []string{"connect", "pipeline", "uniform", "configure"}, fb.calls)
	assert.Equal(t, uint64(64), fb.uniformSize)
	assert.Equal(t, configureCall{800, 600, PresentModeUncapped}, fb.lastConfigure())
	assert.Equal(t, SurfaceConfig{Width: 800, Height: 600, Format: "BGRA8UnormSrgb", PresentMode: PresentModeUncapped}, r.Config())
	assert.Equal(t, PipelineID(101), r.PipelineID())

	assert.Error(t, r.Init(800, 600), "init runs once")
}

func TestRenderer_InitFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fb   *fakeBackend
	}{
		{"no adapter", &fakeBackend{connectErr: errors.New("no adapter")}},
		{"bad shader", &fakeBackend{pipelineErr: errors.New("shader compile")}},
		{"bad surface", &fakeBackend{configureErr: errors.New("configure")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := NewRenderer(tc.fb)
			require.Error(t, r.Init(640, 480))
			assert.Equal(t, StateUninitialized, r.State())
			assert.ErrorIs(t, r.Render(mesh.Mesh{}, identity), ErrNotReady)
		})
	}
}

func TestRenderer_RenderFrame(t *testing.T) {
	t.Parallel()

	r, fb := readyRenderer(t)
	m := mesh.GenerateSphere(1, mesh.WithStacks(2), mesh.WithSectors(4))

	uniform := identity
	uniform.ViewProj[12] = 3.5
	require.NoError(t, r.Render(m, uniform))

	assert.Equal(t, []string{"acquire", "write uniform", "draw", "present"}, fb.calls[4:])
	require.Len(t, fb.draws, 1)
	assert.Equal(t, drawCall{
		vertexBytes: 15 * mesh.VertexSize,
		indexBytes:  24 * 4,
		indexCount:  24,
		clear:       wgpu.Color{R: 1, G: 1, B: 1, A: 1},
	}, fb.draws[0])

	require.Len(t, fb.uniforms, 1)
	require.Len(t, fb.uniforms[0], 64)
	assert.Equal(t, math.Float32bits(3.5), binary.LittleEndian.Uint32(fb.uniforms[0][48:]))
}

func TestRenderer_ClearColor(t *testing.T) {
	t.Parallel()

	r, fb := readyRenderer(t, WithClearColor(0.1, 0.2, 0.3, 1))
	require.NoError(t, r.Render(mesh.Mesh{}, identity))
	assert.Equal(t, wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}, fb.draws[0].clear)
}

func TestRenderer_ResizeKeepsPipeline(t *testing.T) {
	t.Parallel()

	r, fb := readyRenderer(t)
	before := r.PipelineID()

	require.NoError(t, r.Resize(1024, 768))
	assert.Equal(t, configureCall{1024, 768, PresentModeVSync}, fb.lastConfigure())
	assert.Equal(t, uint32(1024), r.Config().Width)
	assert.Equal(t, uint32(768), r.Config().Height)
	assert.Equal(t, before, r.PipelineID())
	assert.Equal(t, 1, fb.pipelinesCreated)
	assert.Equal(t, StateReady, r.State())

	require.NoError(t, r.Render(mesh.Mesh{}, identity))
	assert.Len(t, fb.draws, 1)
}

func TestRenderer_ResizeUnchangedIsNoop(t *testing.T) {
	t.Parallel()

	r, fb := readyRenderer(t)
	require.NoError(t, r.Resize(800, 600))
	assert.Len(t, fb.configures, 1)
}

func TestRenderer_ZeroSizeDefersConfiguration(t *testing.T) {
	t.Parallel()

	r, fb := readyRenderer(t)
	require.NoError(t, r.Resize(0, 0))
	assert.Len(t, fb.configures, 1)
	assert.Equal(t, uint32(0), r.Config().Width)

	err := r.Render(mesh.Mesh{}, identity)
	pe, ok := AsPresentError(err)
	require.True(t, ok)
	assert.Equal(t, PresentErrorTransient, pe.Kind)
	assert.ErrorIs(t, err, ErrZeroSize)
	assert.Zero(t, fb.acquires)

	require.NoError(t, r.Resize(800, 600))
	assert.Len(t, fb.configures, 2)
	assert.NoError(t, r.Render(mesh.Mesh{}, identity))
}

func TestRenderer_ErrorClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		err       error
		kind      PresentErrorKind
		wantState State
	}{
		{"outdated", errors.New("wgpu: surface texture outdated"), PresentErrorTransient, StateReady},
		{"timeout", errors.New("Timeout"), PresentErrorTransient, StateReady},
		{"unknown", errors.New("something odd"), PresentErrorTransient, StateReady},
		{"lost", errors.New("Surface Lost"), PresentErrorLost, StateLost},
		{"oom", errors.New("OutOfMemory"), PresentErrorOutOfMemory, StateReady},
		{"oom spaced", errors.New("device out of memory"), PresentErrorOutOfMemory, StateReady},
		{"device lost", errors.New("wgpu.(*Surface).GetCurrentTexture(): device-lost"), PresentErrorDeviceLost, StateReady},
		{"device lost spaced", errors.New("Device Lost: reason unknown"), PresentErrorDeviceLost, StateReady},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, fb := readyRenderer(t)
			fb.acquireErrs = []error{tc.err}

			err := r.Render(mesh.Mesh{}, identity)
			pe, ok := AsPresentError(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, pe.Kind)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, tc.wantState, r.State())
			assert.Empty(t, fb.draws)
			assert.Zero(t, fb.presents)
			assert.Equal(t, SurfaceConfig{Width: 800, Height: 600, Format: "BGRA8UnormSrgb"}, r.Config())
		})
	}
}

func TestRenderer_LostRecoversWithSameSizeResize(t *testing.T) {
	t.Parallel()

	r, fb := readyRenderer(t)
	id := r.PipelineID()
	fb.acquireErrs = []error{errors.New("surface lost")}

	err := r.Render(mesh.Mesh{}, identity)
	pe, ok := AsPresentError(err)
	require.True(t, ok)
	require.Equal(t, PresentErrorLost, pe.Kind)

	// still lost until reconfigured
	err = r.Render(mesh.Mesh{}, identity)
	assert.ErrorIs(t, err, ErrSurfaceLost)
	assert.Equal(t, 1, fb.acquires)

	require.NoError(t, r.Resize(800, 600))
	assert.Len(t, fb.configures, 2)
	assert.Equal(t, StateReady, r.State())
	assert.Equal(t, id, r.PipelineID())

	assert.NoError(t, r.Render(mesh.Mesh{}, identity))
}

func TestRenderer_FailedReconfigureStaysLost(t *testing.T) {
	t.Parallel()

	r, fb := readyRenderer(t)
	fb.configureErr = errors.New("surface gone")

	require.Error(t, r.Resize(1024, 768))
	assert.Equal(t, StateLost, r.State())

	fb.configureErr = nil
	require.NoError(t, r.Resize(1024, 768))
	assert.Equal(t, StateReady, r.State())
}

func TestRenderer_DrawFailureDiscardsFrame(t *testing.T) {
	t.Parallel()

	r, fb := readyRenderer(t)
	fb.drawErr = errors.New("buffer allocation: Out Of Memory")

	err := r.Render(mesh.Mesh{}, identity)
	pe, ok := AsPresentError(err)
	require.True(t, ok)
	assert.Equal(t, PresentErrorOutOfMemory, pe.Kind)
	assert.Equal(t, 1, fb.discards)
	assert.Zero(t, fb.presents)
}

func TestRenderer_Shutdown(t *testing.T) {
	t.Parallel()

	r, fb := readyRenderer(t)
	r.Shutdown()
	r.Shutdown()

	assert.Equal(t, StateShutDown, r.State())
	assert.Equal(t, 1, fb.waitIdles)
	assert.Equal(t, 1, fb.releases)
	assert.ErrorIs(t, r.Render(mesh.Mesh{}, identity), ErrNotReady)
	assert.ErrorIs(t, r.Resize(10, 10), ErrNotReady)
}

func TestRenderer_ShutdownBeforeInit(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{}
	r := NewRenderer(fb)
	r.Shutdown()
	assert.Zero(t, fb.waitIdles)
	assert.Equal(t, 1, fb.releases)
}

func TestPresentError_Error(t *testing.T) {
	t.Parallel()

	err := &PresentError{Kind: PresentErrorLost, Err: errors.New("gone")}
	assert.Equal(t, "present: lost: gone", err.Error())
	assert.Equal(t, "present: transient", (&PresentError{}).Error())

	_, ok := AsPresentError(errors.New("plain"))
	assert.False(t, ok)
}

func TestPresentErrorKind_Fatal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind  PresentErrorKind
		fatal bool
	}{
		{PresentErrorTransient, false},
		{PresentErrorLost, false},
		{PresentErrorOutOfMemory, true},
		{PresentErrorDeviceLost, true},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.fatal, tc.kind.Fatal())
		})
	}
}

func TestSurfaceConfiguration(t *testing.T) {
	t.Parallel()

	fifoOnly := []wgpu.PresentMode{wgpu.PresentModeFifo}
	both := []wgpu.PresentMode{wgpu.PresentModeFifo, wgpu.PresentModeImmediate}

	cases := []struct {
		name      string
		width     int
		height    int
		mode      PresentMode
		supported []wgpu.PresentMode
		max       uint32
		wantMode  wgpu.PresentMode
		wantErr   bool
	}{
		{"vsync", 800, 600, PresentModeVSync, fifoOnly, 8192, wgpu.PresentModeFifo, false},
		{"uncapped supported", 800, 600, PresentModeUncapped, both, 8192, wgpu.PresentModeImmediate, false},
		{"uncapped unsupported", 800, 600, PresentModeUncapped, fifoOnly, 8192, 0, true},
		{"zero width", 0, 600, PresentModeVSync, fifoOnly, 8192, 0, true},
		{"negative height", 800, -1, PresentModeVSync, fifoOnly, 8192, 0, true},
		{"over texture limit", 8193, 600, PresentModeVSync, fifoOnly, 8192, 0, true},
		{"undefined limit", 20000, 600, PresentModeVSync, fifoOnly, wgpu.LimitU32Undefined, wgpu.PresentModeFifo, false},
		{"no limit", 20000, 600, PresentModeVSync, fifoOnly, 0, wgpu.PresentModeFifo, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := surfaceConfiguration(tc.width, tc.height, tc.mode, wgpu.TextureFormatBGRA8UnormSrgb, wgpu.CompositeAlphaModeOpaque, tc.supported, tc.max)
			if tc.wantErr {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMode, cfg.PresentMode)
			assert.Equal(t, uint32(tc.width), cfg.Width)
			assert.Equal(t, uint32(tc.height), cfg.Height)
			assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, cfg.Format)
			assert.Equal(t, wgpu.TextureUsageRenderAttachment, cfg.Usage)
		})
	}
}
