package renderer

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"
)

type configureCall struct {
	width, height int
	mode          PresentMode
}

type drawCall struct {
	vertexBytes int
	indexBytes  int
	indexCount  uint32
	clear       wgpu.Color
}

// fakeBackend records every call and fails on demand.
type fakeBackend struct {
	connectErr   error
	pipelineErr  error
	configureErr error
	acquireErrs  []error
	drawErr      error

	pipelinesCreated int
	uniformSize      uint64
	configures       []configureCall
	acquires         int
	uniforms         [][]byte
	draws            []drawCall
	presents         int
	discards         int
	waitIdles        int
	releases         int
	calls            []string
}

func (f *fakeBackend) record(name string) {
	f.calls = append(f.calls, name)
}

func (f *fakeBackend) Connect() error {
	f.record("connect")
	return f.connectErr
}

func (f *fakeBackend) SurfaceFormat() string { return "BGRA8UnormSrgb" }

func (f *fakeBackend) CreatePipeline(layout wgpu.VertexBufferLayout) (PipelineID, error) {
	f.record("pipeline")
	if f.pipelineErr != nil {
		return 0, f.pipelineErr
	}
	if layout.ArrayStride != 24 || len(layout.Attributes) != 2 {
		return 0, errors.New("unexpected vertex layout")
	}
	f.pipelinesCreated++
	return PipelineID(100 + f.pipelinesCreated), nil
}

func (f *fakeBackend) CreateUniform(size uint64) error {
	f.record("uniform")
	f.uniformSize = size
	return nil
}

func (f *fakeBackend) ConfigureSurface(width, height int, mode PresentMode) error {
	f.record("configure")
	if f.configureErr != nil {
		return f.configureErr
	}
	f.configures = append(f.configures, configureCall{width, height, mode})
	return nil
}

func (f *fakeBackend) AcquireFrame() error {
	f.record("acquire")
	f.acquires++
	if len(f.acquireErrs) > 0 {
		err := f.acquireErrs[0]
		f.acquireErrs = f.acquireErrs[1:]
		return err
	}
	return nil
}

func (f *fakeBackend) WriteUniform(data []byte) {
	f.record("write uniform")
	f.uniforms = append(f.uniforms, data)
}

func (f *fakeBackend) DrawFrame(vertexData, indexData []byte, indexCount uint32, clear wgpu.Color) error {
	f.record("draw")
	if f.drawErr != nil {
		return f.drawErr
	}
	f.draws = append(f.draws, drawCall{len(vertexData), len(indexData), indexCount, clear})
	return nil
}

func (f *fakeBackend) Present() {
	f.record("present")
	f.presents++
}

func (f *fakeBackend) DiscardFrame() {
	f.record("discard")
	f.discards++
}

func (f *fakeBackend) WaitIdle() {
	f.record("wait idle")
	f.waitIdles++
}

func (f *fakeBackend) Release() {
	f.record("release")
	f.releases++
}

func (f *fakeBackend) lastConfigure() configureCall {
	return f.configures[len(f.configures)-1]
}
