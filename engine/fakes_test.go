package engine

import (
	"github.com/Carmen-Shannon/kartina/engine/audio"
	"github.com/Carmen-Shannon/kartina/engine/camera"
	"github.com/Carmen-Shannon/kartina/engine/mesh"
	"github.com/Carmen-Shannon/kartina/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

type pollResult struct {
	frame audio.Frame
	ok    bool
	err   error
}

// fakePoller replays scripted results and then reports no frame.
type fakePoller struct {
	results []pollResult
	polls   int
}

func (p *fakePoller) Poll() (audio.Frame, bool, error) {
	p.polls++
	if len(p.results) == 0 {
		return audio.Frame{}, false, nil
	}
	r := p.results[0]
	p.results = p.results[1:]
	return r.frame, r.ok, r.err
}

type renderCall struct {
	mesh    mesh.Mesh
	uniform camera.GPUUniform
}

// fakeRenderer pops one scripted error per Render call.
type fakeRenderer struct {
	renderErrs []error
	resizeErr  error
	panicMsg   string

	renders   []renderCall
	resizes   [][2]int
	shutdowns int
	calls     []string
	width     int
	height    int
}

var _ renderer.Renderer = &fakeRenderer{}

func (f *fakeRenderer) Init(width, height int) error {
	f.width, f.height = width, height
	return nil
}

func (f *fakeRenderer) Resize(width, height int) error {
	f.calls = append(f.calls, "resize")
	f.resizes = append(f.resizes, [2]int{width, height})
	if f.resizeErr != nil {
		return f.resizeErr
	}
	f.width, f.height = width, height
	return nil
}

func (f *fakeRenderer) Render(m mesh.Mesh, uniform camera.GPUUniform) error {
	f.calls = append(f.calls, "render")
	f.renders = append(f.renders, renderCall{m, uniform})
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if len(f.renderErrs) > 0 {
		err := f.renderErrs[0]
		f.renderErrs = f.renderErrs[1:]
		return err
	}
	return nil
}

func (f *fakeRenderer) Shutdown() {
	f.calls = append(f.calls, "shutdown")
	f.shutdowns++
}

func (f *fakeRenderer) State() renderer.State { return renderer.StateReady }

func (f *fakeRenderer) Config() renderer.SurfaceConfig {
	return renderer.SurfaceConfig{Width: uint32(f.width), Height: uint32(f.height)}
}

func (f *fakeRenderer) PipelineID() renderer.PipelineID { return 1 }

// fakeWindow delivers queued events from PollEvents.
type fakeWindow struct {
	onResize  func(width, height int)
	onKeyDown func(keyCode uint32)
	onClose   func()

	queued    []func(w *fakeWindow)
	polls     int
	width     int
	height    int
	destroyed bool
}

func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) { w.onResize = callback }
func (w *fakeWindow) SetKeyDownCallback(callback func(keyCode uint32))   { w.onKeyDown = callback }
func (w *fakeWindow) SetCloseCallback(callback func())                   { w.onClose = callback }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor         { return nil }
func (w *fakeWindow) IsRunning() bool                                    { return !w.destroyed }
func (w *fakeWindow) Close() error                                       { return nil }
func (w *fakeWindow) Width() int                                         { return w.width }
func (w *fakeWindow) Height() int                                        { return w.height }

func (w *fakeWindow) PollEvents() {
	w.polls++
	events := w.queued
	w.queued = nil
	for _, ev := range events {
		ev(w)
	}
}

func (w *fakeWindow) resize(width, height int) {
	w.queued = append(w.queued, func(w *fakeWindow) {
		w.width, w.height = width, height
		w.onResize(width, height)
	})
}

func (w *fakeWindow) key(code uint32) {
	w.queued = append(w.queued, func(w *fakeWindow) { w.onKeyDown(code) })
}

func (w *fakeWindow) close() {
	w.queued = append(w.queued, func(w *fakeWindow) { w.onClose() })
}

// destroy drops the window without firing the close callback.
func (w *fakeWindow) destroy() {
	w.queued = append(w.queued, func(w *fakeWindow) { w.destroyed = true })
}
