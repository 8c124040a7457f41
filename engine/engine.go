package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/kartina/common"
	"github.com/Carmen-Shannon/kartina/engine/audio"
	"github.com/Carmen-Shannon/kartina/engine/camera"
	"github.com/Carmen-Shannon/kartina/engine/mesh"
	"github.com/Carmen-Shannon/kartina/engine/palette"
	"github.com/Carmen-Shannon/kartina/engine/profiler"
	"github.com/Carmen-Shannon/kartina/engine/renderer"
	"github.com/Carmen-Shannon/kartina/engine/window"
)

var (
	// ErrFatalGPU marks termination caused by an unrecoverable GPU condition.
	ErrFatalGPU = errors.New("engine: fatal GPU error")

	// ErrDecode marks termination caused by an audio decode error other than end of stream.
	ErrDecode = errors.New("engine: audio decode error")

	// ErrNotConfigured is returned by Run when a required collaborator is missing.
	ErrNotConfigured = errors.New("engine: missing renderer, staging or frame poller")
)

// FramePoller is the non-blocking consumer side of the audio hand-off.
// audio.FrameSlot satisfies it.
type FramePoller interface {
	// Poll takes the latest frame, if any.
	//
	// Returns:
	//   - audio.Frame: the frame when ok is true
	//   - bool: true when a new frame was taken
	//   - error: io.EOF at end of stream, any other error is a decode failure
	Poll() (audio.Frame, bool, error)
}

// TickResult reports what one Tick did.
type TickResult struct {
	// NewFrame is true when an audio frame was consumed and the mesh recolored.
	NewFrame bool

	// Outcome is the render outcome of the tick.
	Outcome profiler.Outcome

	// Shutdown is true once the shutdown flag is set.
	Shutdown bool
}

// engine implements the Engine interface.
// Everything except Quit is confined to the goroutine calling Run or Tick.
type engine struct {
	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window    window.Window
	renderer  renderer.Renderer
	staging   camera.UniformStaging
	poller    FramePoller
	recolorer palette.Recolorer

	positions [][3]float32
	current   mesh.Mesh

	shuttingDown bool
	streamDone   bool
	fatal        error

	// window events collected during PollEvents, applied after
	pendingResize  bool
	resizeWidth    int
	resizeHeight   int
	closeRequested bool

	lastSkipLog time.Time
	skipCount   int

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum tick duration; 0 = uncapped
}

// Engine is the frame loop coordinator.
// It owns the renderer and drives one tick per redraw: poll audio, recolor, advance the camera,
// process window events and render.
type Engine interface {
	// Tick runs one iteration of the frame loop.
	//
	// Returns:
	//   - TickResult: what the tick did
	Tick() TickResult

	// Run loops Tick until shutdown or ctx cancellation, then shuts the renderer down.
	// Blocks until done.
	//
	// Parameters:
	//   - ctx: cancels the loop like a close request
	//
	// Returns:
	//   - error: nil on graceful termination, an error wrapping ErrFatalGPU or ErrDecode otherwise
	Run(ctx context.Context) error

	// Quit requests a graceful shutdown. Safe to call from any goroutine and multiple times.
	Quit()

	// ShuttingDown reports whether the shutdown flag is set.
	//
	// Returns:
	//   - bool: true once shutdown was requested
	ShuttingDown() bool

	// Err returns the fatal error recorded so far, if any.
	//
	// Returns:
	//   - error: the fatal error or nil
	Err() error

	// Mesh returns the mesh the next render will draw.
	//
	// Returns:
	//   - mesh.Mesh: the current mesh
	Mesh() mesh.Mesh
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the provided options.
// The base mesh is rendered with its generated colors until the first audio frame arrives.
//
// Parameters:
//   - options: functional options supplying collaborators and tuning
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel: make(chan struct{}),
		profiler:    profiler.NewProfiler(),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			e.pendingResize = true
			e.resizeWidth = width
			e.resizeHeight = height
		})
		e.window.SetKeyDownCallback(func(keyCode uint32) {
			if keyCode == common.KeyEsc {
				e.closeRequested = true
			}
		})
		e.window.SetCloseCallback(func() {
			e.closeRequested = true
		})
	}

	return e
}

func (e *engine) Tick() TickResult {
	res := TickResult{Outcome: profiler.OutcomeIdle}
	if e.shuttingDown {
		res.Shutdown = true
		return res
	}

	if !e.streamDone && e.poller != nil {
		frame, ok, err := e.poller.Poll()
		switch {
		case err != nil && audio.IsEndOfStream(err):
			e.streamDone = true
			log.Printf("[Engine] audio stream ended, shutting down")
			e.requestShutdown()
			res.Shutdown = true
			return res
		case err != nil:
			e.streamDone = true
			e.setFatal(fmt.Errorf("%w: %w", ErrDecode, err))
			res.Shutdown = true
			return res
		case ok:
			e.current = e.current.WithColors(e.recolor(frame))
			res.NewFrame = true
		}
	}

	if e.staging != nil {
		e.staging.Update()
	}

	e.processEvents()

	if !e.shuttingDown {
		res.Outcome = e.render()
	}
	res.Shutdown = e.shuttingDown
	return res
}

func (e *engine) Run(ctx context.Context) (err error) {
	if e.renderer == nil || e.staging == nil || e.poller == nil {
		return ErrNotConfigured
	}

	// A panic inside the loop becomes a fatal shutdown instead of crashing the process.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] render loop recovered from panic: %v", r)
			e.renderer.Shutdown()
			err = fmt.Errorf("%w: panic: %v", ErrFatalGPU, r)
		}
	}()

	for {
		start := time.Now()

		select {
		case <-ctx.Done():
			e.requestShutdown()
		case <-e.quitChannel:
			e.requestShutdown()
		default:
		}

		res := e.Tick()
		if e.profilingEnabled && e.profiler != nil {
			e.profiler.Tick(res.Outcome, res.NewFrame)
		}
		if res.Shutdown {
			break
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}

	e.renderer.Shutdown()
	if e.fatal != nil {
		log.Printf("[Engine] terminated: %v", e.fatal)
		return e.fatal
	}
	log.Printf("[Engine] shut down cleanly")
	return nil
}

// Quit signals the loop to stop at the next tick.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) ShuttingDown() bool {
	return e.shuttingDown
}

func (e *engine) Err() error {
	return e.fatal
}

func (e *engine) Mesh() mesh.Mesh {
	return e.current
}

func (e *engine) recolor(frame audio.Frame) []mesh.Vertex {
	if e.recolorer != nil {
		return e.recolorer.Recolor(e.positions, frame)
	}
	return palette.Recolor(e.positions, frame)
}

// processEvents pumps the window and applies what it delivered.
func (e *engine) processEvents() {
	if e.window != nil {
		e.window.PollEvents()
		// a window destroyed outside the close callback still ends the loop
		if !e.window.IsRunning() {
			e.closeRequested = true
		}
	}

	if e.pendingResize {
		e.pendingResize = false
		e.resize(e.resizeWidth, e.resizeHeight)
	}
	if e.closeRequested {
		log.Printf("[Engine] close requested, shutting down")
		e.requestShutdown()
	}
}

func (e *engine) resize(width, height int) {
	if e.renderer != nil {
		if err := e.renderer.Resize(width, height); err != nil {
			log.Printf("[Engine] resize to %dx%d failed: %v", width, height, err)
		}
	}
	if e.staging != nil && width > 0 && height > 0 {
		e.staging.Camera().SetAspectFromSize(width, height)
		e.staging.Refresh()
	}
}

// render draws the current mesh and applies the error policy.
// A lost surface is reconfigured at its current size and the frame retried once.
func (e *engine) render() profiler.Outcome {
	if e.renderer == nil || e.staging == nil {
		return profiler.OutcomeIdle
	}

	err := e.renderer.Render(e.current, e.staging.Uniform())
	if err == nil {
		return profiler.OutcomePresented
	}

	pe, ok := renderer.AsPresentError(err)
	if !ok {
		e.setFatal(fmt.Errorf("%w: %w", ErrFatalGPU, err))
		return profiler.OutcomeIdle
	}

	switch pe.Kind {
	case renderer.PresentErrorLost:
		cfg := e.renderer.Config()
		width, height := int(cfg.Width), int(cfg.Height)
		if e.window != nil {
			width, height = e.window.Width(), e.window.Height()
		}
		log.Printf("[Engine] surface lost, reconfiguring at %dx%d", width, height)
		if rerr := e.renderer.Resize(width, height); rerr != nil {
			log.Printf("[Engine] reconfigure failed: %v", rerr)
			return profiler.OutcomeSkipped
		}
		err = e.renderer.Render(e.current, e.staging.Uniform())
		if err == nil {
			return profiler.OutcomeRecovered
		}
		if pe, ok = renderer.AsPresentError(err); ok && pe.Kind.Fatal() {
			e.setFatal(fmt.Errorf("%w: %w", ErrFatalGPU, err))
			return profiler.OutcomeIdle
		}
		e.logSkip(err)
		return profiler.OutcomeSkipped

	case renderer.PresentErrorOutOfMemory, renderer.PresentErrorDeviceLost:
		e.setFatal(fmt.Errorf("%w: %w", ErrFatalGPU, err))
		return profiler.OutcomeIdle

	default:
		e.logSkip(err)
		return profiler.OutcomeSkipped
	}
}

// logSkip logs skipped frames at most once per second.
func (e *engine) logSkip(err error) {
	e.skipCount++
	now := time.Now()
	if now.Sub(e.lastSkipLog) < time.Second {
		return
	}
	log.Printf("[Engine] skipped %d frame(s): %v", e.skipCount, err)
	e.lastSkipLog = now
	e.skipCount = 0
}

func (e *engine) requestShutdown() {
	e.shuttingDown = true
}

// setFatal records the first fatal error and requests shutdown.
func (e *engine) setFatal(err error) {
	if e.fatal == nil {
		e.fatal = err
		log.Printf("[Engine] fatal: %v", err)
	}
	e.requestShutdown()
}
