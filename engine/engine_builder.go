package engine

import (
	"time"

	"github.com/Carmen-Shannon/kartina/engine/camera"
	"github.com/Carmen-Shannon/kartina/engine/mesh"
	"github.com/Carmen-Shannon/kartina/engine/palette"
	"github.com/Carmen-Shannon/kartina/engine/renderer"
	"github.com/Carmen-Shannon/kartina/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithWindow sets the window whose events the engine processes each tick.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the initialized renderer the engine draws with and shuts down on exit.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithStaging sets the camera and rotation staging advanced every tick.
//
// Parameters:
//   - s: the uniform staging
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStaging(s camera.UniformStaging) EngineBuilderOption {
	return func(e *engine) {
		e.staging = s
	}
}

// WithMesh sets the base mesh. Its positions and indices are kept; colors are replaced per frame.
//
// Parameters:
//   - m: the generated mesh
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMesh(m mesh.Mesh) EngineBuilderOption {
	return func(e *engine) {
		e.positions = m.Positions()
		e.current = m
	}
}

// WithFramePoller sets the audio frame source polled once per tick.
//
// Parameters:
//   - p: the poller, typically an *audio.FrameSlot
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFramePoller(p FramePoller) EngineBuilderOption {
	return func(e *engine) {
		e.poller = p
	}
}

// WithRecolorer sets a pooled recolorer. Without one, recoloring runs serially.
//
// Parameters:
//   - r: the recolorer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRecolorer(r palette.Recolorer) EngineBuilderOption {
	return func(e *engine) {
		e.recolorer = r
	}
}

// WithRenderFrameLimit sets an optional tick rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum ticks per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
