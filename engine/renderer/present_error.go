package renderer

import (
	"errors"
	"strings"
)

// PresentErrorKind classifies a failed frame.
type PresentErrorKind int

const (
	// PresentErrorTransient covers an outdated surface or an acquisition timeout.
	// The frame is skipped and the next tick proceeds unmodified.
	PresentErrorTransient PresentErrorKind = iota

	// PresentErrorLost means the surface must be reconfigured with Resize before the next frame.
	PresentErrorLost

	// PresentErrorOutOfMemory is unrecoverable; the caller must shut down.
	PresentErrorOutOfMemory

	// PresentErrorDeviceLost means the GPU device itself is gone. Reconfiguring the
	// surface cannot recover it; the caller must shut down.
	PresentErrorDeviceLost
)

// Fatal reports whether the kind requires shutdown.
func (k PresentErrorKind) Fatal() bool {
	return k == PresentErrorOutOfMemory || k == PresentErrorDeviceLost
}

func (k PresentErrorKind) String() string {
	switch k {
	case PresentErrorTransient:
		return "transient"
	case PresentErrorLost:
		return "lost"
	case PresentErrorOutOfMemory:
		return "out of memory"
	case PresentErrorDeviceLost:
		return "device lost"
	default:
		return "unknown"
	}
}

var (
	// ErrNotReady is returned when the Renderer is used outside the Ready state.
	ErrNotReady = errors.New("renderer: not ready")

	// ErrSurfaceLost is the cause attached to Lost errors raised by the Renderer itself.
	ErrSurfaceLost = errors.New("renderer: surface lost")

	// ErrZeroSize is the cause attached to frames skipped while the surface has no area.
	ErrZeroSize = errors.New("renderer: surface has zero size")
)

// PresentError is the classified failure of a Render call.
type PresentError struct {
	Kind PresentErrorKind
	Err  error
}

func (e *PresentError) Error() string {
	if e.Err == nil {
		return "present: " + e.Kind.String()
	}
	return "present: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *PresentError) Unwrap() error {
	return e.Err
}

// AsPresentError extracts a *PresentError from err.
//
// Parameters:
//   - err: the error returned by Render
//
// Returns:
//   - *PresentError: the classified error, or nil
//   - bool: true when err carries a PresentError
func AsPresentError(err error) (*PresentError, bool) {
	var pe *PresentError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// classify maps a backend error onto the present error taxonomy.
// Anything not recognized as lost, device lost or out of memory is treated as transient.
func classify(err error) *PresentError {
	if pe, ok := AsPresentError(err); ok {
		return pe
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "out of memory"), strings.Contains(msg, "outofmemory"):
		return &PresentError{Kind: PresentErrorOutOfMemory, Err: err}
	case strings.Contains(msg, "device-lost"), strings.Contains(msg, "device lost"), strings.Contains(msg, "devicelost"):
		return &PresentError{Kind: PresentErrorDeviceLost, Err: err}
	case strings.Contains(msg, "lost"):
		return &PresentError{Kind: PresentErrorLost, Err: err}
	default:
		return &PresentError{Kind: PresentErrorTransient, Err: err}
	}
}
