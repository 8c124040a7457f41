package audio

import (
	"io"
	"sync/atomic"
)

type slotEnd struct {
	err error
}

// FrameSlot hands frames from one producer to one consumer without locks.
// It holds at most one frame: Publish overwrites a frame that was not yet taken,
// and Take consumes the held frame at most once.
type FrameSlot struct {
	frame atomic.Pointer[Frame]
	end   atomic.Pointer[slotEnd]
}

// NewFrameSlot creates an empty FrameSlot.
func NewFrameSlot() *FrameSlot {
	return &FrameSlot{}
}

// Publish stores frame, replacing any frame not yet taken.
// Publishing after Finish is ignored.
func (s *FrameSlot) Publish(frame Frame) {
	if s.end.Load() != nil {
		return
	}
	s.frame.Store(&frame)
}

// Take removes and returns the held frame without blocking.
//
// Returns:
//   - Frame: the frame, zero when none was held
//   - bool: true when a frame was taken
func (s *FrameSlot) Take() (Frame, bool) {
	p := s.frame.Swap(nil)
	if p == nil {
		return Frame{}, false
	}
	return *p, true
}

// Finish marks the stream as over. A nil err is recorded as io.EOF.
// Only the first call has any effect.
func (s *FrameSlot) Finish(err error) {
	if err == nil {
		err = io.EOF
	}
	s.end.CompareAndSwap(nil, &slotEnd{err: err})
}

// Err reports the terminal error once the stream is finished and the last frame was taken.
//
// Returns:
//   - error: nil while frames may still arrive, io.EOF at normal end, otherwise the decode error
func (s *FrameSlot) Err() error {
	end := s.end.Load()
	if end == nil || s.frame.Load() != nil {
		return nil
	}
	return end.err
}

// Poll takes the held frame, or reports the terminal error once nothing is left.
//
// Returns:
//   - Frame: the frame when ok is true
//   - bool: true when a frame was taken
//   - error: io.EOF at end of stream, a decode error, or nil
func (s *FrameSlot) Poll() (Frame, bool, error) {
	if f, ok := s.Take(); ok {
		return f, true, nil
	}
	end := s.end.Load()
	if end == nil {
		return Frame{}, false, nil
	}
	// a frame published before Finish is visible once end is observed
	if f, ok := s.Take(); ok {
		return f, true, nil
	}
	return Frame{}, false, end.err
}
