package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// oggReader is the subset of oggvorbis.Reader used by oggSource.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
	Length() int64
}

type oggSource struct {
	dec        oggReader
	sampleRate int
	channels   int
	buf        []float32
	done       bool
}

func newOggSource(dec oggReader) *oggSource {
	channels := max(dec.Channels(), 1)
	return &oggSource{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   channels,
		buf:        make([]float32, FrameSamples*channels),
	}
}

func (s *oggSource) SampleRate() int { return s.sampleRate }
func (s *oggSource) Channels() int   { return s.channels }
func (s *oggSource) Close() error    { return nil }

func (s *oggSource) TotalFrames() int {
	n := s.dec.Length()
	if n <= 0 {
		return -1
	}
	return int((n + FrameSamples - 1) / FrameSamples)
}

func (s *oggSource) NextFrame() (Frame, error) {
	if s.done {
		return Frame{}, io.EOF
	}

	// the vorbis reader returns at most one packet per call
	filled := 0
	for filled < len(s.buf) {
		n, err := s.dec.Read(s.buf[filled:])
		filled += n
		if errors.Is(err, io.EOF) {
			s.done = true
			break
		}
		if err != nil {
			return Frame{}, fmt.Errorf("ogg: %w", err)
		}
		if n == 0 {
			break
		}
	}
	if filled == 0 {
		s.done = true
		return Frame{}, io.EOF
	}

	frame := Frame{
		Samples:    make([]int16, filled),
		SampleRate: s.sampleRate,
		Channels:   s.channels,
	}
	for i := range filled {
		frame.Samples[i] = clampInt16(int(s.buf[i] * 32767))
	}
	return frame, nil
}

// OggDecoder decodes Ogg Vorbis streams.
type OggDecoder struct{}

func (OggDecoder) Decode(r io.Reader) (Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStream, err)
	}
	return newOggSource(dec), nil
}
