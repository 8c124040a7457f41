package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// mp3Reader is the subset of gomp3.Decoder used by mp3Source.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
	Length() int64
}

type mp3Source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	done       bool
}

func newMP3Source(dec mp3Reader) *mp3Source {
	return &mp3Source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		// go-mp3 always emits stereo 16-bit little-endian PCM
		buf: make([]byte, FrameSamples*2*2),
	}
}

func (s *mp3Source) SampleRate() int { return s.sampleRate }
func (s *mp3Source) Channels() int   { return 2 }
func (s *mp3Source) Close() error    { return nil }

func (s *mp3Source) TotalFrames() int {
	n := s.dec.Length()
	if n < 0 {
		return -1
	}
	per := int64(len(s.buf))
	return int((n + per - 1) / per)
}

func (s *mp3Source) NextFrame() (Frame, error) {
	if s.done {
		return Frame{}, io.EOF
	}

	n, err := io.ReadFull(s.dec, s.buf)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
	case err != nil:
		return Frame{}, fmt.Errorf("mp3: %w", err)
	}

	samples := n / 2
	if samples == 0 {
		return Frame{}, io.EOF
	}
	frame := Frame{
		Samples:    make([]int16, samples),
		SampleRate: s.sampleRate,
		Channels:   2,
	}
	for i := range samples {
		frame.Samples[i] = int16(binary.LittleEndian.Uint16(s.buf[2*i:]))
	}
	return frame, nil
}

// MP3Decoder decodes MPEG-1/2 Layer III streams.
type MP3Decoder struct{}

func (MP3Decoder) Decode(r io.Reader) (Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStream, err)
	}
	return newMP3Source(dec), nil
}
