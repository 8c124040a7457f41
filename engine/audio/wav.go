package audio

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavReader is the subset of wav.Decoder used by wavSource.
type wavReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type wavSource struct {
	dec        wavReader
	sampleRate int
	channels   int
	bitDepth   int
	total      int
	intBuf     *goaudio.IntBuffer
	done       bool
}

func newWAVSource(dec wavReader, bitDepth, totalSamples int) *wavSource {
	format := dec.Format()
	s := &wavSource{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   max(format.NumChannels, 1),
		bitDepth:   bitDepth,
		total:      -1,
	}
	s.intBuf = &goaudio.IntBuffer{
		Data:           make([]int, FrameSamples*s.channels),
		Format:         format,
		SourceBitDepth: bitDepth,
	}
	if totalSamples >= 0 {
		per := FrameSamples * s.channels
		s.total = (totalSamples + per - 1) / per
	}
	return s
}

func (s *wavSource) SampleRate() int  { return s.sampleRate }
func (s *wavSource) Channels() int    { return s.channels }
func (s *wavSource) TotalFrames() int { return s.total }
func (s *wavSource) Close() error     { return nil }

func (s *wavSource) NextFrame() (Frame, error) {
	if s.done {
		return Frame{}, io.EOF
	}

	s.intBuf.Data = s.intBuf.Data[:cap(s.intBuf.Data)]
	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return Frame{}, fmt.Errorf("wav: %w", err)
	}
	if n == 0 {
		s.done = true
		return Frame{}, io.EOF
	}
	if n < len(s.intBuf.Data) || err != nil {
		s.done = true
	}

	frame := Frame{
		Samples:    make([]int16, n),
		SampleRate: s.sampleRate,
		Channels:   s.channels,
	}
	for i := range n {
		frame.Samples[i] = toInt16(s.intBuf.Data[i], s.bitDepth)
	}
	return frame, nil
}

// toInt16 rescales a go-audio integer sample of the given bit depth to signed 16 bits.
func toInt16(v, bitDepth int) int16 {
	switch bitDepth {
	case 8:
		// 8-bit PCM is unsigned
		return clampInt16((v - 128) << 8)
	case 24:
		return clampInt16(v >> 8)
	case 32:
		return clampInt16(v >> 16)
	default:
		return clampInt16(v)
	}
}

// WAVDecoder decodes RIFF/WAVE PCM streams.
type WAVDecoder struct{}

func (WAVDecoder) Decode(r io.Reader) (Source, error) {
	rs, err := readSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("reading wav data: %w", err)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a wav file", ErrInvalidStream)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStream, err)
	}
	if dec.Format() == nil {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrInvalidStream)
	}

	bitDepth := int(dec.BitDepth)
	total := -1
	if bitDepth > 0 {
		total = int(dec.PCMLen()) / (bitDepth / 8)
	}
	return newWAVSource(dec, bitDepth, total), nil
}
