package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrUnsupportedFormat is returned when no decoder is registered for a file extension.
	ErrUnsupportedFormat = errors.New("audio: unsupported format")

	// ErrInvalidStream is returned when a decoder rejects its input.
	ErrInvalidStream = errors.New("audio: invalid stream")
)

// Source produces decoded frames in playback order.
type Source interface {
	// NextFrame decodes the next frame.
	//
	// Returns:
	//   - Frame: the decoded frame
	//   - error: io.EOF once the stream is exhausted, any other error is a decode failure
	NextFrame() (Frame, error)

	// SampleRate of the PCM stream in Hz.
	SampleRate() int

	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int

	// TotalFrames estimates the number of frames in the stream, or -1 when unknown.
	TotalFrames() int

	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry maps file extensions (without the dot, lower case) to decoders.
type Registry struct {
	codecs map[string]Decoder
	mtx    *sync.Mutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

// DefaultRegistry returns a Registry with the mp3, wav and ogg decoders registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("mp3", MP3Decoder{})
	r.Register("wav", WAVDecoder{})
	r.Register("ogg", OggDecoder{})
	return r
}

// Register adds or replaces the decoder for a format key.
func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[strings.ToLower(format)] = d
}

// Get looks up the decoder for a format key.
func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[strings.ToLower(format)]
	return d, ok
}

// Open decodes the file at path with the decoder registered for its extension.
// The returned Source owns the file and closes it on Close.
//
// Parameters:
//   - path: the audio file path
//   - registry: the decoder registry, DefaultRegistry() when nil
//
// Returns:
//   - Source: the decoding source
//   - error: ErrUnsupportedFormat, a file error, or the decoder's error
func Open(path string, registry *Registry) (Source, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	dec, ok := registry.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audio file: %w", err)
	}
	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &fileSource{Source: src, file: f}, nil
}

// IsEndOfStream reports whether err marks the normal end of a Source.
func IsEndOfStream(err error) bool {
	return errors.Is(err, io.EOF)
}

type fileSource struct {
	Source
	file *os.File
}

func (s *fileSource) Close() error {
	return errors.Join(s.Source.Close(), s.file.Close())
}

// readSeeker returns r as an io.ReadSeeker, buffering it in memory when it cannot seek.
func readSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// clampInt16 saturates v into the int16 range.
func clampInt16(v int) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return int16(v)
}
