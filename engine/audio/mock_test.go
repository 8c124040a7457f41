package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sync"
)

// fakeSource yields a fixed list of frames followed by err (io.EOF when nil).
type fakeSource struct {
	mu     sync.Mutex
	frames []Frame
	err    error
	calls  int
	closed bool
}

func (s *fakeSource) NextFrame() (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.frames) == 0 {
		if s.err != nil {
			return Frame{}, s.err
		}
		return Frame{}, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *fakeSource) SampleRate() int  { return 44100 }
func (s *fakeSource) Channels() int    { return 2 }
func (s *fakeSource) TotalFrames() int { return -1 }

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// recordingPlayer captures every write.
type recordingPlayer struct {
	mu     sync.Mutex
	writes [][]byte
	fail   bool
	closed bool
}

func (p *recordingPlayer) Write(pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("device gone")
	}
	p.writes = append(p.writes, pcm)
	return nil
}

func (p *recordingPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type countingProgress struct {
	mu       sync.Mutex
	n        int
	finished bool
}

func (p *countingProgress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n += n
}

func (p *countingProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = true
}

// mockMP3Reader serves int16 samples as little-endian bytes.
type mockMP3Reader struct {
	sampleRate int
	samples    []int16
	offset     int
	failAfter  int
}

func (m *mockMP3Reader) SampleRate() int { return m.sampleRate }
func (m *mockMP3Reader) Length() int64   { return int64(len(m.samples) * 2) }

func (m *mockMP3Reader) Read(buf []byte) (int, error) {
	if m.failAfter > 0 && m.offset >= m.failAfter {
		return 0, io.ErrClosedPipe
	}
	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}
	n := min(len(buf)/2, len(m.samples)-m.offset)
	for i := range n {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(m.samples[m.offset+i]))
	}
	m.offset += n
	return n * 2, nil
}

// mockOggReader serves float samples, at most packet values per call.
type mockOggReader struct {
	channels int
	samples  []float32
	offset   int
	packet   int
}

func (m *mockOggReader) SampleRate() int { return 22050 }
func (m *mockOggReader) Channels() int   { return m.channels }
func (m *mockOggReader) Length() int64   { return int64(len(m.samples) / m.channels) }

func (m *mockOggReader) Read(buf []float32) (int, error) {
	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}
	n := min(len(buf), m.packet, len(m.samples)-m.offset)
	copy(buf, m.samples[m.offset:m.offset+n])
	m.offset += n
	return n, nil
}

// wavFile builds a canonical 16-bit PCM RIFF/WAVE file.
func wavFile(sampleRate, channels int, samples []int16) []byte {
	buf := new(bytes.Buffer)
	dataSize := uint32(len(samples) * 2)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	for _, s := range samples {
		binary.Write(buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}
