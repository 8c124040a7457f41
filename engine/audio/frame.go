package audio

import (
	"encoding/binary"
	"time"
)

// FrameSamples is the number of samples per channel in one decoded frame.
// It matches one MPEG-1 Layer III frame and is used for every format.
const FrameSamples = 1152

// Frame is one decoded unit of interleaved signed 16-bit PCM.
type Frame struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Drivers returns the first three samples of the frame, the values that drive the palette.
// Missing samples read as zero.
//
// Returns:
//   - [3]int16: Samples[0], Samples[1], Samples[2]
func (f Frame) Drivers() [3]int16 {
	var d [3]int16
	copy(d[:], f.Samples)
	return d
}

// Duration returns the playback length of the frame.
//
// Returns:
//   - time.Duration: zero when the sample rate or channel count is unknown
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	perChannel := len(f.Samples) / f.Channels
	return time.Duration(perChannel) * time.Second / time.Duration(f.SampleRate)
}

// PCM encodes the samples as little-endian bytes for playback.
//
// Returns:
//   - []byte: 2 bytes per sample
func (f Frame) PCM() []byte {
	buf := make([]byte, len(f.Samples)*2)
	for i, s := range f.Samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
