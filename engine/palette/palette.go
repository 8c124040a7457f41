package palette

import (
	"errors"
	"math"

	"github.com/Carmen-Shannon/kartina/engine/audio"
	"github.com/Carmen-Shannon/kartina/engine/mesh"
)

// ErrDivisionByZero is returned by ColorFor when the blue driver sample is zero.
var ErrDivisionByZero = errors.New("palette: blue channel divides by a zero sample")

// ColorFor maps one vertex position and the three driver samples of an audio frame to a color.
//
//	r = x · samples[2] mod 256
//	g = y · samples[1] mod 256
//	b = z / samples[0] mod 256
//
// The remainder is the non-negative one, so every channel lands in [0, 256).
//
// Parameters:
//   - position: the vertex position as generated
//   - samples: the first three samples of the frame
//
// Returns:
//   - [3]float32: the color
//   - error: ErrDivisionByZero when samples[0] is zero; the returned color then carries b = 0
func ColorFor(position [3]float32, samples [3]int16) ([3]float32, error) {
	color := [3]float32{
		mod256(position[0] * float32(samples[2])),
		mod256(position[1] * float32(samples[1])),
	}
	if samples[0] == 0 {
		return color, ErrDivisionByZero
	}
	color[2] = mod256(position[2] / float32(samples[0]))
	return color, nil
}

// Recolor assigns a color to every position using the frame's driver samples.
// It never fails: a zero blue driver resolves to b = 0.
//
// Parameters:
//   - positions: vertex positions in generation order
//   - frame: the current audio frame
//
// Returns:
//   - []mesh.Vertex: one vertex per position, in the same order
func Recolor(positions [][3]float32, frame audio.Frame) []mesh.Vertex {
	out := make([]mesh.Vertex, len(positions))
	recolorRange(out, positions, frame.Drivers())
	return out
}

func recolorRange(dst []mesh.Vertex, positions [][3]float32, drivers [3]int16) {
	for i, p := range positions {
		c, _ := ColorFor(p, drivers)
		dst[i] = mesh.Vertex{Position: p, Color: c}
	}
}

func mod256(v float32) float32 {
	r := float32(math.Mod(float64(v), 256))
	if r < 0 {
		r += 256
	}
	// r + 256 rounds up to 256 for tiny negative remainders
	if r >= 256 {
		r = 0
	}
	return r
}
