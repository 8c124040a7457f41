package palette

import (
	"testing"

	"github.com/Carmen-Shannon/kartina/engine/audio"
	"github.com/Carmen-Shannon/kartina/engine/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameOf(samples ...int16) audio.Frame {
	return audio.Frame{Samples: samples, SampleRate: 44100, Channels: 2}
}

func TestColorFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		pos     [3]float32
		samples [3]int16
		want    [3]float32
		wantErr error
	}{
		{"basic", [3]float32{2, 3, 4}, [3]int16{8, 10, 20}, [3]float32{40, 30, 0.5}, nil},
		{"wraps above 256", [3]float32{1, 1, 512}, [3]int16{1, 300, 257}, [3]float32{1, 44, 0}, nil},
		{"negative wraps", [3]float32{-1, 0.5, -2}, [3]int16{1, -4, 10}, [3]float32{246, 254, 254}, nil},
		{"zero blue driver", [3]float32{2, 3, 4}, [3]int16{0, 10, 20}, [3]float32{40, 30, 0}, ErrDivisionByZero},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ColorFor(tc.pos, tc.samples)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.InDeltaSlice(t, tc.want[:], got[:], 1e-4)
		})
	}
}

func TestColorFor_RangeForFullSphere(t *testing.T) {
	t.Parallel()

	m := mesh.GenerateSphere(1)
	for _, s := range [][3]int16{{1, 1, 1}, {-32768, 32767, -1}, {7, -300, 12345}} {
		for _, p := range m.Positions() {
			c, err := ColorFor(p, s)
			require.NoError(t, err)
			for _, ch := range c {
				assert.GreaterOrEqual(t, ch, float32(0))
				assert.Less(t, ch, float32(256))
			}
		}
	}
}

func TestRecolor(t *testing.T) {
	t.Parallel()

	positions := [][3]float32{{2, 3, 4}, {0, 0, 0}, {-1, 1, 1}}
	out := Recolor(positions, frameOf(8, 10, 20, 99, 99))

	require.Len(t, out, 3)
	for i, v := range out {
		assert.Equal(t, positions[i], v.Position)
	}
	assert.InDeltaSlice(t, []float32{40, 30, 0.5}, out[0].Color[:], 1e-4)
	assert.Equal(t, [3]float32{}, out[1].Color)
}

func TestRecolor_ZeroBlueDriverNeverFails(t *testing.T) {
	t.Parallel()

	out := Recolor([][3]float32{{2, 3, 4}}, frameOf(0, 10, 20))
	assert.InDeltaSlice(t, []float32{40, 30, 0}, out[0].Color[:], 1e-4)
}

func TestRecolor_ShortFrameReadsZero(t *testing.T) {
	t.Parallel()

	out := Recolor([][3]float32{{2, 3, 4}}, frameOf(8))
	assert.Equal(t, [3]float32{0, 0, 0.5}, out[0].Color)
}

func TestRecolor_Idempotent(t *testing.T) {
	t.Parallel()

	positions := mesh.GenerateSphere(1, mesh.WithStacks(6), mesh.WithSectors(8)).Positions()
	f := frameOf(321, -17, 4000)
	first := Recolor(positions, f)

	again := make([][3]float32, len(first))
	for i, v := range first {
		again[i] = v.Position
	}
	assert.Equal(t, first, Recolor(again, f))
}

func TestRecolorer_MatchesSerial(t *testing.T) {
	t.Parallel()

	r := NewRecolorer(WithWorkers(4), WithChunkSize(7))
	defer r.Close()

	positions := mesh.GenerateSphere(1.5).Positions()
	for _, f := range []audio.Frame{frameOf(3, 5, 7), frameOf(0, -9, 11), frameOf(-32768, 32767, 1)} {
		assert.Equal(t, Recolor(positions, f), r.Recolor(positions, f))
	}
}

func TestRecolorer_SmallInputAndClose(t *testing.T) {
	t.Parallel()

	r := NewRecolorer(WithWorkers(2))
	positions := [][3]float32{{2, 3, 4}}
	f := frameOf(8, 10, 20)

	assert.Equal(t, Recolor(positions, f), r.Recolor(positions, f))

	r.Close()
	r.Close()

	big := mesh.GenerateSphere(1).Positions()
	assert.Equal(t, Recolor(big, f), r.Recolor(big, f))
}

func TestRecolorer_IgnoresInvalidOptions(t *testing.T) {
	t.Parallel()

	r := NewRecolorer(WithWorkers(0), WithChunkSize(-3)).(*recolorer)
	defer r.Close()

	assert.Equal(t, DefaultChunkSize, r.chunkSize)
	assert.Positive(t, r.workers)
}
