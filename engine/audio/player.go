package audio

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"
)

// Player plays interleaved signed 16-bit little-endian PCM.
type Player interface {
	// Write queues pcm for playback. It blocks while the output buffer is full,
	// which paces the caller at playback speed.
	//
	// Parameters:
	//   - pcm: interleaved int16 LE samples
	//
	// Returns:
	//   - error: an error if the output is closed or failed
	Write(pcm []byte) error

	// Close ends the stream, lets already queued audio finish for a bounded time,
	// then releases the output.
	Close() error
}

const (
	// DefaultDrainTimeout bounds how long Close waits for queued audio to play out.
	DefaultDrainTimeout = 2 * time.Second

	drainPollInterval = 10 * time.Millisecond
)

type otoPlayer struct {
	mu           *sync.Mutex
	pw           *io.PipeWriter
	player       oto.Player
	closed       bool
	drainTimeout time.Duration
}

var _ Player = &otoPlayer{}

// NewOtoPlayer opens the default audio output through oto.
// Only one oto context may exist per process.
//
// Parameters:
//   - sampleRate: the stream sample rate in Hz
//   - channels: the stream channel count
//
// Returns:
//   - Player: the started player
//   - error: an error if the audio device could not be opened
func NewOtoPlayer(sampleRate, channels int) (Player, error) {
	ctx, ready, err := oto.NewContext(sampleRate, channels, oto.FormatSignedInt16LE)
	if err != nil {
		return nil, fmt.Errorf("opening audio output: %w", err)
	}
	<-ready

	pr, pw := io.Pipe()
	p := ctx.NewPlayer(pr)
	p.Play()

	return &otoPlayer{
		mu:           &sync.Mutex{},
		pw:           pw,
		player:       p,
		drainTimeout: DefaultDrainTimeout,
	}, nil
}

func (p *otoPlayer) Write(pcm []byte) error {
	_, err := p.pw.Write(pcm)
	return err
}

func (p *otoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	// the reader sees EOF once the pipe is closed; oto stops playing when its buffer runs dry
	werr := p.pw.Close()
	if !waitDrained(p.player.IsPlaying, p.drainTimeout, drainPollInterval) {
		log.Printf("[Audio] output still playing after %s, closing anyway", p.drainTimeout)
	}
	return errors.Join(werr, p.player.Close())
}

// waitDrained polls playing until it reports false or timeout elapses.
//
// Returns:
//   - bool: true when playback finished before the timeout
func waitDrained(playing func() bool, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for playing() {
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(interval)
	}
	return true
}
