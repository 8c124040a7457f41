package audio

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

type producer struct {
	mu       *sync.Mutex
	source   Source
	slot     *FrameSlot
	player   Player
	progress Progress
	paced    bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Producer decodes a Source on its own goroutine and publishes every frame into a FrameSlot,
// pacing itself at playback speed.
type Producer interface {
	// Start launches the decode goroutine. Calling Start more than once has no effect.
	//
	// Parameters:
	//   - ctx: cancelling ctx stops the producer
	Start(ctx context.Context)

	// Stop cancels the producer and waits for its goroutine to exit.
	Stop()
}

// ProducerBuilderOption is a functional option applied to a Producer during construction via NewProducer.
type ProducerBuilderOption func(*producer)

// WithPlayer plays every frame through p. Blocking writes pace the producer.
//
// Parameters:
//   - p: the Player, nil for silent playback
//
// Returns:
//   - ProducerBuilderOption: a function that applies the player option
func WithPlayer(p Player) ProducerBuilderOption {
	return func(pr *producer) {
		pr.player = p
	}
}

// WithProgress reports every published frame to p.
//
// Parameters:
//   - p: the Progress reporter
//
// Returns:
//   - ProducerBuilderOption: a function that applies the progress option
func WithProgress(p Progress) ProducerBuilderOption {
	return func(pr *producer) {
		pr.progress = p
	}
}

// WithPacing enables or disables real-time pacing when no Player is set. Enabled by default.
//
// Parameters:
//   - paced: false to publish frames as fast as they decode
//
// Returns:
//   - ProducerBuilderOption: a function that applies the pacing option
func WithPacing(paced bool) ProducerBuilderOption {
	return func(pr *producer) {
		pr.paced = paced
	}
}

var _ Producer = &producer{}

// NewProducer creates a Producer reading from source and publishing into slot.
// The producer closes the source and the player when it exits.
//
// Parameters:
//   - source: the decoded audio stream
//   - slot: the hand-off slot read by the frame loop
//   - options: variadic ProducerBuilderOption functions
//
// Returns:
//   - Producer: the producer, not yet started
func NewProducer(source Source, slot *FrameSlot, options ...ProducerBuilderOption) Producer {
	p := &producer{
		mu:     &sync.Mutex{},
		source: source,
		slot:   slot,
		paced:  true,
		done:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *producer) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
}

func (p *producer) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-p.done
}

func (p *producer) run(ctx context.Context) {
	defer close(p.done)
	defer p.release()

	var ticker *time.Ticker
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		if ctx.Err() != nil {
			p.slot.Finish(nil)
			return
		}

		frame, err := p.source.NextFrame()
		if err != nil {
			if IsEndOfStream(err) {
				p.slot.Finish(nil)
				return
			}
			log.Printf("[Audio] decode failed: %v", err)
			p.slot.Finish(fmt.Errorf("decoding frame: %w", err))
			return
		}

		p.slot.Publish(frame)
		if p.progress != nil {
			p.progress.Add(1)
		}

		if p.player != nil {
			if err := p.player.Write(frame.PCM()); err != nil {
				log.Printf("[Audio] playback stopped, continuing silently: %v", err)
				p.player.Close()
				p.player = nil
			}
			continue
		}

		if !p.paced {
			continue
		}
		d := frame.Duration()
		if d <= 0 {
			continue
		}
		if ticker == nil {
			ticker = time.NewTicker(d)
		}
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}

func (p *producer) release() {
	if p.progress != nil {
		p.progress.Finish()
	}
	if p.player != nil {
		p.player.Close()
	}
	if err := p.source.Close(); err != nil {
		log.Printf("[Audio] closing source: %v", err)
	}
}
