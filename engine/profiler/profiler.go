package profiler

import (
	"fmt"
	"log"
	"runtime"
	"time"
)

// Outcome classifies what one coordinator tick did with its frame.
type Outcome int

const (
	// OutcomePresented means a frame reached the screen.
	OutcomePresented Outcome = iota
	// OutcomeSkipped means the tick skipped presenting on a transient surface condition.
	OutcomeSkipped
	// OutcomeRecovered means the surface was lost and reconfigured during the tick.
	OutcomeRecovered
	// OutcomeIdle means nothing was rendered (shutting down).
	OutcomeIdle
)

// Stats is one reporting window of tick statistics.
type Stats struct {
	Elapsed   time.Duration
	Ticks     int
	Presented int
	Skipped   int
	Recovered int
	AudioFeed int
}

// TickRate returns ticks per second over the window.
func (s Stats) TickRate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Ticks) / s.Elapsed.Seconds()
}

func (s Stats) String() string {
	return fmt.Sprintf("TPS: %.2f | Presented: %d | Skipped: %d | Recovered: %d | Audio frames: %d",
		s.TickRate(), s.Presented, s.Skipped, s.Recovered, s.AudioFeed)
}

// Profiler tracks tick rate, frame outcomes and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	current        Stats
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	now            func() time.Time
	logf           func(format string, v ...any)
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		now:            time.Now,
		logf:           log.Printf,
	}
}

// Tick should be called once per coordinator tick.
// Logs statistics when the update interval has elapsed.
// Statistics include: tick rate, frame outcomes, heap usage, allocation rate, GC count/pause times, total memory.
//
// Parameters:
//   - outcome: what the tick did
//   - newFrame: whether the tick consumed a fresh audio frame
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(outcome Outcome, newFrame bool) bool {
	p.current.Ticks++
	switch outcome {
	case OutcomePresented:
		p.current.Presented++
	case OutcomeSkipped:
		p.current.Skipped++
	case OutcomeRecovered:
		p.current.Recovered++
	}
	if newFrame {
		p.current.AudioFeed++
	}

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}
	p.current.Elapsed = elapsed

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.logf("[Profiler] %s | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		p.current, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.current = Stats{}
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
