package palette

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/kartina/engine/audio"
	"github.com/Carmen-Shannon/kartina/engine/mesh"
)

// DefaultChunkSize is the number of vertices handed to one pool task.
const DefaultChunkSize = 256

type recolorer struct {
	mu        *sync.Mutex
	pool      worker.DynamicWorkerPool
	workers   int
	chunkSize int
	closed    bool
}

// Recolorer recolors vertex lists concurrently over a worker pool.
// Output is identical to Recolor for the same input.
type Recolorer interface {
	// Recolor assigns a color to every position using the frame's driver samples.
	//
	// Parameters:
	//   - positions: vertex positions in generation order
	//   - frame: the current audio frame
	//
	// Returns:
	//   - []mesh.Vertex: one vertex per position, in the same order
	Recolor(positions [][3]float32, frame audio.Frame) []mesh.Vertex

	// Close stops the worker pool. Subsequent Recolor calls run serially.
	Close()
}

// RecolorerBuilderOption is a functional option applied to a Recolorer during construction via NewRecolorer.
type RecolorerBuilderOption func(*recolorer)

// WithWorkers sets the maximum number of pool workers. Defaults to GOMAXPROCS.
//
// Parameters:
//   - n: the worker count (values below 1 are ignored)
//
// Returns:
//   - RecolorerBuilderOption: a function that applies the worker count
func WithWorkers(n int) RecolorerBuilderOption {
	return func(r *recolorer) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithChunkSize sets how many vertices one pool task colors.
//
// Parameters:
//   - n: the chunk size (values below 1 are ignored)
//
// Returns:
//   - RecolorerBuilderOption: a function that applies the chunk size
func WithChunkSize(n int) RecolorerBuilderOption {
	return func(r *recolorer) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

var _ Recolorer = &recolorer{}

// NewRecolorer creates a Recolorer backed by a dynamic worker pool.
//
// Parameters:
//   - options: variadic RecolorerBuilderOption functions
//
// Returns:
//   - Recolorer: the pooled recolorer
func NewRecolorer(options ...RecolorerBuilderOption) Recolorer {
	r := &recolorer{
		mu:        &sync.Mutex{},
		workers:   runtime.GOMAXPROCS(0),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range options {
		opt(r)
	}
	r.pool = worker.NewDynamicWorkerPool(r.workers, 64, time.Second)
	return r
}

func (r *recolorer) Recolor(positions [][3]float32, frame audio.Frame) []mesh.Vertex {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]mesh.Vertex, len(positions))
	drivers := frame.Drivers()

	if r.closed || len(positions) <= r.chunkSize {
		recolorRange(out, positions, drivers)
		return out
	}

	var wg sync.WaitGroup
	taskID := 0
	for start := 0; start < len(positions); start += r.chunkSize {
		end := min(start+r.chunkSize, len(positions))
		wg.Add(1)
		lo, hi := start, end
		r.pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				recolorRange(out[lo:hi], positions[lo:hi], drivers)
				return nil, nil
			},
		})
		taskID++
	}
	wg.Wait()

	return out
}

func (r *recolorer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.pool.Stop()
}
