// Package device simulates the device-side concurrency and memory
// primitives the builder's kernels run on: a Stream that launches
// block-parallel work and lets the host synchronize on it, and a
// MemoryResource abstraction for stream-ordered buffer allocation.
package device

import (
	"context"
	"sync"

	"github.com/lbvhgo/lbvh/pkg/parallel"
)

// BlockFunc is the body of one simulated thread-block: block is the
// block index, [lo, hi) is the half-open range of global thread
// indices it owns.
type BlockFunc func(block, lo, hi int)

type launch struct {
	n, blockWidth int
	fn            BlockFunc
}

// Stream serializes a sequence of kernel launches: each Launch call
// enqueues block-parallel work and returns immediately; launches run
// in submission order, each one fanned out across a worker pool (one
// Task per simulated thread-block). Sync blocks until everything
// submitted so far has completed.
type Stream struct {
	pool  *parallel.WorkerPool[int, struct{}]
	queue chan launch
	wg    sync.WaitGroup

	mu  sync.Mutex
	err error
}

// NewStream starts a stream backed by a worker pool with the given
// config. Call Close when the stream is no longer needed.
func NewStream(config parallel.PoolConfig) *Stream {
	s := &Stream{
		pool:  parallel.NewWorkerPool[int, struct{}](config),
		queue: make(chan launch, 64),
	}
	go s.run()
	return s
}

func (s *Stream) run() {
	for l := range s.queue {
		if err := s.execute(l); err != nil {
			s.mu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.mu.Unlock()
		}
		s.wg.Done()
	}
}

func (s *Stream) execute(l launch) error {
	if l.n <= 0 {
		return nil
	}
	numBlocks := (l.n + l.blockWidth - 1) / l.blockWidth
	blocks := make([]int, numBlocks)
	for i := range blocks {
		blocks[i] = i
	}
	results := s.pool.ExecuteFunc(context.Background(), blocks, func(_ context.Context, block int) (struct{}, error) {
		lo := block * l.blockWidth
		hi := lo + l.blockWidth
		if hi > l.n {
			hi = l.n
		}
		l.fn(block, lo, hi)
		return struct{}{}, nil
	})
	for _, r := range results {
		if r.Error != nil {
			return r.Error
		}
	}
	return nil
}

// Launch enqueues n work items split into blocks of blockWidth,
// invoking fn once per block. It returns once the launch is queued;
// it does not wait for fn to run.
func (s *Stream) Launch(ctx context.Context, n, blockWidth int, fn BlockFunc) {
	if blockWidth <= 0 {
		blockWidth = 1
	}
	s.wg.Add(1)
	select {
	case s.queue <- launch{n: n, blockWidth: blockWidth, fn: fn}:
	case <-ctx.Done():
		s.wg.Done()
	}
}

// Sync blocks until all launches submitted so far have completed and
// returns the first error any of them produced.
func (s *Stream) Sync(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close shuts down the stream's run loop. Callers must Sync before
// Close to avoid dropping queued work.
func (s *Stream) Close() {
	close(s.queue)
}
