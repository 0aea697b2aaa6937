package batch

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Job processes the file at one index of a listing
type Job func(ctx context.Context, index int)

// WorkerPool runs a Job for each submitted index on a fixed number of
// goroutines. Once ctx is done, queued indexes are dropped and Submit
// refuses new ones.
type WorkerPool struct {
	ctx     context.Context
	workers int
	job     Job
	queue   chan int
	wg      sync.WaitGroup
	once    sync.Once
	skipped atomic.Int64
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(ctx context.Context, workers int, job Job) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		ctx:     ctx,
		workers: workers,
		job:     job,
		queue:   make(chan int, workers*2),
	}
}

// Start initializes and starts all workers in the pool
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for index := range wp.queue {
		if wp.ctx.Err() != nil {
			wp.skipped.Add(1)
		} else {
			wp.job(wp.ctx, index)
		}
		wp.wg.Done()
	}
}

// Submit queues index for processing. It blocks while the queue is full and
// returns the context error once the pool's context is done.
func (wp *WorkerPool) Submit(index int) error {
	if err := wp.ctx.Err(); err != nil {
		return err
	}
	wp.wg.Add(1)
	select {
	case wp.queue <- index:
		return nil
	case <-wp.ctx.Done():
		wp.wg.Done()
		return wp.ctx.Err()
	}
}

// Skipped reports how many queued indexes were dropped after cancellation
func (wp *WorkerPool) Skipped() int {
	return int(wp.skipped.Load())
}

// Wait waits for all submitted jobs to complete
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	close(wp.queue)
}
