// Package pool runs independent work items on a fixed set of goroutines.
package pool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool manages a fixed set of workers consuming a task queue.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	running   atomic.Bool
}

// New creates a worker pool. If workers is 0, it defaults to runtime.NumCPU().
func New(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*4),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *WorkerPool) Start() {
	if p.running.Swap(true) {
		return
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskQueue:
			if !ok {
				return
			}
			task()
		}
	}
}

// SubmitWait queues a task, blocking while the queue is full, until ctx is
// done or the pool stops.
func (p *WorkerPool) SubmitWait(ctx context.Context, task func()) error {
	if !p.running.Load() {
		return context.Canceled
	}

	select {
	case p.taskQueue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return context.Canceled
	}
}

// Stop drains queued tasks and waits for the workers to exit.
func (p *WorkerPool) Stop() {
	if !p.running.Swap(false) {
		return
	}

	close(p.taskQueue)
	p.wg.Wait()
	p.cancel()
}

// Map applies fn to every item on a temporary pool of the given size and
// returns the results in input order. The first error (by input index) is
// returned alongside the partial results.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))
	if len(items) == 0 {
		return results, nil
	}

	p := New(workers)
	p.Start()

	var wg sync.WaitGroup
	var submitErr error
	for i := range items {
		i := i
		wg.Add(1)
		err := p.SubmitWait(ctx, func() {
			defer wg.Done()
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			results[i], errs[i] = fn(ctx, items[i])
		})
		if err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}
	wg.Wait()
	p.Stop()

	if submitErr != nil {
		return results, submitErr
	}
	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
