package parallel

import (
	"context"
	"sync"
	"time"
)

// Result describes one finished unit of work.
type Result struct {
	ID       string
	Err      error
	Duration time.Duration
}

// WorkerPool manages concurrent execution with bounded concurrency.
type WorkerPool struct {
	maxWorkers int
	semaphore  chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	onDone     func(Result)
}

// NewWorkerPool creates a new worker pool with bounded concurrency.
// If maxWorkers is 0 or negative, every submission runs immediately.
// onDone, when non-nil, is called from the worker goroutine after each
// function returns.
func NewWorkerPool(ctx context.Context, maxWorkers int, onDone func(Result)) *WorkerPool {
	if maxWorkers < 0 {
		maxWorkers = 0
	}
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
		onDone:     onDone,
	}
}

// Submit runs fn on its own goroutine. If the pool is at capacity, Submit
// blocks until a worker becomes available or the context is cancelled.
// It reports whether fn was started.
func (p *WorkerPool) Submit(id string, fn func(ctx context.Context) error) bool {
	if p.ctx.Err() != nil {
		return false
	}
	if p.maxWorkers > 0 {
		select {
		case p.semaphore <- struct{}{}:
		case <-p.ctx.Done():
			return false
		}
		// A slot freed by a cancelled worker must not admit new work.
		if p.ctx.Err() != nil {
			<-p.semaphore
			return false
		}
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if p.maxWorkers > 0 {
			defer func() { <-p.semaphore }()
		}

		start := time.Now()
		err := fn(p.ctx)
		if p.onDone != nil {
			p.onDone(Result{ID: id, Err: err, Duration: time.Since(start)})
		}
	}()
	return true
}

// Wait blocks until every started function has returned.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Cancel stops further submissions and cancels the context passed to
// running functions.
func (p *WorkerPool) Cancel() {
	p.cancel()
}

// MaxWorkers returns the concurrency limit, 0 meaning unbounded.
func (p *WorkerPool) MaxWorkers() int {
	return p.maxWorkers
}
