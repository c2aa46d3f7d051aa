// Package workerpool implements a bounded concurrency model: one in-flight
// evaluation per logical request, parallelism across requests bounded by a
// fixed-size worker pool. Unlike a fire-and-forget callback pool, Submit
// blocks the caller until the job completes (or the context is cancelled):
// the request handler awaits a free worker, dispatches the request
// synchronously to it, and awaits the result.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Submit once the pool has been closed.
var ErrClosed = errors.New("workerpool: pool is closed")

// Pool bounds how many jobs run concurrently. Size() workers max; excess
// Submit calls block until a slot frees up or the caller's context is done.
// The bound is enforced by a weighted semaphore rather than a hand-rolled
// buffered channel of tokens.
type Pool struct {
	size      int
	sem       *semaphore.Weighted
	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    chan struct{}
}

// New builds a Pool with the given number of concurrent slots. size <= 0
// defaults to runtime.NumCPU().
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{
		size:   size,
		sem:    semaphore.NewWeighted(int64(size)),
		closed: make(chan struct{}),
	}
}

// Size returns the pool's configured concurrency limit.
func (p *Pool) Size() int {
	return p.size
}

// Close stops accepting new jobs and waits for every Submit call in progress
// to return. A job whose caller's context was cancelled may still be running
// in the background and is not waited for. Safe to call more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.wg.Wait()
	})
}

// Submit runs job in a pool-bounded goroutine and blocks until it returns, the
// context is cancelled, or the pool is closed -- whichever happens first. A
// panic inside job is recovered and returned as an error rather than
// crashing the worker.
func Submit[T any](ctx context.Context, p *Pool, job func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	select {
	case <-p.closed:
		return zero, ErrClosed
	default:
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer p.sem.Release(1)

	p.wg.Add(1)
	defer p.wg.Done()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{zero, fmt.Errorf("workerpool: job panicked: %v", r)}
			}
		}()
		v, err := job(ctx)
		done <- outcome{v, err}
	}()

	select {
	case out := <-done:
		return out.val, out.err
	case <-ctx.Done():
		// Cancellation has no fine-grained hook into the core: the job
		// keeps running to completion in the background and its result is
		// discarded once done drains into the buffer.
		return zero, ctx.Err()
	}
}
