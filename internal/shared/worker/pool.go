// Package worker runs background work on a bounded goroutine pool.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var (
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrPoolBusy returned by a non-blocking pool with every worker taken
	ErrPoolBusy = errors.New("worker pool is busy")
)

type options struct {
	nonblocking bool
}

// Option configures NewPool.
type Option func(*options)

// Nonblocking makes Submit fail with ErrPoolBusy instead of waiting for a free worker.
func Nonblocking() Option {
	return func(o *options) { o.nonblocking = true }
}

// Task context-aware unit of work
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission.
type Pool struct {
	pool   *ants.Pool
	name   string
	logger *zap.Logger

	// lifecycle context of detached tasks
	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

// NewPool creates a pool of size workers, blocking unless Nonblocking is given.
func NewPool(ctx context.Context, name string, size int, logger *zap.Logger, opts ...Option) (*Pool, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if size < 1 {
		size = 1
	}
	serviceCtx, cancel := context.WithCancel(ctx)

	p, err := ants.NewPool(size,
		ants.WithPanicHandler(func(v interface{}) {
			logger.Error("worker panic recovered",
				zap.String("pool", name),
				zap.Any("panic", v),
				zap.Stack("stack"))
		}),
		ants.WithNonblocking(o.nonblocking),
		ants.WithExpiryDuration(30*time.Second),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	return &Pool{pool: p, name: name, logger: logger, serviceCtx: serviceCtx, serviceCancel: cancel}, nil
}

// Submit queues task with the caller's context. A task still queued when ctx
// is cancelled is skipped.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := p.pool.Submit(func() {
		select {
		case <-ctx.Done():
			p.logger.Debug("task skipped: context cancelled", zap.String("pool", p.name), zap.Error(ctx.Err()))
			return
		default:
		}
		task(ctx)
	})
	return mapErr(err)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ants.ErrPoolClosed):
		return ErrPoolClosed
	case errors.Is(err, ants.ErrPoolOverload):
		return ErrPoolBusy
	}
	return err
}

// Run submits every task and waits for all of them. Tasks still queued when
// ctx is cancelled are skipped.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	var wg sync.WaitGroup
	for _, task := range tasks {
		task := task
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			task(ctx)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return mapErr(err)
		}
	}
	wg.Wait()
	return ctx.Err()
}

// SubmitDetached queues task on the pool lifecycle context so it outlives the request.
func (p *Pool) SubmitDetached(task Task) error {
	return p.Submit(p.serviceCtx, task)
}

// Stats running/free/cap counters
func (p *Pool) Stats() map[string]int {
	return map[string]int{
		"running": p.pool.Running(),
		"free":    p.pool.Free(),
		"cap":     p.pool.Cap(),
	}
}

// Shutdown cancels detached tasks and waits up to timeout for running ones.
func (p *Pool) Shutdown(timeout time.Duration) {
	p.serviceCancel()
	if err := p.pool.ReleaseTimeout(timeout); err != nil {
		p.logger.Warn("worker pool shutdown timeout", zap.String("pool", p.name), zap.Error(err))
	}
}
