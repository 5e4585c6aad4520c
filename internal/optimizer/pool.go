package optimizer

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"

	"castos/internal/metrics"
)

// Pool bounds how many jobs train a policy at the same time.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool returns a pool with size slots. A non-positive size uses half the
// available CPUs, at least one.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = max(1, runtime.NumCPU()/2)
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of slots.
func (p *Pool) Size() int { return p.size }

// Do runs fn while holding a slot. It blocks until a slot is free or ctx is
// done.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if p == nil {
		return fn()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	metrics.TrainingSlotsInUse.Inc()
	defer func() {
		metrics.TrainingSlotsInUse.Dec()
		p.sem.Release(1)
	}()
	return fn()
}
