package workers

import "context"

// Pool is a bounded slot pool used as a backpressure mechanism for
// CPU-heavy pipeline work. Saturation makes callers queue in Acquire
// rather than spawning unbounded parallel decodes, which bounds peak
// memory (each in-flight video decode holds its candidate buffers
// until scoring completes).
type Pool struct {
	slots chan struct{}
}

// NewPool creates a pool with the given number of slots. A size below
// one is treated as one.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Acquire blocks until a slot is free or the context is canceled.
// It returns the context error on cancellation so a disconnected
// client never occupies a slot.
func (p *Pool) Acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot previously obtained via Acquire.
func (p *Pool) Release() {
	<-p.slots
}

// Size returns the pool's slot count.
func (p *Pool) Size() int {
	return cap(p.slots)
}

// InUse returns the number of currently occupied slots.
func (p *Pool) InUse() int {
	return len(p.slots)
}
