package connection

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Backpressure implements spec.md §4.5: a gate Stage() blocks on before a
// request is enqueued, so memory doesn't grow without bound when the
// server falls behind.
type Backpressure interface {
	// Acquire blocks until a slot is available, or ctx is done.
	Acquire(ctx context.Context) error
	// Release frees a slot, called on acknowledgement.
	Release()
}

// LimitSize is a semaphore-style counted gate: Stage blocks until the
// current in-flight count is below N. golang.org/x/sync/semaphore gives a
// weighted, context-cancelable acquire, which is exactly what spec.md
// §4.5 asks for ("stage must not hold the RequestQueue lock while
// blocked on backpressure" — semaphore.Weighted's Acquire takes no other
// lock).
type LimitSize struct {
	sem *semaphore.Weighted
}

// NewLimitSize returns a Backpressure that admits at most n in-flight
// requests. Spec.md §6.5 defaults N to 262144.
func NewLimitSize(n int64) *LimitSize {
	return &LimitSize{sem: semaphore.NewWeighted(n)}
}

func (l *LimitSize) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *LimitSize) Release() {
	l.sem.Release(1)
}

// Infinite never gates; Stage never blocks.
type Infinite struct{}

func (Infinite) Acquire(ctx context.Context) error { return nil }
func (Infinite) Release()                          {}
