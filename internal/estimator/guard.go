package estimator

import (
	"context"

	"github.com/sadopc/fitfeast/internal/diary"
	"golang.org/x/sync/semaphore"
)

// Guarded lets one estimate run at a time. Extra calls fail fast with
// ErrBusy rather than queueing.
type Guarded struct {
	next Estimator
	sem  *semaphore.Weighted
}

func Guard(next Estimator) *Guarded {
	return &Guarded{next: next, sem: semaphore.NewWeighted(1)}
}

func (g *Guarded) Estimate(ctx context.Context, description string) (diary.Draft, error) {
	if !g.sem.TryAcquire(1) {
		return diary.Draft{}, ErrBusy
	}
	defer g.sem.Release(1)
	return g.next.Estimate(ctx, description)
}

// Busy reports whether an estimate is in flight.
func (g *Guarded) Busy() bool {
	if g.sem.TryAcquire(1) {
		g.sem.Release(1)
		return false
	}
	return true
}
