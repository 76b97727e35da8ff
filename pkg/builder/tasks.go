package builder

import "golang.org/x/sync/errgroup"

// taskPool runs detached async work on a bounded set of goroutines,
// applying backpressure by blocking submission when full
type taskPool struct {
	group *errgroup.Group
}

func newTaskPool(limit int) *taskPool {
	g := &errgroup.Group{}
	if limit > 0 {
		g.SetLimit(limit)
	}
	return &taskPool{group: g}
}

// Go submits fn to the pool, blocking while the pool is at its limit
func (p *taskPool) Go(fn func()) {
	metricAsyncTasks.Inc()
	p.group.Go(func() error {
		defer metricAsyncTasks.Dec()
		fn()
		return nil
	})
}
