package walk

import "golang.org/x/sync/errgroup"

// pool runs tasks on at most limit goroutines. When every worker is busy,
// submit runs the task on the submitting goroutine instead of queueing it,
// so a worker never blocks waiting for another worker to free a slot.
type pool struct {
	g errgroup.Group
}

func newPool(limit int) *pool {
	p := &pool{}
	p.g.SetLimit(limit)
	return p
}

func (p *pool) submit(task func()) {
	if p.g.TryGo(func() error {
		task()
		return nil
	}) {
		return
	}
	task()
}

// run starts task on the pool and returns once it and everything it
// transitively submitted have finished.
func (p *pool) run(task func()) {
	p.g.Go(func() error {
		task()
		return nil
	})
	_ = p.g.Wait()
}
