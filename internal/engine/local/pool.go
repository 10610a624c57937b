package local

import "sync"

// taskPool runs task functions on a fixed number of workers and collects
// their errors. close blocks until every submitted task finished, which
// makes it the barrier between stages.
type taskPool struct {
	workers int
	tasks   chan func() error

	mu   sync.Mutex
	errs []error

	wg sync.WaitGroup
}

func newTaskPool(workers int) *taskPool {
	return &taskPool{
		workers: workers,
		tasks:   make(chan func() error),
	}
}

func (p *taskPool) start() {
	for range p.workers {
		p.wg.Go(func() {
			for task := range p.tasks {
				if err := task(); err != nil {
					p.mu.Lock()
					p.errs = append(p.errs, err)
					p.mu.Unlock()
				}
			}
		})
	}
}

func (p *taskPool) submit(task func() error) {
	p.tasks <- task
}

func (p *taskPool) close() []error {
	close(p.tasks)
	p.wg.Wait()
	return p.errs
}
