// Package workerpool provides a bounded worker pool with explicit
// submit/await semantics. The pool is sized once from configuration and
// reused across batches, bounding concurrent outbound calls.
package workerpool

import (
	"context"
	"sync"
)

// Task is a unit of work executed by the pool.
type Task func(ctx context.Context) error

// Pool runs tasks on a fixed number of workers.
type Pool struct {
	size  int
	tasks chan submission

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

type submission struct {
	ctx  context.Context
	task Task
	errs chan<- error
}

// New creates a pool with the given worker count. Counts below 1 are
// treated as 1.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		size:  size,
		tasks: make(chan submission),
		done:  make(chan struct{}),
	}
}

// Size returns the worker count.
func (p *Pool) Size() int {
	return p.size
}

// start launches the workers on first use.
func (p *Pool) start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.size; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case sub := <-p.tasks:
			if sub.ctx.Err() != nil {
				sub.errs <- sub.ctx.Err()
				continue
			}
			sub.errs <- sub.task(sub.ctx)
		}
	}
}

// Submit runs all tasks on the pool and blocks until every task has
// finished or ctx is cancelled. The returned slice has one entry per
// task, in task order; nil entries mean success.
func (p *Pool) Submit(ctx context.Context, tasks []Task) []error {
	if len(tasks) == 0 {
		return nil
	}
	p.start()

	results := make([]error, len(tasks))
	chans := make([]chan error, len(tasks))

	var feed sync.WaitGroup
	for i, task := range tasks {
		chans[i] = make(chan error, 1)
		feed.Add(1)
		go func(i int, task Task) {
			defer feed.Done()
			select {
			case p.tasks <- submission{ctx: ctx, task: task, errs: chans[i]}:
			case <-ctx.Done():
				chans[i] <- ctx.Err()
			case <-p.done:
				chans[i] <- context.Canceled
			}
		}(i, task)
	}

	for i := range chans {
		results[i] = <-chans[i]
	}
	feed.Wait()

	return results
}

// Close stops the workers. Pending Submit calls return with errors.
func (p *Pool) Close() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}
