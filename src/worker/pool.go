package worker

import (
	"context"
	"log"
	"sync"
)

// Job is one capture-and-recognize operation producing text.
type Job func(ctx context.Context) (string, error)

// ResultCallback is invoked on job completion from a worker goroutine. The
// event loop should pass a closure that posts back into the loop safely.
type ResultCallback func(text string, err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict
// back-pressure): a submission while the slot is taken is refused, not
// queued. OCR is the only long-running work in this program, so one job in
// flight plus one waiting is the most that ever makes sense.
type Pool struct {
	jobs chan queued
	wg   sync.WaitGroup
}

type queued struct {
	ctx context.Context
	job Job
	cb  ResultCallback
}

// New creates a pool with n workers; n<=0 means 1.
func New(n int) *Pool {
	if n <= 0 {
		n = 1
	}
	p := &Pool{jobs: make(chan queued, 1)}
	p.start(n)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for q := range p.jobs {
				text, err := q.job(q.ctx)
				if err != nil {
					log.Printf("Worker: job failed: %v", err)
				}
				q.cb(text, err)
			}
		}()
	}
}

// Submit enqueues a job if the single-slot queue is free. Returns false if
// the job was dropped.
func (p *Pool) Submit(ctx context.Context, job Job, cb ResultCallback) bool {
	select {
	case p.jobs <- queued{ctx: ctx, job: job, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
