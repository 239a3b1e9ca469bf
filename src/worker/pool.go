package worker

import (
	"context"
	"log"
	"runtime"
	"sync"

	"xshot/src/messages"
)

// Job is a blocking unit of work (native capture, offscreen export). Its
// result travels back to the event loop as a message.
type Job func(ctx context.Context) messages.Message

// ResultCallback is invoked on job completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(msg messages.Message)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx context.Context
	run Job
	cb  ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				msg := runWithContext(j.ctx, j.run)
				if msg == nil {
					log.Printf("Worker: job returned no message")
					continue
				}
				log.Printf("Worker: %s ready, invoking callback", msg.Type())
				j.cb(msg)
			}
		}()
	}
}

// Submit enqueues a job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, run Job, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, run: run, cb: cb}:
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

// runWithContext runs the job and recovers from panics so one bad capture
// cannot take the worker down. A panicking job yields no message.
func runWithContext(ctx context.Context, run Job) (msg messages.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker: job panicked: %v", r)
			msg = nil
		}
	}()
	if err := ctx.Err(); err != nil {
		log.Printf("Worker: starting job with cancelled context: %v", err)
	}
	return run(ctx)
}
