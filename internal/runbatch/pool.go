// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"sync"

	"github.com/matt-FFFFFF/dmsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/dmsbatch/internal/progress"
)

var (
	// ErrNotStarted marks a submitted runnable that was never started because dispatch stopped.
	ErrNotStarted = errors.New("not started: dispatch stopped")
	// ErrPoolClosed marks a runnable submitted after JoinAll.
	ErrPoolClosed = errors.New("pool is closed")
)

// Handle tracks one submitted runnable.
type Handle struct {
	r       Runnable
	done    chan struct{}
	results Results
}

// Label returns the label of the submitted runnable.
func (h *Handle) Label() string {
	return h.r.GetLabel()
}

// Done is closed once the runnable has finished or was skipped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the runnable has finished and returns its results.
func (h *Handle) Wait() Results {
	<-h.done
	return h.results
}

func (h *Handle) finish(res Results) {
	h.results = res
	close(h.done)
}

// Pool runs runnables on a fixed number of workers.
//
// Submit hands a runnable to the next free worker, blocking while all are
// busy. Runnables are started in submission order but may finish in any
// order. JoinAll is the barrier: it returns once every submitted runnable has
// finished. Started runnables are never cancelled; when the dispatch context
// is done, runnables not yet handed to a worker are skipped instead.
type Pool struct {
	ctx      context.Context
	queue    chan *Handle
	wg       sync.WaitGroup
	mu       sync.RWMutex // write-held by JoinAll to close the queue; read-held by senders
	handleMu sync.Mutex   // guards handles
	handles  []*Handle
	closed   bool
	reporter progress.Reporter
}

// NewPool starts workers workers. Cancelling ctx stops dispatch only.
// workers below one is treated as one.
func NewPool(ctx context.Context, workers int, reporter progress.Reporter) *Pool {
	if workers < 1 {
		workers = 1
	}

	p := &Pool{
		ctx:      ctx,
		queue:    make(chan *Handle),
		reporter: progress.OrNull(reporter),
	}

	runCtx := context.WithoutCancel(ctx)

	p.wg.Add(workers)

	for range workers {
		go p.work(runCtx)
	}

	return p
}

func (p *Pool) work(ctx context.Context) {
	defer p.wg.Done()

	for h := range p.queue {
		h.finish(runSafely(ctx, h.r))
	}
}

func runSafely(ctx context.Context, r Runnable) (res Results) {
	defer func() {
		if v := recover(); v != nil {
			ctxlog.Error(ctx, "runnable panicked", "label", r.GetLabel(), "panic", v)
			res = Results{{
				Label:    r.GetLabel(),
				ExitCode: -1,
				Error:    NewErrFunctionCmdPanic(v),
				Status:   ResultStatusError,
			}}
		}
	}()

	return r.Run(ctx)
}

func (p *Pool) skipped(h *Handle) Results {
	res := &Result{Label: h.r.GetLabel(), Status: ResultStatusSkipped, Error: ErrNotStarted}
	reportResult(p.reporter, h.r.GetLabel(), res)

	return Results{res}
}

// Submit queues r and returns its handle.
func (p *Pool) Submit(r Runnable) *Handle {
	h := &Handle{r: r, done: make(chan struct{})}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		h.finish(Results{{Label: r.GetLabel(), Status: ResultStatusSkipped, Error: ErrPoolClosed}})
		return h
	}

	p.handleMu.Lock()
	p.handles = append(p.handles, h)
	p.handleMu.Unlock()

	p.reporter.Report(progress.NewEvent(r.GetLabel(), progress.EventQueued, "queued", progress.EventData{}))

	if p.ctx.Err() != nil {
		h.finish(p.skipped(h))
		return h
	}

	select {
	case p.queue <- h:
	case <-p.ctx.Done():
		h.finish(p.skipped(h))
	}

	return h
}

// JoinAll stops accepting work, waits for every submitted runnable and
// returns their results in submission order.
func (p *Pool) JoinAll() Results {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}

	p.mu.Unlock()

	p.handleMu.Lock()
	handles := p.handles
	p.handleMu.Unlock()

	p.wg.Wait()

	out := make(Results, 0, len(handles))
	for _, h := range handles {
		out = append(out, h.Wait()...)
	}

	return out
}
