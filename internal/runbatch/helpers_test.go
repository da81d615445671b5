// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matt-FFFFFF/dmsbatch/internal/progress"
)

type fakeCmd struct {
	*BaseCommand
	delay    time.Duration
	exitCode int
	err      error
	release  chan struct{}
	ranCtx   context.Context
	counter  *concurrency
}

func newFakeCmd(label string) *fakeCmd {
	return &fakeCmd{BaseCommand: NewBaseCommand(label, "", RunOnSuccess, nil)}
}

// Run implements the Runnable interface for fakeCmd.
func (f *fakeCmd) Run(ctx context.Context) Results {
	f.ranCtx = ctx

	if f.counter != nil {
		f.counter.enter()
		defer f.counter.leave()
	}

	if f.release != nil {
		<-f.release
	}

	time.Sleep(f.delay)

	status := ResultStatusSuccess
	if f.err != nil || f.exitCode != 0 {
		status = ResultStatusError
	}

	return Results{&Result{
		Label:    f.Label,
		ExitCode: f.exitCode,
		Error:    f.err,
		Status:   status,
	}}
}

type concurrency struct {
	cur  atomic.Int32
	peak atomic.Int32
}

func (c *concurrency) enter() {
	n := c.cur.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (c *concurrency) leave() {
	c.cur.Add(-1)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *eventRecorder) OnEvent(e progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

func (r *eventRecorder) types(job string) []progress.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []progress.EventType

	for _, e := range r.events {
		if e.Job == job {
			out = append(out, e.Type)
		}
	}

	return out
}

func newRecorder(ctx context.Context) (*progress.ChannelReporter, *eventRecorder) {
	cr := progress.NewChannelReporter(ctx, 256)
	rec := &eventRecorder{}
	cr.Listen(rec)

	return cr, rec
}
