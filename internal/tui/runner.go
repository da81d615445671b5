// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/dmsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/dmsbatch/internal/progress"
)

// eventBuffer is the number of progress events held while the board redraws.
const eventBuffer = 256

// BatchFunc runs a batch that reports to the runner's Reporter.
type BatchFunc func(ctx context.Context) error

// Runner manages the job board and progress event integration.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *progress.ChannelReporter
	mutex    sync.Mutex
}

// NewRunner creates a job board. With exitWhenDone the board closes as soon
// as the batch returns instead of waiting for the user.
func NewRunner(exitWhenDone bool, opts ...tea.ProgramOption) *Runner {
	model := NewModel(nil)
	model.exitWhenDone = exitWhenDone

	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)

	return &Runner{
		model:    model,
		program:  tea.NewProgram(model, opts...),
		reporter: progress.NewChannelReporter(context.Background(), eventBuffer),
	}
}

// Reporter returns the progress reporter feeding this board. Events reported
// before Run are buffered.
func (r *Runner) Reporter() progress.Reporter {
	return r.reporter
}

// Model returns the board model.
func (r *Runner) Model() *Model {
	return r.model
}

// Run shows a row for each of jobs, starts the board and runs batch alongside
// it, returning the batch's error. Closing the board does not stop the batch;
// Run always waits for batch to return. A board failure is logged.
func (r *Runner) Run(ctx context.Context, jobs []string, batch BatchFunc) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.model.addJobs(jobs)

	r.reporter.Listen(progress.ListenerFunc(func(e progress.Event) {
		r.program.Send(ProgressEventMsg{Event: e})
	}))

	batchDone := make(chan error, 1)

	go func() {
		batchDone <- batch(ctx)
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	select {
	case err := <-batchDone:
		r.reporter.Close()
		r.program.Send(BatchCompletedMsg{Err: err})
		logBoardErr(ctx, <-tuiDone)

		return err

	case tuiErr := <-tuiDone:
		logBoardErr(ctx, tuiErr)

		err := <-batchDone
		r.reporter.Close()

		return err
	}
}

func logBoardErr(ctx context.Context, err error) {
	if err != nil {
		ctxlog.Warn(ctx, "job board stopped with an error", "error", err)
	}
}
