// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"

	"github.com/matt-FFFFFF/dmsbatch/internal/ctxlog"
)

var _ Runnable = (*ParallelBatch)(nil)

// ParallelBatch runs its commands on a Pool of at most MaxWorkers workers.
// A zero MaxWorkers runs every command at once. Children results are in
// command order.
type ParallelBatch struct {
	*BaseCommand
	Commands   []Runnable
	MaxWorkers int
}

// Run implements the Runnable interface for ParallelBatch.
// Cancelling ctx stops commands that have not started; it never interrupts running ones.
func (b *ParallelBatch) Run(ctx context.Context) Results {
	logger := ctxlog.Logger(ctx).With("runnableType", "ParallelBatch", "label", FullLabel(b))

	workers := b.MaxWorkers
	if workers <= 0 || workers > len(b.Commands) {
		workers = len(b.Commands)
	}

	logger.Debug("starting pool", "workers", workers, "commands", len(b.Commands))

	pool := NewPool(ctx, workers, b.reporter)

	for _, cmd := range b.Commands {
		cmd.SetParent(b)
		cmd.InheritEnv(b.Env)
		cmd.SetProgressReporter(b.reporter)
		pool.Submit(cmd)
	}

	children := pool.JoinAll()

	res := &Result{
		Label:    b.Label,
		Children: children,
		Status:   ResultStatusSuccess,
	}

	if children.HasError() {
		res.ExitCode = -1
		res.Error = ErrResultChildrenHasError
		res.Status = ResultStatusError
	}

	return Results{res}
}
