// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"

	"github.com/matt-FFFFFF/dmsbatch/internal/ctxlog"
)

var _ Runnable = (*SerialBatch)(nil)

// SerialBatch runs its commands one after another in order. A command whose
// run condition is not met is recorded as skipped.
type SerialBatch struct {
	*BaseCommand
	Commands []Runnable
}

// Run implements the Runnable interface for SerialBatch.
func (b *SerialBatch) Run(ctx context.Context) Results {
	logger := ctxlog.Logger(ctx).With("runnableType", "SerialBatch", "label", FullLabel(b))
	results := make(Results, 0, len(b.Commands))

	prev := PreviousCommandStatus{State: ResultStatusSuccess}

	for _, cmd := range b.Commands {
		cmd.SetParent(b)
		cmd.InheritEnv(b.Env)
		cmd.SetProgressReporter(b.reporter)

		if err := ctx.Err(); err != nil {
			results = append(results, &Result{Label: cmd.GetLabel(), Status: ResultStatusSkipped, Error: err})
			continue
		}

		switch cmd.ShouldRun(prev) {
		case ShouldRunActionSkip:
			results = append(results, &Result{Label: cmd.GetLabel(), Status: ResultStatusSkipped, Error: ErrSkipIntentional})
			continue
		case ShouldRunActionError:
			logger.Debug("skipping after earlier failure", "command", cmd.GetLabel())
			results = append(results, &Result{Label: cmd.GetLabel(), Status: ResultStatusSkipped, Error: ErrSkipOnError})

			continue
		}

		child := cmd.Run(ctx)
		if len(child) > 0 {
			prev = PreviousCommandStatus{State: child[0].Status, ExitCode: child[0].ExitCode, Err: child[0].Error}
		}

		results = append(results, child...)
	}

	res := &Result{
		Label:    b.Label,
		Children: results,
		Status:   ResultStatusSuccess,
	}

	if results.HasError() {
		res.ExitCode = -1
		res.Error = ErrResultChildrenHasError
		res.Status = ResultStatusError
	}

	return Results{res}
}
