// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batchrun

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/dmsbatch/internal/artifacts"
	"github.com/matt-FFFFFF/dmsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/dmsbatch/internal/layout"
	"github.com/matt-FFFFFF/dmsbatch/internal/runbatch"
	"github.com/spf13/afero"
)

// artifactsPipeline is replaced in tests.
var artifactsPipeline = func(fs afero.Fs, summary layout.SummaryArtifactSet, samples []layout.OutputFileSet) producer {
	return artifacts.New(fs, summary, samples)
}

type producer interface {
	Produce(ctx context.Context) (runbatch.Results, error)
}

// commands returns one OSCommand per job, appending to the job's log.
func (r *Runner) commands() []runbatch.Runnable {
	cmds := make([]runbatch.Runnable, 0, len(r.jobs))

	for _, j := range r.jobs {
		cmd := &runbatch.OSCommand{
			BaseCommand: runbatch.NewBaseCommand(j.Name, "", runbatch.RunOnAlways, r.cfg.Env()),
			Path:        j.Program,
			Args:        j.Args(),
			LogPath:     layout.JobLogPath(r.cfg.OutDir, j.Name),
		}
		cmd.SetProgressReporter(r.reporter)
		cmds = append(cmds, cmd)
	}

	return cmds
}

// execute runs every job as one parallel batch and waits for all of them.
// The exit codes are logged here; whether the batch failed is decided by
// validation.
func (r *Runner) execute(ctx context.Context) runbatch.Results {
	batch := &runbatch.ParallelBatch{
		BaseCommand: runbatch.NewBaseCommand(r.cfg.SummaryPrefix, "", runbatch.RunOnAlways, nil),
		Commands:    r.commands(),
		MaxWorkers:  r.workers,
	}
	batch.SetProgressReporter(r.reporter)

	for i, cmd := range batch.Commands {
		ctxlog.Info(ctx, "submitting job", "job", cmd.GetLabel(), "command", r.jobs[i].String())
	}

	var results runbatch.Results
	if res := batch.Run(ctx); len(res) > 0 {
		results = res[0].Children
	}

	for _, res := range results {
		switch res.Status {
		case runbatch.ResultStatusError:
			ctxlog.Error(ctx, "job failed",
				"job", res.Label,
				"exitCode", res.ExitCode,
				"error", res.Error,
				"log", res.LogPath,
				"lastOutput", res.LastLine)
		case runbatch.ResultStatusSkipped:
			ctxlog.Warn(ctx, "job not started", "job", res.Label, "reason", res.Error)
		default:
			ctxlog.Info(ctx, "job finished", "job", res.Label, "duration", res.Duration.String())
		}
	}

	return results
}

func notStarted(results runbatch.Results) int {
	var n int

	for _, res := range results {
		if res.Status == runbatch.ResultStatusSkipped && errors.Is(res.Error, runbatch.ErrNotStarted) {
			n++
		}
	}

	return n
}
