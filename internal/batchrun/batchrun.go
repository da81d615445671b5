// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batchrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/dmsbatch/internal/compose"
	"github.com/matt-FFFFFF/dmsbatch/internal/config"
	"github.com/matt-FFFFFF/dmsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/dmsbatch/internal/fetch"
	"github.com/matt-FFFFFF/dmsbatch/internal/jobtable"
	"github.com/matt-FFFFFF/dmsbatch/internal/layout"
	"github.com/matt-FFFFFF/dmsbatch/internal/progress"
	"github.com/matt-FFFFFF/dmsbatch/internal/runbatch"
	"github.com/matt-FFFFFF/dmsbatch/internal/validate"
	"github.com/spf13/afero"
)

const outDirPerm = 0o755

// FsFactory returns the filesystem the batch reads and writes.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

var (
	// ErrLoadBatch is returned when the batch file cannot be read.
	ErrLoadBatch = errors.New("failed to load batch file")
	// ErrOutDir is returned when the output directory cannot be created.
	ErrOutDir = errors.New("failed to create output directory")
	// ErrInterrupted is returned when dispatch was stopped before every job started.
	ErrInterrupted = errors.New("batch interrupted, not every job was started")
	// ErrCleanup is returned when summary artifacts could not be removed.
	ErrCleanup = errors.New("failed to remove summary artifacts")
	// ErrAlreadyRun is returned when Run is called a second time.
	ErrAlreadyRun = errors.New("batch already run")
	// ErrNameClash is returned when a job is named like the summary prefix,
	// which would make its log the batch log.
	ErrNameClash = errors.New("job name equals the summary prefix")
)

// Option configures a Runner.
type Option func(r *Runner)

// WithReporter sends job progress events to reporter.
func WithReporter(reporter progress.Reporter) Option {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

// WithTransitionHook calls fn on every state change.
func WithTransitionHook(fn TransitionFunc) Option {
	return func(r *Runner) {
		r.onTransition = fn
	}
}

// Outcome is the result of a batch run.
type Outcome struct {
	RunID     string
	State     State            // StateDone or StateFailed
	Skipped   bool             // every output already existed and nothing ran
	Jobs      runbatch.Results // one result per job, in table order
	Artifacts runbatch.Results // the summary artifact steps
	Removed   []string         // summary artifacts deleted by cleanup
}

// Runner is a prepared batch. It runs once.
type Runner struct {
	cfg          config.GlobalConfig
	table        *jobtable.Table
	jobs         []compose.Job
	unknown      []string
	workers      int
	runID        string
	fs           afero.Fs
	summary      layout.SummaryArtifactSet
	outputs      []layout.OutputFileSet
	reporter     progress.Reporter
	onTransition TransitionFunc
	state        State
}

// Prepare parses the batch file, composes every job and resolves the worker
// count. It touches nothing on disk but the batch file.
func Prepare(ctx context.Context, cfg config.GlobalConfig, opts ...Option) (*Runner, error) {
	fs := FsFactory()

	table, err := loadTable(ctx, fs, cfg)
	if err != nil {
		return nil, err
	}

	if slices.Contains(table.Names(), cfg.SummaryPrefix) {
		return nil, fmt.Errorf("%w: %w: %q", config.ErrInvalidConfig, ErrNameClash, cfg.SummaryPrefix)
	}

	jobs, err := compose.All(cfg.Profile, table, cfg.Globals())
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	for i := range jobs {
		jobs[i] = jobs[i].WithProgram(cfg.Program)
	}

	workers, err := runbatch.ResolveWorkers(cfg.NCPUs)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	r := &Runner{
		cfg:      cfg,
		table:    table,
		jobs:     jobs,
		unknown:  compose.UnknownColumns(cfg.Profile, table.Header()),
		workers:  workers,
		runID:    uuid.NewString(),
		fs:       fs,
		summary:  layout.NewSummaryArtifactSet(cfg.OutDir, cfg.SummaryPrefix),
		outputs:  validate.OutputSets(cfg.OutDir, table.Names(), cfg.Profile.OutputKinds()),
		reporter: progress.NullReporter{},
		state:    StateInit,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.reporter = progress.OrNull(r.reporter)

	return r, nil
}

func loadTable(ctx context.Context, fs afero.Fs, cfg config.GlobalConfig) (*jobtable.Table, error) {
	required := cfg.Profile.RequiredColumns()

	if !fetch.IsRemote(cfg.BatchFile) {
		t, err := jobtable.ParseFile(fs, cfg.BatchFile, required)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		return t, nil
	}

	b, err := fetch.Get(ctx, cfg.BatchFile)
	if err != nil {
		return nil, errors.Join(ErrLoadBatch, err)
	}

	t, err := jobtable.Parse(bytes.NewReader(b), required)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return t, nil
}

// RunID identifies the run in every log line.
func (r *Runner) RunID() string { return r.runID }

// Jobs returns the composed jobs in table order.
func (r *Runner) Jobs() []compose.Job {
	out := make([]compose.Job, len(r.jobs))
	copy(out, r.jobs)

	return out
}

// Workers returns the resolved pool size.
func (r *Runner) Workers() int { return r.workers }

// State returns the current state.
func (r *Runner) State() State { return r.state }

// Summary returns the summary artifact set of the run.
func (r *Runner) Summary() layout.SummaryArtifactSet { return r.summary }

func (r *Runner) transition(ctx context.Context, to State) {
	from := r.state
	r.state = to

	ctxlog.Debug(ctx, "batch state changed", "from", from.String(), "to", to.String())

	if r.onTransition != nil {
		r.onTransition(from, to)
	}
}

// Run executes the batch. Cancelling ctx stops jobs that have not started;
// running jobs always finish. The batch log is closed on every path.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	if r.state != StateInit {
		return Outcome{RunID: r.runID, State: r.state}, ErrAlreadyRun
	}

	out := Outcome{RunID: r.runID}
	ctx = ctxlog.New(ctx, ctxlog.Logger(ctx).With("runID", r.runID))

	r.transition(ctx, StateChecking)

	done, err := r.upToDate()
	if err != nil {
		return r.fail(ctx, out, err)
	}

	if done {
		ctxlog.Info(ctx, "all outputs already exist, nothing to do", "outdir", r.cfg.OutDir)
		r.transition(ctx, StateDone)

		out.State = StateDone
		out.Skipped = true

		return out, nil
	}

	r.transition(ctx, StateRunning)

	if err := r.fs.MkdirAll(r.cfg.OutDir, outDirPerm); err != nil {
		return r.fail(ctx, out, fmt.Errorf("%w: %s: %w", ErrOutDir, r.cfg.OutDir, err))
	}

	blog, err := ctxlog.OpenBatchLog(r.fs, r.summary.LogPath(), ctxlog.Logger(ctx))
	if err != nil {
		return r.fail(ctx, out, err)
	}

	defer func() {
		if err := blog.Close(); err != nil {
			ctxlog.Warn(ctx, "failed to close batch log", "path", blog.Path, "error", err)
		}
	}()

	ctx = ctxlog.New(ctx, blog.Logger.With("runID", r.runID))

	r.logStart(ctx)

	removed, err := r.summary.Remove(r.fs)
	if err != nil {
		return r.fail(ctx, out, errors.Join(ErrCleanup, err))
	}

	if len(removed) > 0 {
		ctxlog.Info(ctx, "removed summary artifacts of an earlier run", "paths", removed)
	}

	out.Jobs = r.execute(ctx)

	if n := notStarted(out.Jobs); n > 0 {
		return r.fail(ctx, out, fmt.Errorf("%w: %d of %d jobs skipped", ErrInterrupted, n, len(r.jobs)))
	}

	// Dispatch is over; a late stop request no longer affects the run.
	ctx = context.WithoutCancel(ctx)

	r.transition(ctx, StateValidating)

	if err := validate.Sets(r.fs, r.outputs); err != nil {
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			ctxlog.Error(ctx, "jobs did not write every expected output",
				"missing", verr.Missing, "jobLogs", verr.JobLogs)
		}

		return r.fail(ctx, out, err)
	}

	r.transition(ctx, StateAggregating)

	res, err := artifactsPipeline(r.fs, r.summary, r.outputs).Produce(ctx)
	out.Artifacts = res

	if err != nil {
		return r.fail(ctx, out, err)
	}

	r.transition(ctx, StateDone)
	ctxlog.Info(ctx, "Successful completion of batch",
		"jobs", len(r.jobs), "summary", r.summary.ArtifactPaths(), "log", r.summary.LogPath())

	out.State = StateDone

	return out, nil
}

// upToDate reports whether reuse is enabled and every summary artifact, the
// batch log and every job output already exist.
func (r *Runner) upToDate() (bool, error) {
	if !r.cfg.UseExisting {
		return false, nil
	}

	paths := r.summary.Paths()
	for _, s := range r.outputs {
		paths = append(paths, s.Paths()...)
	}

	return layout.AllExist(r.fs, paths) //nolint:wrapcheck
}

func (r *Runner) logStart(ctx context.Context) {
	ctxlog.Info(ctx, "Beginning batch run",
		"program", r.cfg.Program,
		"batchfile", r.cfg.BatchFile,
		"outdir", r.cfg.OutDir,
		"summaryprefix", r.cfg.SummaryPrefix,
		"jobs", len(r.jobs),
		"workers", r.workers)
	ctxlog.Info(ctx, "Parsed batch table", "table", r.table.String())

	if len(r.unknown) > 0 {
		ctxlog.Warn(ctx, "batch columns that are not options are ignored", "columns", r.unknown)
	}
}

// fail moves to Failed, removes every summary artifact but the log and
// returns err joined with any cleanup failure.
func (r *Runner) fail(ctx context.Context, out Outcome, err error) (Outcome, error) {
	ctxlog.Error(ctx, "batch failed",
		"state", r.state.String(),
		"error", err,
		"chain", errorChain(err))

	for _, res := range slices.Concat(out.Jobs, out.Artifacts) {
		if res.Status != runbatch.ResultStatusError {
			continue
		}

		ctxlog.Error(ctx, "failed step",
			"label", res.Label,
			"exitCode", res.ExitCode,
			"error", res.Error,
			"log", res.LogPath,
			"lastOutput", res.LastLine)
	}

	r.transition(ctx, StateFailed)
	out.State = StateFailed

	removed, cerr := r.summary.Remove(r.fs)
	out.Removed = removed

	if len(removed) > 0 {
		ctxlog.Info(ctx, "removed partial summary artifacts", "paths", removed)
	}

	if cerr != nil {
		ctxlog.Error(ctx, "failed to remove summary artifacts", "error", cerr)
		return out, errors.Join(err, ErrCleanup, cerr)
	}

	return out, err
}

// errorChain flattens err and everything it wraps, depth first, as
// "type: message" lines.
func errorChain(err error) []string {
	var chain []string

	var walk func(e error)
	walk = func(e error) {
		if e == nil {
			return
		}

		chain = append(chain, fmt.Sprintf("%T: %v", e, e))

		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, c := range u.Unwrap() {
				walk(c)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}

	walk(err)

	return chain
}
