// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/matt-FFFFFF/dmsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/dmsbatch/internal/layout"
	"github.com/matt-FFFFFF/dmsbatch/internal/profile"
	"github.com/matt-FFFFFF/dmsbatch/internal/runbatch"
	"github.com/matt-FFFFFF/dmsbatch/internal/stats"
	"github.com/spf13/afero"
)

// Label is the label of the serial batch built by Batch.
const Label = "summary artifacts"

var (
	// ErrArtifact is returned when a summary artifact could not be produced.
	ErrArtifact = errors.New("could not produce summary artifact")
	// ErrNoSamples is returned when the pipeline has no jobs to summarise.
	ErrNoSamples = errors.New("no samples to summarise")
	// ErrInput is returned when a per-job table cannot be read.
	ErrInput = errors.New("could not read per-job table")
)

// Step produces one or more artifacts of the summary set.
type Step struct {
	Name      string
	Artifacts []layout.Artifact
	produce   func(ctx context.Context) error
}

// Pipeline holds the inputs of the artifact steps. Per-job tables are read
// when a step needs them; codon counts are read once and shared.
type Pipeline struct {
	fs      afero.Fs
	summary layout.SummaryArtifactSet
	samples []layout.OutputFileSet
	codons  map[string][]stats.SiteCounts
}

// New returns a pipeline summarising samples into summary.
func New(fs afero.Fs, summary layout.SummaryArtifactSet, samples []layout.OutputFileSet) *Pipeline {
	return &Pipeline{
		fs:      fs,
		summary: summary,
		samples: samples,
		codons:  make(map[string][]stats.SiteCounts, len(samples)),
	}
}

// Steps returns the steps in production order.
func (p *Pipeline) Steps() []Step {
	return []Step{
		{Name: "read stats", Artifacts: []layout.Artifact{layout.ReadStatsPDF}, produce: p.categoryChart(
			profile.KindReadStats, layout.ReadStatsPDF, "Read statistics", "reads")},
		{Name: "barcode stats", Artifacts: []layout.Artifact{layout.BCStatsPDF}, produce: p.categoryChart(
			profile.KindBCStats, layout.BCStatsPDF, "Barcode statistics", "barcodes")},
		{Name: "reads per barcode", Artifacts: []layout.Artifact{layout.ReadsPerBCPDF}, produce: p.readsPerBarcode},
		{Name: "depth", Artifacts: []layout.Artifact{layout.DepthPDF}, produce: p.depth},
		{Name: "mutation frequency", Artifacts: []layout.Artifact{layout.MutFreqPDF}, produce: p.mutFreq},
		{Name: "codon mutation types", Artifacts: []layout.Artifact{layout.CodonMutTypesPDF, layout.CodonMutTypesCSV},
			produce: p.codonMutTypes},
		{Name: "codon nt changes", Artifacts: []layout.Artifact{layout.CodonNTChangesPDF}, produce: p.codonNTChanges},
		{Name: "single nt changes", Artifacts: []layout.Artifact{layout.SingleNTChangesPDF}, produce: p.singleNTChanges},
		{Name: "cumulative mutation counts", Artifacts: []layout.Artifact{layout.CumulMutCountsPDF},
			produce: p.cumulMutCounts},
	}
}

// Batch returns the steps as a serial batch. Each step runs only when every
// earlier step succeeded.
func (p *Pipeline) Batch() *runbatch.SerialBatch {
	steps := p.Steps()
	cmds := make([]runbatch.Runnable, 0, len(steps))

	for _, s := range steps {
		cmds = append(cmds, &runbatch.FunctionCommand{
			BaseCommand: runbatch.NewBaseCommand(s.Name, "", runbatch.RunOnSuccess, nil),
			Func:        p.logged(s),
		})
	}

	return &runbatch.SerialBatch{
		BaseCommand: runbatch.NewBaseCommand(Label, "", runbatch.RunOnSuccess, nil),
		Commands:    cmds,
	}
}

// Produce runs every step and returns the error of the first that failed or,
// when ctx was done, of the first that was skipped.
func (p *Pipeline) Produce(ctx context.Context) (runbatch.Results, error) {
	if len(p.samples) == 0 {
		return nil, ErrNoSamples
	}

	res := p.Batch().Run(ctx)

	for _, r := range res.Leaves() {
		if r.Status == runbatch.ResultStatusError {
			return res, r.Error
		}
	}

	for _, r := range res.Leaves() {
		if r.Status == runbatch.ResultStatusSkipped {
			return res, fmt.Errorf("%w: %s: skipped: %w", ErrArtifact, r.Label, r.Error)
		}
	}

	if res.HasError() {
		return res, fmt.Errorf("%w: %s", ErrArtifact, Label)
	}

	return res, nil
}

func (p *Pipeline) logged(s Step) runbatch.FunctionCommandFunc {
	return func(ctx context.Context) error {
		ctxlog.Info(ctx, "producing summary artifact", "step", s.Name)

		if err := s.produce(ctx); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrArtifact, s.Name, err)
		}

		for _, a := range s.Artifacts {
			ctxlog.Debug(ctx, "wrote summary artifact", "path", p.summary.Path(a))
		}

		return nil
	}
}

func (p *Pipeline) write(a layout.Artifact, fn func(w io.Writer) error) error {
	return layout.WriteAtomic(p.fs, p.summary.Path(a), fn) //nolint:wrapcheck
}

func (p *Pipeline) open(sample layout.OutputFileSet, kind string) (afero.File, error) {
	path, ok := sample.Path(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s: no %s output", ErrInput, sample.Job, kind)
	}

	f, err := p.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInput, path, err)
	}

	return f, nil
}

// read opens the kind table of sample and decodes it with decode.
func read[T any](p *Pipeline, sample layout.OutputFileSet, kind string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T

	f, err := p.open(sample, kind)
	if err != nil {
		return zero, err
	}
	defer f.Close() //nolint:errcheck

	v, err := decode(f)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrInput, f.Name(), err)
	}

	return v, nil
}

func (p *Pipeline) codonCounts(sample layout.OutputFileSet) ([]stats.SiteCounts, error) {
	if sites, ok := p.codons[sample.Job]; ok {
		return sites, nil
	}

	sites, err := read(p, sample, profile.KindCodonCounts, stats.ReadCodonCounts)
	if err != nil {
		return nil, err
	}

	p.codons[sample.Job] = sites

	return sites, nil
}

func (p *Pipeline) names() []string {
	out := make([]string, len(p.samples))
	for i, s := range p.samples {
		out[i] = s.Job
	}

	return out
}
