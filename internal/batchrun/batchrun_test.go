// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batchrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/matt-FFFFFF/dmsbatch/internal/compose"
	"github.com/matt-FFFFFF/dmsbatch/internal/config"
	"github.com/matt-FFFFFF/dmsbatch/internal/jobtable"
	"github.com/matt-FFFFFF/dmsbatch/internal/layout"
	"github.com/matt-FFFFFF/dmsbatch/internal/options"
	"github.com/matt-FFFFFF/dmsbatch/internal/runbatch"
	"github.com/matt-FFFFFF/dmsbatch/internal/stats"
	"github.com/matt-FFFFFF/dmsbatch/internal/validate"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeProgram stands in for the per-job program. It writes every per-job
// table for --name into --outdir, unless the name is $FAIL_JOB.
const fakeProgram = `#!/bin/sh
name=
outdir=
while [ "$#" -gt 0 ]; do
  case "$1" in
    --name) name=$2; shift 2 ;;
    --outdir) outdir=$2; shift 2 ;;
    *) shift ;;
  esac
done
echo "$name" >> "$COUNT_FILE"
echo "processing $name"
if [ "$name" = "$FAIL_JOB" ]; then
  echo "simulated failure for $name" >&2
  exit 3
fi
for kind in codoncounts readstats bcstats readsperbc; do
  cp "$FIXTURES/$kind.csv" "$outdir/${name}_$kind.csv" || exit 1
done
echo "done $name"
`

type fixture struct {
	dir       string
	outdir    string
	batch     string
	program   string
	countFile string
	env       map[string]string
}

func codonCounts() string {
	row := func(site, wt string, counts map[string]int) string {
		cells := make([]string, len(stats.Codons))
		for i, c := range stats.Codons {
			cells[i] = strconv.Itoa(counts[c])
		}

		return site + "," + wt + "," + strings.Join(cells, ",") + "\n"
	}

	return "site,wildtype," + strings.Join(stats.Codons[:], ",") + "\n" +
		row("1", "ATG", map[string]int{"ATG": 90, "ATA": 5, "TAG": 5}) +
		row("2", "CTG", map[string]int{"CTG": 80, "CTA": 10, "TTA": 10})
}

func newFixture(t *testing.T, batch string) *fixture {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("the fake program is a POSIX shell script")
	}

	dir := t.TempDir()
	fixtures := filepath.Join(dir, "fixtures")
	require.NoError(t, os.Mkdir(fixtures, 0o755))

	files := map[string]string{
		"codoncounts.csv": codonCounts(),
		"readstats.csv":   "total,retained\n100,90\n",
		"bcstats.csv":     "total,aligned\n50,45\n",
		"readsperbc.csv":  "number of reads,number of barcodes\n1,10\n2,5\n3,1\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(fixtures, name), []byte(content), 0o644))
	}

	f := &fixture{
		dir:       dir,
		outdir:    filepath.Join(dir, "x"),
		batch:     filepath.Join(dir, "batch.csv"),
		program:   filepath.Join(dir, "dms2_bcsubamp"),
		countFile: filepath.Join(dir, "invocations"),
	}
	f.env = map[string]string{"FIXTURES": fixtures, "COUNT_FILE": f.countFile}

	require.NoError(t, os.WriteFile(f.program, []byte(fakeProgram), 0o755)) //nolint:gosec
	require.NoError(t, os.WriteFile(f.batch, []byte(batch), 0o644))

	return f
}

func (f *fixture) config(t *testing.T, mods ...func(*config.Source)) config.GlobalConfig {
	t.Helper()

	workers := 2
	src := config.Source{
		Program:       f.program,
		BatchFile:     f.batch,
		OutDir:        f.outdir,
		SummaryPrefix: "x",
		NCPUs:         &workers,
		Env:           f.env,
	}

	for _, m := range mods {
		m(&src)
	}

	cfg, err := config.Build(src)
	require.NoError(t, err)

	return cfg
}

func (f *fixture) invocations(t *testing.T) []string {
	t.Helper()

	b, err := os.ReadFile(f.countFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	require.NoError(t, err)

	return strings.Fields(string(b))
}

func useExisting(s *config.Source) {
	v := true
	s.UseExisting = &v
}

func exists(t *testing.T, path string) bool {
	t.Helper()

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	require.NoError(t, err)

	return true
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(b)
}

const twoSamples = "name,R1\nsample1,s1_R1.fastq.gz\nsample2,s2_R1.fastq.gz\n"

func TestRun_Success(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, twoSamples)

	var transitions []State

	r, err := Prepare(context.Background(), f.config(t), WithTransitionHook(func(_, to State) {
		transitions = append(transitions, to)
	}))
	require.NoError(t, err)
	assert.Equal(t, StateInit, r.State())
	assert.NotEmpty(t, r.RunID())
	assert.LessOrEqual(t, r.Workers(), 2)

	out, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, out.State)
	assert.False(t, out.Skipped)
	assert.Equal(t, r.RunID(), out.RunID)
	assert.Equal(t, []State{StateChecking, StateRunning, StateValidating, StateAggregating, StateDone}, transitions)

	require.Len(t, out.Jobs, 2)
	assert.False(t, out.Jobs.HasError())
	assert.False(t, out.Artifacts.HasError())

	var want []string
	for _, job := range []string{"sample1", "sample2"} {
		want = append(want, job+".log")
		for _, kind := range []string{"codoncounts", "readstats", "bcstats", "readsperbc"} {
			want = append(want, job+"_"+kind+".csv")
		}
	}

	want = append(want, "x_readstats.pdf", "x_bcstats.pdf", "x_readsperbc.pdf", "x_depth.pdf", "x_mutfreq.pdf",
		"x_codonmuttypes.pdf", "x_codonmuttypes.csv", "x_codonntchanges.pdf", "x_singlentchanges.pdf",
		"x_cumulmutcounts.pdf", "x.log")

	entries, err := os.ReadDir(f.outdir)
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}

	assert.ElementsMatch(t, want, got)

	batchLog := readFile(t, filepath.Join(f.outdir, "x.log"))
	assert.Contains(t, batchLog, "Successful completion")
	assert.Contains(t, batchLog, r.RunID())
	assert.Contains(t, readFile(t, filepath.Join(f.outdir, "sample1.log")), "processing sample1")
	assert.ElementsMatch(t, []string{"sample1", "sample2"}, f.invocations(t))
}

func TestRun_UseExistingSkipsWork(t *testing.T) {
	f := newFixture(t, twoSamples)

	r, err := Prepare(context.Background(), f.config(t))
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, f.invocations(t), 2)

	var transitions []State

	r, err = Prepare(context.Background(), f.config(t, useExisting), WithTransitionHook(func(_, to State) {
		transitions = append(transitions, to)
	}))
	require.NoError(t, err)

	out, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, out.Skipped)
	assert.Equal(t, StateDone, out.State)
	assert.Empty(t, out.Jobs)
	assert.Len(t, f.invocations(t), 2, "no job ran again")
	assert.Equal(t, []State{StateChecking, StateDone}, transitions)
}

func TestRun_UseExistingWithMissingOutputsRuns(t *testing.T) {
	f := newFixture(t, twoSamples)

	r, err := Prepare(context.Background(), f.config(t))
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(f.outdir, "x_depth.pdf")))

	r, err = Prepare(context.Background(), f.config(t, useExisting))
	require.NoError(t, err)

	out, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, out.Skipped)
	assert.Len(t, f.invocations(t), 4)
	assert.True(t, exists(t, filepath.Join(f.outdir, "x_depth.pdf")))
}

func TestRun_JobFailureRemovesSummary(t *testing.T) {
	f := newFixture(t, twoSamples)
	f.env["FAIL_JOB"] = "sample2"

	require.NoError(t, os.MkdirAll(f.outdir, 0o755))

	for _, stale := range []string{"x_depth.pdf", "x_readstats.pdf", "x_codonmuttypes.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(f.outdir, stale), []byte("stale"), 0o644))
	}

	var transitions []State

	r, err := Prepare(context.Background(), f.config(t), WithTransitionHook(func(_, to State) {
		transitions = append(transitions, to)
	}))
	require.NoError(t, err)

	out, err := r.Run(context.Background())
	require.ErrorIs(t, err, validate.ErrValidation)

	var verr *validate.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{filepath.Join(f.outdir, "sample2.log")}, verr.JobLogs)
	assert.Len(t, verr.Missing, 4)

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, []State{StateChecking, StateRunning, StateValidating, StateFailed}, transitions)

	require.Len(t, out.Jobs, 2)
	assert.Equal(t, runbatch.ResultStatusSuccess, out.Jobs[0].Status)
	assert.Equal(t, runbatch.ResultStatusError, out.Jobs[1].Status)
	assert.Equal(t, 3, out.Jobs[1].ExitCode)
	assert.Equal(t, "simulated failure for sample2", out.Jobs[1].LastLine)

	for _, p := range r.Summary().ArtifactPaths() {
		assert.False(t, exists(t, p), p)
	}

	assert.True(t, exists(t, filepath.Join(f.outdir, "x.log")))
	assert.True(t, exists(t, filepath.Join(f.outdir, "sample1_codoncounts.csv")), "per-job outputs are kept")
	assert.Contains(t, readFile(t, filepath.Join(f.outdir, "sample2.log")), "simulated failure")

	batchLog := readFile(t, filepath.Join(f.outdir, "x.log"))
	assert.Contains(t, batchLog, "job failed")
	assert.Contains(t, batchLog, "sample2.log")
	assert.Contains(t, batchLog, "state=validating")
	assert.Contains(t, batchLog, "*validate.ValidationError")
	assert.Contains(t, batchLog, "failed step")
	assert.NotContains(t, batchLog, "Successful completion")
}

type failingProducer struct {
	fs   afero.Fs
	path string
}

func (p failingProducer) Produce(context.Context) (runbatch.Results, error) {
	if err := afero.WriteFile(p.fs, p.path, []byte("partial"), 0o644); err != nil {
		return nil, err
	}

	return nil, errors.New("plotting failed")
}

func TestRun_AggregationFailureRemovesSummary(t *testing.T) {
	f := newFixture(t, twoSamples)

	stubs := gostub.Stub(&artifactsPipeline,
		func(fs afero.Fs, summary layout.SummaryArtifactSet, _ []layout.OutputFileSet) producer {
			return failingProducer{fs: fs, path: summary.Path(layout.ReadStatsPDF)}
		})
	defer stubs.Reset()

	r, err := Prepare(context.Background(), f.config(t))
	require.NoError(t, err)

	out, err := r.Run(context.Background())
	require.EqualError(t, err, "plotting failed")

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, []string{filepath.Join(f.outdir, "x_readstats.pdf")}, out.Removed)
	assert.False(t, exists(t, filepath.Join(f.outdir, "x_readstats.pdf")))
	assert.True(t, exists(t, filepath.Join(f.outdir, "x.log")))
}

func TestRun_CancelledDispatch(t *testing.T) {
	f := newFixture(t, twoSamples)

	r, err := Prepare(context.Background(), f.config(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := r.Run(ctx)
	require.ErrorIs(t, err, ErrInterrupted)

	assert.Equal(t, StateFailed, out.State)
	assert.Empty(t, f.invocations(t))

	for _, res := range out.Jobs {
		assert.Equal(t, runbatch.ResultStatusSkipped, res.Status)
		require.ErrorIs(t, res.Error, runbatch.ErrNotStarted)
	}
}

func TestRun_OnlyOnce(t *testing.T) {
	f := newFixture(t, twoSamples)

	r, err := Prepare(context.Background(), f.config(t))
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.ErrorIs(t, err, ErrAlreadyRun)
}

func TestPrepare_DuplicateNameCreatesNothing(t *testing.T) {
	f := newFixture(t, "name,R1\nsample1,a.fq\nsample1,b.fq\n")

	_, err := Prepare(context.Background(), f.config(t))
	require.ErrorIs(t, err, jobtable.ErrParse)

	var dup *jobtable.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "sample1", dup.Name)

	assert.False(t, exists(t, f.outdir))
}

func TestPrepare_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		batch   string
		mod     func(*config.Source)
		wantErr error
	}{
		{
			name:  "conflict",
			batch: "name,R1,refseq\nsample1,a.fq,ref.fa\n",
			mod: func(s *config.Source) {
				s.Options = options.NewValues(map[string]options.Value{"refseq": options.String("ref.fa")})
			},
			wantErr: compose.ErrConflict,
		},
		{
			name:    "forbidden override",
			batch:   "name,R1,outdir\nsample1,a.fq,/elsewhere\n",
			wantErr: compose.ErrForbiddenOverride,
		},
		{
			name:  "invalid workers",
			batch: twoSamples,
			mod: func(s *config.Source) {
				n := 0
				s.NCPUs = &n
			},
			wantErr: runbatch.ErrInvalidConfig,
		},
		{
			name:    "missing column",
			batch:   "name\nsample1\n",
			wantErr: jobtable.ErrParse,
		},
		{
			name:    "no job rows",
			batch:   "name,R1\n",
			wantErr: jobtable.ErrNoRows,
		},
		{
			name:    "job named like the summary prefix",
			batch:   "name,R1\nsample1,a.fq\nx,b.fq\n",
			wantErr: ErrNameClash,
		},
		{
			name:  "missing batch file",
			batch: twoSamples,
			mod: func(s *config.Source) {
				s.BatchFile = filepath.Join(filepath.Dir(s.BatchFile), "nope.csv")
			},
			wantErr: jobtable.ErrParse,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.batch)

			var mods []func(*config.Source)
			if tc.mod != nil {
				mods = append(mods, tc.mod)
			}

			_, err := Prepare(context.Background(), f.config(t, mods...))
			require.ErrorIs(t, err, tc.wantErr)
			assert.False(t, exists(t, f.outdir))
		})
	}
}

func TestPrepare_NameClashIsInvalidConfig(t *testing.T) {
	f := newFixture(t, "name,R1\nrun1,a.fq\n")

	_, err := Prepare(context.Background(), f.config(t, func(s *config.Source) {
		s.SummaryPrefix = "run1"
	}))
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	require.ErrorIs(t, err, ErrNameClash)
	assert.Contains(t, err.Error(), `"run1"`)
	assert.False(t, exists(t, f.outdir))
}

func TestErrorChain(t *testing.T) {
	inner := errors.New("inner")
	err := errors.Join(ErrInterrupted, fmt.Errorf("wrapped: %w", inner))

	chain := errorChain(err)
	require.Len(t, chain, 4)
	assert.Contains(t, chain[0], "*errors.joinError")
	assert.Equal(t, "*errors.errorString: "+ErrInterrupted.Error(), chain[1])
	assert.Equal(t, "*fmt.wrapError: wrapped: inner", chain[2])
	assert.Equal(t, "*errors.errorString: inner", chain[3])
	assert.Nil(t, errorChain(nil))
}

func TestPrepare_ComposedJobs(t *testing.T) {
	f := newFixture(t, "name,R1,bclen,notes\nsample1,a.fq,8,first\n")

	r, err := Prepare(context.Background(), f.config(t))
	require.NoError(t, err)

	jobs := r.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, []string{
		f.program,
		"--name", "sample1",
		"--R1", "a.fq",
		"--outdir", f.outdir,
		"--use_existing", "no",
		"--bclen", "8",
	}, jobs[0].Argv())
	assert.Equal(t, []string{"notes"}, r.unknown)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "aggregating", StateAggregating.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateRunning.Terminal())
}
