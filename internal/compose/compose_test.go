// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package compose

import (
	"strings"
	"testing"

	"github.com/matt-FFFFFF/dmsbatch/internal/jobtable"
	"github.com/matt-FFFFFF/dmsbatch/internal/options"
	"github.com/matt-FFFFFF/dmsbatch/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(t *testing.T, csv string) *jobtable.Table {
	t.Helper()

	tbl, err := jobtable.Parse(strings.NewReader(csv), profile.BCSubamp.RequiredColumns())
	require.NoError(t, err)

	return tbl
}

func firstRow(t *testing.T, csv string) jobtable.Row {
	t.Helper()

	return table(t, csv).Rows()[0]
}

func TestCompose(t *testing.T) {
	row := firstRow(t, "name,R1,R1trim,bcinfo\nsample1,s1_R1.fq.gz,200 170,yes\n")
	global := options.NewValues(map[string]options.Value{
		profile.OptOutDir:      options.String("/tmp/x"),
		profile.OptUseExisting: options.String("no"),
		"refseq":               options.String("ref.fa"),
		"alignspecs":           options.ListOf("1,303,33,34", "304,609,33,34"),
		"bclen":                options.Int(8),
		"minq":                 options.Int(0),
		"chartype":             options.String(""),
		"purgeread":            options.Float(0),
		"bcinfo_csv":           options.Bool(false),
	})

	job, err := Compose(profile.BCSubamp, row, global)
	require.NoError(t, err)

	assert.Equal(t, "sample1", job.Name)
	assert.Equal(t, []string{
		"dms2_bcsubamp",
		"--name", "sample1",
		"--R1", "s1_R1.fq.gz",
		"--outdir", "/tmp/x",
		"--use_existing", "no",
		"--refseq", "ref.fa",
		"--alignspecs", "1,303,33,34", "304,609,33,34",
		"--R1trim", "200", "170",
		"--bclen", "8",
		"--minq", "0",
		"--purgeread", "0",
		"--bcinfo",
	}, job.Argv())
	assert.Equal(t, job.Argv()[1:], job.Args())
}

func TestCompose_Deterministic(t *testing.T) {
	row := firstRow(t, "name,R1,bclen,alignspecs\ns,r1.fq,8,\"1,303,33,34 304,609,33,34\"\n")
	global := options.NewValues(map[string]options.Value{
		"minq":        options.Int(15),
		"minfraccall": options.Float(0.95),
		"refseq":      options.String("ref.fa"),
	})

	a, err := Compose(profile.BCSubamp, row, global)
	require.NoError(t, err)

	b, err := Compose(profile.BCSubamp, row, global)
	require.NoError(t, err)

	assert.Equal(t, a.Argv(), b.Argv())
	assert.Equal(t, a.String(), b.String())
	assert.Contains(t, a.String(), "--alignspecs 1,303,33,34 304,609,33,34")
}

func TestCompose_ConflictRegardlessOfEquality(t *testing.T) {
	tests := []struct {
		name   string
		csv    string
		global options.Value
		row    string
	}{
		{"different values", "name,R1,bclen\ns,r.fq,10\n", options.Int(8), "10"},
		{"equal values", "name,R1,bclen\ns,r.fq,8\n", options.Int(8), "8"},
		{"empty cell", "name,R1,bclen\ns,r.fq,\n", options.Int(8), ""},
		{"zero global", "name,R1,bclen\ns,r.fq,8\n", options.Int(0), "8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			global := options.NewValues(map[string]options.Value{"bclen": tt.global})

			_, err := Compose(profile.BCSubamp, firstRow(t, tt.csv), global)
			require.ErrorIs(t, err, ErrConflict)

			var ce *ConflictError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "s", ce.Job)
			assert.Equal(t, "bclen", ce.Option)
			assert.Equal(t, tt.row, ce.RowValue)
			assert.True(t, tt.global.Equal(ce.GlobalValue))
			assert.Contains(t, err.Error(), `job "s"`)
			assert.Contains(t, err.Error(), `"bclen"`)
		})
	}
}

func TestCompose_ForbiddenOverride(t *testing.T) {
	for _, col := range []string{profile.OptOutDir, profile.OptUseExisting, profile.OptNCPUs, profile.OptSummaryPrefix} {
		t.Run(col, func(t *testing.T) {
			row := firstRow(t, "name,R1,"+col+"\ns,r.fq,v\n")

			_, err := Compose(profile.BCSubamp, row, options.Values{})
			require.ErrorIs(t, err, ErrForbiddenOverride)

			var fe *ForbiddenOverrideError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, col, fe.Option)
		})
	}
}

func TestCompose_GlobalTruthiness(t *testing.T) {
	row := firstRow(t, "name,R1\ns,r.fq\n")

	tests := []struct {
		name  string
		opt   string
		value options.Value
		want  []string
	}{
		{"zero int forwarded", "minreads", options.Int(0), []string{"--minreads", "0"}},
		{"zero float forwarded", "purgebc", options.Float(0), []string{"--purgebc", "0"}},
		{"empty string dropped", "sitemask", options.String(""), nil},
		{"empty list dropped", "R2trim", options.ListOf(), nil},
		{"false flag dropped", "bcinfo", options.Bool(false), nil},
		{"true flag bare", "bcinfo", options.Bool(true), []string{"--bcinfo"}},
		{"list one token per element", "R2trim", options.ListOf("170", "160"), []string{"--R2trim", "170", "160"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := Compose(profile.BCSubamp, row, options.NewValues(map[string]options.Value{tt.opt: tt.value}))
			require.NoError(t, err)

			base := []string{"--name", "s", "--R1", "r.fq"}
			assert.Equal(t, append(base, tt.want...), job.Args())
		})
	}
}

func TestCompose_RowValues(t *testing.T) {
	row := firstRow(t, "name,R1,bclen,R2,bcinfo_csv,chartype\ns,a.fq b.fq,,r2.fq,,codon\n")

	job, err := Compose(profile.BCSubamp, row, options.Values{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"--name", "s",
		"--R1", "a.fq", "b.fq",
		"--R2", "r2.fq",
		"--chartype", "codon",
	}, job.Args(), "empty cells leave the option to the program default")
}

func TestCompose_RowTypeError(t *testing.T) {
	row := firstRow(t, "name,R1,bclen\ns,r.fq,eight\n")

	_, err := Compose(profile.BCSubamp, row, options.Values{})
	require.ErrorIs(t, err, options.ErrOptionType)
	assert.Contains(t, err.Error(), `job "s"`)
}

func TestAll(t *testing.T) {
	tbl := table(t, "name,R1,bclen\nsample1,a.fq,8\nsample2,b.fq,10\n")

	jobs, err := All(profile.BCSubamp, tbl, options.Values{})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "sample1", jobs[0].Name)
	assert.Equal(t, "sample2", jobs[1].Name)

	bad := table(t, "name,R1,bclen\nsample1,a.fq,x\nsample2,b.fq,y\n")

	_, err = All(profile.BCSubamp, bad, options.Values{})
	require.ErrorIs(t, err, options.ErrOptionType)
	assert.Contains(t, err.Error(), "sample1")
	assert.Contains(t, err.Error(), "sample2")
}

func TestUnknownColumns(t *testing.T) {
	got := UnknownColumns(profile.BCSubamp, []string{"name", "R1", "bclen", "group", "notes"})
	assert.Equal(t, []string{"group", "notes"}, got)
}

func TestJob_WithProgram(t *testing.T) {
	job, err := Compose(profile.BCSubamp, firstRow(t, "name,R1\nsample1,r1.fq\n"), options.Values{})
	require.NoError(t, err)

	other := job.WithProgram("/opt/bin/dms2_bcsubamp")
	assert.Equal(t, "/opt/bin/dms2_bcsubamp", other.Argv()[0])
	assert.Equal(t, job.Args(), other.Args())
	assert.Equal(t, "dms2_bcsubamp", job.Program)
}
