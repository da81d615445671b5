// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package validate checks that every job wrote its complete set of outputs.
// The check is existence only; a zero byte file counts as written.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matt-FFFFFF/dmsbatch/internal/layout"
	"github.com/matt-FFFFFF/dmsbatch/internal/profile"
	"github.com/spf13/afero"
)

// ErrValidation is matched by ValidationError.
var ErrValidation = errors.New("expected output files are missing")

// ValidationError lists every missing output and the logs of the jobs that
// should have written them.
type ValidationError struct {
	Missing []string
	JobLogs []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d missing (%s); check the job logs: %s",
		ErrValidation, len(e.Missing), strings.Join(e.Missing, ", "), strings.Join(e.JobLogs, ", "))
}

// Is reports ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// OutputSets returns the expected output sets of jobs in outdir.
func OutputSets(outdir string, jobs []string, kinds []profile.OutputKind) []layout.OutputFileSet {
	sets := make([]layout.OutputFileSet, 0, len(jobs))
	for _, j := range jobs {
		sets = append(sets, layout.NewOutputFileSet(outdir, j, kinds))
	}

	return sets
}

// Outputs checks every job's expected outputs in outdir.
func Outputs(fs afero.Fs, outdir string, jobs []string, kinds []profile.OutputKind) error {
	return Sets(fs, OutputSets(outdir, jobs, kinds))
}

// Sets checks that every file of every set exists. A job is reported once in
// JobLogs however many of its files are missing.
func Sets(fs afero.Fs, sets []layout.OutputFileSet) error {
	verr := &ValidationError{}

	for _, s := range sets {
		missing, err := layout.Missing(fs, s.Paths())
		if err != nil {
			return err //nolint:wrapcheck
		}

		if len(missing) == 0 {
			continue
		}

		verr.Missing = append(verr.Missing, missing...)
		verr.JobLogs = append(verr.JobLogs, s.LogPath())
	}

	if len(verr.Missing) > 0 {
		return verr
	}

	return nil
}
