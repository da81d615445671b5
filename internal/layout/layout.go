// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package layout derives every file path a batch reads or writes from the
// output directory, the job names and the summary prefix. All paths are pure
// functions of their inputs; the helpers that touch the disk take an afero.Fs.
package layout

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/dmsbatch/internal/profile"
	"github.com/spf13/afero"
)

const (
	logExt    = ".log"
	tmpSuffix = ".tmp"
)

var (
	// ErrStat is returned when a path cannot be checked for existence.
	ErrStat = errors.New("could not check file")
	// ErrRemove is returned when a summary artifact could not be deleted.
	ErrRemove = errors.New("could not remove summary artifact")
	// ErrAtomicWrite is returned when a file could not be written and renamed into place.
	ErrAtomicWrite = errors.New("could not write file")
)

// JobLogPath returns the file capturing the combined output of a job.
func JobLogPath(outdir, job string) string {
	return filepath.Join(outdir, job+logExt)
}

// OutputFileSet is the set of files one job is expected to write.
type OutputFileSet struct {
	Job   string
	dir   string
	kinds []profile.OutputKind
}

// NewOutputFileSet returns the expected outputs of job in outdir.
func NewOutputFileSet(outdir, job string, kinds []profile.OutputKind) OutputFileSet {
	return OutputFileSet{Job: job, dir: outdir, kinds: slices.Clone(kinds)}
}

// Path returns the path of the output kind called kind.
func (s OutputFileSet) Path(kind string) (string, bool) {
	for _, k := range s.kinds {
		if k.Name == kind {
			return filepath.Join(s.dir, s.Job+k.Suffix), true
		}
	}

	return "", false
}

// Paths returns every expected output path in kind order.
func (s OutputFileSet) Paths() []string {
	out := make([]string, 0, len(s.kinds))
	for _, k := range s.kinds {
		out = append(out, filepath.Join(s.dir, s.Job+k.Suffix))
	}

	return out
}

// LogPath returns the job's log file.
func (s OutputFileSet) LogPath() string {
	return JobLogPath(s.dir, s.Job)
}

// Artifact is one summary artifact kind.
type Artifact struct {
	Kind string
	Ext  string
}

// Suffix returns the file name suffix, e.g. "_depth.pdf".
func (a Artifact) Suffix() string {
	return "_" + a.Kind + "." + a.Ext
}

// Summary artifacts, in production order.
var (
	ReadStatsPDF       = Artifact{Kind: "readstats", Ext: "pdf"}
	BCStatsPDF         = Artifact{Kind: "bcstats", Ext: "pdf"}
	ReadsPerBCPDF      = Artifact{Kind: "readsperbc", Ext: "pdf"}
	DepthPDF           = Artifact{Kind: "depth", Ext: "pdf"}
	MutFreqPDF         = Artifact{Kind: "mutfreq", Ext: "pdf"}
	CodonMutTypesPDF   = Artifact{Kind: "codonmuttypes", Ext: "pdf"}
	CodonMutTypesCSV   = Artifact{Kind: "codonmuttypes", Ext: "csv"}
	CodonNTChangesPDF  = Artifact{Kind: "codonntchanges", Ext: "pdf"}
	SingleNTChangesPDF = Artifact{Kind: "singlentchanges", Ext: "pdf"}
	CumulMutCountsPDF  = Artifact{Kind: "cumulmutcounts", Ext: "pdf"}
)

// Artifacts returns every summary artifact kind in production order.
func Artifacts() []Artifact {
	return []Artifact{
		ReadStatsPDF, BCStatsPDF, ReadsPerBCPDF, DepthPDF, MutFreqPDF,
		CodonMutTypesPDF, CodonMutTypesCSV, CodonNTChangesPDF, SingleNTChangesPDF, CumulMutCountsPDF,
	}
}

// SummaryArtifactSet is the set of batch level outputs plus the batch log.
type SummaryArtifactSet struct {
	OutDir string
	Prefix string
}

// NewSummaryArtifactSet returns the summary set for prefix in outdir.
func NewSummaryArtifactSet(outdir, prefix string) SummaryArtifactSet {
	return SummaryArtifactSet{OutDir: outdir, Prefix: prefix}
}

// Path returns the path of a.
func (s SummaryArtifactSet) Path(a Artifact) string {
	return filepath.Join(s.OutDir, s.Prefix+a.Suffix())
}

// LogPath returns the batch log.
func (s SummaryArtifactSet) LogPath() string {
	return filepath.Join(s.OutDir, s.Prefix+logExt)
}

// ArtifactPaths returns every artifact path, excluding the log.
func (s SummaryArtifactSet) ArtifactPaths() []string {
	arts := Artifacts()
	out := make([]string, 0, len(arts))

	for _, a := range arts {
		out = append(out, s.Path(a))
	}

	return out
}

// Paths returns every path of the set, the log last.
func (s SummaryArtifactSet) Paths() []string {
	return append(s.ArtifactPaths(), s.LogPath())
}

// Remove deletes every artifact currently present. The log is never touched.
// All deletions are attempted; failures are accumulated.
func (s SummaryArtifactSet) Remove(fs afero.Fs) ([]string, error) {
	var (
		removed []string
		result  error
	)

	for _, p := range s.ArtifactPaths() {
		ok, err := afero.Exists(fs, p)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: %s: %w", ErrStat, p, err))
			continue
		}

		if !ok {
			continue
		}

		if err := fs.Remove(p); err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: %s: %w", ErrRemove, p, err))
			continue
		}

		removed = append(removed, p)
	}

	return removed, result
}

// Missing returns the paths that do not exist, in input order.
// A zero byte file exists.
func Missing(fs afero.Fs, paths []string) ([]string, error) {
	var missing []string

	for _, p := range paths {
		ok, err := afero.Exists(fs, p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrStat, p, err)
		}

		if !ok {
			missing = append(missing, p)
		}
	}

	return missing, nil
}

// AllExist reports whether every path exists.
func AllExist(fs afero.Fs, paths []string) (bool, error) {
	missing, err := Missing(fs, paths)
	if err != nil {
		return false, err
	}

	return len(missing) == 0, nil
}

// WriteAtomic writes path through write, first into a temporary sibling that
// is renamed into place once complete. On failure the temporary file is removed
// and path is left untouched.
func WriteAtomic(fs afero.Fs, path string, write func(w io.Writer) error) error {
	tmp := path + tmpSuffix

	f, err := fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAtomicWrite, path, err)
	}

	werr := write(f)
	cerr := f.Close()

	if err := errors.Join(werr, cerr); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("%w: %s: %w", ErrAtomicWrite, path, err)
	}

	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("%w: %s: %w", ErrAtomicWrite, path, err)
	}

	return nil
}
