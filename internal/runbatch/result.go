// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"io"
	"os"
	"slices"
	"time"
)

// ErrResultChildrenHasError is the error of a batch whose children failed.
var ErrResultChildrenHasError = errors.New("result has children with errors")

// ResultStatus is the outcome of a command or batch.
type ResultStatus int

const (
	// ResultStatusSuccess means the command or batch succeeded.
	ResultStatusSuccess ResultStatus = iota
	// ResultStatusError means the command or batch failed.
	ResultStatusError
	// ResultStatusSkipped means the command never ran.
	ResultStatusSkipped
	// ResultStatusUnknown means the outcome was not determined.
	ResultStatusUnknown
)

// String implements fmt.Stringer.
func (s ResultStatus) String() string {
	switch s {
	case ResultStatusSuccess:
		return "success"
	case ResultStatusError:
		return "error"
	case ResultStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result represents the outcome of running a command or batch.
type Result struct {
	Label    string        // Label of the command or batch
	ExitCode int           // Exit code, -1 when the process did not exit normally
	Error    error         // Error, if any
	Status   ResultStatus  // Outcome
	LogPath  string        // File holding the command's combined output, if any
	LastLine string        // Last line the command wrote
	Duration time.Duration // Wall time of the command
	Children Results       // Nested results for batches
}

// Results is a slice of Result pointers.
type Results []*Result

// HasError reports whether any result, or any nested child, failed.
func (r Results) HasError() bool {
	for v := range slices.Values(r) {
		if v.Status == ResultStatusError || v.ExitCode != 0 {
			return true
		}

		if v.Error != nil && v.Status != ResultStatusSkipped {
			return true
		}

		if v.Children.HasError() {
			return true
		}
	}

	return false
}

// Leaves returns the results without children, depth first.
func (r Results) Leaves() Results {
	var out Results

	for _, v := range r {
		if len(v.Children) == 0 {
			out = append(out, v)
			continue
		}

		out = append(out, v.Children.Leaves()...)
	}

	return out
}

// Failed returns the leaves that failed.
func (r Results) Failed() Results {
	var out Results

	for _, v := range r.Leaves() {
		if (Results{v}).HasError() {
			out = append(out, v)
		}
	}

	return out
}

// Print writes the results to stdout with default options.
func (r Results) Print() error {
	return WriteResults(os.Stdout, r, nil)
}

// Write writes the results to w with default options.
func (r Results) Write(w io.Writer) error {
	return WriteResults(w, r, nil)
}

// WriteWithOptions writes the results to w with the given options.
func (r Results) WriteWithOptions(w io.Writer, options *OutputOptions) error {
	return WriteResults(w, r, options)
}
