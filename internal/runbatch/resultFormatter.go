// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/matt-FFFFFF/dmsbatch/internal/color"
)

// OutputOptions controls what is included in the output.
type OutputOptions struct {
	ShowSuccessDetails bool // Whether to show log path and last line for successful commands
	ShowDuration       bool // Whether to show how long each command took
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		ShowSuccessDetails: false,
		ShowDuration:       true,
	}
}

// WriteResults writes a status tree of results to w.
func WriteResults(w io.Writer, results Results, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	for _, r := range results {
		if err := writeResultWithIndent(w, r, "", options); err != nil {
			return err
		}
	}

	return nil
}

func writeResultWithIndent(w io.Writer, r *Result, indent string, options *OutputOptions) error {
	var (
		statusStr string
		labelCol  color.Code
	)

	switch r.Status {
	case ResultStatusSkipped:
		statusStr = color.Colorize("~", color.FgYellow)
		labelCol = color.FgYellow
	case ResultStatusError:
		statusStr = color.Colorize("✗", color.FgRed)
		labelCol = color.FgRed
	case ResultStatusSuccess:
		statusStr = color.Colorize("✓", color.FgGreen)
		labelCol = color.FgGreen
	default:
		statusStr = color.Colorize("?", color.FgWhite)
		labelCol = color.FgWhite
	}

	label := r.Label
	if label == "" {
		label = "[unnamed]"
	}

	if _, err := fmt.Fprintf(w, "%s%s %s", indent, statusStr, color.Colorize(label, color.Bold, labelCol)); err != nil {
		return err //nolint:wrapcheck
	}

	if r.ExitCode != 0 {
		fmt.Fprintf(w, " (exit code: %d)", r.ExitCode) //nolint:errcheck
	}

	if options.ShowDuration && r.Duration > 0 {
		fmt.Fprintf(w, " [%s]", r.Duration.Round(time.Millisecond)) //nolint:errcheck
	}

	fmt.Fprintln(w) //nolint:errcheck

	if r.Error != nil && !errors.Is(r.Error, ErrResultChildrenHasError) {
		errCol := color.FgRed
		if r.Status == ResultStatusSkipped {
			errCol = color.FgYellow
		}

		fmt.Fprintf(w, "%s  %s %s\n", indent, color.Colorize("➜ Error:", errCol), r.Error) //nolint:errcheck
	}

	showDetails := (r.Status == ResultStatusError || options.ShowSuccessDetails) && len(r.Children) == 0

	if showDetails && r.LogPath != "" {
		fmt.Fprintf(w, "%s  ➜ Log: %s\n", indent, r.LogPath) //nolint:errcheck
	}

	if showDetails && r.LastLine != "" {
		fmt.Fprintf(w, "%s  %s %s\n", indent, color.Colorize("➜ Last output:", color.FgHiRed), r.LastLine) //nolint:errcheck
	}

	for _, child := range r.Children {
		if err := writeResultWithIndent(w, child, indent+"  ", options); err != nil {
			return err
		}
	}

	return nil
}
