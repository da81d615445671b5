// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"

	"github.com/matt-FFFFFF/dmsbatch/internal/progress"
)

// reportResult sends the completion event matching res.
func reportResult(reporter progress.Reporter, job string, res *Result) {
	data := progress.EventData{
		ExitCode:   res.ExitCode,
		Error:      res.Error,
		LogPath:    res.LogPath,
		OutputLine: res.LastLine,
	}

	switch res.Status {
	case ResultStatusSuccess:
		reporter.Report(progress.NewEvent(job, progress.EventCompleted, "completed", data))
	case ResultStatusSkipped:
		reporter.Report(progress.NewEvent(job, progress.EventSkipped, "not started", data))
	default:
		reporter.Report(progress.NewEvent(job, progress.EventFailed,
			fmt.Sprintf("failed with exit code %d", res.ExitCode), data))
	}
}
