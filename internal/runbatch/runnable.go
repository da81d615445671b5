// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"

	"github.com/matt-FFFFFF/dmsbatch/internal/progress"
)

// Runnable is something that can be run as part of a batch, either a command or a nested batch.
type Runnable interface {
	// Run executes the command or batch and returns the results.
	Run(context.Context) Results
	// InheritEnv adds environment variables without overwriting ones already set.
	InheritEnv(map[string]string)
	// GetLabel returns the label of the command or batch.
	GetLabel() string
	// GetParent returns the parent batch, if any.
	GetParent() Runnable
	// SetParent sets the parent batch.
	SetParent(Runnable)
	// SetProgressReporter sets where lifecycle events are sent.
	SetProgressReporter(progress.Reporter)
	// ShouldRun decides, from the previous sibling's outcome, whether to run.
	ShouldRun(prev PreviousCommandStatus) ShouldRunAction
}
