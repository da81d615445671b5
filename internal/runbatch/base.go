// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"maps"

	"github.com/matt-FFFFFF/dmsbatch/internal/progress"
)

// BaseCommand holds what every Runnable shares. Embed it in command types.
type BaseCommand struct {
	Label           string            // Label shown in logs and results
	Cwd             string            // Working directory, empty for the current one
	RunsOnCondition RunCondition      // When the command runs inside a SerialBatch
	Env             map[string]string // Extra environment variables
	parent          Runnable
	reporter        progress.Reporter
}

// PreviousCommandStatus holds the state of the previous command execution.
type PreviousCommandStatus struct {
	State    ResultStatus
	ExitCode int
	Err      error
}

// NewBaseCommand creates a new BaseCommand.
func NewBaseCommand(label, cwd string, runsOn RunCondition, env map[string]string) *BaseCommand {
	if env == nil {
		env = make(map[string]string)
	}

	return &BaseCommand{
		Label:           label,
		Cwd:             cwd,
		RunsOnCondition: runsOn,
		Env:             env,
	}
}

// GetLabel returns the label of the command.
func (c *BaseCommand) GetLabel() string {
	if c.Label == "" {
		return "Command"
	}

	return c.Label
}

// GetParent returns the parent for this command or batch.
func (c *BaseCommand) GetParent() Runnable {
	return c.parent
}

// SetParent sets the parent for this command or batch.
func (c *BaseCommand) SetParent(parent Runnable) {
	c.parent = parent
}

// InheritEnv adds env to the command's environment. Existing keys win.
func (c *BaseCommand) InheritEnv(env map[string]string) {
	if len(c.Env) == 0 {
		c.Env = maps.Clone(env)
		return
	}

	for k, v := range env {
		if _, ok := c.Env[k]; !ok {
			c.Env[k] = v
		}
	}
}

// SetProgressReporter sets the reporter for lifecycle events.
func (c *BaseCommand) SetProgressReporter(r progress.Reporter) {
	c.reporter = r
}

// Reporter returns the progress reporter, never nil.
func (c *BaseCommand) Reporter() progress.Reporter {
	return progress.OrNull(c.reporter)
}

// ShouldRun checks if the command should run given the previous command's outcome.
func (c *BaseCommand) ShouldRun(prev PreviousCommandStatus) ShouldRunAction {
	switch c.RunsOnCondition {
	case RunOnAlways:
		return ShouldRunActionRun
	case RunOnError:
		if prev.State != ResultStatusError {
			return ShouldRunActionSkip
		}

		return ShouldRunActionRun
	default:
		if prev.State == ResultStatusError {
			return ShouldRunActionError
		}

		return ShouldRunActionRun
	}
}
