// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

// RunCondition defines when a command runs based on the previous command's result.
type RunCondition int

const (
	// RunOnSuccess means the command runs only if the previous command succeeded.
	RunOnSuccess RunCondition = iota
	// RunOnError means the command runs only if the previous command failed.
	RunOnError
	// RunOnAlways means the command always runs.
	RunOnAlways
)

const (
	runOnSuccessStr = "success"
	runOnErrorStr   = "error"
	runOnAlwaysStr  = "always"
	runOnUnknownStr = "unknown"
)

// String returns the string representation of the RunCondition.
func (r RunCondition) String() string {
	switch r {
	case RunOnSuccess:
		return runOnSuccessStr
	case RunOnError:
		return runOnErrorStr
	case RunOnAlways:
		return runOnAlwaysStr
	default:
		return runOnUnknownStr
	}
}

// ShouldRunAction is the outcome of a command's pre-check.
type ShouldRunAction int

const (
	// ShouldRunActionRun means run the command.
	ShouldRunActionRun ShouldRunAction = iota
	// ShouldRunActionSkip means skip the command.
	ShouldRunActionSkip
	// ShouldRunActionError means a previous error prevents the command from running.
	ShouldRunActionError
)
