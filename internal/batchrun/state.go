// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batchrun

// State is a step of a batch run.
type State int

// States of a batch run, in order. Done and Failed are terminal.
const (
	StateInit State = iota
	StateChecking
	StateRunning
	StateValidating
	StateAggregating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateChecking:
		return "checking"
	case StateRunning:
		return "running"
	case StateValidating:
		return "validating"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// TransitionFunc is called on every state change.
type TransitionFunc func(from, to State)
