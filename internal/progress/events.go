// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a lifecycle update for a single job.
type Event struct {
	Job       string    // Job name as given in the batch file
	Type      EventType // What happened
	Message   string    // Human-readable status message
	Timestamp time.Time // When the event occurred
	Data      EventData // Type-specific data
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventQueued indicates the job was submitted to the pool.
	EventQueued EventType = iota
	// EventStarted indicates a worker started the external program.
	EventStarted
	// EventOutput indicates a new line of combined output.
	EventOutput
	// EventCompleted indicates the program exited zero.
	EventCompleted
	// EventFailed indicates the program exited non-zero or could not start.
	EventFailed
	// EventSkipped indicates the job was never started because dispatch stopped.
	EventSkipped
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventQueued:
		return "queued"
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// EventData contains type-specific information for progress events.
type EventData struct {
	OutputLine string // EventOutput: the line, without newline
	ExitCode   int    // EventCompleted / EventFailed
	Error      error  // EventFailed
	LogPath    string // where the job's combined output is written
}

// NewEvent returns an event stamped with the current time.
func NewEvent(job string, typ EventType, msg string, data EventData) Event {
	return Event{
		Job:       job,
		Type:      typ,
		Message:   msg,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// Reporter sends progress events. Implementations must not block the caller.
type Reporter interface {
	Report(event Event)
	// Close signals that no more events will be sent.
	Close()
}

// Listener receives events from a ChannelReporter.
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(e Event) {
	f(e)
}

// NullReporter drops every event.
type NullReporter struct{}

// Report implements Reporter.
func (NullReporter) Report(Event) {}

// Close implements Reporter.
func (NullReporter) Close() {}

// OrNull returns r, or a NullReporter when r is nil.
func OrNull(r Reporter) Reporter {
	if r == nil {
		return NullReporter{}
	}

	return r
}
