// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/dmsbatch/internal/progress"
)

// JobStatus represents the current state of a job on the board.
type JobStatus int

const (
	StatusPending JobStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusSkipped
)

// String returns a string representation of the job status.
func (s JobStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Finished reports whether the job will receive no further updates.
func (s JobStatus) Finished() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped
}

// JobRow is one line of the board.
type JobRow struct {
	Name       string
	Status     JobStatus
	StartTime  *time.Time
	EndTime    *time.Time
	LastOutput string // Last line written by the job
	ErrorMsg   string
	LogPath    string
	mutex      sync.RWMutex
}

// RowInfo is a point in time copy of a JobRow.
type RowInfo struct {
	Name       string
	Status     JobStatus
	Elapsed    time.Duration // Zero until the job starts
	LastOutput string
	ErrorMsg   string
	LogPath    string
}

// NewJobRow creates a pending row.
func NewJobRow(name string) *JobRow {
	return &JobRow{
		Name:   name,
		Status: StatusPending,
	}
}

// UpdateStatus safely updates the job status and records start and end times.
func (r *JobRow) UpdateStatus(status JobStatus) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.Status = status
	now := time.Now()

	switch status {
	case StatusRunning:
		if r.StartTime == nil {
			r.StartTime = &now
		}
	case StatusSuccess, StatusFailed:
		if r.EndTime == nil {
			r.EndTime = &now
		}
	}
}

// UpdateOutput keeps the last non-blank line of output.
func (r *JobRow) UpdateOutput(output string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	output = strings.TrimSpace(output)
	if output == "" {
		return
	}

	lines := strings.Split(output, "\n")
	r.LastOutput = strings.TrimSpace(lines[len(lines)-1])
}

// UpdateError safely updates the error message.
func (r *JobRow) UpdateError(err string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.ErrorMsg = err
}

// UpdateLogPath records where the job's combined output is written.
func (r *JobRow) UpdateLogPath(path string) {
	if path == "" {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.LogPath = path
}

// Info safely retrieves display information.
func (r *JobRow) Info() RowInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	info := RowInfo{
		Name:       r.Name,
		Status:     r.Status,
		LastOutput: r.LastOutput,
		ErrorMsg:   r.ErrorMsg,
		LogPath:    r.LogPath,
	}

	if r.StartTime != nil {
		end := time.Now()
		if r.EndTime != nil {
			end = *r.EndTime
		}

		info.Elapsed = end.Sub(*r.StartTime)
	}

	return info
}

// Model represents the job board state.
type Model struct {
	rows         []*JobRow
	index        map[string]*JobRow
	width        int
	height       int
	quitting     bool
	completed    bool  // The batch has returned
	batchErr     error // Error the batch returned, if any
	exitWhenDone bool
	mutex        sync.RWMutex

	viewport viewport.Model
	spinner  spinner.Model
	styles   *Styles
}

// Styles contains all the styling for the board.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Skipped lipgloss.Style
	Output  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Border  lipgloss.Style
	Status  lipgloss.Style
}

// NewStyles creates the default styling for the board.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Skipped: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Strikethrough(true),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true),
	}
}

const (
	defaultWidth  = 100
	defaultHeight = 24
)

// NewModel creates a board with one pending row per job, in the given order.
func NewModel(jobs []string) *Model {
	styles := NewStyles()

	m := &Model{
		index:    make(map[string]*JobRow, len(jobs)),
		width:    defaultWidth,
		height:   defaultHeight,
		styles:   styles,
		viewport: viewport.New(defaultWidth, defaultHeight),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(styles.Running),
		),
	}

	m.addJobs(jobs)
	m.updateViewportSize()

	return m
}

// addJobs appends a pending row for every job not yet on the board.
func (m *Model) addJobs(jobs []string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, name := range jobs {
		m.rowLocked(name)
	}
}

// Row returns the row for job, or nil.
func (m *Model) Row(job string) *JobRow {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.index[job]
}

// Counts returns the number of rows in each status.
func (m *Model) Counts() map[JobStatus]int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.countsLocked()
}

func (m *Model) countsLocked() map[JobStatus]int {
	counts := make(map[JobStatus]int, len(m.rows))
	for _, r := range m.rows {
		counts[r.Info().Status]++
	}

	return counts
}

// row returns the row for job, appending one when an unknown job reports.
func (m *Model) row(job string) *JobRow {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.rowLocked(job)
}

func (m *Model) rowLocked(job string) *JobRow {
	if r, ok := m.index[job]; ok {
		return r
	}

	r := NewJobRow(job)
	m.index[job] = r
	m.rows = append(m.rows, r)

	return r
}

// reservedLines is the space taken by the title, border, status bar and help.
const reservedLines = 8

func (m *Model) updateViewportSize() {
	m.viewport.Width = max(m.width-2, minViewportWidth) //nolint:mnd // border
	m.viewport.Height = max(m.height-reservedLines, 1)
}

// processProgressEvent handles incoming progress events.
func (m *Model) processProgressEvent(event progress.Event) tea.Cmd {
	if event.Job == "" {
		return nil
	}

	r := m.row(event.Job)
	r.UpdateLogPath(event.Data.LogPath)

	switch event.Type {
	case progress.EventStarted:
		r.UpdateStatus(StatusRunning)

	case progress.EventCompleted:
		r.UpdateStatus(StatusSuccess)

	case progress.EventFailed:
		r.UpdateStatus(StatusFailed)

		if event.Data.Error != nil {
			r.UpdateError(event.Data.Error.Error())
		}

	case progress.EventOutput:
		r.UpdateOutput(event.Data.OutputLine)

	case progress.EventSkipped:
		r.UpdateStatus(StatusSkipped)
	}

	return nil
}
