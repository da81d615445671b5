// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/dmsbatch/internal/progress"
)

const (
	minStatusBarAvailableHeight = 10
	minViewportWidth            = 40
	jobDurationRounding         = 100 * time.Millisecond
	ellipsis                    = "..."
)

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// BatchCompletedMsg indicates that the batch has returned.
type BatchCompletedMsg struct {
	Err error
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.spinner.Tick,
	)
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewportSize()
		m.mutex.Unlock()

		return m, cmd

	case spinner.TickMsg:
		var tick tea.Cmd

		m.spinner, tick = m.spinner.Update(msg)

		return m, tea.Batch(cmd, tick)

	case ProgressEventMsg:
		return m, tea.Batch(cmd, m.processProgressEvent(msg.Event))

	case BatchCompletedMsg:
		m.mutex.Lock()
		m.completed = true
		m.batchErr = msg.Err
		exit := m.exitWhenDone
		m.quitting = exit
		m.mutex.Unlock()

		if exit {
			return m, tea.Quit
		}

		return m, cmd

	case tea.QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, cmd
}

// handleKeyPress processes keyboard input. Scrolling is handled by the viewport.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.mutex.Lock()
		m.quitting = true
		m.mutex.Unlock()

		return m, tea.Quit
	}

	return m, nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.quitting {
		return "Closing job board...\n"
	}

	var content strings.Builder

	for _, r := range m.rows {
		m.renderRow(&content, r.Info())
	}

	if m.completed {
		content.WriteString("\n")

		if m.batchErr != nil {
			content.WriteString(m.styles.Failed.Render("Batch failed: " + m.batchErr.Error()))
		} else {
			content.WriteString(m.styles.Success.Render("Batch completed successfully"))
		}

		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())

	var view strings.Builder

	view.WriteString(m.styles.Title.Render("dmsbatch job board"))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))

	if m.height > minStatusBarAvailableHeight {
		view.WriteString("\n")
		view.WriteString(m.renderStatusBar())
		view.WriteString("\n")

		helpText := "↑/↓ or j/k to scroll, PgUp/PgDn for pages, 'q' to close the board (jobs keep running)"
		if m.completed {
			helpText = "↑/↓ or j/k to scroll, 'q' to quit and return to terminal"
		}

		view.WriteString(m.styles.Help.Render(helpText))
	}

	return view.String()
}

// renderStatusBar summarises the board. Callers hold the read lock.
func (m *Model) renderStatusBar() string {
	counts := m.countsLocked()

	done := 0
	for status, n := range counts {
		if status.Finished() {
			done += n
		}
	}

	parts := []string{
		fmt.Sprintf("%d/%d finished", done, len(m.rows)),
		m.styles.Running.Render(fmt.Sprintf("%d running", counts[StatusRunning])),
		m.styles.Success.Render(fmt.Sprintf("%d succeeded", counts[StatusSuccess])),
		m.styles.Failed.Render(fmt.Sprintf("%d failed", counts[StatusFailed])),
	}

	if n := counts[StatusSkipped]; n > 0 {
		parts = append(parts, m.styles.Pending.Render(fmt.Sprintf("%d not started", n)))
	}

	return m.styles.Status.Render(strings.Join(parts, "  "))
}

// renderRow renders one job with its last output line or error.
func (m *Model) renderRow(b *strings.Builder, info RowInfo) {
	var (
		icon  string
		style lipgloss.Style
	)

	switch info.Status {
	case StatusRunning:
		icon = m.spinner.View()
		style = m.styles.Running
	case StatusSuccess:
		icon = "✔"
		style = m.styles.Success
	case StatusFailed:
		icon = "✘"
		style = m.styles.Failed
	case StatusSkipped:
		icon = "-"
		style = m.styles.Skipped
	default:
		icon = "·"
		style = m.styles.Pending
	}

	left := info.Name
	if info.Elapsed > 0 {
		left += fmt.Sprintf(" (%v)", info.Elapsed.Round(jobDurationRounding))
	}

	var (
		right      string
		rightStyle = m.styles.Output
	)

	switch {
	case info.Status == StatusFailed && info.ErrorMsg != "":
		right = "Error: " + info.ErrorMsg
		if info.LogPath != "" {
			right += " (see " + info.LogPath + ")"
		}

		rightStyle = m.styles.Error
	case info.Status == StatusRunning:
		right = info.LastOutput
	}

	available := max(m.viewport.Width-lipgloss.Width(icon)-2, minViewportWidth)
	leftWidth := available / 2
	rightWidth := available - leftWidth

	left = truncate(left, leftWidth)
	right = truncate(right, rightWidth)

	b.WriteString(icon)
	b.WriteString(" ")
	b.WriteString(style.Render(left))
	b.WriteString(strings.Repeat(" ", leftWidth-lipgloss.Width(left)))

	if right != "" {
		b.WriteString(rightStyle.Render(right))
	}

	b.WriteString("\n")
}

// truncate shortens s to at most width cells.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}

	runes := []rune(s)
	if width <= len(ellipsis) {
		return string(runes[:min(width, len(runes))])
	}

	for len(runes) > 0 && lipgloss.Width(string(runes))+len(ellipsis) > width {
		runes = runes[:len(runes)-1]
	}

	return string(runes) + ellipsis
}
