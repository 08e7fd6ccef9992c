// internal/tui/progress.go

// Package tui renders an interactive progress view for batch runs.
package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"driftmon/internal/harness"
)

// Interactive reports whether stdout is a terminal. Non-interactive runs fall
// back to log lines.
func Interactive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

type doneMsg struct{}

// progressModel drives the run progress view from harness events.
type progressModel struct {
	events   <-chan harness.Event
	progress progress.Model
	spinner  spinner.Model
	last     harness.Event
	statuses map[string]int
	finished bool
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func newProgressModel(events <-chan harness.Event) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return progressModel{
		events:   events,
		progress: progress.New(progress.WithDefaultGradient()),
		spinner:  s,
		statuses: map[string]int{},
	}
}

func waitForEvent(events <-chan harness.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return e
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case harness.Event:
		m.last = msg
		m.statuses[msg.Status]++
		return m, waitForEvent(m.events)
	case doneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := msg.Width - 4
		if width > 60 {
			width = 60
		}
		if width > 0 {
			m.progress.Width = width
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Running battery"))
	b.WriteString("\n\n")

	pct := 0.0
	if m.last.Total > 0 {
		pct = float64(m.last.Done) / float64(m.last.Total)
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString(fmt.Sprintf("  %d/%d\n\n", m.last.Done, m.last.Total))

	if !m.finished && m.last.TestID != "" {
		b.WriteString(m.spinner.View())
		b.WriteString(detailStyle.Render(fmt.Sprintf(" %s / %s (%s)", m.last.ModelID, m.last.TestID, m.last.Status)))
		b.WriteString("\n")
	}
	if failures := m.statuses["error"] + m.statuses["timeout"]; failures > 0 {
		b.WriteString(badStyle.Render(fmt.Sprintf("%d failures so far", failures)))
		b.WriteString("\n")
	}
	return b.String()
}

// ShowProgress consumes harness events in a bubbletea view until the channel
// closes. It blocks, so run it alongside the harness.
func ShowProgress(events <-chan harness.Event) error {
	p := tea.NewProgram(newProgressModel(events))
	_, err := p.Run()
	return err
}

// LogProgress is the non-TTY fallback: one line per completed pair.
func LogProgress(events <-chan harness.Event, out *os.File) {
	for e := range events {
		fmt.Fprintf(out, "[%d/%d] %s / %s: %s\n", e.Done, e.Total, e.ModelID, e.TestID, e.Status)
	}
}
