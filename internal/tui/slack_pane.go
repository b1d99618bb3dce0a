package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aristath/crewplan/internal/events"
	"github.com/aristath/crewplan/internal/report"
	"github.com/aristath/crewplan/internal/scheduler"
)

// SlackPaneModel shows the slack table of the selected project.
type SlackPaneModel struct {
	tasks    map[string][]*scheduler.Task // project -> tasks in id order
	selected string
	viewport viewport.Model
	width    int
	height   int
	focused  bool
}

// NewSlackPaneModel creates a new slack pane model.
func NewSlackPaneModel() SlackPaneModel {
	return SlackPaneModel{
		tasks:    make(map[string][]*scheduler.Task),
		viewport: viewport.New(0, 0),
	}
}

// Update handles messages for the slack pane.
func (m SlackPaneModel) Update(msg tea.Msg) (SlackPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.focused {
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.AnalysisCompletedEvent:
		m.tasks[msg.Name] = msg.Tasks
		if msg.Name == m.selected {
			m.updateViewportContent()
		}
	}

	return m, cmd
}

// Select switches the table to another project.
func (m *SlackPaneModel) Select(name string) {
	if name == m.selected {
		return
	}
	m.selected = name
	m.updateViewportContent()
}

// View renders the slack pane.
func (m SlackPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Slack")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())

	// Apply border style
	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// RenderSlackTable renders tasks as a table, critical rows highlighted.
func RenderSlackTable(tasks []*scheduler.Task) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleStatusPending).
		Headers(report.SlackHeaders...).
		Rows(report.SlackRows(tasks)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return StyleTitle
			case row < len(tasks) && tasks[row].Critical:
				return StyleCritical.Padding(0, 1)
			default:
				return lipgloss.NewStyle().Padding(0, 1)
			}
		}).
		String()
}

func (m *SlackPaneModel) updateViewportContent() {
	tasks, ok := m.tasks[m.selected]
	if !ok {
		m.viewport.SetContent(StyleStatusPending.Render("No slack until the analysis completes."))
		return
	}

	m.viewport.SetContent(RenderSlackTable(tasks))
	m.viewport.GotoTop()
}

// SetSize updates the pane dimensions.
func (m *SlackPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = max(10, w-4)
	m.viewport.Height = max(3, h-6) // borders and title
	m.updateViewportContent()
}

// SetFocused updates the focus state.
func (m *SlackPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
