package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/crewplan/internal/events"
	"github.com/aristath/crewplan/internal/scheduler"
)

// Project statuses
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProjectState is everything the viewer knows about one analysed project.
type ProjectState struct {
	Name          string
	Status        string
	Tasks         int
	Ceiling       int
	Records       []events.TimelineEvent
	TotalDuration int
	PeakStaff     int
	CriticalPath  []int
	Err           error
	Elapsed       time.Duration
}

// restoreRecords replaces the streamed records with the complete log when
// some were dropped on the way.
func (p *ProjectState) restoreRecords(records []scheduler.SimulationEvent) {
	if len(records) <= len(p.Records) {
		return
	}
	p.Records = make([]events.TimelineEvent, len(records))
	for i, r := range records {
		p.Records[i] = events.TimelineEvent{
			Name:       p.Name,
			Time:       r.Time,
			Started:    r.Started,
			Finished:   r.Finished,
			StaffTotal: r.StaffTotal,
			Ceiling:    p.Ceiling,
		}
	}
}

// TimelinePaneModel lists the projects and shows the staffing timeline of
// the selected one.
type TimelinePaneModel struct {
	projects     map[string]*ProjectState
	projectOrder []string // insertion order for display
	selectedIdx  int
	viewport     viewport.Model
	width        int
	height       int
	focused      bool
	updateTag    int // for debouncing
}

const listWidth = 25

// NewTimelinePaneModel creates a new timeline pane model.
func NewTimelinePaneModel() TimelinePaneModel {
	vp := viewport.New(0, 0)
	return TimelinePaneModel{
		projects: make(map[string]*ProjectState),
		viewport: vp,
	}
}

// tickMsg is used for debouncing viewport updates.
type tickMsg struct {
	tag int
}

// Update handles messages for the timeline pane.
func (m TimelinePaneModel) Update(msg tea.Msg) (TimelinePaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if !m.focused {
			break
		}

		switch msg.String() {
		case KeyJ, KeyDown:
			if m.selectedIdx < len(m.projectOrder)-1 {
				m.selectedIdx++
				m.updateViewportContent()
			}
		case KeyK, KeyUp:
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.updateViewportContent()
			}
		default:
			// Delegate other keys to viewport for scrolling
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.AnalysisStartedEvent:
		if _, exists := m.projects[msg.Name]; !exists {
			m.projects[msg.Name] = &ProjectState{
				Name:    msg.Name,
				Status:  StatusRunning,
				Tasks:   msg.Tasks,
				Ceiling: msg.Ceiling,
			}
			m.projectOrder = append(m.projectOrder, msg.Name)
			// Auto-select first project
			if len(m.projectOrder) == 1 {
				m.selectedIdx = 0
				m.updateViewportContent()
			}
		}

	case events.TimelineEvent:
		if project, exists := m.projects[msg.Name]; exists {
			project.Records = append(project.Records, msg)
			// Debounce bursts of records for the selected project
			if m.Selected() == msg.Name {
				m.updateTag++
				tag := m.updateTag
				return m, tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
					return tickMsg{tag: tag}
				})
			}
		}

	case events.AnalysisCompletedEvent:
		if project, exists := m.projects[msg.Name]; exists {
			project.Status = StatusCompleted
			project.restoreRecords(msg.Records)
			project.TotalDuration = msg.TotalDuration
			project.PeakStaff = msg.PeakStaff
			project.CriticalPath = msg.CriticalPath
			project.Elapsed = msg.Elapsed
			if m.Selected() == msg.Name {
				m.updateViewportContent()
			}
		}

	case events.AnalysisFailedEvent:
		if project, exists := m.projects[msg.Name]; exists {
			project.Status = StatusFailed
			project.restoreRecords(msg.Records)
			project.Err = msg.Err
			project.Elapsed = msg.Elapsed
			if m.Selected() == msg.Name {
				m.updateViewportContent()
			}
		}

	case tickMsg:
		// Only update if this tick matches the current tag (debouncing)
		if msg.tag == m.updateTag {
			m.updateViewportContent()
		}
	}

	return m, cmd
}

// View renders the timeline pane.
func (m TimelinePaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	viewportWidth := m.width - listWidth - 4 // account for borders and padding

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderProjectList(listWidth),
		lipgloss.NewStyle().
			Width(viewportWidth).
			Height(m.height-2).
			Render(m.viewport.View()),
	)

	// Apply border style
	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

// renderProjectList renders the project list column.
func (m TimelinePaneModel) renderProjectList(width int) string {
	var b strings.Builder

	title := StyleTitle.Render("Projects")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", min(width, lipgloss.Width(title))))
	b.WriteString("\n\n")

	if len(m.projectOrder) == 0 {
		b.WriteString(StyleStatusPending.Render("Waiting..."))
	} else {
		for i, name := range m.projectOrder {
			project := m.projects[name]
			if len(name) > width-6 {
				name = name[:width-9] + "..."
			}

			line := fmt.Sprintf("%s %s", StatusIcon(project.Status), name)
			if i == m.selectedIdx {
				line = StyleSelected.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(m.height - 2).
		Render(b.String())
}

// StatusIcon returns a styled status indicator.
func StatusIcon(status string) string {
	switch status {
	case StatusRunning:
		return StyleStatusRunning.Render("●")
	case StatusCompleted:
		return StyleStatusComplete.Render("✓")
	case StatusFailed:
		return StyleStatusFailed.Render("✗")
	default:
		return StyleStatusPending.Render("○")
	}
}

// Selected returns the name of the selected project.
func (m TimelinePaneModel) Selected() string {
	if m.selectedIdx >= 0 && m.selectedIdx < len(m.projectOrder) {
		return m.projectOrder[m.selectedIdx]
	}
	return ""
}

// Project returns the state of a project.
func (m TimelinePaneModel) Project(name string) (*ProjectState, bool) {
	project, ok := m.projects[name]
	return project, ok
}

// updateViewportContent renders the selected project's timeline into the viewport.
func (m *TimelinePaneModel) updateViewportContent() {
	project, exists := m.projects[m.Selected()]
	if !exists {
		m.viewport.SetContent("Waiting for projects...")
		return
	}

	m.viewport.SetContent(RenderTimeline(project, m.barWidth()))
	// Auto-scroll to bottom
	m.viewport.GotoBottom()
}

// RenderTimeline draws one staff bar per record, scaled to the ceiling.
func RenderTimeline(project *ProjectState, barWidth int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  tasks: %d  ceiling: %d\n\n", project.Name, project.Tasks, project.Ceiling)

	for _, rec := range project.Records {
		used := 0
		if project.Ceiling > 0 {
			used = min(barWidth, rec.StaffTotal*barWidth/project.Ceiling)
		}
		bar := StyleStaffUsed.Render(strings.Repeat("█", used)) +
			StyleStaffFree.Render(strings.Repeat("░", max(0, barWidth-used)))

		fmt.Fprintf(&b, "t=%-4d %s %d/%d", rec.Time, bar, rec.StaffTotal, project.Ceiling)
		if len(rec.Started) > 0 {
			fmt.Fprintf(&b, "  +%v", rec.Started)
		}
		if len(rec.Finished) > 0 {
			fmt.Fprintf(&b, "  -%v", rec.Finished)
		}
		b.WriteString("\n")
	}

	switch project.Status {
	case StatusCompleted:
		fmt.Fprintf(&b, "\nFinished at %d, peak staff %d, critical path %v\n",
			project.TotalDuration, project.PeakStaff, project.CriticalPath)
	case StatusFailed:
		fmt.Fprintf(&b, "\n%s\n", StyleStatusFailed.Render(fmt.Sprintf("Failed: %v", project.Err)))
	}

	return b.String()
}

func (m TimelinePaneModel) barWidth() int {
	return max(10, min(40, m.viewport.Width-30))
}

// resizeViewport resizes the viewport based on pane dimensions.
func (m *TimelinePaneModel) resizeViewport() {
	viewportWidth := m.width - listWidth - 4
	viewportHeight := m.height - 4 // account for borders

	if viewportWidth < 10 {
		viewportWidth = 10
	}
	if viewportHeight < 5 {
		viewportHeight = 5
	}

	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight
}

// SetSize updates the pane dimensions.
func (m *TimelinePaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
	m.updateViewportContent()
}

// SetFocused updates the focus state.
func (m *TimelinePaneModel) SetFocused(focused bool) {
	m.focused = focused
}
