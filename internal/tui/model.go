package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/crewplan/internal/config"
	"github.com/aristath/crewplan/internal/events"
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneTimeline PaneID = iota
	PaneSlack
)

const paneCount = 2

// subscriptionBuffer holds timeline records while the view is busy rendering.
// Records beyond it are dropped; terminal events still arrive with the full log.
const subscriptionBuffer = 16 * events.DefaultBufferSize

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	timelinePane TimelinePaneModel
	slackPane    SlackPaneModel
	settingsPane SettingsPaneModel
	focusedPane  PaneID
	eventSub     <-chan events.Event
	width        int
	height       int
	quitting     bool
	showSettings bool
	showSlack    bool
	config       *config.Config
}

// New creates a new TUI model.
// It subscribes to all events from the event bus using SubscribeAll, so it
// must be created before any analysis publishes.
func New(eventBus *events.EventBus, cfg *config.Config, globalPath, projectPath string) Model {
	return Model{
		timelinePane: NewTimelinePaneModel(),
		slackPane:    NewSlackPaneModel(),
		settingsPane: NewSettingsPaneModel(cfg, globalPath, projectPath),
		focusedPane:  PaneTimeline,
		eventSub:     eventBus.SubscribeAll(subscriptionBuffer),
		showSlack:    cfg.Output.ShowSlack,
		config:       cfg,
	}
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.eventSub)
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If settings panel is open, route all keys to it (modal behavior)
		if m.showSettings {
			var cmd tea.Cmd
			m.settingsPane, cmd = m.settingsPane.Update(msg)
			cmds = append(cmds, cmd)

			// Settings pane closes itself on save or esc
			if !m.settingsPane.IsVisible() {
				m.showSettings = false
				m.showSlack = m.config.Output.ShowSlack
				m.computeLayout()
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case KeySettings:
			m.showSettings = true
			m.settingsPane.SetVisible(true)
			cmds = append(cmds, m.settingsPane.Init())

		case KeyTab, KeyShiftTab:
			if m.showSlack {
				m.focusedPane = (m.focusedPane + 1) % paneCount
				m.updateFocusStates()
			}

		case KeyPane1:
			m.focusedPane = PaneTimeline
			m.updateFocusStates()

		case KeyPane2:
			if m.showSlack {
				m.focusedPane = PaneSlack
				m.updateFocusStates()
			}

		default:
			// Delegate to focused pane
			var cmd tea.Cmd
			switch m.focusedPane {
			case PaneTimeline:
				m.timelinePane, cmd = m.timelinePane.Update(msg)
			case PaneSlack:
				m.slackPane, cmd = m.slackPane.Update(msg)
			}
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()
		m.settingsPane.SetSize(msg.Width, msg.Height)

	case events.AnalysisStartedEvent, events.TimelineEvent, events.AnalysisFailedEvent:
		var cmd tea.Cmd
		m.timelinePane, cmd = m.timelinePane.Update(msg)
		cmds = append(cmds, cmd)
		// Also wait for next event
		cmds = append(cmds, waitForEvent(m.eventSub))

	case events.AnalysisCompletedEvent:
		// Both panes track completions
		var cmd tea.Cmd
		m.timelinePane, cmd = m.timelinePane.Update(msg)
		cmds = append(cmds, cmd)
		m.slackPane, cmd = m.slackPane.Update(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, waitForEvent(m.eventSub))

	case tickMsg:
		var cmd tea.Cmd
		m.timelinePane, cmd = m.timelinePane.Update(msg)
		cmds = append(cmds, cmd)

	default:
		// Settings form internals
		if m.showSettings {
			var cmd tea.Cmd
			m.settingsPane, cmd = m.settingsPane.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.slackPane.Select(m.timelinePane.Selected())

	return m, tea.Batch(cmds...)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.showSettings {
		return m.settingsPane.View()
	}

	mainContent := m.timelinePane.View()
	if m.showSlack {
		mainContent = lipgloss.JoinVertical(lipgloss.Left, mainContent, m.slackPane.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, HelpView())
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	availableHeight := m.height - 1 // reserve 1 line for help bar

	if !m.showSlack {
		m.timelinePane.SetSize(m.width, availableHeight)
		m.focusedPane = PaneTimeline
		m.updateFocusStates()
		return
	}

	timelineHeight := (availableHeight * 55) / 100
	m.timelinePane.SetSize(m.width, timelineHeight)
	m.slackPane.SetSize(m.width, availableHeight-timelineHeight)

	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.timelinePane.SetFocused(m.focusedPane == PaneTimeline)
	m.slackPane.SetFocused(m.focusedPane == PaneSlack)
}
