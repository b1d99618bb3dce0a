package tui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/crewplan/internal/config"
)

// SettingsPaneModel manages the settings form overlay.
type SettingsPaneModel struct {
	form        *huh.Form
	config      *config.Config
	globalPath  string
	projectPath string
	width       int
	height      int
	visible     bool
	saved       bool
	err         error

	// Bound by pointer so copies of the model share one set of form values
	fields *settingsFields
}

// settingsFields holds the form field bindings (strings for Huh).
type settingsFields struct {
	saveTarget   string
	staffCeiling string
	concurrency  string
	logLevel     string
	logFormat    string
	showTimeline bool
	showSlack    bool
	color        bool
	catalogPath  string
}

// NewSettingsPaneModel creates a new settings pane.
func NewSettingsPaneModel(cfg *config.Config, globalPath, projectPath string) SettingsPaneModel {
	m := SettingsPaneModel{
		config:      cfg,
		globalPath:  globalPath,
		projectPath: projectPath,
	}

	m.buildForm()
	return m
}

// newSettingsFields copies the config into fresh form bindings.
func newSettingsFields(cfg *config.Config) *settingsFields {
	return &settingsFields{
		saveTarget:   "global",
		staffCeiling: strconv.Itoa(cfg.StaffCeiling),
		concurrency:  strconv.Itoa(cfg.Concurrency),
		logLevel:     cfg.Log.Level,
		logFormat:    cfg.Log.Format,
		showTimeline: cfg.Output.ShowTimeline,
		showSlack:    cfg.Output.ShowSlack,
		color:        cfg.Output.Color,
		catalogPath:  cfg.Catalog.Path,
	}
}

// nonNegativeInt validates a numeric form field.
func nonNegativeInt(minimum int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("not a number")
		}
		if n < minimum {
			return fmt.Errorf("must be at least %d", minimum)
		}
		return nil
	}
}

// buildForm constructs the Huh form with all settings fields.
func (m *SettingsPaneModel) buildForm() {
	m.fields = newSettingsFields(m.config)
	f := m.fields

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("saveTarget").
				Title("Save To").
				Options(
					huh.NewOption("Global (~/.crewplan/config.json)", "global"),
					huh.NewOption("Project (.crewplan/config.json)", "project"),
				).
				Value(&f.saveTarget),
		).Title("Save Target"),

		huh.NewGroup(
			huh.NewInput().
				Key("staffCeiling").
				Title("Staff Ceiling").
				Value(&f.staffCeiling).
				Validate(nonNegativeInt(0)).
				Placeholder(strconv.Itoa(config.DefaultStaffCeiling)),

			huh.NewInput().
				Key("concurrency").
				Title("Concurrent Projects").
				Value(&f.concurrency).
				Validate(nonNegativeInt(1)).
				Placeholder("4"),

			huh.NewInput().
				Key("catalogPath").
				Title("Catalog Path").
				Value(&f.catalogPath).
				Placeholder("~/.crewplan/catalog.db"),
		).Title("Scheduling"),

		huh.NewGroup(
			huh.NewSelect[string]().
				Key("logLevel").
				Title("Log Level").
				Options(huh.NewOptions(config.LogLevels...)...).
				Value(&f.logLevel),

			huh.NewSelect[string]().
				Key("logFormat").
				Title("Log Format").
				Options(huh.NewOptions(config.LogFormats...)...).
				Value(&f.logFormat),

			huh.NewConfirm().
				Key("showTimeline").
				Title("Print Timeline").
				Value(&f.showTimeline),

			huh.NewConfirm().
				Key("showSlack").
				Title("Print Slack Table").
				Value(&f.showSlack),

			huh.NewConfirm().
				Key("color").
				Title("Colored Output").
				Value(&f.color),
		).Title("Output"),
	)
}

// Init initializes the settings pane.
func (m SettingsPaneModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings pane.
func (m SettingsPaneModel) Update(msg tea.Msg) (SettingsPaneModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case KeyEsc:
			// Cancel without saving
			m.visible = false
			m.saved = false
			return m, nil
		}
	}

	// Delegate to form
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	// Check if form is completed
	if m.form.State == huh.StateCompleted {
		m.err = m.save()
		m.saved = m.err == nil

		// Hide form after successful save
		if m.saved {
			m.visible = false
		}
	}

	return m, cmd
}

// save copies form field values into the config and writes it to the chosen file.
func (m *SettingsPaneModel) save() error {
	updated := *m.config
	if err := m.applyForm(&updated); err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	targetPath := m.globalPath
	if m.fields.saveTarget == "project" {
		targetPath = m.projectPath
	}
	if err := config.Save(&updated, targetPath); err != nil {
		return err
	}

	*m.config = updated
	return nil
}

// applyForm copies form field values to cfg.
func (m *SettingsPaneModel) applyForm(cfg *config.Config) error {
	f := m.fields
	ceiling, err := strconv.Atoi(f.staffCeiling)
	if err != nil {
		return fmt.Errorf("staff ceiling: %w", err)
	}
	concurrency, err := strconv.Atoi(f.concurrency)
	if err != nil {
		return fmt.Errorf("concurrency: %w", err)
	}

	cfg.StaffCeiling = ceiling
	cfg.Concurrency = concurrency
	cfg.Log.Level = f.logLevel
	cfg.Log.Format = f.logFormat
	cfg.Output.ShowTimeline = f.showTimeline
	cfg.Output.ShowSlack = f.showSlack
	cfg.Output.Color = f.color
	cfg.Catalog.Path = f.catalogPath
	return nil
}

// View renders the settings pane.
func (m SettingsPaneModel) View() string {
	if !m.visible {
		return ""
	}

	var content string

	if m.err != nil {
		// Show error if save failed
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Render(fmt.Sprintf("✗ Error saving: %v", m.err))
	} else {
		content = m.form.View()
	}

	// Wrap in styled border
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(m.width - 4).
		Height(m.height - 4)

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render("⚙ Settings")

	return lipgloss.JoinVertical(lipgloss.Left, title, style.Render(content))
}

// SetSize updates the dimensions of the settings pane.
func (m *SettingsPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if m.form != nil {
		m.form.WithWidth(w - 8).WithHeight(h - 8)
	}
}

// SetVisible shows or hides the settings pane.
func (m *SettingsPaneModel) SetVisible(v bool) {
	m.visible = v
	m.saved = false
	m.err = nil

	// Rebuild form to reset state when showing
	if v {
		m.buildForm()
		m.form.WithWidth(m.width - 8).WithHeight(m.height - 8)
	}
}

// IsVisible returns whether the settings pane is currently visible.
func (m SettingsPaneModel) IsVisible() bool {
	return m.visible
}

// Saved reports whether the last form submission was written.
func (m SettingsPaneModel) Saved() bool {
	return m.saved
}
