// Package section provides the scrollable tabs that each show one section
// of the latest analysis report.
package section

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/divvy-insights/internal/app"
	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/ui/components"
	"github.com/j-veylop/divvy-insights/internal/ui/styles"
)

// renderFunc renders the section of r owned by the tab, or returns false
// when that component did not run.
type renderFunc func(r *models.AnalysisReport, width int) (string, bool)

// keyMap defines the key bindings specific to a section tab.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
	}
}

// Model is a tab showing one report section.
type Model struct {
	state     *app.State
	component models.Component
	render    renderFunc
	keys      keyMap
	viewport  viewport.Model
	width     int
	height    int
}

func newModel(state *app.State, c models.Component, render renderFunc) *Model {
	return &Model{
		state:     state,
		component: c,
		render:    render,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
	}
}

// NewStations creates the station flow tab.
func NewStations(state *app.State) *Model {
	return newModel(state, models.ComponentFlow, func(r *models.AnalysisReport, _ int) (string, bool) {
		if r.Flow == nil {
			return "", false
		}
		return components.RenderFlow(r.Flow), true
	})
}

// NewEconomics creates the unit economics tab.
func NewEconomics(state *app.State) *Model {
	return newModel(state, models.ComponentEconomics, func(r *models.AnalysisReport, width int) (string, bool) {
		if r.Economics == nil {
			return "", false
		}
		return components.RenderEconomics(r.Economics, width), true
	})
}

// NewTemporal creates the temporal patterns tab.
func NewTemporal(state *app.State) *Model {
	return newModel(state, models.ComponentTemporal, func(r *models.AnalysisReport, width int) (string, bool) {
		if r.Temporal == nil {
			return "", false
		}
		return components.RenderTemporal(r.Temporal, width), true
	})
}

// NewRegression creates the regression tab.
func NewRegression(state *app.State) *Model {
	return newModel(state, models.ComponentSignificance, func(r *models.AnalysisReport, _ int) (string, bool) {
		if r.Significance == nil {
			return "", false
		}
		return components.RenderSignificance(r.Significance), true
	})
}

// Init initializes the tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.ReportUpdatedMsg:
		m.refresh()
		m.viewport.GotoTop()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Top):
			m.viewport.GotoTop()
		case key.Matches(msg, m.keys.Bottom):
			m.viewport.GotoBottom()
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// refresh re-renders the section into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.content())
}

func (m *Model) content() string {
	report := m.state.Report()
	title := styles.TitleStyle.Render(components.ComponentTitle(m.component))

	if report == nil {
		hint := "No report yet."
		if label, _, busy := m.state.Loading(); busy {
			hint = label + "..."
		}
		return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(hint))
	}

	if err, failed := report.Failures[m.component]; failed {
		return lipgloss.JoinVertical(lipgloss.Left,
			title,
			styles.ErrorTextStyle.Render("This analysis failed:"),
			err.Error(),
		)
	}

	out, ok := m.render(report, m.viewport.Width)
	if !ok {
		return lipgloss.JoinVertical(lipgloss.Left,
			title,
			styles.HelpStyle.Render("Not part of this run. Select it with --task."),
		)
	}
	return out
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	// DocStyle takes a 1x2 margin and 0x1 padding.
	m.viewport.Width = max(width-6, 0)
	m.viewport.Height = max(height-2, 0)
	m.refresh()
}

// View renders the tab.
func (m *Model) View() string {
	if m.state.Report() == nil || m.viewport.TotalLineCount() == 0 {
		m.refresh()
	}
	return styles.DocStyle.Render(m.viewport.View())
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Top, m.keys.Bottom}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.Top, m.keys.Bottom},
	}
}
