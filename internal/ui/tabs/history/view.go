package history

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/ui/components"
	"github.com/j-veylop/divvy-insights/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	if m.errorMsg != "" {
		return m.renderError()
	}

	runs := m.state.Runs()
	if len(runs) == 0 {
		return m.renderEmpty()
	}
	selected := min(m.selected, len(runs)-1)

	sections := []string{
		styles.TitleStyle.Render("Run history"),
		styles.HelpStyle.Render(fmt.Sprintf("%d recorded runs, newest first", len(runs))),
		"",
		components.RenderRuns(runs, selected),
		"",
		m.renderTrend(runs),
		m.renderDetail(runs[selected]),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Run history"),
		"",
		styles.HelpStyle.Render("No recorded runs yet."),
		styles.HelpStyle.Render("Runs are recorded when a run database is configured."),
	)
	return styles.DocStyle.Render(content)
}

// renderTrend charts short trip ratio and congested stations across runs,
// oldest on the left.
func (m *Model) renderTrend(runs []models.RunSummary) string {
	if len(runs) < 2 {
		return ""
	}

	ratios := make([]float64, len(runs))
	congested := make([]float64, len(runs))
	for i, r := range runs {
		if !math.IsNaN(r.ShortTripRatio) {
			ratios[i] = r.ShortTripRatio
		}
		congested[i] = float64(r.Congested)
	}
	slices.Reverse(ratios)
	slices.Reverse(congested)

	width := max(m.width-30, 10)
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.CardTitleStyle.Render("Trend"),
		fmt.Sprintf("%-12s %s", "short trips", components.RenderSparkline(ratios, width)),
		fmt.Sprintf("%-12s %s", "congested", components.RenderSparkline(congested, width)),
		"",
	)
}

func (m *Model) renderDetail(r models.RunSummary) string {
	cardWidth := max(m.width-6, 40)

	failed := styles.SuccessTextStyle.Render("none")
	if len(r.Failures) > 0 {
		failed = styles.ErrorTextStyle.Render(strings.Join(r.Failures, ", "))
	}

	rows := []string{
		styles.CardTitleStyle.Render("Run " + r.ID),
		"",
		fmt.Sprintf("Recorded   %s", r.CreatedAt.Local().Format("Mon Jan 2 2006 15:04:05")),
		fmt.Sprintf("Source     %s", r.Source),
		fmt.Sprintf("Slice      %s", r.Slice),
		fmt.Sprintf("Records    %d (%d rejected)", r.Records, r.Rejected),
		fmt.Sprintf("Stations   %d, %d congested, %d short", r.Stations, r.Congested, r.Short),
		fmt.Sprintf("Short      %s", components.FormatPercent(r.ShortTripRatio)),
		fmt.Sprintf("R²         %s", components.FormatFloat(r.RSquared, 4)),
		fmt.Sprintf("Failed     %s", failed),
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
