package info

import (
	"fmt"
	"runtime"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/ui/components"
	"github.com/j-veylop/divvy-insights/internal/ui/styles"
	"github.com/j-veylop/divvy-insights/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderTariffCard(),
		m.renderAboutCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, tariffs and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 100)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if m.config == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	c := m.config
	tariffPath := c.TariffPath
	if tariffPath == "" {
		tariffPath = "built-in"
	}
	rows = append(rows,
		m.renderConfigRow("Trip File", orNone(c.DataFile)),
		m.renderConfigRow("Cache", orNone(c.CachePath)),
		m.renderConfigRow("Tariffs", tariffPath),
		m.renderConfigRow("Timezone", c.Timezone),
		m.renderConfigRow("Congestion", "|net| > "+strconv.Itoa(c.CongestionThreshold)),
		m.renderConfigRow("Anomalies", strconv.Itoa(c.AnomalyCount)+" per side"),
		m.renderConfigRow("Rebalancing", "|net| > "+strconv.Itoa(c.RebalanceNet)),
		m.renderConfigRow("Hot Stations", "outflow above p"+strconv.FormatFloat(c.HotQuantile*100, 'f', -1, 64)),
		m.renderConfigRow("Short Trip", components.FormatMinutes(c.ShortTripThreshold)),
		m.renderConfigRow("Histogram Bin", components.FormatMinutes(c.HistogramBinWidth)),
		m.renderConfigRow("Trip Duration", components.FormatMinutes(c.MinTripDuration)+" to "+components.FormatMinutes(c.MaxTripDuration)),
		m.renderConfigRow("Min Records", strconv.Itoa(c.MinRecords)),
		m.renderConfigRow("Notifications", strconv.FormatBool(c.Notify)),
		m.renderConfigRow("Log Level", c.LogLevel),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func orNone(s string) string {
	if s == "" {
		return styles.HelpStyle.Render("none")
	}
	return s
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderTariffCard() string {
	rows := []string{styles.CardTitleStyle.Render("Tariffs"), ""}

	if m.tariffs == nil || len(m.tariffs.Pricing) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No tariffs loaded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	classes := make([]models.VehicleClass, 0, len(m.tariffs.Pricing))
	for c := range m.tariffs.Pricing {
		classes = append(classes, c)
	}
	slices.Sort(classes)

	t := components.NewTable("Class", "Unlock", "Included", "Within", "After", "Depreciation", "Swap")
	for _, c := range classes {
		p := m.tariffs.Pricing[c]
		cost := m.tariffs.Costs[c]
		t.Row(
			string(c),
			components.FormatMoney(p.UnlockFee),
			p.IncludedMinutes.String()+"m",
			components.FormatMoney(p.RatePerMinuteWithin),
			components.FormatMoney(p.RatePerMinuteAfter),
			components.FormatMoney(cost.DepreciationPerTrip),
			components.FormatMoney(cost.SwapCostPerTrip),
		)
	}
	rows = append(rows, t.Render())

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About Divvy Insights"),
		"",
		m.renderConfigRow("Version", version.GetVersion()),
		m.renderConfigRow("Build Date", version.GetDate()),
		m.renderConfigRow("Git Commit", version.GetCommit()),
		m.renderConfigRow("Go Version", runtime.Version()),
		m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
		"",
	}

	runs := len(m.state.Runs())
	rows = append(rows, fmt.Sprintf("Recorded runs: %s", styles.InfoTextStyle.Render(strconv.Itoa(runs))))

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
