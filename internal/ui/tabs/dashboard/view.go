package dashboard

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/ui/components"
	"github.com/j-veylop/divvy-insights/internal/ui/styles"
)

// View renders the dashboard component.
func (m *Model) View() string {
	report := m.state.Report()
	if report == nil {
		return m.renderLoading()
	}

	sections := []string{m.renderTitle(report)}

	cardWidth := max(m.width-6, 40)
	sections = append(sections,
		m.renderFlowCard(report, cardWidth),
		m.renderEconomicsCard(report, cardWidth),
		m.renderTemporalCard(report, cardWidth),
		m.renderRegressionCard(report, cardWidth),
	)
	if len(report.Failures) > 0 {
		sections = append(sections, components.RenderFailures(report.Failures))
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.Render(m.viewport.View())
}

// renderLoading renders the state before the first report.
func (m *Model) renderLoading() string {
	label, started, busy := m.state.Loading()
	if !busy {
		return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.TitleStyle.Render("Divvy insights"),
			styles.HelpStyle.Render("No report yet. Press r to analyze."),
		))
	}

	m.spinner.Start(label, started)
	return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
}

func (m *Model) renderTitle(r *models.AnalysisReport) string {
	title := styles.TitleStyle.Render("Divvy insights · " + r.Slice)

	sub := fmt.Sprintf("%s · %d records, %d rejected · %s",
		filepath.Base(m.state.Source()), r.Records, r.Rejected, r.CreatedAt.Format("Jan 2 15:04"))
	if label, _, busy := m.state.Loading(); busy {
		sub += " · " + m.spinner.View() + " " + label
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(sub), "")
}

// card renders a titled card, or a placeholder when the component is
// missing from the report.
func card(title string, width int, rows ...string) string {
	head := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈") + " " + styles.CardTitleStyle.Render(title)
	return styles.CardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, append([]string{head, ""}, rows...)...),
	)
}

func missing(r *models.AnalysisReport, c models.Component) string {
	if r.Failed(c) {
		return styles.ErrorTextStyle.Render("Failed, see below")
	}
	return styles.HelpStyle.Render("Not part of this run")
}

func (m *Model) renderFlowCard(r *models.AnalysisReport, width int) string {
	if r.Flow == nil {
		return card(components.TitleFlow, width, missing(r, models.ComponentFlow))
	}
	res := r.Flow

	rows := []string{
		fmt.Sprintf("%d stations · %d trips counted", len(res.Stations), res.IncludedTrips),
		fmt.Sprintf("%s %d   %s %d   (threshold ±%d)",
			styles.CongestionStyle.Render("congested"), res.CountByStatus(models.FlowSevereCongestion),
			styles.ShortageStyle.Render("short"), res.CountByStatus(models.FlowSevereShortage),
			res.Threshold),
	}
	if line := stationLine("Piling up", res.Congested); line != "" {
		rows = append(rows, line)
	}
	if line := stationLine("Running out", res.Short); line != "" {
		rows = append(rows, line)
	}
	rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("Rebalancing: %d incentives · %d truck dispatches",
		len(res.Incentive), len(res.Dispatch))))
	return card(components.TitleFlow, width, rows...)
}

func stationLine(label string, stations []models.StationFlow) string {
	if len(stations) == 0 {
		return ""
	}
	names := make([]string, len(stations))
	for i, s := range stations {
		names[i] = fmt.Sprintf("%s (%s)", s.Station, components.FormatSigned(s.NetFlow))
	}
	return styles.HelpStyle.Render(label+": ") + strings.Join(names, ", ")
}

func (m *Model) renderEconomicsCard(r *models.AnalysisReport, width int) string {
	if r.Economics == nil {
		return card(components.TitleEconomics, width, missing(r, models.ComponentEconomics))
	}
	res := r.Economics
	if len(res.Order) == 0 {
		return card(components.TitleEconomics, width, styles.HelpStyle.Render("No trips to price"))
	}

	revenue, margin := decimal.Zero, decimal.Zero
	for _, class := range res.Order {
		e := res.Classes[class]
		revenue = revenue.Add(e.TotalRevenue)
		margin = margin.Add(e.Margin)
	}

	rows := []string{
		fmt.Sprintf("Revenue %s · margin %s",
			components.FormatMoney(revenue),
			styles.SignedStyle(margin.Sign()).Render(components.FormatMoney(margin))),
		"",
	}
	for _, f := range res.Fleet {
		rows = append(rows, m.shares.View(string(f.Class), f.TripShare))
	}
	rows = append(rows, "", fmt.Sprintf("Upsell pool %d classic trips", res.UpsellTrips))
	return card(components.TitleEconomics, width, rows...)
}

func (m *Model) renderTemporalCard(r *models.AnalysisReport, width int) string {
	if r.Temporal == nil {
		return card(components.TitleTemporal, width, missing(r, models.ComponentTemporal))
	}
	res := r.Temporal

	var rows []string
	for _, dt := range models.DayTypes {
		var curve [24]float64
		for h, n := range res.Counts[dt] {
			curve[h] = float64(n)
		}
		peak := styles.HelpStyle.Render("no trips")
		if p := res.Peaks[dt]; p.GlobalHour >= 0 {
			peak = fmt.Sprintf("peak %02dh", p.GlobalHour)
		}
		rows = append(rows, fmt.Sprintf("%-8s %s  %s", dt.String(), components.RenderHourlyHeatmap(curve), peak))
	}
	rows = append(rows, "", fmt.Sprintf("Short trips %s of %d", components.FormatPercent(res.ShortTripRatio), res.Total))
	return card(components.TitleTemporal, width, rows...)
}

func (m *Model) renderRegressionCard(r *models.AnalysisReport, width int) string {
	if r.Significance == nil {
		return card(components.TitleSignificance, width, missing(r, models.ComponentSignificance))
	}
	res := r.Significance

	significant := 0
	for i := 1; i < len(res.PValues); i++ {
		if res.PValues[i] < styles.SignificanceLevel {
			significant++
		}
	}
	rows := []string{
		fmt.Sprintf("%s on %d covariates · R² %s", res.Response, len(res.Terms)-1, components.FormatFloat(res.RSquared, 4)),
		fmt.Sprintf("%d significant at p < 0.05 · n=%d", significant, res.N),
	}
	if b, ok := res.Coefficient(models.InterceptTerm); ok {
		rows = append(rows, styles.HelpStyle.Render("Baseline "+components.FormatFloat(b, 3)))
	}
	return card(components.TitleSignificance, width, rows...)
}
