package components

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/ui/styles"
)

// Section titles, shared with the TUI tabs.
const (
	TitleFlow         = "Station flow"
	TitleEconomics    = "Unit economics"
	TitleTemporal     = "Temporal patterns"
	TitleSignificance = "Regression"
)

// ComponentTitle returns the section title of a component.
func ComponentTitle(c models.Component) string {
	switch c {
	case models.ComponentFlow:
		return TitleFlow
	case models.ComponentEconomics:
		return TitleEconomics
	case models.ComponentTemporal:
		return TitleTemporal
	case models.ComponentSignificance:
		return TitleSignificance
	default:
		return string(c)
	}
}

// NewTable returns a table in the dashboard's look. Styled cell content is
// kept as is.
func NewTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.TableBorderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeaderStyle
			}
			return styles.TableCellStyle
		})
}

// RenderReport renders every section present in the report, followed by
// the components that failed.
func RenderReport(r *models.AnalysisReport, width int) string {
	sections := []string{RenderSummary(r)}

	if r.Flow != nil {
		sections = append(sections, RenderFlow(r.Flow))
	}
	if r.Economics != nil {
		sections = append(sections, RenderEconomics(r.Economics, width))
	}
	if r.Temporal != nil {
		sections = append(sections, RenderTemporal(r.Temporal, width))
	}
	if r.Significance != nil {
		sections = append(sections, RenderSignificance(r.Significance))
	}
	if len(r.Failures) > 0 {
		sections = append(sections, RenderFailures(r.Failures))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// RenderSummary renders the one-line header of a report.
func RenderSummary(r *models.AnalysisReport) string {
	title := styles.TitleStyle.Render("Divvy insights · " + r.Slice)
	line := fmt.Sprintf("%d records, %d rejected · run %s · %s",
		r.Records, r.Rejected, r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"))
	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(line), "")
}

// RenderFlow renders station balances and the most imbalanced stations.
func RenderFlow(res *models.StationFlowResult) string {
	summary := fmt.Sprintf("%d stations · threshold ±%d · %d trips counted, %d without both stations",
		len(res.Stations), res.Threshold, res.IncludedTrips, res.ExcludedTrips)
	counts := fmt.Sprintf("%s %d   %s %d",
		styles.CongestionStyle.Render("congested"), res.CountByStatus(models.FlowSevereCongestion),
		styles.ShortageStyle.Render("short"), res.CountByStatus(models.FlowSevereShortage))

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.SubTitleStyle.Render(TitleFlow),
		summary,
		counts,
		styles.HelpStyle.Render(describeTags(res)),
		"",
		styles.CardTitleStyle.Render("Most congested"),
		flowTable(res.Congested, "No stations past the threshold"),
		"",
		styles.CardTitleStyle.Render("Most short"),
		flowTable(res.Short, "No stations past the threshold"),
		"",
		styles.CardTitleStyle.Render("Rider incentives"),
		flowTable(res.Incentive, "No hot or commute station is filling up"),
		"",
		styles.CardTitleStyle.Render("Truck dispatch"),
		flowTable(res.Dispatch, "No station is running out"),
		"",
	)
}

// describeTags counts the stations carrying each tag.
func describeTags(res *models.StationFlowResult) string {
	parts := []string{fmt.Sprintf("hot above %s departures", FormatFloat(res.HotOutflow, 1))}
	for _, tag := range models.StationTags {
		n := 0
		for _, s := range res.Ordered {
			if s.Tags.Has(tag) {
				n++
			}
		}
		parts = append(parts, fmt.Sprintf("%s %d", tag, n))
	}
	return strings.Join(parts, " · ")
}

func flowTable(stations []models.StationFlow, empty string) string {
	if len(stations) == 0 {
		return styles.HelpStyle.Render(empty)
	}

	t := NewTable("Station", "In", "Out", "Net", "Status", "AM peak", "Weekend", "Avg min", "Tags")
	for _, s := range stations {
		t.Row(
			s.Station,
			strconv.Itoa(s.Inflow),
			strconv.Itoa(s.Outflow),
			FormatSigned(s.NetFlow),
			styles.FlowStatusStyle(s.Status).Render(string(s.Status)),
			FormatPercent(s.AMPeakRatio),
			FormatPercent(s.WeekendRatio),
			FormatFloat(s.AvgMinutes, 1),
			s.Tags.String(),
		)
	}
	return t.Render()
}

// RenderEconomics renders revenue, cost and margin per vehicle class, then
// fleet utilization.
func RenderEconomics(res *models.UnitEconomicsResult, width int) string {
	parts := []string{styles.SubTitleStyle.Render(TitleEconomics)}

	if len(res.Order) == 0 {
		parts = append(parts, styles.HelpStyle.Render("No trips to price"), "")
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	t := NewTable("Class", "Trips", "Revenue", "Cost", "Margin", "Margin %", "Avg rev", "Avg cost")
	for _, class := range res.Order {
		e := res.Classes[class]
		margin := styles.SignedStyle(e.Margin.Sign()).Render(FormatMoney(e.Margin))
		t.Row(
			string(class),
			strconv.Itoa(e.TripCount),
			FormatMoney(e.TotalRevenue),
			FormatMoney(e.TotalCost),
			margin,
			FormatPercent(e.MarginRate),
			FormatMoney(e.AvgRevenue),
			FormatMoney(e.AvgCost),
		)
	}
	parts = append(parts, t.Render(), "")

	if len(res.Fleet) > 0 {
		parts = append(parts, styles.CardTitleStyle.Render("Fleet utilization"))

		u := NewTable("Class", "Trips", "Trip share", "Minutes", "Minute share", "Avg min")
		for _, f := range res.Fleet {
			u.Row(
				string(f.Class),
				strconv.Itoa(f.Trips),
				FormatPercent(f.TripShare),
				FormatFloat(f.TotalMinutes, 0),
				FormatPercent(f.MinuteShare),
				FormatFloat(f.AvgMinutes, 1),
			)
		}
		parts = append(parts, u.Render(), "")

		bar := NewShareBar(width - 30)
		for _, f := range res.Fleet {
			parts = append(parts, bar.View(string(f.Class), f.MinuteShare))
		}
		parts = append(parts, "")
	}

	parts = append(parts, fmt.Sprintf("Electric upsell: %d classic trips over %s",
		res.UpsellTrips, FormatMinutes(res.UpsellThreshold)), "")

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// RenderTemporal renders the hourly demand curves, their peaks, and the
// duration profile.
func RenderTemporal(res *models.TemporalPatternResult, width int) string {
	parts := []string{
		styles.SubTitleStyle.Render(TitleTemporal),
		RenderHourlyCurves(res.DailyAverage[models.Weekday], res.DailyAverage[models.Weekend],
			width-12, 10, "average trips per day, by start hour"),
		"",
	}

	for _, dt := range models.DayTypes {
		var curve [24]float64
		for h, n := range res.Counts[dt] {
			curve[h] = float64(n)
		}
		label := fmt.Sprintf("%-8s", dt.String())
		parts = append(parts, label+" "+RenderHourlyHeatmap(curve)+"  "+describePeaks(res.Peaks[dt], res.Days[dt]))
	}
	parts = append(parts, "")

	short := fmt.Sprintf("Short trips (under %s): %s of %d",
		FormatMinutes(res.ShortTripThreshold), FormatPercent(res.ShortTripRatio), res.Total)
	parts = append(parts, short)

	riders := make([]models.RiderType, 0, len(res.ShortTripRatioByRider))
	for r := range res.ShortTripRatioByRider {
		riders = append(riders, r)
	}
	slices.Sort(riders)
	for _, r := range riders {
		parts = append(parts, fmt.Sprintf("  %-8s %s", r, FormatPercent(res.ShortTripRatioByRider[r])))
	}

	if len(res.Segmentation) > 0 {
		parts = append(parts, "", styles.CardTitleStyle.Render("Trips by weekday"), segmentationTable(res.Segmentation))
	}

	parts = append(parts, "", styles.CardTitleStyle.Render("Duration histogram"), RenderHistogram(res.Histogram, width), "")

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// weekOrder lists the weekdays starting on Monday.
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

func segmentationTable(seg map[models.RiderType][7]int) string {
	headers := []string{"Rider"}
	for _, d := range weekOrder {
		headers = append(headers, d.String()[:3])
	}
	t := NewTable(headers...)

	riders := make([]models.RiderType, 0, len(seg))
	for r := range seg {
		riders = append(riders, r)
	}
	slices.Sort(riders)
	for _, r := range riders {
		row := []string{string(r)}
		for _, d := range weekOrder {
			row = append(row, strconv.Itoa(seg[r][d]))
		}
		t.Row(row...)
	}
	return t.Render()
}

func describePeaks(p models.DayTypePeaks, days int) string {
	if p.GlobalHour < 0 {
		return styles.HelpStyle.Render("no trips")
	}

	hours := make([]string, len(p.LocalMaxima))
	for i, h := range p.LocalMaxima {
		hours[i] = fmt.Sprintf("%02dh", h)
	}
	local := "none"
	if len(hours) > 0 {
		local = strings.Join(hours, " ")
	}

	return fmt.Sprintf("peak %02dh (%d trips over %d days) · local maxima %s",
		p.GlobalHour, p.GlobalCount, days, local)
}

// RenderSignificance renders an OLS fit as a coefficient table.
func RenderSignificance(res *models.SignificanceTestResult) string {
	model := res.Response + " ~ 1"
	if len(res.Terms) > 1 {
		model = res.Response + " ~ " + strings.Join(res.Terms[1:], " + ")
	}
	fit := fmt.Sprintf("n=%d · df=%d · R²=%s", res.N, res.DF, FormatFloat(res.RSquared, 4))

	t := NewTable("Term", "Coef", "Std err", "t", "p")
	for i, term := range res.Terms {
		t.Row(
			term,
			FormatFloat(res.Coefficients[i], 4),
			FormatFloat(res.StdErrors[i], 4),
			FormatFloat(res.TStats[i], 3),
			styles.PValueStyle(res.PValues[i]).Render(FormatPValue(res.PValues[i])),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.SubTitleStyle.Render(TitleSignificance),
		model,
		styles.HelpStyle.Render(fit),
		t.Render(),
		"",
	)
}

// RenderFailures lists failed components by name.
func RenderFailures(failures map[models.Component]error) string {
	names := make([]models.Component, 0, len(failures))
	for c := range failures {
		names = append(names, c)
	}
	slices.Sort(names)

	lines := []string{styles.SubTitleStyle.Foreground(styles.Error).Render("Failed")}
	for _, c := range names {
		lines = append(lines, styles.ErrorTextStyle.Render(fmt.Sprintf("%s: %v", ComponentTitle(c), failures[c])))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
