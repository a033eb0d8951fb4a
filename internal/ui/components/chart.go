// Package components provides reusable UI components for the TUI and the
// plain-text report.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/ui/styles"
)

// RenderHourlyCurves plots the weekday and weekend hourly curves on one
// chart, weekday in red and weekend in blue.
func RenderHourlyCurves(weekday, weekend [24]float64, width, height int, caption string) string {
	if allZero(weekday[:]) && allZero(weekend[:]) {
		return styles.HelpStyle.Render("No trips in this slice")
	}

	width = max(width, 24)
	height = max(height, 3)

	graph := asciigraph.PlotMany([][]float64{weekday[:], weekend[:]},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Red,
			asciigraph.Blue,
		),
	)

	legend := RenderLegend([]LegendItem{
		{Label: models.Weekday.String(), Color: styles.WeekdayColor},
		{Label: models.Weekend.String(), Color: styles.WeekendColor},
	})

	return graph + "\n" + legend
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	barWidth := max(width-maxLabelLen-10, 10) // Leave room for label and value

	lines := make([]string, 0, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		barLen := max(int((v/maxVal)*float64(barWidth)), 0)
		bar := lipgloss.NewStyle().Foreground(styles.Secondary).Render(strings.Repeat("█", barLen))

		lines = append(lines, fmt.Sprintf("%*s │%s %g", maxLabelLen, label, bar, v))
	}

	return strings.Join(lines, "\n")
}

// RenderHistogram draws the duration histogram as horizontal bars, one per
// bin, with the overflow bucket last when it is not empty.
func RenderHistogram(h models.DurationHistogram, width int) string {
	if h.Total() == 0 {
		return styles.HelpStyle.Render("No durations recorded")
	}

	values := make([]float64, 0, len(h.Bins)+1)
	labels := make([]string, 0, len(h.Bins)+1)
	for _, b := range h.Bins {
		values = append(values, float64(b.Count))
		labels = append(labels, FormatMinutes(b.Lower)+"-"+FormatMinutes(b.Upper))
	}
	if h.Overflow > 0 && len(h.Bins) > 0 {
		values = append(values, float64(h.Overflow))
		labels = append(labels, "≥"+FormatMinutes(h.Bins[len(h.Bins)-1].Upper))
	}

	return RenderBarChart(values, labels, width)
}

// HeatmapBlocks are Unicode block characters for heatmaps (low to high intensity).
var HeatmapBlocks = []rune{'░', '▒', '▓', '█'}

// RenderHourlyHeatmap renders a 24-hour curve as one row of shaded blocks.
func RenderHourlyHeatmap(curve [24]float64) string {
	maxVal := 0.0
	for _, v := range curve {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	var result strings.Builder
	result.WriteString("00 ")

	for i, v := range curve {
		intensity := int((v / maxVal) * float64(len(HeatmapBlocks)-1))
		intensity = min(max(intensity, 0), len(HeatmapBlocks)-1)

		var color lipgloss.Color
		switch intensity {
		case 0:
			color = styles.Subtle
		case 1:
			color = styles.Success
		case 2:
			color = styles.Warning
		default:
			color = styles.Error
		}

		result.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(HeatmapBlocks[intensity])))

		if i == 11 {
			result.WriteString(" ")
		}
	}

	result.WriteString(" 23")
	return result.String()
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	step := max(float64(len(values))/float64(width), 1)

	var result strings.Builder
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		normalized := int((val / maxVal) * float64(len(sparkChars)-1))
		result.WriteRune(sparkChars[min(max(normalized, 0), len(sparkChars)-1)])
	}

	return result.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
