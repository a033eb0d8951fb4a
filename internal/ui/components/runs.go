package components

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/ui/styles"
)

// RenderRuns renders the run history as a table, newest first as given.
// The row at selected is highlighted; pass -1 for no selection.
func RenderRuns(runs []models.RunSummary, selected int) string {
	if len(runs) == 0 {
		return styles.HelpStyle.Render("No recorded runs")
	}

	t := NewTable("When", "Source", "Slice", "Records", "Rejected", "Stations",
		"Congested", "Short", "Short trips", "R²", "Failed")
	for _, r := range runs {
		failed := "-"
		if len(r.Failures) > 0 {
			failed = strings.Join(r.Failures, ",")
		}
		t.Row(
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			filepath.Base(r.Source),
			r.Slice,
			strconv.Itoa(r.Records),
			strconv.Itoa(r.Rejected),
			strconv.Itoa(r.Stations),
			strconv.Itoa(r.Congested),
			strconv.Itoa(r.Short),
			FormatPercent(r.ShortTripRatio),
			FormatFloat(r.RSquared, 3),
			failed,
		)
	}

	t.StyleFunc(func(row, _ int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return styles.TableHeaderStyle
		case row == selected:
			return styles.TableSelectedStyle
		default:
			return styles.TableCellStyle
		}
	})

	return t.Render()
}
