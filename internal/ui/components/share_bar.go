package components

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/divvy-insights/internal/ui/styles"
)

// ShareBar renders labeled horizontal bars for shares in [0, 1], such as
// a vehicle class's share of all trips.
type ShareBar struct {
	progress progress.Model
}

// NewShareBar creates a share bar of the given width.
func NewShareBar(width int) ShareBar {
	return ShareBar{
		progress: progress.New(
			progress.WithScaledGradient("#5A56E0", "#EE6FF8"),
			progress.WithWidth(max(width, 10)),
			progress.WithoutPercentage(),
		),
	}
}

// SetWidth changes the bar width.
func (b *ShareBar) SetWidth(width int) {
	b.progress.Width = max(width, 10)
}

// View renders one labeled bar. Shares outside [0, 1] are clamped.
func (b ShareBar) View(label string, share float64) string {
	share = min(max(share, 0), 1)
	return lipgloss.JoinHorizontal(lipgloss.Center,
		styles.ProgressLabelStyle.Render(label),
		b.progress.ViewAs(share),
		styles.ProgressPercentStyle.Render(FormatPercent(share)),
	)
}
