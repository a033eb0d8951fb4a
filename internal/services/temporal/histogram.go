package temporal

import (
	"time"

	"github.com/j-veylop/divvy-insights/internal/models"
)

// newHistogram lays out fixed-width bins covering [0, max).
func newHistogram(width, max time.Duration) models.DurationHistogram {
	n := int((max + width - 1) / width)
	bins := make([]models.HistogramBin, n)
	for i := range bins {
		lower := time.Duration(i) * width
		bins[i] = models.HistogramBin{Lower: lower, Upper: min(lower+width, max)}
	}
	return models.DurationHistogram{Bins: bins}
}
