// Package services orchestrates loading, analysis and event delivery for the
// CLI and the TUI.
package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/divvy-insights/internal/config"
	"github.com/j-veylop/divvy-insights/internal/db"
	"github.com/j-veylop/divvy-insights/internal/logger"
	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/services/flow"
	"github.com/j-veylop/divvy-insights/internal/trips"
)

type (
	// LoadingEvent is emitted when a source starts loading.
	LoadingEvent struct {
		Path string
	}

	// ReportReadyEvent is emitted when an analysis run completes.
	ReportReadyEvent struct {
		Source string
		Report *models.AnalysisReport
	}

	// ShortageAlertEvent is emitted when stations newly fall into severe
	// shortage compared to the previous report.
	ShortageAlertEvent struct {
		Stations []string
	}

	// ErrorEvent is emitted when loading or analysis fails.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (LoadingEvent) isServiceEvent()       {}
func (ReportReadyEvent) isServiceEvent()   {}
func (ShortageAlertEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()         {}

// LoadOptions selects the source file and the time slice to analyze.
type LoadOptions struct {
	Path        string
	Year        int
	Month       int
	ForceReload bool // bypass the trip cache
}

// Notifier delivers a desktop notification.
type Notifier func(title, body string) error

// Manager ties configuration, the trip cache and the analyzer together and
// fans results out to subscribers.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	database    *db.DB
	analyzer    *Analyzer
	notify      Notifier
	subscribers []chan<- ServiceEvent
	previous    *models.StationFlowResult
}

// NewManager creates a new service manager. The trip cache is opened when
// cfg.CachePath is set.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		analyzer: NewAnalyzer(),
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}

	if cfg.CachePath != "" {
		database, err := db.New(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize trip cache: %w", err)
		}
		m.database = database
	}

	return m, nil
}

// SetNotifier replaces the desktop notifier.
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	m.notify = n
	m.mu.Unlock()
}

// LoadRecords reads the source, applies the time slice and builds the
// record set. An empty slice is returned as is, never widened to the full
// table.
func (m *Manager) LoadRecords(ctx context.Context, opts LoadOptions) (*trips.RecordSet, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("no data file given (set DATA_FILE or pass --file)")
	}
	m.broadcast(LoadingEvent{Path: opts.Path})

	raw, err := m.readTrips(ctx, opts.Path, opts.ForceReload)
	if err != nil {
		return nil, err
	}

	sliced := trips.FilterPeriod(raw, opts.Year, opts.Month)
	if len(sliced) == 0 && len(raw) > 0 {
		logger.Warn("time slice matched no trips",
			"slice", trips.SliceLabel(opts.Year, opts.Month), "total", len(raw))
	}

	return trips.NewRecordSet(sliced, m.cfg.BuildOptions())
}

func (m *Manager) readTrips(ctx context.Context, path string, force bool) ([]models.RawTrip, error) {
	loc, err := m.cfg.Location()
	if err != nil {
		return nil, err
	}

	key, err := db.SourceKeyFor(path, loc.String())
	if err != nil {
		return nil, err
	}

	switch {
	case m.database == nil:
	case force:
		if err := m.database.DeleteSource(ctx, path); err != nil {
			logger.Warn("trip cache purge failed", "path", path, "error", err)
		}
	default:
		raw, ok, err := m.database.LoadTrips(ctx, key)
		switch {
		case err != nil:
			logger.Warn("trip cache read failed", "path", path, "error", err)
		case ok:
			logger.Info("trip cache hit", "path", path, "zone", key.Zone, "rows", len(raw))
			return raw, nil
		default:
			logger.Debug("trip cache miss", "path", path, "zone", key.Zone)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer func() { _ = f.Close() }()

	raw, stats, err := trips.ReadCSV(f, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	logger.Info("trip export parsed", "path", path, "rows", stats.Rows, "skipped", stats.Skipped)

	if m.database != nil {
		if err := m.database.SaveTrips(ctx, key, raw); err != nil {
			logger.Warn("trip cache write failed", "path", path, "error", err)
		}
	}

	return raw, nil
}

// Analyze loads the slice, runs the requested components, records the run
// and notifies subscribers.
func (m *Manager) Analyze(ctx context.Context, opts LoadOptions, req Request) (*models.AnalysisReport, error) {
	rs, err := m.LoadRecords(ctx, opts)
	if err != nil {
		m.broadcast(ErrorEvent{Service: "loader", Error: err})
		return nil, err
	}

	req.Slice = trips.SliceLabel(opts.Year, opts.Month)
	report, err := m.analyzer.Run(ctx, rs, req)
	if err != nil {
		m.broadcast(ErrorEvent{Service: "analyzer", Error: err})
		return nil, err
	}

	if m.database != nil {
		if err := m.database.InsertRun(ctx, models.Summarize(report, opts.Path)); err != nil {
			logger.Warn("failed to record run", "run_id", report.RunID, "error", err)
		}
	}

	m.checkNotifications(report.Flow)
	m.broadcast(ReportReadyEvent{Source: opts.Path, Report: report})

	return report, nil
}

// checkNotifications alerts on stations that fell into severe shortage
// since the previous report. The first report only sets the baseline.
func (m *Manager) checkNotifications(cur *models.StationFlowResult) {
	if cur == nil {
		return
	}

	m.mu.Lock()
	prev := m.previous
	m.previous = cur
	notify := m.notify
	m.mu.Unlock()

	if prev == nil {
		return
	}

	stations := flow.NewShortages(prev, cur)
	if len(stations) == 0 {
		return
	}

	m.broadcast(ShortageAlertEvent{Stations: stations})

	if m.cfg.Notify && notify != nil {
		title := fmt.Sprintf("Station shortage: %d new", len(stations))
		body := strings.Join(stations, ", ")
		if err := notify(title, body); err != nil {
			logger.Warn("desktop notification failed", "error", err)
		}
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// RecentRuns returns the latest recorded runs, or nil without a cache.
func (m *Manager) RecentRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	if m.database == nil {
		return nil, nil
	}
	return m.database.RecentRuns(ctx, limit)
}

// Database returns the trip cache, nil when caching is disabled.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and its cache.
func (m *Manager) Close() error {
	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	if m.database != nil {
		return m.database.Close()
	}
	return nil
}
