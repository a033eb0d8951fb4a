package app

import (
	"time"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// AnalyzeMsg requests a new analysis run of the configured source.
type AnalyzeMsg struct {
	ForceReload bool
}

// AnalysisDoneMsg reports the outcome of an analysis run started by the
// model. The report itself arrives as a services.ReportReadyEvent.
type AnalysisDoneMsg struct {
	Err error
}

// ReportUpdatedMsg tells the tabs that State holds a new report.
type ReportUpdatedMsg struct {
	Report *models.AnalysisReport
}

// RunsLoadedMsg carries the run history.
type RunsLoadedMsg struct {
	Runs []models.RunSummary
	Err  error
}

// LoadRunsMsg requests a reload of the run history.
type LoadRunsMsg struct{}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
