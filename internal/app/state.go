// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/divvy-insights/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// State is the data shared between the root model and the tabs. It is
// safe for concurrent use.
type State struct {
	mu sync.RWMutex

	report  *models.AnalysisReport
	source  string
	runs    []models.RunSummary
	loading string // label of the load in progress, "" when idle
	started time.Time

	lastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		notifications: make([]Notification, 0),
	}
}

// StartLoading marks a load as in progress.
func (s *State) StartLoading(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = label
	s.started = time.Now()
}

// StopLoading clears the load in progress.
func (s *State) StopLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = ""
	s.started = time.Time{}
}

// Loading returns the label of the load in progress and when it started.
func (s *State) Loading() (string, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading, s.started, s.loading != ""
}

// SetReport stores the latest report and the source it was computed from.
func (s *State) SetReport(source string, r *models.AnalysisReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = r
	s.source = source
	s.lastUpdated = time.Now()
}

// Report returns the latest report, nil before the first run.
func (s *State) Report() *models.AnalysisReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Source returns the file the latest report was computed from.
func (s *State) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// SetRuns replaces the run history.
func (s *State) SetRuns(runs []models.RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = runs
}

// Runs returns a copy of the run history, newest first.
func (s *State) Runs() []models.RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RunSummary, len(s.runs))
	copy(out, s.runs)
	return out
}

// LastUpdated returns when the latest report arrived.
func (s *State) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.lastUpdated)
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// Notifications returns a copy of all active notifications.
func (s *State) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}
