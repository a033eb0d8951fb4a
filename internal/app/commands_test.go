package app

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/divvy-insights/internal/config"
	"github.com/j-veylop/divvy-insights/internal/services"
)

func TestCommands_Tick(t *testing.T) {
	if tickCmd(time.Millisecond) == nil {
		t.Error("tickCmd returned nil")
	}
	if defaultTickCmd() == nil {
		t.Error("defaultTickCmd returned nil")
	}
}

func TestCommands_Notifications(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) tea.Cmd
		want NotificationType
		dur  time.Duration
	}{
		{"Success", notifySuccessCmd, NotificationSuccess, DefaultNotificationDuration},
		{"Error", notifyErrorCmd, NotificationError, LongNotificationDuration},
		{"Warning", notifyWarningCmd, NotificationWarning, LongNotificationDuration},
		{"Info", NotifyInfo, NotificationInfo, QuickNotificationDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.fn("msg")()

			addMsg, ok := msg.(AddNotificationMsg)
			if !ok {
				t.Fatalf("Expected AddNotificationMsg, got %T", msg)
			}
			if addMsg.Type != tt.want {
				t.Errorf("Type = %v, want %v", addMsg.Type, tt.want)
			}
			if addMsg.Message != "msg" {
				t.Errorf("Message = %q, want msg", addMsg.Message)
			}
			if addMsg.Duration != tt.dur {
				t.Errorf("Duration = %v, want %v", addMsg.Duration, tt.dur)
			}
		})
	}
}

func TestCommands_ClearNotification(t *testing.T) {
	if clearNotificationCmd("id", time.Millisecond) == nil {
		t.Error("clearNotificationCmd returned nil")
	}
}

func TestCommands_LoadRuns(t *testing.T) {
	if _, ok := LoadRuns().(LoadRunsMsg); !ok {
		t.Error("LoadRuns should produce LoadRunsMsg")
	}

	mgr, err := services.NewManager(&config.Config{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	msg, ok := loadRunsCmd(mgr)().(RunsLoadedMsg)
	if !ok {
		t.Fatal("loadRunsCmd should produce RunsLoadedMsg")
	}
	if msg.Err != nil || msg.Runs != nil {
		t.Errorf("RunsLoadedMsg without a database = %+v", msg)
	}
}

func TestCommands_AnalyzeMissingFile(t *testing.T) {
	mgr, err := services.NewManager(&config.Config{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	tariffs, err := config.LoadTariffs("")
	if err != nil {
		t.Fatalf("LoadTariffs failed: %v", err)
	}
	opts := services.LoadOptions{Path: filepath.Join(t.TempDir(), "missing.csv")}

	msg, ok := analyzeCmd(mgr, opts, services.NewRequest(&config.Config{}, tariffs))().(AnalysisDoneMsg)
	if !ok {
		t.Fatal("analyzeCmd should produce AnalysisDoneMsg")
	}
	if msg.Err == nil {
		t.Error("analyzing a missing file should fail")
	}
}

func TestCommands_WaitForServiceEvent(t *testing.T) {
	ch := make(chan services.ServiceEvent, 1)
	ch <- services.LoadingEvent{Path: "trips.csv"}

	msg, ok := waitForServiceEventCmd(ch)().(ServiceEventMsg)
	if !ok {
		t.Fatal("expected ServiceEventMsg")
	}
	if e, ok := msg.Event.(services.LoadingEvent); !ok || e.Path != "trips.csv" {
		t.Errorf("Event = %#v", msg.Event)
	}

	close(ch)
	if got := waitForServiceEventCmd(ch)(); got != nil {
		t.Errorf("closed channel produced %T, want nil", got)
	}
}
