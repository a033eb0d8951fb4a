package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/services"
)

// stubTab records the messages it receives.
type stubTab struct {
	name          string
	msgs          []tea.Msg
	width, height int
}

func (s *stubTab) Init() tea.Cmd { return nil }

func (s *stubTab) Update(msg tea.Msg) (Tab, tea.Cmd) {
	s.msgs = append(s.msgs, msg)
	return s, nil
}

func (s *stubTab) View() string { return "content of " + s.name }

func (s *stubTab) SetSize(w, h int) { s.width, s.height = w, h }

func (s *stubTab) ShortHelp() []key.Binding {
	return []key.Binding{key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stub action"))}
}

func (s *stubTab) FullHelp() [][]key.Binding { return [][]key.Binding{s.ShortHelp()} }

func (s *stubTab) received(match func(tea.Msg) bool) bool {
	for _, m := range s.msgs {
		if match(m) {
			return true
		}
	}
	return false
}

func newTestModel() (*Model, []*stubTab) {
	m := NewModel(nil, services.LoadOptions{Path: "/data/trips.csv"}, services.Request{})
	stubs := make([]*stubTab, tabCount)
	tabs := make([]Tab, tabCount)
	for i := range tabCount {
		stubs[i] = &stubTab{name: i.String()}
		tabs[i] = stubs[i]
	}
	m.SetTabs(tabs)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, stubs
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil, services.LoadOptions{}, services.Request{})
	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if model.GetState() == nil {
		t.Error("State should be initialized")
	}
	if model.GetActiveTab() != TabOverview {
		t.Error("Default tab should be Overview")
	}
	if len(model.tabs) != int(tabCount) {
		t.Errorf("Should have %d tab placeholders, got %d", tabCount, len(model.tabs))
	}
	if model.Init() == nil {
		t.Error("Init returned nil command")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	m, stubs := newTestModel()

	if !m.IsReady() {
		t.Error("Model should be ready after WindowSizeMsg")
	}
	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.width, m.height)
	}
	for _, s := range stubs {
		if s.width != 120 || s.height != 37 {
			t.Errorf("tab %s size = %dx%d, want 120x37", s.name, s.width, s.height)
		}
	}
}

func TestModel_TabKeys(t *testing.T) {
	m, stubs := newTestModel()

	tests := []struct {
		key  tea.KeyMsg
		want TabID
	}{
		{runes("6"), TabHistory},
		{tea.KeyMsg{Type: tea.KeyTab}, TabInfo},
		{tea.KeyMsg{Type: tea.KeyTab}, TabOverview},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, TabInfo},
		{runes("2"), TabStations},
	}
	for _, tt := range tests {
		_, cmd := m.Update(tt.key)
		if got := m.GetActiveTab(); got != tt.want {
			t.Fatalf("after %q active tab = %v, want %v", tt.key.String(), got, tt.want)
		}
		if cmd == nil {
			t.Fatalf("switching with %q should notify the tab", tt.key.String())
		}
	}

	// The notification lands on the tab that became active.
	m.Update(TabSwitchMsg{Tab: TabHistory})
	if m.GetActiveTab() != TabHistory {
		t.Errorf("TabSwitchMsg should switch to History")
	}
	history := stubs[TabHistory]
	if !history.received(func(msg tea.Msg) bool { _, ok := msg.(TabSwitchMsg); return ok }) {
		t.Error("History tab should receive the TabSwitchMsg")
	}
}

func TestModel_Update_Tick(t *testing.T) {
	m, _ := newTestModel()
	m.state.AddNotification(NotificationInfo, "old", time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, cmd := m.Update(TickMsg{Time: time.Now()})
	if cmd == nil {
		t.Error("TickMsg should schedule the next tick")
	}
	if len(m.state.Notifications()) != 0 {
		t.Error("expired notifications should be cleared on tick")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil, services.LoadOptions{}, services.Request{})
	if !strings.Contains(model.View(), "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	model.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	view := model.View()
	if !strings.Contains(view, "Overview") {
		t.Error("View should show the Overview tab")
	}
	if !strings.Contains(view, "not available") {
		t.Error("View should show placeholder text for nil tabs")
	}
	if !strings.Contains(view, "no report yet") {
		t.Error("footer should report that no report exists")
	}

	m, _ := newTestModel()
	if !strings.Contains(m.View(), "content of Overview") {
		t.Error("View should render the active tab")
	}
}

func TestModel_Help(t *testing.T) {
	m, _ := newTestModel()

	m.Update(ToggleHelpMsg{})
	if !m.showHelp {
		t.Fatal("showHelp should be true")
	}

	view := m.View()
	if !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("View should show help modal")
	}
	if !strings.Contains(view, "stub action") {
		t.Error("help should list the active tab's bindings")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.GetActiveTab() != TabOverview {
		t.Error("tab keys are ignored while help is open")
	}

	m.Update(runes("?"))
	if m.showHelp {
		t.Error("? should close the help")
	}

	m.Update(ToggleHelpMsg{})
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("Esc should close the help")
	}
}

func TestModel_Notifications(t *testing.T) {
	m, _ := newTestModel()

	_, cmd := m.Update(AddNotificationMsg{Message: "Test Note", Type: NotificationInfo, Duration: time.Minute})
	if cmd == nil {
		t.Error("a timed notification should schedule its removal")
	}

	notifs := m.state.Notifications()
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifs))
	}
	if !strings.Contains(m.View(), "Test Note") {
		t.Error("View should show notification")
	}

	m.Update(RemoveNotificationMsg{ID: notifs[0].ID})
	if len(m.state.Notifications()) != 0 {
		t.Error("RemoveNotificationMsg should remove the notification")
	}
}

func TestModel_HandleServiceEvent(t *testing.T) {
	m, stubs := newTestModel()

	m.Update(ServiceEventMsg{Event: services.LoadingEvent{Path: "/data/trips.csv"}})
	label, _, busy := m.state.Loading()
	if !busy || label != "Analyzing trips.csv" {
		t.Errorf("Loading() = %q, %v", label, busy)
	}

	report := &models.AnalysisReport{RunID: "run-1", Slice: "all", Records: 12}
	_, cmd := m.Update(ServiceEventMsg{Event: services.ReportReadyEvent{Source: "/data/trips.csv", Report: report}})
	if m.state.Report() != report {
		t.Fatal("ReportReadyEvent should store the report")
	}
	if _, _, busy := m.state.Loading(); busy {
		t.Error("ReportReadyEvent should stop loading")
	}
	if cmd == nil {
		t.Fatal("ReportReadyEvent should return commands")
	}
	if !strings.Contains(m.View(), "trips.csv · all · 12 records") {
		t.Error("footer should describe the report")
	}

	m.Update(ReportUpdatedMsg{Report: report})
	for _, s := range stubs {
		if !s.received(func(msg tea.Msg) bool { _, ok := msg.(ReportUpdatedMsg); return ok }) {
			t.Errorf("tab %s should receive ReportUpdatedMsg", s.name)
		}
	}

	m.state.StartLoading("Analyzing trips.csv")
	cmds := m.handleServiceEvent(services.ErrorEvent{Service: "loader", Error: errors.New("boom")})
	if len(cmds) != 1 {
		t.Fatalf("ErrorEvent should produce one notification, got %d", len(cmds))
	}
	if msg, ok := cmds[0]().(AddNotificationMsg); !ok || msg.Type != NotificationError || !strings.Contains(msg.Message, "boom") {
		t.Errorf("ErrorEvent notification = %#v", cmds[0]())
	}
	if _, _, busy := m.state.Loading(); busy {
		t.Error("ErrorEvent should stop loading")
	}

	cmds = m.handleServiceEvent(services.ShortageAlertEvent{Stations: []string{"S1", "S2"}})
	if msg, ok := cmds[0]().(AddNotificationMsg); !ok || msg.Message != "New shortage: S1, S2" {
		t.Errorf("ShortageAlertEvent notification = %#v", cmds[0]())
	}
}

func TestModel_RunsLoaded(t *testing.T) {
	m, stubs := newTestModel()

	m.Update(RunsLoadedMsg{Runs: []models.RunSummary{{ID: "a"}}})
	if len(m.state.Runs()) != 1 {
		t.Error("RunsLoadedMsg should store the runs")
	}
	if !stubs[TabHistory].received(func(msg tea.Msg) bool { _, ok := msg.(RunsLoadedMsg); return ok }) {
		t.Error("inactive tabs should receive RunsLoadedMsg")
	}

	_, cmd := m.Update(RunsLoadedMsg{Err: errors.New("locked")})
	if cmd == nil {
		t.Error("a failed load should notify")
	}
	if len(m.state.Runs()) != 1 {
		t.Error("a failed load should keep the previous runs")
	}
}

func TestModel_AnalyzeWithoutServices(t *testing.T) {
	m, _ := newTestModel()

	m.Update(AnalyzeMsg{})
	m.Update(runes("r"))
	if _, _, busy := m.state.Loading(); busy {
		t.Error("a model without services never starts loading")
	}

	m.state.StartLoading("Analyzing trips.csv")
	m.Update(AnalysisDoneMsg{Err: errors.New("boom")})
	if _, _, busy := m.state.Loading(); busy {
		t.Error("a failed run should stop loading")
	}
}

func TestModel_HandleSpinnerTick(t *testing.T) {
	model := NewModel(nil, services.LoadOptions{}, services.Request{})
	_, cmd := model.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Spinner tick should return command")
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel()
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
}

func TestTabID_String(t *testing.T) {
	tests := []struct {
		id   TabID
		want string
	}{
		{TabOverview, "Overview"},
		{TabStations, "Stations"},
		{TabEconomics, "Economics"},
		{TabTemporal, "Temporal"},
		{TabRegression, "Regression"},
		{TabHistory, "History"},
		{TabInfo, "Info"},
		{TabID(999), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.want {
			t.Errorf("TabID(%d).String() = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if got := len(km.FullHelp()[0]); got != int(tabCount) {
		t.Errorf("FullHelp lists %d tab keys, want %d", got, tabCount)
	}
	if !key.Matches(runes("7"), km.Tabs[TabInfo]) {
		t.Error("7 should select the Info tab")
	}
}
