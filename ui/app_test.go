package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"

	"github.com/ftahirops/pcdiag/engine"
	"github.com/ftahirops/pcdiag/model"
	"github.com/ftahirops/pcdiag/report"
)

type stubSys struct{}

func (stubSys) Collect(ctx context.Context) *model.SystemInfoReport {
	return &model.SystemInfoReport{
		CollectedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Hostname:    "DESKTOP-01",
		OS:          model.OSInfo{Name: "Win11"},
		CPU:         model.CPUInfo{Model: "X"},
		Memory:      []model.MemoryModule{{Capacity: "16GB"}},
		Storage:     []model.StorageDevice{{Model: "Disk0", Capacity: "1TB", Interface: "NVMe"}},
	}
}

type stubMem struct{ launched int }

func (m *stubMem) ReadLog(ctx context.Context) ([]model.MemoryDiagEntry, error) {
	return []model.MemoryDiagEntry{}, nil
}

func (m *stubMem) Launch(ctx context.Context) (model.LaunchAck, error) {
	m.launched++
	return model.LaunchAck{Tool: "mdsched.exe", Note: "Memory test scheduled."}, nil
}

func (m *stubMem) LookbackDays() int { return 7 }

type stubStorage struct{ last *model.SmartReport }

func (st stubStorage) ShowLastReport(ctx context.Context) (*model.SmartReport, error) {
	return st.last, nil
}

func (stubStorage) RunCapture(ctx context.Context, timeout time.Duration) (*model.SmartReport, error) {
	return nil, model.NewDiagError(model.ErrToolNotFound, "smart capture", `C:\pcdiag\CrystalDiskInfo\DiskInfo32.exe`, nil)
}

func (stubStorage) ListReports() ([]model.SmartLogFile, error) { return nil, nil }

func (stubStorage) LoadReport(name string) (*model.SmartReport, error) { return nil, model.ErrLogUnavailable }

func newStartingModel(mem *stubMem, storage stubStorage) Model {
	eng := engine.New(logr.Discard(), stubSys{}, mem, storage, engine.Options{ExportDir: "."})
	m := NewModel(eng, "sysinfo", report.FormatText)
	m.width, m.height = 120, 60
	return m
}

// newTestModel returns a model whose start page has finished loading.
func newTestModel(mem *stubMem) Model {
	m := newStartingModel(mem, stubStorage{})
	next, _ := m.Update(m.Init()())
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and, if it started an action, runs it to completion.
func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	next, cmd := m.Update(key(k))
	m = next.(Model)
	if cmd != nil {
		if msg, ok := cmd().(actionMsg); ok {
			next, _ = m.Update(msg)
			m = next.(Model)
		}
	}
	return m
}

// ---------------------------------------------------------------------------
// Navigation and actions
// ---------------------------------------------------------------------------

func TestInit_LoadsStartPage(t *testing.T) {
	m := newStartingModel(&stubMem{}, stubStorage{})
	if m.busy != engine.ActionFetchSysInfo {
		t.Fatalf("busy = %q; want start page load", m.busy)
	}
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init returned no command")
	}
	msg, ok := cmd().(actionMsg)
	if !ok || msg.state.SysInfo == nil {
		t.Fatalf("Init command = %#v", msg)
	}
}

func TestInit_StartupLoadBlocksOtherActions(t *testing.T) {
	last := &model.SmartReport{Tool: "smartctl", Disks: []model.SmartDisk{{Index: 1, Model: "Disk0"}}}
	m := newStartingModel(&stubMem{}, stubStorage{last: last})
	initCmd := m.Init()

	next, cmd := m.Update(key("3"))
	m = next.(Model)
	if cmd != nil {
		t.Fatal("page switch started an action during the startup load")
	}
	next, cmd = m.Update(key("c"))
	m = next.(Model)
	if cmd != nil {
		t.Fatal("capture started during the startup load")
	}

	// The startup load finishes; the S.M.A.R.T. page opened meanwhile loads next.
	next, cmd = m.Update(initCmd())
	m = next.(Model)
	if m.State().SysInfo == nil {
		t.Fatal("startup result dropped")
	}
	if cmd == nil || m.busy != engine.ActionShowSmart {
		t.Fatalf("deferred page load not started: busy = %q", m.busy)
	}
	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.State().Smart != last || m.State().SysInfo == nil {
		t.Errorf("Smart = %v, SysInfo set = %v", m.State().Smart, m.State().SysInfo != nil)
	}
}

func TestUpdate_DropsResultOfOtherAction(t *testing.T) {
	m := newTestModel(&stubMem{})
	before := m.State()
	next, cmd := m.Update(actionMsg{action: engine.ActionShowSmart, state: engine.State{}})
	m = next.(Model)
	if cmd != nil || m.State().SysInfo != before.SysInfo {
		t.Error("result of an action that was not running replaced the state")
	}
}

func TestUpdate_SwitchPagesLoadsData(t *testing.T) {
	m := newTestModel(&stubMem{})
	m = press(t, m, "2")
	if m.page != PageMemory {
		t.Fatalf("page = %v; want memory", m.page)
	}
	if !m.State().MemLogRead {
		t.Error("memory log not read on first visit")
	}
	if !strings.Contains(m.View(), "No memory diagnostic results in the last 7 days.") {
		t.Errorf("view:\n%s", m.View())
	}

	m = press(t, m, "tab")
	if m.page != PageSmart {
		t.Errorf("tab from memory = %v; want smart", m.page)
	}
	m = press(t, m, "tab")
	if m.page != PageSysInfo {
		t.Errorf("tab wraps to %v; want sysinfo", m.page)
	}
}

func TestUpdate_BusyGuardIgnoresActions(t *testing.T) {
	m := newTestModel(&stubMem{})
	next, cmd := m.Update(key("r"))
	m = next.(Model)
	if cmd == nil || m.busy != engine.ActionFetchSysInfo {
		t.Fatalf("first action not started: busy = %q", m.busy)
	}

	next, cmd = m.Update(key("r"))
	m = next.(Model)
	if cmd != nil {
		t.Error("second action started while busy")
	}
	if !strings.Contains(m.warn, "still running") {
		t.Errorf("warn = %q", m.warn)
	}

	// Navigation still works while busy.
	next, _ = m.Update(key("3"))
	if next.(Model).page != PageSmart {
		t.Error("page switch blocked while busy")
	}
}

func TestUpdate_MemoryTestNeedsConfirmation(t *testing.T) {
	mem := &stubMem{}
	m := newTestModel(mem)
	m = press(t, m, "2")

	m = press(t, m, "m")
	if !m.confirmLaunch || mem.launched != 0 {
		t.Fatalf("confirm = %v, launched = %d", m.confirmLaunch, mem.launched)
	}
	if !strings.Contains(m.View(), "[y/n]") {
		t.Error("confirmation prompt not shown")
	}
	m = press(t, m, "n")
	if m.confirmLaunch || mem.launched != 0 {
		t.Fatalf("declined launch ran: launched = %d", mem.launched)
	}

	m = press(t, m, "m")
	m = press(t, m, "y")
	if mem.launched != 1 || m.State().LastLaunch == nil {
		t.Errorf("launched = %d, ack = %v", mem.launched, m.State().LastLaunch)
	}
}

func TestUpdate_CaptureErrorShowsBanner(t *testing.T) {
	m := newTestModel(&stubMem{})
	m = press(t, m, "3")
	m = press(t, m, "c")

	if m.State().Err == nil {
		t.Fatal("capture error not recorded")
	}
	view := m.View()
	if !strings.Contains(view, "CrystalDiskInfo") {
		t.Errorf("banner missing instructions:\n%s", view)
	}
	if !strings.Contains(view, "No S.M.A.R.T. capture yet.") {
		t.Errorf("page content missing:\n%s", view)
	}

	// The UI stays usable after a failure.
	m = press(t, m, "1")
	if m.page != PageSysInfo || m.busy != "" {
		t.Errorf("page = %v, busy = %q", m.page, m.busy)
	}
}

func TestView_SysInfoPage(t *testing.T) {
	m := newTestModel(&stubMem{})
	m = press(t, m, "r")
	view := m.View()
	for _, want := range []string{"DESKTOP-01", "Win11", "16GB", "Disk0", "NVMe"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestStartPage(t *testing.T) {
	tests := []struct {
		in   string
		want Page
	}{
		{"", PageSysInfo},
		{"Memory", PageMemory},
		{"smart", PageSmart},
		{"bogus", PageSysInfo},
	}
	for _, tt := range tests {
		if got := startPage(tt.in); got != tt.want {
			t.Errorf("startPage(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}
