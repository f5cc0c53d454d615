package collector

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/ftahirops/pcdiag/model"
	"github.com/ftahirops/pcdiag/util"
)

var memdiagNow = time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)

func newTestMemDiag(goos string, runner util.Runner, opts MemDiagOptions) *MemDiagReader {
	m := NewMemDiagReader(logr.Discard(), runner, opts)
	m.goos = goos
	m.now = func() time.Time { return memdiagNow }
	return m
}

func powershellAnswer(out string) *util.FakeRunner {
	return &util.FakeRunner{OutputFunc: func(string, []string) ([]byte, error) {
		return []byte(out), nil
	}}
}

// ---------------------------------------------------------------------------
// Windows event log
// ---------------------------------------------------------------------------

func TestReadLog_Windows_NoEvents(t *testing.T) {
	m := newTestMemDiag("windows", powershellAnswer("\r\n"), MemDiagOptions{})
	entries, err := m.ReadLog(context.Background())
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("entries = %#v; want empty non-nil slice", entries)
	}
}

func TestReadLog_Windows_SingleObject(t *testing.T) {
	out := `{"TimeCreated":"2024-05-06T09:15:00.0000000Z","Id":1201,"ProviderName":"Microsoft-Windows-MemoryDiagnostics-Results","Message":"The Windows Memory Diagnostic tested the computer's memory and detected no errors"}`
	m := newTestMemDiag("windows", powershellAnswer(out), MemDiagOptions{})
	entries, err := m.ReadLog(context.Background())
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len = %d; want 1", len(entries))
	}
	e := entries[0]
	if e.EventID != 1201 || e.Status != model.MemDiagPassed {
		t.Errorf("entry = %+v; want event 1201 passed", e)
	}
	if !e.Time.Equal(time.Date(2024, 5, 6, 9, 15, 0, 0, time.UTC)) {
		t.Errorf("Time = %v", e.Time)
	}
	if e.Source != "Microsoft-Windows-MemoryDiagnostics-Results" {
		t.Errorf("Source = %q", e.Source)
	}
}

func TestReadLog_Windows_NewestFirstAndWindow(t *testing.T) {
	out := `[` +
		`{"TimeCreated":"2024-05-02T08:00:00Z","Id":1101,"ProviderName":"p","Message":"ok"},` +
		`{"TimeCreated":"/Date(1715000000000)/","Id":1102,"ProviderName":"p","Message":"errors\r\nsecond line"},` +
		`{"TimeCreated":"2024-04-01T08:00:00Z","Id":1201,"ProviderName":"p","Message":"too old"},` +
		`{"TimeCreated":"","Id":1202,"ProviderName":"p","Message":"no time"}` +
		`]`
	m := newTestMemDiag("windows", powershellAnswer(out), MemDiagOptions{LookbackDays: 7})
	entries, err := m.ReadLog(context.Background())
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d; want 2 (%+v)", len(entries), entries)
	}
	if entries[0].EventID != 1102 || entries[1].EventID != 1101 {
		t.Errorf("order = %d,%d; want 1102,1101", entries[0].EventID, entries[1].EventID)
	}
	if entries[0].Status != model.MemDiagErrorsDetected {
		t.Errorf("Status = %q; want errors-detected", entries[0].Status)
	}
	if entries[0].Detail != "errors" {
		t.Errorf("Detail = %q; want first line only", entries[0].Detail)
	}
}

func TestReadLog_Windows_QueryNamesEventIDs(t *testing.T) {
	runner := powershellAnswer("")
	m := newTestMemDiag("windows", runner, MemDiagOptions{LookbackDays: 3})
	if _, err := m.ReadLog(context.Background()); err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %v", calls)
	}
	for _, want := range []string{"Id=1101,1102,1201,1202", "AddDays(-3)", "LogName='System'",
		"-ErrorAction Stop", "-notmatch 'NoMatchingEventsFound') { throw }"} {
		if !strings.Contains(calls[0], want) {
			t.Errorf("query %q missing %q", calls[0], want)
		}
	}
}

func TestReadLog_Windows_PowerShellFails(t *testing.T) {
	m := newTestMemDiag("windows", &util.FakeRunner{}, MemDiagOptions{})
	_, err := m.ReadLog(context.Background())
	if !errors.Is(err, model.ErrLogUnavailable) {
		t.Errorf("err = %v; want ErrLogUnavailable", err)
	}
}

func TestReadLog_Windows_AccessDenied(t *testing.T) {
	// A rethrown Get-WinEvent error: no stdout, exit code 1.
	runner := &util.FakeRunner{OutputFunc: func(string, []string) ([]byte, error) {
		return nil, &util.ExitError{Name: "powershell", Code: 1, Stderr: "Attempted to perform an unauthorized operation."}
	}}
	m := newTestMemDiag("windows", runner, MemDiagOptions{})
	entries, err := m.ReadLog(context.Background())
	if !errors.Is(err, model.ErrLogUnavailable) {
		t.Fatalf("err = %v; want ErrLogUnavailable", err)
	}
	if entries != nil {
		t.Errorf("entries = %v; want none on error", entries)
	}
	var exitErr *util.ExitError
	if !errors.As(err, &exitErr) || !strings.Contains(exitErr.Stderr, "unauthorized") {
		t.Errorf("cause lost: %v", err)
	}
}

func TestReadLog_Windows_HungQueryTimesOut(t *testing.T) {
	runner := util.WithQueryTimeout(&util.FakeRunner{Hang: true}, 20*time.Millisecond)
	m := newTestMemDiag("windows", runner, MemDiagOptions{})
	_, err := m.ReadLog(context.Background())
	if !errors.Is(err, model.ErrLogUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v; want ErrLogUnavailable from a deadline", err)
	}
}

// ---------------------------------------------------------------------------
// Linux kernel journal
// ---------------------------------------------------------------------------

func TestReadLog_Linux_FiltersMemoryFaults(t *testing.T) {
	out := strings.Join([]string{
		`{"MESSAGE":"EDAC MC0: 1 CE memory read error on CPU_SrcID#0_Ha#0_Chan#1_DIMM#0","__REALTIME_TIMESTAMP":"1715158800000000","_TRANSPORT":"kernel"}`,
		`{"MESSAGE":"usb 1-1: new high-speed USB device number 2","__REALTIME_TIMESTAMP":"1715158900000000","_TRANSPORT":"kernel"}`,
		`{"MESSAGE":"mce: [Hardware Error]: Machine check events logged","__REALTIME_TIMESTAMP":"1715159000000000","_TRANSPORT":"kernel"}`,
		`-- No entries --`,
		``,
	}, "\n")
	m := newTestMemDiag("linux", powershellAnswer(out), MemDiagOptions{})
	entries, err := m.ReadLog(context.Background())
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d; want 2", len(entries))
	}
	if !strings.HasPrefix(entries[0].Detail, "mce:") {
		t.Errorf("entries[0].Detail = %q; want newest (mce) first", entries[0].Detail)
	}
	for _, e := range entries {
		if e.Status != model.MemDiagErrorsDetected || e.Source != "kernel" {
			t.Errorf("entry = %+v", e)
		}
	}
}

func TestReadLog_Linux_JournalMissing(t *testing.T) {
	m := newTestMemDiag("linux", &util.FakeRunner{}, MemDiagOptions{})
	_, err := m.ReadLog(context.Background())
	if !errors.Is(err, model.ErrLogUnavailable) {
		t.Errorf("err = %v; want ErrLogUnavailable", err)
	}
}

func TestReadLog_Linux_HungJournalTimesOut(t *testing.T) {
	runner := util.WithQueryTimeout(&util.FakeRunner{Hang: true}, 20*time.Millisecond)
	m := newTestMemDiag("linux", runner, MemDiagOptions{})

	done := make(chan error, 1)
	go func() {
		_, err := m.ReadLog(context.Background())
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, model.ErrLogUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v; want ErrLogUnavailable from a deadline", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ReadLog still blocked on a hung journalctl")
	}
}

func TestReadLog_UnsupportedOS(t *testing.T) {
	m := newTestMemDiag("plan9", &util.FakeRunner{}, MemDiagOptions{})
	if _, err := m.ReadLog(context.Background()); !errors.Is(err, model.ErrLogUnavailable) {
		t.Errorf("err = %v; want ErrLogUnavailable", err)
	}
}

// ---------------------------------------------------------------------------
// Launch
// ---------------------------------------------------------------------------

func TestLaunch_Acknowledges(t *testing.T) {
	runner := &util.FakeRunner{StartFunc: func(name string, args []string) (int, error) {
		return 4242, nil
	}}
	m := newTestMemDiag("windows", runner, MemDiagOptions{LaunchCommand: "mdsched.exe"})
	ack, err := m.Launch(context.Background())
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if ack.Tool != "mdsched.exe" || ack.PID != 4242 || !ack.RequestedAt.Equal(memdiagNow) {
		t.Errorf("ack = %+v", ack)
	}
	if ack.Note == "" {
		t.Error("ack has no note")
	}
}

func TestLaunch_SplitsArguments(t *testing.T) {
	runner := &util.FakeRunner{StartFunc: func(string, []string) (int, error) { return 1, nil }}
	m := newTestMemDiag("linux", runner, MemDiagOptions{LaunchCommand: "systemctl start memtest.service"})
	if _, err := m.Launch(context.Background()); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if got := runner.Calls(); len(got) != 1 || got[0] != "systemctl start memtest.service" {
		t.Errorf("calls = %v", got)
	}
}

func TestLaunch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		command string
	}{
		{"unset", ""},
		{"cannot start", "mdsched.exe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMemDiag("windows", &util.FakeRunner{}, MemDiagOptions{LaunchCommand: tt.command})
			_, err := m.Launch(context.Background())
			if !errors.Is(err, model.ErrLaunchFailed) {
				t.Errorf("err = %v; want ErrLaunchFailed", err)
			}
		})
	}
}
