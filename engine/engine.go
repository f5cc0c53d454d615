package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"

	"github.com/ftahirops/pcdiag/model"
	"github.com/ftahirops/pcdiag/report"
)

// SysInfoSource collects a system information report. It never fails.
type SysInfoSource interface {
	Collect(ctx context.Context) *model.SystemInfoReport
}

// MemDiag reads memory-diagnostic history and schedules the OS memory test.
type MemDiag interface {
	ReadLog(ctx context.Context) ([]model.MemoryDiagEntry, error)
	Launch(ctx context.Context) (model.LaunchAck, error)
	LookbackDays() int
}

// Storage runs S.M.A.R.T. captures and browses their archive.
type Storage interface {
	ShowLastReport(ctx context.Context) (*model.SmartReport, error)
	RunCapture(ctx context.Context, timeout time.Duration) (*model.SmartReport, error)
	ListReports() ([]model.SmartLogFile, error)
	LoadReport(name string) (*model.SmartReport, error)
}

// Options tunes an Engine.
type Options struct {
	ExportDir      string        // where ExportSystemInfo writes, "" for the working directory
	CaptureTimeout time.Duration // upper bound for RunSmartCapture
}

// Engine runs one user action at a time against the diagnostic components.
// It holds no application state: every action takes the current State and
// returns the next one.
type Engine struct {
	sys     SysInfoSource
	mem     MemDiag
	storage Storage
	opts    Options
	log     logr.Logger
	now     func() time.Time
}

// New creates an engine over the given components.
func New(log logr.Logger, sys SysInfoSource, mem MemDiag, storage Storage, opts Options) *Engine {
	if opts.CaptureTimeout <= 0 {
		opts.CaptureTimeout = 60 * time.Second
	}
	return &Engine{
		sys:     sys,
		mem:     mem,
		storage: storage,
		opts:    opts,
		log:     log.WithName("engine"),
		now:     time.Now,
	}
}

// CaptureTimeout reports the configured capture bound.
func (e *Engine) CaptureTimeout() time.Duration { return e.opts.CaptureTimeout }

// MemLookbackDays reports the memory log window.
func (e *Engine) MemLookbackDays() int { return e.mem.LookbackDays() }

func (e *Engine) fail(s State, action Action, err error) State {
	e.log.Info("Action failed", "action", string(action), "error", err.Error())
	s.Last = action
	s.Err = err
	s.Status = Message(err)
	s.UpdatedAt = e.now()
	return s
}

func (e *Engine) ok(s State, action Action, status string) State {
	e.log.V(1).Info("Action finished", "action", string(action), "status", status)
	s.Last = action
	s.Err = nil
	s.Status = status
	s.UpdatedAt = e.now()
	return s
}

// FetchSystemInfo collects a fresh system information report.
func (e *Engine) FetchSystemInfo(ctx context.Context, s State) State {
	rep := e.sys.Collect(ctx)
	s.SysInfo = rep
	status := "System information collected."
	if n := len(rep.Unavailable); n > 0 {
		status = fmt.Sprintf("System information collected; %d section(s) unavailable.", n)
	}
	return e.ok(s, ActionFetchSysInfo, status)
}

// ExportSystemInfo writes the current report (collecting one first if
// needed) to a timestamped file in the export directory.
func (e *Engine) ExportSystemInfo(ctx context.Context, s State, format report.Format) State {
	if s.SysInfo == nil {
		s = e.FetchSystemInfo(ctx, s)
	}
	data, err := report.Render(s.SysInfo, format)
	if err != nil {
		return e.fail(s, ActionExportSysInfo, err)
	}
	path := filepath.Join(e.opts.ExportDir, report.ExportFileName(s.SysInfo.CollectedAt, format))
	if e.opts.ExportDir != "" {
		if err := os.MkdirAll(e.opts.ExportDir, 0o755); err != nil {
			return e.fail(s, ActionExportSysInfo, fmt.Errorf("export: %w", err))
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return e.fail(s, ActionExportSysInfo, fmt.Errorf("export: %w", err))
	}
	s.ExportPath = path
	return e.ok(s, ActionExportSysInfo, "Exported to "+path)
}

// ShowMemoryLog reads the memory-diagnostic history.
func (e *Engine) ShowMemoryLog(ctx context.Context, s State) State {
	entries, err := e.mem.ReadLog(ctx)
	if err != nil {
		return e.fail(s, ActionShowMemLog, err)
	}
	s.MemLog = entries
	s.MemLogRead = true
	status := fmt.Sprintf("%d memory diagnostic result(s) in the last %d days.", len(entries), e.mem.LookbackDays())
	if len(entries) == 0 {
		status = fmt.Sprintf("No memory diagnostic results in the last %d days.", e.mem.LookbackDays())
	}
	return e.ok(s, ActionShowMemLog, status)
}

// LaunchMemoryTest asks the OS to schedule its memory diagnostic. The
// returned state only acknowledges the request.
func (e *Engine) LaunchMemoryTest(ctx context.Context, s State) State {
	ack, err := e.mem.Launch(ctx)
	if err != nil {
		return e.fail(s, ActionLaunchMemTest, err)
	}
	s.LastLaunch = &ack
	return e.ok(s, ActionLaunchMemTest, ack.Note)
}

// ShowSmartReport loads the newest archived capture.
func (e *Engine) ShowSmartReport(ctx context.Context, s State) State {
	rep, err := e.storage.ShowLastReport(ctx)
	if err != nil {
		return e.fail(s, ActionShowSmart, err)
	}
	s = e.refreshSmartLogs(s)
	if rep == nil {
		return e.ok(s, ActionShowSmart, "No S.M.A.R.T. capture yet. Run a capture first.")
	}
	s.Smart = rep
	s.SmartLogIdx = 0
	return e.ok(s, ActionShowSmart, fmt.Sprintf("Showing capture of %s.", rep.CapturedAt.Format("2006-01-02 15:04:05")))
}

// RunSmartCapture runs the S.M.A.R.T. tool and shows its result. On failure
// the previously shown report stays in place.
func (e *Engine) RunSmartCapture(ctx context.Context, s State) State {
	rep, err := e.storage.RunCapture(ctx, e.opts.CaptureTimeout)
	if err != nil {
		return e.fail(s, ActionRunCapture, err)
	}
	s.Smart = rep
	s = e.refreshSmartLogs(s)
	s.SmartLogIdx = 0
	return e.ok(s, ActionRunCapture, fmt.Sprintf("Captured S.M.A.R.T. data for %d disk(s).", len(rep.Disks)))
}

// SelectSmartLog moves delta captures through the archive (positive is
// older) and shows the selected one.
func (e *Engine) SelectSmartLog(ctx context.Context, s State, delta int) State {
	if len(s.SmartLogs) == 0 {
		s = e.refreshSmartLogs(s)
	}
	if len(s.SmartLogs) == 0 {
		return e.ok(s, ActionSelectSmartLog, "No archived S.M.A.R.T. captures.")
	}
	idx := s.SmartLogIdx + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(s.SmartLogs) {
		idx = len(s.SmartLogs) - 1
	}
	name := s.SmartLogs[idx].Name
	rep, err := e.storage.LoadReport(name)
	if err != nil {
		return e.fail(s, ActionSelectSmartLog, err)
	}
	s.Smart = rep
	s.SmartLogIdx = idx
	return e.ok(s, ActionSelectSmartLog, fmt.Sprintf("Capture %d of %d: %s", idx+1, len(s.SmartLogs), name))
}

// LoadSmartLog shows an archived capture by file name.
func (e *Engine) LoadSmartLog(ctx context.Context, s State, name string) State {
	rep, err := e.storage.LoadReport(name)
	if err != nil {
		return e.fail(s, ActionSelectSmartLog, err)
	}
	s.Smart = rep
	s = e.refreshSmartLogs(s)
	for i, l := range s.SmartLogs {
		if l.Name == name {
			s.SmartLogIdx = i
		}
	}
	return e.ok(s, ActionSelectSmartLog, "Showing "+name)
}

func (e *Engine) refreshSmartLogs(s State) State {
	logs, err := e.storage.ListReports()
	if err != nil {
		e.log.Info("Could not list captures", "error", err.Error())
		return s
	}
	s.SmartLogs = logs
	if s.SmartLogIdx >= len(logs) {
		s.SmartLogIdx = 0
	}
	return s
}
