package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cast"

	"github.com/ftahirops/pcdiag/model"
	"github.com/ftahirops/pcdiag/util"
)

// Windows Memory Diagnostic result event IDs in the System log.
const (
	EventMemDiagPassed        = 1101
	EventMemDiagErrors        = 1102
	EventMemDiagPassedOnBoot  = 1201
	EventMemDiagErrorsOnBoot  = 1202
	defaultMemDiagLookbackDay = 7
)

// MemDiagOptions configures a MemDiagReader.
type MemDiagOptions struct {
	LookbackDays  int
	LaunchCommand string // command line; empty disables Launch
}

// MemDiagReader reads the host's memory-diagnostic history and schedules
// the OS memory test.
type MemDiagReader struct {
	runner util.Runner
	log    logr.Logger
	opts   MemDiagOptions
	goos   string
	now    func() time.Time
}

// NewMemDiagReader creates a reader for the running OS.
func NewMemDiagReader(log logr.Logger, runner util.Runner, opts MemDiagOptions) *MemDiagReader {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = defaultMemDiagLookbackDay
	}
	return &MemDiagReader{
		runner: runner,
		log:    log.WithName("memdiag"),
		opts:   opts,
		goos:   runtime.GOOS,
		now:    time.Now,
	}
}

// LookbackDays reports the history window in days.
func (m *MemDiagReader) LookbackDays() int { return m.opts.LookbackDays }

// ReadLog returns the memory-diagnostic entries of the look-back window,
// newest first. No entries is an empty slice, not an error.
func (m *MemDiagReader) ReadLog(ctx context.Context) ([]model.MemoryDiagEntry, error) {
	since := m.now().AddDate(0, 0, -m.opts.LookbackDays)

	var (
		entries []model.MemoryDiagEntry
		err     error
	)
	switch m.goos {
	case "windows":
		entries, err = m.readWinEvents(ctx, since)
	case "linux":
		entries, err = m.readKernelJournal(ctx, since)
	default:
		err = model.NewDiagError(model.ErrLogUnavailable, "read memory log", "",
			fmt.Errorf("no memory diagnostic log on %s", m.goos))
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.After(entries[j].Time)
	})
	m.log.V(1).Info("Read memory diagnostic log", "entries", len(entries), "since", since)
	return entries, nil
}

func (m *MemDiagReader) readWinEvents(ctx context.Context, since time.Time) ([]model.MemoryDiagEntry, error) {
	// Only "no events found" becomes empty output; any other failure (access
	// denied, missing channel) is rethrown and exits PowerShell non-zero.
	query := fmt.Sprintf(
		"try { Get-WinEvent -FilterHashtable @{LogName='System'; Id=%d,%d,%d,%d; StartTime=(Get-Date).AddDays(-%d)} -ErrorAction Stop | "+
			"Select-Object @{n='TimeCreated';e={$_.TimeCreated.ToUniversalTime().ToString('o')}}, Id, ProviderName, Message | ConvertTo-Json -Compress } "+
			"catch { if ($_.FullyQualifiedErrorId -notmatch 'NoMatchingEventsFound') { throw } }",
		EventMemDiagPassed, EventMemDiagErrors, EventMemDiagPassedOnBoot, EventMemDiagErrorsOnBoot,
		m.opts.LookbackDays)

	v, err := util.PowerShellJSON(ctx, m.runner, query)
	if err != nil {
		return nil, model.NewDiagError(model.ErrLogUnavailable, "read memory log", "System", err)
	}

	entries := []model.MemoryDiagEntry{}
	for _, obj := range util.JSONObjects(v) {
		id := cast.ToInt(obj["Id"])
		ts, ok := parseEventTime(cast.ToString(obj["TimeCreated"]))
		if !ok || ts.Before(since) {
			continue
		}
		entries = append(entries, model.MemoryDiagEntry{
			Time:    ts,
			EventID: id,
			Status:  memDiagStatus(id),
			Source:  cimString(obj, "ProviderName"),
			Detail:  firstLine(cast.ToString(obj["Message"])),
		})
	}
	return entries, nil
}

func memDiagStatus(eventID int) model.MemDiagStatus {
	switch eventID {
	case EventMemDiagPassed, EventMemDiagPassedOnBoot:
		return model.MemDiagPassed
	case EventMemDiagErrors, EventMemDiagErrorsOnBoot:
		return model.MemDiagErrorsDetected
	}
	return model.MemDiagUnknown
}

var dotNetDate = regexp.MustCompile(`^/Date\((-?\d+)`)

// parseEventTime accepts ISO 8601 timestamps and the legacy "/Date(ms)/"
// form older ConvertTo-Json versions emit.
func parseEventTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if mt := dotNetDate.FindStringSubmatch(s); mt != nil {
		ms, err := strconv.ParseInt(mt[1], 10, 64)
		if err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
	}
	return time.Time{}, false
}

// kernelMemoryErrorMarkers select kernel messages reporting memory faults.
var kernelMemoryErrorMarkers = []string{
	"edac",
	"machine check",
	"hardware error",
	"mce:",
	"memory failure",
}

// journalRecord is the subset of journalctl -o json output used here.
type journalRecord struct {
	Message   any    `json:"MESSAGE"`
	Realtime  string `json:"__REALTIME_TIMESTAMP"`
	Transport string `json:"_TRANSPORT"`
}

func (m *MemDiagReader) readKernelJournal(ctx context.Context, since time.Time) ([]model.MemoryDiagEntry, error) {
	out, err := m.runner.Output(ctx, "journalctl", "-k", "-o", "json", "--no-pager",
		"--since", since.Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, model.NewDiagError(model.ErrLogUnavailable, "read memory log", "journalctl", err)
	}
	return parseKernelJournal(string(out)), nil
}

// parseKernelJournal keeps the memory-fault records of a journalctl JSON
// stream. Lines that are not JSON objects are skipped.
func parseKernelJournal(out string) []model.MemoryDiagEntry {
	entries := []model.MemoryDiagEntry{}
	for _, line := range util.SplitLines(out) {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var rec journalRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		msg := cast.ToString(rec.Message)
		if !isMemoryFault(msg) {
			continue
		}
		usec, err := strconv.ParseInt(rec.Realtime, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, model.MemoryDiagEntry{
			Time:   time.UnixMicro(usec).UTC(),
			Status: model.MemDiagErrorsDetected,
			Source: "kernel",
			Detail: firstLine(msg),
		})
	}
	return entries
}

func isMemoryFault(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range kernelMemoryErrorMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

// Launch starts the OS memory diagnostic scheduler and returns as soon as
// the OS accepted the request. The test itself usually runs at the next
// reboot; its result appears in ReadLog afterwards.
func (m *MemDiagReader) Launch(ctx context.Context) (model.LaunchAck, error) {
	fields := strings.Fields(m.opts.LaunchCommand)
	if len(fields) == 0 {
		return model.LaunchAck{}, model.NewDiagError(model.ErrLaunchFailed, "launch memory test", "",
			fmt.Errorf("no memory diagnostic command configured for %s", m.goos))
	}
	pid, err := m.runner.Start(ctx, fields[0], fields[1:]...)
	if err != nil {
		return model.LaunchAck{}, model.NewDiagError(model.ErrLaunchFailed, "launch memory test", fields[0], err)
	}
	m.log.Info("Memory diagnostic launched", "command", fields[0], "pid", pid)
	return model.LaunchAck{
		Tool:        fields[0],
		PID:         pid,
		RequestedAt: m.now(),
		Note:        "Memory test scheduled. It runs after a restart; results appear in the memory log afterwards.",
	}, nil
}
