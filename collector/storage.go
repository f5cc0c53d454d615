package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/ftahirops/pcdiag/model"
	"github.com/ftahirops/pcdiag/util"
)

// Archive file names: storage_health_log_<ts>.txt holds the raw capture,
// storage_info_log_<ts>.txt the parsed summary.
const (
	rawLogPrefix     = "storage_health_log_"
	summaryLogPrefix = "storage_info_log_"
	logSuffix        = ".txt"
	archiveTimestamp = "20060102_150405"
	maxArchiveSuffix = 100

	defaultCaptureTimeout = 60 * time.Second
)

// StorageRunner drives one external S.M.A.R.T. tool and keeps an archive of
// its captures. At most one capture runs at a time.
type StorageRunner struct {
	runner  util.Runner
	tool    SmartTool
	dataDir string
	log     logr.Logger
	now     func() time.Time

	mu sync.Mutex // held for the duration of a capture
}

// NewStorageRunner creates a runner archiving into dataDir.
func NewStorageRunner(log logr.Logger, runner util.Runner, tool SmartTool, dataDir string) *StorageRunner {
	return &StorageRunner{
		runner:  runner,
		tool:    tool,
		dataDir: dataDir,
		log:     log.WithName("storage"),
		now:     time.Now,
	}
}

// Tool returns the configured S.M.A.R.T. tool.
func (s *StorageRunner) Tool() SmartTool { return s.tool }

// DataDir returns the archive directory.
func (s *StorageRunner) DataDir() string { return s.dataDir }

// RunCapture runs the tool, archives its output and returns the parsed
// report. It blocks until the tool exits or timeout elapses. A call made
// while another capture runs returns ErrCaptureInProgress at once.
func (s *StorageRunner) RunCapture(ctx context.Context, timeout time.Duration) (*model.SmartReport, error) {
	if !s.mu.TryLock() {
		return nil, model.NewDiagError(model.ErrCaptureInProgress, "smart capture", "", nil)
	}
	defer s.mu.Unlock()

	if timeout <= 0 {
		timeout = defaultCaptureTimeout
	}

	exe, err := locateExecutable(s.tool.Executable())
	if err != nil {
		return nil, model.NewDiagError(model.ErrToolNotFound, "smart capture", s.tool.Executable(), err)
	}
	output := s.tool.OutputFile()
	if err := os.Remove(output); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, model.NewDiagError(model.ErrToolExecutionFailed, "smart capture", output,
			fmt.Errorf("remove stale output: %w", err))
	}

	s.log.Info("Starting S.M.A.R.T. capture", "tool", s.tool.Kind(), "exe", exe, "timeout", timeout)
	start := s.now()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	err = s.tool.Capture(runCtx, s.runner, exe)
	cancel()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("timed out after %s: %w", timeout, err)
		}
		return nil, model.NewDiagError(model.ErrToolExecutionFailed, "smart capture", exe, err)
	}

	raw, err := os.ReadFile(output)
	if err != nil {
		return nil, model.NewDiagError(model.ErrLogParseFailed, "smart capture", output, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, model.NewDiagError(model.ErrLogParseFailed, "smart capture", output, errors.New("output file is empty"))
	}
	rep, err := ParseCapture(raw)
	if err != nil {
		return nil, model.NewDiagError(model.ErrLogParseFailed, "smart capture", output, err)
	}

	name, err := s.archive(raw, rep)
	if err != nil {
		return nil, model.NewDiagError(model.ErrToolExecutionFailed, "smart capture", s.dataDir, err)
	}
	if err := os.Remove(output); err != nil {
		s.log.Info("Could not remove tool output", "path", output, "error", err.Error())
	}
	s.log.Info("S.M.A.R.T. capture finished", "archive", name, "disks", len(rep.Disks),
		"elapsed", s.now().Sub(start).Round(time.Millisecond))

	// Read back through the archive so a later ShowLastReport yields an
	// identical report.
	return s.LoadReport(name)
}

// archive stores the raw capture and its parsed summary under a shared
// timestamp and returns the raw file's name. A second capture within the
// same second gets a _2, _3, ... suffix instead of replacing the first.
func (s *StorageRunner) archive(raw []byte, rep *model.SmartReport) (string, error) {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	base := s.now().Format(archiveTimestamp)
	var (
		ts   string
		name string
	)
	for n := 1; ; n++ {
		ts = base
		if n > 1 {
			ts = fmt.Sprintf("%s_%d", base, n)
		}
		name = rawLogPrefix + ts + logSuffix
		err := writeNew(filepath.Join(s.dataDir, name), raw)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) || n >= maxArchiveSuffix {
			return "", fmt.Errorf("archive capture: %w", err)
		}
	}
	summary := filepath.Join(s.dataDir, summaryLogPrefix+ts+logSuffix)
	if err := os.WriteFile(summary, []byte(FormatSmartSummary(rep)), 0o644); err != nil {
		// The raw archive is authoritative; the summary is a convenience.
		s.log.Info("Could not write capture summary", "path", summary, "error", err.Error())
	}
	return name, nil
}

// writeNew writes data to path, failing with os.ErrExist if path exists.
func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FormatSmartSummary renders the per-disk summary stored next to each
// archived capture.
func FormatSmartSummary(rep *model.SmartReport) string {
	var sb strings.Builder
	for _, d := range rep.Disks {
		fmt.Fprintf(&sb, "Disk %d:\n", d.Index)
		for _, kv := range [][2]string{
			{"Model", d.Model},
			{"Disk Size", d.DiskSize},
			{"Interface", d.Interface},
			{"Power On Hours", d.PowerOnHours},
			{"Power On Count", d.PowerOnCount},
			{"Host Writes", d.HostWrites},
			{"Health Status", d.HealthStatus},
		} {
			v := kv[1]
			if v == "" {
				v = "N/A"
			}
			fmt.Fprintf(&sb, "  %s: %s\n", kv[0], v)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// ShowLastReport parses the newest archived capture. It returns nil and no
// error when nothing has been captured yet.
func (s *StorageRunner) ShowLastReport(ctx context.Context) (*model.SmartReport, error) {
	logs, err := s.ListReports()
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return s.LoadReport(logs[0].Name)
}

// ListReports lists archived raw captures, newest first. A missing data
// directory is an empty archive.
func (s *StorageRunner) ListReports() ([]model.SmartLogFile, error) {
	entries, err := os.ReadDir(s.dataDir)
	if errors.Is(err, os.ErrNotExist) {
		return []model.SmartLogFile{}, nil
	}
	if err != nil {
		return nil, model.NewDiagError(model.ErrLogUnavailable, "list smart captures", s.dataDir, err)
	}

	logs := []model.SmartLogFile{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, rawLogPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		logs = append(logs, model.SmartLogFile{
			Name:    name,
			Path:    filepath.Join(s.dataDir, name),
			ModTime: info.ModTime(),
		})
	}
	// Newest write first. Local-time names repeat an hour when clocks fall
	// back, so the name only breaks ties.
	sort.Slice(logs, func(i, j int) bool {
		if !logs[i].ModTime.Equal(logs[j].ModTime) {
			return logs[i].ModTime.After(logs[j].ModTime)
		}
		return logs[i].Name > logs[j].Name
	})
	return logs, nil
}

// LoadReport parses one archived capture by file name.
func (s *StorageRunner) LoadReport(name string) (*model.SmartReport, error) {
	if name != filepath.Base(name) || !strings.HasPrefix(name, rawLogPrefix) {
		return nil, model.NewDiagError(model.ErrLogUnavailable, "load smart capture", name,
			errors.New("not an archived capture"))
	}
	path := filepath.Join(s.dataDir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewDiagError(model.ErrLogUnavailable, "load smart capture", path, err)
	}
	rep, err := ParseCapture(raw)
	if err != nil {
		return nil, model.NewDiagError(model.ErrLogParseFailed, "load smart capture", path, err)
	}
	rep.Source = path
	if rep.CapturedAt.IsZero() {
		ts := strings.TrimSuffix(strings.TrimPrefix(name, rawLogPrefix), logSuffix)
		if len(ts) > len(archiveTimestamp) {
			ts = ts[:len(archiveTimestamp)]
		}
		if t, err := time.ParseInLocation(archiveTimestamp, ts, time.Local); err == nil {
			rep.CapturedAt = t
		}
	}
	return rep, nil
}

// locateExecutable resolves a bare command name through PATH and checks
// that a path names an existing file.
func locateExecutable(path string) (string, error) {
	if path == "" {
		return "", errors.New("no executable configured")
	}
	if !strings.ContainsAny(path, `/\`) {
		return exec.LookPath(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	return path, nil
}
