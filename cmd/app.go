package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"github.com/ftahirops/pcdiag/collector"
	"github.com/ftahirops/pcdiag/config"
	"github.com/ftahirops/pcdiag/engine"
	"github.com/ftahirops/pcdiag/util"
)

type runMode int

const (
	modeCLI runMode = iota
	modeTUI
)

// app is the wired set of components one command works with.
type app struct {
	cfg     config.Config
	log     logr.Logger
	engine  *engine.Engine
	storage *collector.StorageRunner
	closers []io.Closer
}

// newApp loads the config, applies flag overrides and command-specific
// adjustments, and wires the collectors into an engine. Relative tool and
// data paths resolve against the directory holding the pcdiag executable.
func newApp(opts *globalOptions, mode runMode, adjust func(*config.Config)) (*app, error) {
	return newAppWithBase(opts, mode, config.BaseDir(), adjust)
}

func newAppWithBase(opts *globalOptions, mode runMode, base string, adjust func(*config.Config)) (*app, error) {
	cfg, cfgErr := config.Load(opts.configPath)
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}
	if opts.verbosity >= 0 {
		cfg.Log.Verbosity = opts.verbosity
	}
	if adjust != nil {
		adjust(&cfg)
	}

	a := &app{cfg: cfg}
	logger, closer, err := newLogger(mode, cfg.Log)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	a.log = logger
	if cfgErr != nil {
		a.log.Info("Using default config", "error", cfgErr.Error())
	}

	runner := util.NewExecRunner(a.log)
	// Inventory and event-log queries get their own bound; the capture is
	// bounded by smart.timeout.
	queries := util.WithQueryTimeout(runner, cfg.QueryTimeout)
	dataDir := config.Resolve(base, cfg.DataDir)
	tool, err := collector.NewSmartTool(cfg.Smart.Tool,
		resolveTool(base, cfg.Smart.Path), cfg.Smart.Args, config.Resolve(base, cfg.SmartOutput()))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("config smart.tool: %w", err)
	}

	a.storage = collector.NewStorageRunner(a.log, runner, tool, dataDir)
	mem := collector.NewMemDiagReader(a.log, queries, collector.MemDiagOptions{
		LookbackDays:  cfg.MemDiag.LookbackDays,
		LaunchCommand: cfg.MemDiag.LaunchCommand,
	})
	sys := collector.NewSysInfoCollector(a.log, queries)

	a.engine = engine.New(a.log, sys, mem, a.storage, engine.Options{
		ExportDir:      cfg.UI.ExportDir,
		CaptureTimeout: cfg.Smart.Timeout,
	})
	a.log.V(1).Info("Configured",
		"tool", tool.Kind(), "executable", tool.Executable(), "output", tool.OutputFile(),
		"dataDir", dataDir, "timeout", cfg.Smart.Timeout.String(), "queryTimeout", cfg.QueryTimeout.String())
	return a, nil
}

// Close releases the log file, if any.
func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	a.closers = nil
}

// resolveTool keeps bare command names for a PATH lookup and resolves
// anything that looks like a path against base.
func resolveTool(base, p string) string {
	if p == "" || !strings.ContainsAny(p, `/\`) {
		return p
	}
	return config.Resolve(base, p)
}

// newLogger builds the logr logger. The TUI owns the terminal, so it logs
// only to a file (through tea.LogToFile); CLI commands log to stderr.
func newLogger(mode runMode, lc config.LogConfig) (logr.Logger, io.Closer, error) {
	stdr.SetVerbosity(lc.Verbosity)

	if lc.File != "" {
		if dir := filepath.Dir(lc.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return logr.Discard(), nil, fmt.Errorf("log file: %w", err)
			}
		}
		if mode == modeTUI {
			f, err := tea.LogToFile(lc.File, Name)
			if err != nil {
				return logr.Discard(), nil, fmt.Errorf("log file: %w", err)
			}
			return stdr.New(log.Default()), f, nil
		}
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return logr.Discard(), nil, fmt.Errorf("log file: %w", err)
		}
		return stdr.New(log.New(f, Name+" ", log.LstdFlags)), f, nil
	}

	if mode == modeTUI {
		return logr.Discard(), nil, nil
	}
	return stdr.New(log.New(os.Stderr, Name+": ", 0)), nil, nil
}
