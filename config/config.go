package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// Tool kinds understood by the storage runner.
const (
	ToolCrystalDiskInfo = "crystaldiskinfo"
	ToolSmartctl        = "smartctl"
)

// Config holds user-configurable defaults and tool locations.
type Config struct {
	// DataDir receives archived S.M.A.R.T. captures. Relative paths resolve
	// against the directory holding the pcdiag executable.
	DataDir string `toml:"data_dir"`

	// QueryTimeout bounds each inventory and event-log query (PowerShell,
	// nvidia-smi, journalctl).
	QueryTimeout time.Duration `toml:"query_timeout"`
	Smart        SmartConfig   `toml:"smart"`
	MemDiag      MemDiagConfig `toml:"memdiag"`
	Log          LogConfig     `toml:"log"`
	UI           UIConfig      `toml:"ui"`
}

// SmartConfig locates the external S.M.A.R.T. tool.
type SmartConfig struct {
	Tool    string        `toml:"tool"`    // crystaldiskinfo | smartctl
	Path    string        `toml:"path"`    // executable
	Args    []string      `toml:"args"`    // extra arguments
	Output  string        `toml:"output"`  // log file the tool writes; smartctl defaults to <data_dir>/smartctl.json
	Timeout time.Duration `toml:"timeout"` // upper bound for one capture
}

// MemDiagConfig controls the memory-diagnostic reader.
type MemDiagConfig struct {
	LookbackDays  int    `toml:"lookback_days"`
	LaunchCommand string `toml:"launch_command"`
}

type LogConfig struct {
	File      string `toml:"file"`
	Verbosity int    `toml:"verbosity"`
}

type UIConfig struct {
	DefaultPage  string `toml:"default_page"`  // sysinfo | memory | smart
	ExportFormat string `toml:"export_format"` // text | markdown | yaml | json
	ExportDir    string `toml:"export_dir"`    // "" for the working directory
}

// Default returns a config with sensible defaults for the running OS.
func Default() Config {
	cfg := Config{
		DataDir:      "log",
		QueryTimeout: 60 * time.Second,
		MemDiag: MemDiagConfig{
			LookbackDays: 7,
		},
		UI: UIConfig{DefaultPage: "sysinfo", ExportFormat: "text"},
	}
	if runtime.GOOS == "windows" {
		cfg.Smart = SmartConfig{
			Tool:    ToolCrystalDiskInfo,
			Path:    filepath.Join("CrystalDiskInfo", "DiskInfo32.exe"),
			Args:    []string{"/CopyExit"},
			Output:  filepath.Join("CrystalDiskInfo", "DiskInfo.txt"),
			Timeout: 60 * time.Second,
		}
		cfg.MemDiag.LaunchCommand = "mdsched.exe"
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DataDir = filepath.Join(home, ".pcdiag")
		}
		cfg.Smart = SmartConfig{
			Tool:    ToolSmartctl,
			Path:    "smartctl", // looked up on PATH
			Timeout: 60 * time.Second,
		}
	}
	return cfg
}

// SmartOutput returns the file the S.M.A.R.T. tool's output lands in.
// An unset smartctl output follows DataDir, so a --data-dir override moves
// it along.
func (c Config) SmartOutput() string {
	if c.Smart.Output == "" && c.Smart.Tool == ToolSmartctl {
		return filepath.Join(c.DataDir, "smartctl.json")
	}
	return c.Smart.Output
}

// Path returns <user config dir>/pcdiag/config.toml, honoring XDG_CONFIG_HOME.
// Returns empty string if no config directory can be determined.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		d, err := os.UserConfigDir()
		if err != nil {
			return ""
		}
		dir = d
	}
	return filepath.Join(dir, "pcdiag", "config.toml")
}

// Load reads the config at path (Path() when empty). A missing file yields
// the defaults with no error; a malformed file yields the defaults and the
// decode error so callers can warn.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}
	cfg.applyFallbacks()
	return cfg, nil
}

// Save writes the config to path (Path() when empty).
func Save(path string, cfg Config) error {
	if path == "" {
		path = Path()
	}
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0600)
}

// applyFallbacks restores defaults for values a partial file left zero.
func (c *Config) applyFallbacks() {
	def := Default()
	if c.Smart.Timeout <= 0 {
		c.Smart.Timeout = def.Smart.Timeout
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = def.QueryTimeout
	}
	if c.Smart.Tool == "" {
		c.Smart.Tool = def.Smart.Tool
	}
	if c.MemDiag.LookbackDays <= 0 {
		c.MemDiag.LookbackDays = def.MemDiag.LookbackDays
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.UI.DefaultPage == "" {
		c.UI.DefaultPage = def.UI.DefaultPage
	}
	if c.UI.ExportFormat == "" {
		c.UI.ExportFormat = def.UI.ExportFormat
	}
}

// BaseDir returns the directory holding the running executable. Bundled
// tools and the default log directory live next to it.
func BaseDir() string {
	exe, err := os.Executable()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// Resolve makes p absolute relative to base. Absolute paths pass through.
func Resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
