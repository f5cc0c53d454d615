package engine

import (
	"time"

	"github.com/ftahirops/pcdiag/model"
)

// Action names a user-triggered operation.
type Action string

const (
	ActionFetchSysInfo   Action = "fetch-sysinfo"
	ActionExportSysInfo  Action = "export-sysinfo"
	ActionShowMemLog     Action = "show-memlog"
	ActionLaunchMemTest  Action = "launch-memtest"
	ActionShowSmart      Action = "show-smart"
	ActionRunCapture     Action = "run-capture"
	ActionSelectSmartLog Action = "select-smart-log"
)

// State is everything the presentation layer displays. It is a value:
// actions receive the current State and return the next one.
type State struct {
	SysInfo    *model.SystemInfoReport
	ExportPath string

	MemLog     []model.MemoryDiagEntry
	MemLogRead bool // distinguishes "no entries" from "not read yet"
	LastLaunch *model.LaunchAck

	Smart       *model.SmartReport
	SmartLogs   []model.SmartLogFile
	SmartLogIdx int

	Last      Action
	Status    string // outcome of the last action, user-facing
	Err       error  // nil when the last action succeeded
	UpdatedAt time.Time
}

// Failed reports whether the last action failed.
func (s State) Failed() bool { return s.Err != nil }
