package model

import "time"

// DiskHealth is the normalized S.M.A.R.T. verdict for one disk.
type DiskHealth string

const (
	DiskHealthGood    DiskHealth = "good"
	DiskHealthCaution DiskHealth = "caution"
	DiskHealthBad     DiskHealth = "bad"
	DiskHealthUnknown DiskHealth = "unknown"
)

// SmartReport is the parsed output of one S.M.A.R.T. capture.
type SmartReport struct {
	CapturedAt time.Time   `json:"captured_at" yaml:"captured_at"`
	Tool       string      `json:"tool" yaml:"tool"`     // "crystaldiskinfo", "smartctl"
	Source     string      `json:"source" yaml:"source"` // archived raw log
	Disks      []SmartDisk `json:"disks" yaml:"disks"`
}

// SmartDisk holds SMART health data for a single disk.
type SmartDisk struct {
	Index        int              `json:"index" yaml:"index"`
	Device       string           `json:"device" yaml:"device"` // "/dev/sda", "C:", "(1)"
	Model        string           `json:"model" yaml:"model"`
	Firmware     string           `json:"firmware" yaml:"firmware"`
	Serial       string           `json:"serial" yaml:"serial"`
	DiskSize     string           `json:"disk_size" yaml:"disk_size"`
	Interface    string           `json:"interface" yaml:"interface"`
	PowerOnHours string           `json:"power_on_hours" yaml:"power_on_hours"`
	PowerOnCount string           `json:"power_on_count" yaml:"power_on_count"`
	HostReads    string           `json:"host_reads" yaml:"host_reads"`
	HostWrites   string           `json:"host_writes" yaml:"host_writes"`
	Temperature  string           `json:"temperature" yaml:"temperature"`
	HealthStatus string           `json:"health_status" yaml:"health_status"` // tool text, e.g. "Good (99 %)"
	Health       DiskHealth       `json:"health" yaml:"health"`
	Attributes   []SmartAttribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// SmartAttribute is one row of the raw attribute table.
type SmartAttribute struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Current   string `json:"current,omitempty" yaml:"current,omitempty"`
	Worst     string `json:"worst,omitempty" yaml:"worst,omitempty"`
	Threshold string `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Raw       string `json:"raw" yaml:"raw"`
}

// SmartLogFile is one archived capture on disk.
type SmartLogFile struct {
	Name    string    `json:"name" yaml:"name"`
	Path    string    `json:"path" yaml:"path"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}
