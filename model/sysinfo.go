package model

import "time"

// Unavailable marks a field whose value could not be read from the host.
const Unavailable = "unavailable"

// Report sections, as named in SystemInfoReport.Unavailable.
const (
	SectionOS             = "os"
	SectionVirtualization = "virtualization"
	SectionCPU            = "cpu"
	SectionTotalMemory    = "total_memory"
	SectionMemory         = "memory"
	SectionStorage        = "storage"
	SectionGPU            = "gpu"
	SectionMotherboard    = "motherboard"
)

// SystemInfoReport is a point-in-time hardware and OS inventory.
// A report is never mutated after Collect returns it.
type SystemInfoReport struct {
	CollectedAt    time.Time `json:"collected_at" yaml:"collected_at"`
	Hostname       string    `json:"hostname" yaml:"hostname"`
	Virtualization string    `json:"virtualization" yaml:"virtualization"`
	OS             OSInfo    `json:"os" yaml:"os"`
	CPU            CPUInfo   `json:"cpu" yaml:"cpu"`
	Motherboard    string    `json:"motherboard" yaml:"motherboard"`
	TotalMemory    string    `json:"total_memory" yaml:"total_memory"`

	Memory  []MemoryModule  `json:"memory" yaml:"memory"`
	Storage []StorageDevice `json:"storage" yaml:"storage"`
	GPUs    []GPUInfo       `json:"gpus" yaml:"gpus"`

	// Unavailable lists every section that could not be collected.
	Unavailable []FieldProblem `json:"unavailable,omitempty" yaml:"unavailable,omitempty"`
}

// OSInfo describes the running operating system.
type OSInfo struct {
	Name    string `json:"name" yaml:"name"`       // e.g. "Microsoft Windows 11 Pro", "ubuntu"
	Version string `json:"version" yaml:"version"` // e.g. "10.0.22631", "24.04"
	Kernel  string `json:"kernel" yaml:"kernel"`
	Arch    string `json:"arch" yaml:"arch"`
}

// CPUInfo describes the first physical processor package.
type CPUInfo struct {
	Model    string `json:"model" yaml:"model"`
	Cores    string `json:"cores" yaml:"cores"`
	Threads  string `json:"threads" yaml:"threads"`
	MaxClock string `json:"max_clock" yaml:"max_clock"` // "3600 MHz"
}

// MemoryModule is one populated DIMM slot.
type MemoryModule struct {
	Slot                 string `json:"slot" yaml:"slot"`
	ManufacturerAndModel string `json:"manufacturer_and_model" yaml:"manufacturer_and_model"`
	Type                 string `json:"type" yaml:"type"`   // "DDR4"
	Speed                string `json:"speed" yaml:"speed"` // "3200 MHz"
	Capacity             string `json:"capacity" yaml:"capacity"`
	CapacityBytes        uint64 `json:"capacity_bytes" yaml:"capacity_bytes"`
}

// StorageDevice is one physical disk.
type StorageDevice struct {
	Model         string `json:"model" yaml:"model"`
	Capacity      string `json:"capacity" yaml:"capacity"`
	CapacityBytes uint64 `json:"capacity_bytes" yaml:"capacity_bytes"`
	Interface     string `json:"interface" yaml:"interface"` // "NVMe", "SCSI", "USB"
	Serial        string `json:"serial,omitempty" yaml:"serial,omitempty"`
}

// GPUInfo is one graphics adapter.
type GPUInfo struct {
	Model  string `json:"model" yaml:"model"`
	VRAM   string `json:"vram" yaml:"vram"`
	Driver string `json:"driver" yaml:"driver"`
}

// FieldProblem records why a report section holds the Unavailable marker.
type FieldProblem struct {
	Field  string `json:"field" yaml:"field"`
	Reason string `json:"reason" yaml:"reason"`
}

// IsUnavailable reports whether the named section failed to collect.
func (r *SystemInfoReport) IsUnavailable(field string) bool {
	for _, p := range r.Unavailable {
		if p.Field == field {
			return true
		}
	}
	return false
}
