package model

import "time"

// MemDiagStatus is the outcome recorded by a memory self-test run.
type MemDiagStatus string

const (
	MemDiagPassed         MemDiagStatus = "passed"
	MemDiagErrorsDetected MemDiagStatus = "errors-detected"
	MemDiagUnknown        MemDiagStatus = "unknown"
)

// MemoryDiagEntry is one record from the host's memory-diagnostic history.
type MemoryDiagEntry struct {
	Time    time.Time     `json:"time" yaml:"time"`
	EventID int           `json:"event_id,omitempty" yaml:"event_id,omitempty"`
	Status  MemDiagStatus `json:"status" yaml:"status"`
	Source  string        `json:"source" yaml:"source"`
	Detail  string        `json:"detail" yaml:"detail"`
}

// LaunchAck acknowledges that the OS accepted a memory-diagnostic request.
// The diagnosis itself runs later (usually at the next reboot); its
// completion cannot be observed from here.
type LaunchAck struct {
	Tool        string    `json:"tool" yaml:"tool"`
	PID         int       `json:"pid,omitempty" yaml:"pid,omitempty"`
	RequestedAt time.Time `json:"requested_at" yaml:"requested_at"`
	Note        string    `json:"note" yaml:"note"`
}
