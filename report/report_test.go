package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ftahirops/pcdiag/model"
)

func stubReport() *model.SystemInfoReport {
	return &model.SystemInfoReport{
		CollectedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		OS:          model.OSInfo{Name: "Win11"},
		CPU:         model.CPUInfo{Model: "X"},
		Memory:      []model.MemoryModule{{Capacity: "16GB"}},
		Storage:     []model.StorageDevice{{Model: "Disk0", Capacity: "1TB", Interface: "NVMe"}},
	}
}

// ---------------------------------------------------------------------------
// Text
// ---------------------------------------------------------------------------

func TestText_RendersValuesInOrder(t *testing.T) {
	out := Text(stubReport())

	last := -1
	for _, want := range []string{"Win11", "X", "16GB", "Disk0", "1TB", "NVMe"} {
		idx := strings.Index(out, want)
		if idx < 0 {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
		if idx < last {
			t.Errorf("%q out of order:\n%s", want, out)
		}
		last = idx
	}
}

func TestText_LabelOrder(t *testing.T) {
	out := Text(stubReport())
	labels := []string{
		"pcdiag System Information", "Collected:", "Hostname:", "Virtualization:",
		"OS:", "OS Version:", "Kernel:", "Architecture:",
		"CPU:", "Cores:", "Threads:", "Max Clock:", "Motherboard:", "Total Memory:",
		"Memory Modules:", "Storage Devices:", "Graphics:",
	}
	last := -1
	for _, l := range labels {
		idx := strings.Index(out, l)
		if idx <= last {
			t.Errorf("label %q at %d, previous at %d:\n%s", l, idx, last, out)
		}
		last = idx
	}
}

func TestText_Idempotent(t *testing.T) {
	r := stubReport()
	r.Unavailable = []model.FieldProblem{{Field: "gpu", Reason: "no graphics cards"}}
	first := Text(r)
	for i := 0; i < 5; i++ {
		if got := Text(r); got != first {
			t.Fatalf("call %d differs:\n%s\nvs\n%s", i+2, got, first)
		}
	}
}

func TestText_MarksMissingValues(t *testing.T) {
	r := &model.SystemInfoReport{
		Unavailable: []model.FieldProblem{{Field: model.SectionStorage, Reason: "ghw: permission denied"}},
	}
	out := Text(r)
	if !strings.Contains(out, "Hostname:       unavailable\n") {
		t.Errorf("hostname not marked:\n%s", out)
	}
	if !strings.Contains(out, "Storage Devices:\n  unavailable\n") {
		t.Errorf("storage list not marked:\n%s", out)
	}
	if !strings.Contains(out, "Memory Modules:\n  (none detected)\n") {
		t.Errorf("memory list not marked empty:\n%s", out)
	}
	if !strings.Contains(out, "Unavailable:\n  storage: ghw: permission denied\n") {
		t.Errorf("unavailable section missing:\n%s", out)
	}
}

func TestText_Golden(t *testing.T) {
	r := stubReport()
	r.Hostname = "DESKTOP-01"
	r.GPUs = []model.GPUInfo{{Model: "GeForce RTX 3080", VRAM: "10240 MiB", Driver: "551.23"}}
	r.Storage[0].Serial = "S5GX"

	want := `pcdiag System Information
=========================
Collected:      2024-05-01 10:00:00
Hostname:       DESKTOP-01
Virtualization: unavailable
OS:             Win11
OS Version:     unavailable
Kernel:         unavailable
Architecture:   unavailable
CPU:            X
Cores:          unavailable
Threads:        unavailable
Max Clock:      unavailable
Motherboard:    unavailable
Total Memory:   unavailable

Memory Modules:
  [1] unavailable: 16GB, unavailable, unavailable, unavailable

Storage Devices:
  [1] Disk0, 1TB, NVMe (S/N S5GX)

Graphics:
  [1] GeForce RTX 3080, VRAM 10240 MiB, driver 551.23
`
	if got := Text(r); got != want {
		t.Errorf("Text =\n%s\nwant\n%s", got, want)
	}
}

// ---------------------------------------------------------------------------
// Other formats
// ---------------------------------------------------------------------------

func TestMarkdown_Tables(t *testing.T) {
	r := stubReport()
	r.Storage[0].Model = "Disk|0"
	out := Markdown(r)
	for _, want := range []string{
		"# pcdiag System Report",
		"- **OS:** Win11 unavailable",
		"| - | 16GB | - | - | - |",
		`| Disk\|0 | 1TB | NVMe | - |`,
		"## Graphics\n\n(none detected)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestRender_StructuredFormats(t *testing.T) {
	r := stubReport()

	data, err := Render(r, FormatJSON)
	if err != nil {
		t.Fatalf("Render json: %v", err)
	}
	var fromJSON model.SystemInfoReport
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("json output does not decode: %v", err)
	}
	if fromJSON.Storage[0].Interface != "NVMe" {
		t.Errorf("json storage = %+v", fromJSON.Storage)
	}

	data, err = Render(r, FormatYAML)
	if err != nil {
		t.Fatalf("Render yaml: %v", err)
	}
	var fromYAML map[string]any
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatalf("yaml output does not decode: %v", err)
	}
	if os, ok := fromYAML["os"].(map[string]any); !ok || os["name"] != "Win11" {
		t.Errorf("yaml os = %v", fromYAML["os"])
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"TXT", FormatText},
		{"md", FormatMarkdown},
		{"yml", FormatYAML},
		{" json ", FormatJSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("ParseFormat(pdf): want error")
	}
}

func TestExportFileName(t *testing.T) {
	got := ExportFileName(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), FormatMarkdown)
	if got != "pcdiag-sysinfo-20240501_100000.md" {
		t.Errorf("ExportFileName = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func TestSmartText(t *testing.T) {
	rep := &model.SmartReport{
		CapturedAt: time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC),
		Tool:       "crystaldiskinfo",
		Disks: []model.SmartDisk{{
			Index: 1, Model: "Samsung SSD 980 PRO 1TB", Device: "C:", HealthStatus: "Good (99 %)",
			Health:     model.DiskHealthGood,
			Attributes: []model.SmartAttribute{{ID: "01", Name: "Critical Warning", Raw: "0"}},
		}},
	}
	out := SmartText(rep)
	for _, want := range []string{
		"Captured: 2024-05-01 10:20:30 (crystaldiskinfo)",
		"Disk 1: Samsung SSD 980 PRO 1TB [GOOD]",
		"  Health Status:  Good (99 %)",
		"    01     -    -    - 0              Critical Warning",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SmartText missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Firmware:") {
		t.Errorf("empty field rendered:\n%s", out)
	}
	if SmartText(nil) != "No S.M.A.R.T. capture yet.\n" {
		t.Error("nil report not handled")
	}
}

func TestMemDiagText(t *testing.T) {
	if got := MemDiagText(nil, 7); got != "No memory diagnostic results in the last 7 days.\n" {
		t.Errorf("empty = %q", got)
	}
	out := MemDiagText([]model.MemoryDiagEntry{{
		Time: time.Now(), EventID: 1102, Status: model.MemDiagErrorsDetected, Source: "MemoryDiagnostics-Results", Detail: "hardware problems were detected",
	}}, 7)
	if !strings.Contains(out, "errors-detected") || !strings.Contains(out, "1102") || !strings.Contains(out, "hardware problems") {
		t.Errorf("MemDiagText =\n%s", out)
	}
}
