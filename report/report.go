// Package report renders collected diagnostics for export and display.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ftahirops/pcdiag/model"
)

// Format is an export format for a SystemInfoReport.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatText, FormatMarkdown, FormatYAML, FormatJSON}

// ParseFormat accepts a format name or a common alias ("md", "yml", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, markdown, yaml or json)", s)
}

// Ext returns the file extension for exports in format f.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatYAML:
		return ".yaml"
	case FormatJSON:
		return ".json"
	}
	return ".txt"
}

// Render renders r in format f.
func Render(r *model.SystemInfoReport, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(Text(r)), nil
	case FormatMarkdown:
		return []byte(Markdown(r)), nil
	case FormatYAML:
		return YAML(r)
	case FormatJSON:
		return JSON(r)
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// ExportFileName returns the default export file name for a report taken at t.
func ExportFileName(t time.Time, f Format) string {
	return "pcdiag-sysinfo-" + t.Format("20060102_150405") + f.Ext()
}

const timeLayout = "2006-01-02 15:04:05"

// Text renders the report as plain text in a fixed field order. The output
// depends only on r, so repeated calls are byte-identical.
func Text(r *model.SystemInfoReport) string {
	var sb strings.Builder

	sb.WriteString("pcdiag System Information\n")
	sb.WriteString("=========================\n")
	field := func(label, value string) {
		sb.WriteString(fmt.Sprintf("%-16s%s\n", label+":", orUnavailable(value)))
	}

	collected := model.Unavailable
	if !r.CollectedAt.IsZero() {
		collected = r.CollectedAt.Format(timeLayout)
	}
	field("Collected", collected)
	field("Hostname", r.Hostname)
	field("Virtualization", r.Virtualization)
	field("OS", r.OS.Name)
	field("OS Version", r.OS.Version)
	field("Kernel", r.OS.Kernel)
	field("Architecture", r.OS.Arch)
	field("CPU", r.CPU.Model)
	field("Cores", r.CPU.Cores)
	field("Threads", r.CPU.Threads)
	field("Max Clock", r.CPU.MaxClock)
	field("Motherboard", r.Motherboard)
	field("Total Memory", r.TotalMemory)

	sb.WriteString("\nMemory Modules:\n")
	if len(r.Memory) == 0 {
		sb.WriteString(emptyList(r, model.SectionMemory))
	}
	for i, m := range r.Memory {
		sb.WriteString(fmt.Sprintf("  [%d] %s: %s, %s, %s, %s\n", i+1,
			orUnavailable(m.Slot), orUnavailable(m.Capacity), orUnavailable(m.Type),
			orUnavailable(m.Speed), orUnavailable(m.ManufacturerAndModel)))
	}

	sb.WriteString("\nStorage Devices:\n")
	if len(r.Storage) == 0 {
		sb.WriteString(emptyList(r, model.SectionStorage))
	}
	for i, d := range r.Storage {
		sb.WriteString(fmt.Sprintf("  [%d] %s, %s, %s", i+1,
			orUnavailable(d.Model), orUnavailable(d.Capacity), orUnavailable(d.Interface)))
		if d.Serial != "" {
			sb.WriteString(fmt.Sprintf(" (S/N %s)", d.Serial))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nGraphics:\n")
	if len(r.GPUs) == 0 {
		sb.WriteString(emptyList(r, model.SectionGPU))
	}
	for i, g := range r.GPUs {
		sb.WriteString(fmt.Sprintf("  [%d] %s, VRAM %s, driver %s\n", i+1,
			orUnavailable(g.Model), orUnavailable(g.VRAM), orUnavailable(g.Driver)))
	}

	if len(r.Unavailable) > 0 {
		sb.WriteString("\nUnavailable:\n")
		for _, p := range r.Unavailable {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", p.Field, p.Reason))
		}
	}
	return sb.String()
}

func orUnavailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return model.Unavailable
	}
	return s
}

func emptyList(r *model.SystemInfoReport, section string) string {
	if r.IsUnavailable(section) {
		return "  " + model.Unavailable + "\n"
	}
	return "  (none detected)\n"
}

// Markdown renders a ticket-friendly Markdown report.
func Markdown(r *model.SystemInfoReport) string {
	var sb strings.Builder

	sb.WriteString("# pcdiag System Report\n\n")
	if !r.CollectedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("**Collected:** %s\n\n", r.CollectedAt.Format(time.RFC3339)))
	}

	sb.WriteString("## System\n\n")
	sb.WriteString(fmt.Sprintf("- **Hostname:** %s\n", orUnavailable(r.Hostname)))
	sb.WriteString(fmt.Sprintf("- **Virtualization:** %s\n", orUnavailable(r.Virtualization)))
	sb.WriteString(fmt.Sprintf("- **OS:** %s %s\n", orUnavailable(r.OS.Name), orUnavailable(r.OS.Version)))
	sb.WriteString(fmt.Sprintf("- **Kernel:** %s (%s)\n", orUnavailable(r.OS.Kernel), orUnavailable(r.OS.Arch)))
	sb.WriteString(fmt.Sprintf("- **CPU:** %s, %s cores / %s threads, %s\n",
		orUnavailable(r.CPU.Model), orUnavailable(r.CPU.Cores), orUnavailable(r.CPU.Threads), orUnavailable(r.CPU.MaxClock)))
	sb.WriteString(fmt.Sprintf("- **Motherboard:** %s\n", orUnavailable(r.Motherboard)))
	sb.WriteString(fmt.Sprintf("- **Total Memory:** %s\n", orUnavailable(r.TotalMemory)))

	sb.WriteString("\n## Memory Modules\n\n")
	if len(r.Memory) == 0 {
		sb.WriteString(emptyList(r, model.SectionMemory)[2:])
	} else {
		sb.WriteString("| Slot | Capacity | Type | Speed | Manufacturer / Model |\n")
		sb.WriteString("|------|----------|------|-------|----------------------|\n")
		for _, m := range r.Memory {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				mdCell(m.Slot), mdCell(m.Capacity), mdCell(m.Type), mdCell(m.Speed), mdCell(m.ManufacturerAndModel)))
		}
	}

	sb.WriteString("\n## Storage Devices\n\n")
	if len(r.Storage) == 0 {
		sb.WriteString(emptyList(r, model.SectionStorage)[2:])
	} else {
		sb.WriteString("| Model | Capacity | Interface | Serial |\n")
		sb.WriteString("|-------|----------|-----------|--------|\n")
		for _, d := range r.Storage {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				mdCell(d.Model), mdCell(d.Capacity), mdCell(d.Interface), mdCell(d.Serial)))
		}
	}

	sb.WriteString("\n## Graphics\n\n")
	if len(r.GPUs) == 0 {
		sb.WriteString(emptyList(r, model.SectionGPU)[2:])
	} else {
		sb.WriteString("| Model | VRAM | Driver |\n")
		sb.WriteString("|-------|------|--------|\n")
		for _, g := range r.GPUs {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", mdCell(g.Model), mdCell(g.VRAM), mdCell(g.Driver)))
		}
	}

	if len(r.Unavailable) > 0 {
		sb.WriteString("\n## Unavailable\n\n")
		for _, p := range r.Unavailable {
			sb.WriteString(fmt.Sprintf("- **%s:** %s\n", p.Field, p.Reason))
		}
	}

	sb.WriteString("\n---\n*Generated by pcdiag*\n")
	return sb.String()
}

func mdCell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

// YAML renders the report as a YAML document.
func YAML(r *model.SystemInfoReport) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// JSON renders the report as indented JSON.
func JSON(r *model.SystemInfoReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return append(data, '\n'), nil
}
