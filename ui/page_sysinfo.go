package ui

import (
	"fmt"
	"strings"

	"github.com/ftahirops/pcdiag/engine"
	"github.com/ftahirops/pcdiag/model"
)

func renderSysInfoPage(s engine.State, width int) string {
	var sb strings.Builder
	iw := pageInnerW(width)

	sb.WriteString(titleStyle.Render("SYSTEM INFORMATION"))
	sb.WriteString("\n")

	r := s.SysInfo
	if r == nil {
		sb.WriteString(boxTop(iw) + "\n")
		sb.WriteString(boxRow(dimStyle.Render("Collecting system information... (r to retry)"), iw) + "\n")
		sb.WriteString(boxBot(iw) + "\n")
		return sb.String()
	}
	if s.ExportPath != "" {
		sb.WriteString(dimStyle.Render("Last export: "+s.ExportPath) + "\n")
	}

	sb.WriteString(boxSection(" SYSTEM ", kvLines([]kv{
		{"Collected", r.CollectedAt.Format("2006-01-02 15:04:05")},
		{"Hostname", r.Hostname},
		{"Virtualization", r.Virtualization},
		{"OS", strings.TrimSpace(r.OS.Name + " " + r.OS.Version)},
		{"Kernel", r.OS.Kernel},
		{"Architecture", r.OS.Arch},
		{"CPU", r.CPU.Model},
		{"Cores/Threads", r.CPU.Cores + " / " + r.CPU.Threads},
		{"Max Clock", r.CPU.MaxClock},
		{"Motherboard", r.Motherboard},
		{"Total Memory", r.TotalMemory},
	}), iw))

	failed := map[string]string{}
	for _, p := range r.Unavailable {
		failed[p.Field] = p.Reason
	}
	empty := func(section string) []string {
		if reason, ok := failed[section]; ok {
			return []string{dimStyle.Render(model.Unavailable + ": " + reason)}
		}
		return []string{dimStyle.Render("(none detected)")}
	}

	var lines []string
	for i, mm := range r.Memory {
		lines = append(lines, fmt.Sprintf("%s %s  %s  %s  %s  %s",
			dimStyle.Render(fmt.Sprintf("[%d]", i+1)),
			markerStyle(mm.Slot), markerStyle(mm.Capacity), markerStyle(mm.Type),
			markerStyle(mm.Speed), markerStyle(mm.ManufacturerAndModel)))
	}
	if len(lines) == 0 {
		lines = empty(model.SectionMemory)
	}
	sb.WriteString(boxSection(" MEMORY MODULES ", lines, iw))

	lines = nil
	for i, d := range r.Storage {
		lines = append(lines, fmt.Sprintf("%s %s  %s  %s  %s",
			dimStyle.Render(fmt.Sprintf("[%d]", i+1)),
			markerStyle(d.Model), markerStyle(d.Capacity), markerStyle(d.Interface),
			dimStyle.Render("S/N "+d.Serial)))
	}
	if len(lines) == 0 {
		lines = empty(model.SectionStorage)
	}
	sb.WriteString(boxSection(" STORAGE ", lines, iw))

	lines = nil
	for i, g := range r.GPUs {
		lines = append(lines, fmt.Sprintf("%s %s  VRAM %s  driver %s",
			dimStyle.Render(fmt.Sprintf("[%d]", i+1)),
			markerStyle(g.Model), markerStyle(g.VRAM), markerStyle(g.Driver)))
	}
	if len(lines) == 0 {
		lines = empty(model.SectionGPU)
	}
	sb.WriteString(boxSection(" GRAPHICS ", lines, iw))

	if len(r.Unavailable) > 0 {
		lines = nil
		for _, p := range r.Unavailable {
			lines = append(lines, warnStyle.Render(p.Field)+dimStyle.Render(": "+p.Reason))
		}
		sb.WriteString(boxSection(" UNAVAILABLE ", lines, iw))
	}
	return sb.String()
}
