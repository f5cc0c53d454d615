package ui

import (
	"fmt"
	"strings"

	"github.com/ftahirops/pcdiag/engine"
)

func renderSmartPage(s engine.State, width int) string {
	var sb strings.Builder
	iw := pageInnerW(width)

	sb.WriteString(titleStyle.Render("STORAGE S.M.A.R.T."))
	sb.WriteString("\n")

	rep := s.Smart
	if rep == nil {
		sb.WriteString(boxSection(" NO CAPTURE ", []string{
			dimStyle.Render("No S.M.A.R.T. capture yet."),
			dimStyle.Render("Press c to run the S.M.A.R.T. tool (administrator rights required)."),
		}, iw))
		return sb.String()
	}

	pos := ""
	if n := len(s.SmartLogs); n > 0 {
		pos = fmt.Sprintf("  capture %d of %d", s.SmartLogIdx+1, n)
	}
	sb.WriteString(dimStyle.Render(fmt.Sprintf("Captured %s by %s%s",
		rep.CapturedAt.Format("2006-01-02 15:04:05"), rep.Tool, pos)) + "\n")
	if rep.Source != "" {
		sb.WriteString(dimStyle.Render("Log: "+rep.Source) + "\n")
	}

	for _, d := range rep.Disks {
		badge := healthStyle(d.Health).Render(strings.ToUpper(string(d.Health)))
		title := fmt.Sprintf(" DISK %d: %s ", d.Index, truncate(d.Model, iw-24))
		var details []kv
		for _, p := range []kv{
			{"Device", d.Device},
			{"Firmware", d.Firmware},
			{"Serial", d.Serial},
			{"Disk Size", d.DiskSize},
			{"Interface", d.Interface},
			{"Power On Hours", d.PowerOnHours},
			{"Power On Count", d.PowerOnCount},
			{"Host Reads", d.HostReads},
			{"Host Writes", d.HostWrites},
			{"Temperature", d.Temperature},
		} {
			if p.Val != "" {
				details = append(details, p)
			}
		}
		lines := []string{styledPad(dimStyle.Render("Health:"), colKey) + " " + badge + " " + valueStyle.Render(d.HealthStatus)}
		lines = append(lines, kvLines(details)...)
		if len(d.Attributes) > 0 {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("%-3s %4s %4s %4s %-14s %s", "ID", "Cur", "Wor", "Thr", "Raw", "Name")))
			for _, a := range d.Attributes {
				lines = append(lines, fmt.Sprintf("%-3s %4s %4s %4s %-14s %s",
					a.ID, orDash(a.Current), orDash(a.Worst), orDash(a.Threshold), a.Raw, a.Name))
			}
		}
		sb.WriteString(boxSection(title, lines, iw))
	}
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
