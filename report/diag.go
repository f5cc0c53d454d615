package report

import (
	"fmt"
	"strings"

	"github.com/ftahirops/pcdiag/model"
)

// SmartText renders a S.M.A.R.T. report with one block per disk.
func SmartText(rep *model.SmartReport) string {
	if rep == nil {
		return "No S.M.A.R.T. capture yet.\n"
	}
	var sb strings.Builder

	captured := model.Unavailable
	if !rep.CapturedAt.IsZero() {
		captured = rep.CapturedAt.Format(timeLayout)
	}
	sb.WriteString(fmt.Sprintf("Captured: %s (%s)\n", captured, rep.Tool))
	if rep.Source != "" {
		sb.WriteString(fmt.Sprintf("Source:   %s\n", rep.Source))
	}

	for _, d := range rep.Disks {
		sb.WriteString(fmt.Sprintf("\nDisk %d: %s [%s]\n", d.Index, orUnavailable(d.Model), strings.ToUpper(string(d.Health))))
		for _, kv := range [][2]string{
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
			{"Health Status", d.HealthStatus},
		} {
			if kv[1] == "" {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %-16s%s\n", kv[0]+":", kv[1]))
		}
		if len(d.Attributes) > 0 {
			sb.WriteString("  Attributes:\n")
			sb.WriteString(fmt.Sprintf("    %-3s %4s %4s %4s %-14s %s\n", "ID", "Cur", "Wor", "Thr", "Raw", "Name"))
			for _, a := range d.Attributes {
				sb.WriteString(fmt.Sprintf("    %-3s %4s %4s %4s %-14s %s\n",
					a.ID, dash(a.Current), dash(a.Worst), dash(a.Threshold), a.Raw, a.Name))
			}
		}
	}
	return sb.String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// MemDiagText renders memory-diagnostic history, newest first as given.
func MemDiagText(entries []model.MemoryDiagEntry, days int) string {
	if len(entries) == 0 {
		return fmt.Sprintf("No memory diagnostic results in the last %d days.\n", days)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Memory diagnostic results, last %d days (%d):\n", days, len(entries)))
	for _, e := range entries {
		id := "-"
		if e.EventID != 0 {
			id = fmt.Sprintf("%d", e.EventID)
		}
		sb.WriteString(fmt.Sprintf("  %s  %-15s %-5s %s\n", e.Time.Local().Format("2006-01-02 15:04"), e.Status, id, e.Source))
		if e.Detail != "" {
			sb.WriteString(fmt.Sprintf("      %s\n", e.Detail))
		}
	}
	return sb.String()
}

// LaunchText renders the acknowledgement of a memory test launch.
func LaunchText(ack model.LaunchAck) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Started %s", ack.Tool))
	if ack.PID > 0 {
		sb.WriteString(fmt.Sprintf(" (pid %d)", ack.PID))
	}
	sb.WriteString(fmt.Sprintf(" at %s.\n", ack.RequestedAt.Format(timeLayout)))
	if ack.Note != "" {
		sb.WriteString(ack.Note + "\n")
	}
	return sb.String()
}

// SmartLogList renders archived captures, newest first.
func SmartLogList(logs []model.SmartLogFile) string {
	if len(logs) == 0 {
		return "No archived S.M.A.R.T. captures.\n"
	}
	var sb strings.Builder
	for _, l := range logs {
		sb.WriteString(fmt.Sprintf("%s  %s\n", l.ModTime.Format(timeLayout), l.Name))
	}
	return sb.String()
}
