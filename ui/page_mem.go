package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ftahirops/pcdiag/engine"
	"github.com/ftahirops/pcdiag/model"
)

func renderMemPage(s engine.State, days int, confirming bool, width int) string {
	var sb strings.Builder
	iw := pageInnerW(width)

	sb.WriteString(titleStyle.Render("MEMORY DIAGNOSTICS"))
	sb.WriteString("\n")

	if confirming {
		sb.WriteString(boxSection(" SCHEDULE MEMORY TEST ", []string{
			warnStyle.Render("Schedule the OS memory test now? [y/n]"),
			dimStyle.Render("The test runs after a restart. Save your work first."),
		}, iw))
	}

	if s.LastLaunch != nil {
		ack := s.LastLaunch
		lines := kvLines([]kv{
			{"Tool", ack.Tool},
			{"Requested", ack.RequestedAt.Format("2006-01-02 15:04:05")},
		})
		if ack.PID > 0 {
			lines = append(lines, kvLines([]kv{{"PID", fmt.Sprintf("%d", ack.PID)}})...)
		}
		lines = append(lines, dimStyle.Render(ack.Note))
		sb.WriteString(boxSection(" LAST LAUNCH ", lines, iw))
	}

	title := fmt.Sprintf(" RESULTS (last %d days) ", days)
	switch {
	case !s.MemLogRead:
		sb.WriteString(boxSection(title, []string{dimStyle.Render("Reading memory diagnostic history... (r to retry)")}, iw))
	case len(s.MemLog) == 0:
		sb.WriteString(boxSection(title, []string{
			dimStyle.Render(fmt.Sprintf("No memory diagnostic results in the last %d days.", days)),
			dimStyle.Render("Press m to schedule a memory test."),
		}, iw))
	default:
		var lines []string
		for _, e := range s.MemLog {
			id := ""
			if e.EventID != 0 {
				id = fmt.Sprintf("#%d ", e.EventID)
			}
			lines = append(lines, fmt.Sprintf("%s  %s  %s",
				valueStyle.Render(e.Time.Local().Format("2006-01-02 15:04")),
				styledPad(memStatusStyle(e.Status).Render(strings.ToUpper(string(e.Status))), 16),
				dimStyle.Render(id+e.Source+" ("+humanize.Time(e.Time)+")")))
			if e.Detail != "" {
				lines = append(lines, "    "+truncate(e.Detail, iw-4))
			}
		}
		sb.WriteString(boxSection(title, lines, iw))
		if worst := worstMemStatus(s.MemLog); worst == model.MemDiagErrorsDetected {
			sb.WriteString(critStyle.Render(" Memory errors were detected. Reseat or replace the affected modules.") + "\n")
		}
	}
	return sb.String()
}

func worstMemStatus(entries []model.MemoryDiagEntry) model.MemDiagStatus {
	worst := model.MemDiagPassed
	for _, e := range entries {
		switch e.Status {
		case model.MemDiagErrorsDetected:
			return model.MemDiagErrorsDetected
		case model.MemDiagUnknown:
			worst = model.MemDiagUnknown
		}
	}
	return worst
}
