package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ftahirops/pcdiag/model"
)

var (
	// Colors
	colorRed     = lipgloss.Color("#FF5555")
	colorYellow  = lipgloss.Color("#F1FA8C")
	colorGreen   = lipgloss.Color("#50FA7B")
	colorCyan    = lipgloss.Color("#8BE9FD")
	colorMagenta = lipgloss.Color("#FF79C6")
	colorOrange  = lipgloss.Color("#FFB86C")
	colorWhite   = lipgloss.Color("#F8F8F2")
	colorGray    = lipgloss.Color("#6272A4")

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Foreground(colorRed).
			Padding(0, 1)

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	valueStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	warnStyle   = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	critStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	headerStyle = lipgloss.NewStyle().Foreground(colorMagenta).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(colorGray)
	dimStyle    = lipgloss.NewStyle().Foreground(colorGray)
	orangeStyle = lipgloss.NewStyle().Foreground(colorOrange)
)

func healthStyle(h model.DiskHealth) lipgloss.Style {
	switch h {
	case model.DiskHealthBad:
		return critStyle
	case model.DiskHealthCaution:
		return warnStyle
	case model.DiskHealthGood:
		return okStyle
	default:
		return orangeStyle
	}
}

func memStatusStyle(s model.MemDiagStatus) lipgloss.Style {
	switch s {
	case model.MemDiagErrorsDetected:
		return critStyle
	case model.MemDiagPassed:
		return okStyle
	default:
		return orangeStyle
	}
}

// markerStyle dims values the host could not provide.
func markerStyle(v string) string {
	if v == "" || v == model.Unavailable {
		return dimStyle.Render(model.Unavailable)
	}
	return valueStyle.Render(v)
}
