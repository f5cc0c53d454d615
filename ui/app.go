package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ftahirops/pcdiag/engine"
	"github.com/ftahirops/pcdiag/report"
)

// Page identifies the current screen.
type Page int

const (
	PageSysInfo Page = iota
	PageMemory
	PageSmart
	pageCount
)

var pageNames = []string{"System Info", "Memory Diagnostics", "Storage S.M.A.R.T."}

func (p Page) String() string {
	if p < 0 || p >= pageCount {
		return "?"
	}
	return pageNames[p]
}

// actionMsg carries the state produced by a finished action.
type actionMsg struct {
	action engine.Action
	state  engine.State
}

// Model is the bubbletea model.
type Model struct {
	engine *engine.Engine
	state  engine.State
	export report.Format

	width  int
	height int

	// Navigation
	page     Page
	showHelp bool
	scroll   int
	loaded   [pageCount]bool

	// initCmd is the start page's load, begun in NewModel.
	initCmd tea.Cmd

	// busy names the running action; "" when idle.
	busy      engine.Action
	busySince time.Time

	confirmLaunch bool

	// Transient warning (busy guard, confirmations)
	warn     string
	warnTime time.Time
}

// NewModel creates a new TUI model starting on the named page. The start
// page's load counts as running from here on, so Init only hands it out.
func NewModel(eng *engine.Engine, defaultPage string, export report.Format) Model {
	m := Model{
		engine: eng,
		export: export,
		page:   startPage(defaultPage),
	}
	m, m.initCmd = m.loadPage()
	return m
}

// State returns the application state shown by the model.
func (m Model) State() engine.State { return m.state }

func (m Model) Init() tea.Cmd {
	return m.initCmd
}

// run starts an action unless one is already running.
func (m Model) run(action engine.Action, fn func(context.Context, engine.State) engine.State) (Model, tea.Cmd) {
	if m.busy != "" {
		m.warn = fmt.Sprintf("Busy: %s is still running. Wait for it to finish.", m.busy)
		m.warnTime = time.Now()
		return m, nil
	}
	m.busy = action
	m.busySince = time.Now()
	m.warn = ""
	s := m.state
	return m, func() tea.Msg {
		return actionMsg{action: action, state: fn(context.Background(), s)}
	}
}

// loadPage triggers the page's read action the first time it is shown.
// A page opened while another action runs is loaded once that finishes.
func (m Model) loadPage() (Model, tea.Cmd) {
	if m.busy != "" || m.loaded[m.page] {
		return m, nil
	}
	m.loaded[m.page] = true
	switch m.page {
	case PageSysInfo:
		if m.state.SysInfo == nil {
			return m.run(engine.ActionFetchSysInfo, m.engine.FetchSystemInfo)
		}
	case PageMemory:
		if !m.state.MemLogRead {
			return m.run(engine.ActionShowMemLog, m.engine.ShowMemoryLog)
		}
	case PageSmart:
		if m.state.Smart == nil && len(m.state.SmartLogs) == 0 {
			return m.run(engine.ActionShowSmart, m.engine.ShowSmartReport)
		}
	}
	return m, nil
}

func (m Model) switchPage(p Page) (Model, tea.Cmd) {
	m.page = p
	m.scroll = 0
	m.confirmLaunch = false
	return m.loadPage()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case actionMsg:
		// Only the running action's result replaces the state.
		if msg.action != m.busy {
			return m, nil
		}
		m.state = msg.state
		m.busy = ""
		m.scroll = 0
		return m.loadPage()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.confirmLaunch {
		switch key {
		case "y", "Y":
			m.confirmLaunch = false
			return m.run(engine.ActionLaunchMemTest, m.engine.LaunchMemoryTest)
		case "q", "ctrl+c":
			return m, tea.Quit
		default:
			m.confirmLaunch = false
			m.warn = "Memory test not scheduled."
			m.warnTime = time.Now()
		}
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "1":
		return m.switchPage(PageSysInfo)
	case "2":
		return m.switchPage(PageMemory)
	case "3":
		return m.switchPage(PageSmart)
	case "tab":
		return m.switchPage((m.page + 1) % pageCount)
	case "shift+tab":
		return m.switchPage((m.page + pageCount - 1) % pageCount)
	case "j", "down":
		m.scroll++
	case "k", "up":
		if m.scroll > 0 {
			m.scroll--
		}
	case "g":
		m.scroll = 0
	case "r":
		switch m.page {
		case PageSysInfo:
			return m.run(engine.ActionFetchSysInfo, m.engine.FetchSystemInfo)
		case PageMemory:
			return m.run(engine.ActionShowMemLog, m.engine.ShowMemoryLog)
		case PageSmart:
			return m.run(engine.ActionShowSmart, m.engine.ShowSmartReport)
		}
	case "e":
		if m.page == PageSysInfo {
			format := m.export
			return m.run(engine.ActionExportSysInfo, func(ctx context.Context, s engine.State) engine.State {
				return m.engine.ExportSystemInfo(ctx, s, format)
			})
		}
	case "m":
		if m.page == PageMemory {
			if m.busy != "" {
				return m.run(engine.ActionLaunchMemTest, m.engine.LaunchMemoryTest)
			}
			m.confirmLaunch = true
		}
	case "c":
		if m.page == PageSmart {
			return m.run(engine.ActionRunCapture, m.engine.RunSmartCapture)
		}
	case "[", "]":
		if m.page == PageSmart {
			delta := 1
			if key == "[" {
				delta = -1
			}
			return m.run(engine.ActionSelectSmartLog, func(ctx context.Context, s engine.State) engine.State {
				return m.engine.SelectSmartLog(ctx, s, delta)
			})
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}
	if m.width == 0 {
		return "Loading..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderTabs())
	sb.WriteString("\n\n")
	if m.state.Err != nil {
		sb.WriteString(bannerStyle.Width(pageInnerW(m.width)).Render(m.state.Status))
		sb.WriteString("\n")
	}

	switch m.page {
	case PageSysInfo:
		sb.WriteString(renderSysInfoPage(m.state, m.width))
	case PageMemory:
		sb.WriteString(renderMemPage(m.state, m.engine.MemLookbackDays(), m.confirmLaunch, m.width))
	case PageSmart:
		sb.WriteString(renderSmartPage(m.state, m.width))
	}

	lines := strings.Split(sb.String(), "\n")
	scroll := m.scroll
	if scroll >= len(lines) {
		scroll = len(lines) - 1
	}
	if scroll > 0 {
		lines = lines[scroll:]
	}
	// Leave room for the status bar.
	maxLines := m.height - 2
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n") + "\n" + m.renderStatusBar()
}

func (m Model) renderTabs() string {
	var tabs []string
	tabs = append(tabs, titleStyle.Render("pcdiag "))
	for i, name := range pageNames {
		label := fmt.Sprintf("%d:%s", i+1, name)
		if Page(i) == m.page {
			tabs = append(tabs, headerStyle.Render("["+label+"]"))
		} else {
			tabs = append(tabs, dimStyle.Render(" "+label+" "))
		}
	}
	return strings.Join(tabs, "")
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.busy != "":
		left = warnStyle.Render(fmt.Sprintf("[%s running %s]", m.busy, time.Since(m.busySince).Truncate(time.Second)))
	case m.state.Err != nil:
		left = critStyle.Render("[failed]")
	case m.state.Status != "":
		left = okStyle.Render(truncate(m.state.Status, 60))
	}
	if m.warn != "" && time.Since(m.warnTime) < 5*time.Second {
		left += "  " + warnStyle.Render(m.warn)
	}

	help := helpStyle.Render(pageHelp(m.page) + "  1-3/tab:page  ?:help  q:quit")
	leftW := lipgloss.Width(left)
	helpW := lipgloss.Width(help)
	if leftW+helpW+1 <= m.width {
		return left + strings.Repeat(" ", m.width-leftW-helpW) + help
	}
	return left
}

func pageHelp(p Page) string {
	switch p {
	case PageSysInfo:
		return "r:refresh  e:export"
	case PageMemory:
		return "r:show log  m:schedule test"
	case PageSmart:
		return "r:last report  c:capture  [/]:newer/older"
	}
	return ""
}

func (m Model) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("pcdiag: PC hardware diagnostics"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("Navigation"))
	sb.WriteString("\n")
	sb.WriteString("  1         System information\n")
	sb.WriteString("  2         Memory diagnostics\n")
	sb.WriteString("  3         Storage S.M.A.R.T.\n")
	sb.WriteString("  Tab       Next page (Shift+Tab previous)\n")
	sb.WriteString("  j/k       Scroll down/up\n")
	sb.WriteString("  g         Top\n")
	sb.WriteString("\n")
	sb.WriteString(headerStyle.Render("Actions"))
	sb.WriteString("\n")
	sb.WriteString("  r         Refresh the current page\n")
	sb.WriteString(fmt.Sprintf("  e         Export system information (%s)\n", m.export))
	sb.WriteString("  m         Schedule the OS memory test (asks y/n; runs after restart)\n")
	sb.WriteString(fmt.Sprintf("  c         Run a S.M.A.R.T. capture (needs administrator, up to %s)\n", m.engine.CaptureTimeout()))
	sb.WriteString("  [ / ]     Browse newer / older archived captures\n")
	sb.WriteString("  ?         Toggle this help\n")
	sb.WriteString("  q/Ctrl+C  Quit\n")
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("Press any key to close"))
	return sb.String()
}
