package ui

import "strings"

// startPage maps the ui.default_page config value to a page.
func startPage(name string) Page {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "memory", "memdiag", "mem":
		return PageMemory
	case "smart", "storage", "disk":
		return PageSmart
	default:
		return PageSysInfo
	}
}
