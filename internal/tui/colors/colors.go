// Package colors is the shared palette for the status list.
package colors

import "github.com/charmbracelet/lipgloss"

var (
	Accent = lipgloss.Color("205") // title and spinner
	Dim    = lipgloss.Color("241") // IDs, help line, queued rows
	Note   = lipgloss.Color("243") // paths and retry details
)

// Row state colors.
var (
	OK      = lipgloss.Color("42")
	Warning = lipgloss.Color("214")
	Error   = lipgloss.Color("196")
)
