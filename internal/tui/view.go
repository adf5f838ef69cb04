package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/froyo-dl/froyo/internal/tui/colors"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colors.Accent)
	idStyle    = lipgloss.NewStyle().Foreground(colors.Dim)
	helpStyle  = lipgloss.NewStyle().Foreground(colors.Dim)
	noteStyle  = lipgloss.NewStyle().Foreground(colors.Note)
	errStyle   = lipgloss.NewStyle().Foreground(colors.Error)
	okStyle    = lipgloss.NewStyle().Foreground(colors.OK)
	warnStyle  = lipgloss.NewStyle().Foreground(colors.Warning)
)

func (s rowState) render() string {
	switch s {
	case stateQueued:
		return idStyle.Render("queued")
	case stateLoading:
		return "loading"
	case stateLoaded:
		return okStyle.Render("loaded")
	case stateDownloading:
		return "downloading"
	case stateDownloaded:
		return okStyle.Render("downloaded")
	case stateRetrying:
		return warnStyle.Render("retrying")
	default:
		return errStyle.Render("error")
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("froyo"))
	if busy := m.busy(); busy > 0 {
		fmt.Fprintf(&b, "  %s %d in flight", m.spin.View(), busy)
	}
	b.WriteString("\n\n")

	rows := m.rows
	if limit := m.height - 5; limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	if len(rows) == 0 {
		b.WriteString(helpStyle.Render("waiting for works..."))
		b.WriteString("\n")
	}
	for _, row := range rows {
		title := row.title
		if title == "" {
			title = "(loading title)"
		}
		fmt.Fprintf(&b, "%s %-12s %s",
			idStyle.Render(fmt.Sprintf("%9d", row.id)), row.state.render(), title)
		if row.note != "" {
			b.WriteString(" " + noteStyle.Render(row.note))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q: quit"))
	return b.String()
}
