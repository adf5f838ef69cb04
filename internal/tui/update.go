package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/froyo-dl/froyo/internal/engine"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case enqueueMsg:
		m.touchRow(msg.id)
		return m, nil

	case beforeMsg:
		ev := engine.Event(msg)
		switch ev.Action {
		case engine.ActionLoadWork:
			m.touchRow(ev.WorkID).state = stateLoading
		case engine.ActionDownloadWork:
			m.touchRow(ev.WorkID).state = stateDownloading
		}
		return m, nil

	case afterMsg:
		m.applyAfter(engine.Event(msg))
		return m, nil
	}
	return m, nil
}

// touchRow returns the row for a work, creating a queued one on first sight.
func (m *Model) touchRow(id int64) *workRow {
	if row, ok := m.index[id]; ok {
		return row
	}
	row := &workRow{id: id, state: stateQueued}
	m.index[id] = row
	m.rows = append(m.rows, row)
	return row
}

func (m *Model) applyAfter(ev engine.Event) {
	if !workScoped(ev.Action) {
		return
	}
	row := m.touchRow(ev.WorkID)
	if ev.WorkItem != nil && ev.WorkItem.Loaded() {
		row.title = ev.WorkItem.Work.Title
	}

	switch ev.Status {
	case engine.StatusRetry:
		row.state = stateRetrying
		row.note = ev.Err
	case engine.StatusError:
		row.state = stateError
		row.note = ev.Err
	case engine.StatusOK:
		switch ev.Action {
		case engine.ActionLoadWork:
			row.state = stateLoaded
			row.note = ""
		case engine.ActionDownloadWork:
			row.state = stateDownloaded
			if ev.WorkItem != nil {
				row.note = ev.WorkItem.DownloadPath
			}
		}
	}
}

// busy reports how many rows are still in flight.
func (m *Model) busy() int {
	n := 0
	for _, row := range m.rows {
		switch row.state {
		case stateQueued, stateLoading, stateDownloading, stateRetrying:
			n++
		}
	}
	return n
}

func workScoped(a engine.Action) bool {
	return a == engine.ActionLoadWork || a == engine.ActionDownloadWork
}
