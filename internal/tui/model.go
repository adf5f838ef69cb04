// Package tui is a terminal front-end for the engine: one status row per
// work, driven entirely by the engine's observer callbacks.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/froyo-dl/froyo/internal/engine"
)

type rowState int

const (
	stateQueued rowState = iota
	stateLoading
	stateLoaded
	stateDownloading
	stateDownloaded
	stateRetrying
	stateError
)

type workRow struct {
	id    int64
	title string
	state rowState
	note  string // retry/error detail or download path
}

// beforeMsg and afterMsg wrap the engine's observer events for the update
// loop; the distinction matters because only after events carry a Status.
type beforeMsg engine.Event

type afterMsg engine.Event

// enqueueMsg is sent when a work is staged, before its first action runs.
type enqueueMsg struct{ id int64 }

type Model struct {
	spin spinner.Model

	rows  []*workRow
	index map[int64]*workRow

	width    int
	height   int
	quitting bool
}

func newModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		spin:  s,
		index: make(map[int64]*workRow),
	}
}

func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// UI owns the running bubbletea program. Observer callbacks forward engine
// events into it; the caller composes those callbacks with whatever other
// observers it needs.
type UI struct {
	prog *tea.Program
}

func New() *UI {
	return &UI{prog: tea.NewProgram(newModel(), tea.WithAltScreen())}
}

// Run blocks until the user quits.
func (u *UI) Run() error {
	_, err := u.prog.Run()
	return err
}

// Quit asks the program to exit, as if the user pressed q.
func (u *UI) Quit() { u.prog.Quit() }

// OnEnqueue is an enqueue-after observer: it adds a queued row for the work.
// Enqueues of non-work actions have no row and are ignored.
func (u *UI) OnEnqueue(ev engine.Event) {
	if workScoped(ev.Action) {
		u.prog.Send(enqueueMsg{id: ev.WorkID})
	}
}

// OnBefore and OnAfter are action observers feeding the status rows.
func (u *UI) OnBefore(ev engine.Event) { u.prog.Send(beforeMsg(ev)) }

func (u *UI) OnAfter(ev engine.Event) { u.prog.Send(afterMsg(ev)) }
