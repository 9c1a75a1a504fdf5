package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/castaway/internal/message"
)

// Harness drives the UI model programmatically for integration tests.
// Directives are polled instead of awaited and timers only fire on demand.
type Harness struct {
	model  *Model
	timers []func(time.Time) tea.Msg
	quit   bool
}

// NewHarness creates a harness for the provided model and runs its Init
// command.
func NewHarness(model *Model) *Harness {
	h := &Harness{model: model}
	model.directiveCmd = pollDirective
	model.tick = func(_ time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
		h.timers = append(h.timers, fn)
		return nil
	}
	h.processCmd(model.Init())
	return h
}

func pollDirective(q *message.Queue[message.Directive]) tea.Cmd {
	return func() tea.Msg {
		d, ok := q.TryRecv()
		if !ok {
			return nil
		}
		return directiveMsg{directive: d}
	}
}

// Send routes a message through the model and executes any returned commands.
func (h *Harness) Send(msg tea.Msg) {
	if h.model == nil {
		return
	}
	mdl, cmd := h.model.Update(msg)
	if updated, ok := mdl.(*Model); ok {
		h.model = updated
	}
	h.processCmd(cmd)
}

// Key sends a key press by its name, as reported by tea.KeyMsg.String.
func (h *Harness) Key(name string) {
	h.Send(keyMsg(name))
}

// Type sends text as one runes key press.
func (h *Harness) Type(text string) {
	h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

// Pump handles every pending directive, one per update.
func (h *Harness) Pump() {
	h.processCmd(h.model.waitDirective())
}

// FireTimers delivers every pending timer message.
func (h *Harness) FireTimers() {
	timers := h.timers
	h.timers = nil
	for _, fn := range timers {
		h.Send(fn(time.Now()))
	}
}

// Quit reports whether the model asked the program to exit.
func (h *Harness) Quit() bool {
	return h.quit
}

func (h *Harness) processCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil:
		return
	case tea.QuitMsg:
		h.quit = true
		return
	case tea.BatchMsg:
		for _, c := range msg {
			h.processCmd(c)
		}
		return
	}
	mdl, next := h.model.Update(msg)
	if updated, ok := mdl.(*Model); ok {
		h.model = updated
	}
	h.processCmd(next)
}

// View returns the current view string.
func (h *Harness) View() string {
	if h.model == nil {
		return ""
	}
	return h.model.View()
}

// Model exposes the underlying model.
func (h *Harness) Model() *Model {
	return h.model
}

func keyMsg(name string) tea.KeyMsg {
	switch name {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space", " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
	}
}
