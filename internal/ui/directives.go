package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/castaway/internal/logging/events"
	"github.com/atomicstack/castaway/internal/message"
	"github.com/atomicstack/castaway/internal/podcast"
	"github.com/atomicstack/castaway/internal/state"
	"github.com/atomicstack/castaway/internal/ui/panel"
	uistate "github.com/atomicstack/castaway/internal/ui/state"
)

// waitForDirective blocks until the controller sends the next directive.
func waitForDirective(q *message.Queue[message.Directive]) tea.Cmd {
	return func() tea.Msg {
		d, err := q.Recv(context.Background())
		if err != nil {
			return directivesClosedMsg{}
		}
		return directiveMsg{directive: d}
	}
}

type directiveMsg struct {
	directive message.Directive
}

type directivesClosedMsg struct{}

func (m *Model) waitDirective() tea.Cmd {
	if m.ch.Directives == nil {
		return nil
	}
	return m.directiveCmd(m.ch.Directives)
}

func (m *Model) handleDirectiveMsg(msg tea.Msg) tea.Cmd {
	dm, ok := msg.(directiveMsg)
	if !ok {
		return nil
	}
	events.UI.Directive(fmt.Sprintf("%T", dm.directive))
	if td, ok := dm.directive.(message.TearDown); ok {
		m.err = td.Err
		m.quitting = true
		return tea.Quit
	}
	cmd := m.applyDirective(dm.directive)
	return tea.Batch(cmd, m.waitDirective())
}

func (m *Model) handleDirectivesClosedMsg(tea.Msg) tea.Cmd {
	m.quitting = true
	return tea.Quit
}

func (m *Model) applyDirective(d message.Directive) tea.Cmd {
	switch d := d.(type) {
	case message.RefreshMenus:
		m.refreshMenus()
		if err := m.podcasts.Err(); err != nil {
			return m.setMessage("Error: "+err.Error(), 0, true)
		}
	case message.ShowMessage:
		return m.setMessage(d.Text, d.Duration, d.IsError)
	case message.PickNewEpisodes:
		m.openPicker(d.Episodes)
	}
	return nil
}

// openPicker shows episodes found by a sync for download. Picks arriving
// while the picker is open are added to it.
func (m *Model) openPicker(eps []podcast.NewEpisode) {
	if len(eps) == 0 {
		return
	}
	if m.picker != nil {
		err := m.picker.Items.Update(func(tx *state.Txn[podcast.NewEpisode]) error {
			for _, ep := range eps {
				tx.Append(ep)
			}
			return nil
		})
		if err == nil {
			m.picker.UpdateItems()
			m.picker.HighlightSelected(true)
		}
		return
	}
	_, _, rows := m.geometry()
	m.pickPanel = panel.New("New episodes", rows, m.width-4, 0, 0)
	m.picker = uistate.New(m.pickPanel, pickerHeader, state.NewStore(eps))
	m.picker.Init()
	m.picker.HighlightSelected(true)
}

func (m *Model) closePicker() {
	m.picker = nil
	m.pickPanel = nil
	m.refreshMenus()
}
