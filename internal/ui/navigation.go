package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/castaway/internal/logging/events"
	"github.com/atomicstack/castaway/internal/message"
	"github.com/atomicstack/castaway/internal/theme"
	uistate "github.com/atomicstack/castaway/internal/ui/state"
)

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	key := keyMsg.String()
	events.UI.Key(key)

	if m.inputActive {
		return m.handleInputKey(keyMsg)
	}
	if m.picker != nil {
		return m.handlePickerKey(key)
	}

	switch key {
	case "down", "j":
		m.moveCursor(1)
	case "up", "k":
		m.moveCursor(-1)
	case "left", "h":
		m.focus(PanePodcasts)
	case "right", "l":
		m.focus(PaneEpisodes)
	case "a":
		return m.openInput()
	case "s":
		if pod, ok := m.podMenu.CurrentIndex(); ok {
			m.send(message.SyncOne{Podcast: pod})
		}
	case "S":
		if m.podcasts.Len() > 0 {
			m.send(message.SyncAll{})
		}
	case "p":
		if pod, ep, ok := m.positions(); ok {
			m.send(message.Play{Podcast: pod, Episode: ep})
		}
	case "m":
		m.togglePlayed()
	case "M":
		if pod, ok := m.podMenu.CurrentIndex(); ok {
			p, _ := m.podMenu.Current()
			m.send(message.SetAllPlayed{Podcast: pod, Played: !p.IsPlayed()})
		}
	case "d":
		if pod, ep, ok := m.positions(); ok {
			m.send(message.DownloadOne{Podcast: pod, Episode: ep})
		}
	case "D":
		if pod, ok := m.podMenu.CurrentIndex(); ok {
			m.send(message.DownloadAll{Podcast: pod})
		}
	case "q", "ctrl+c":
		m.send(message.Quit{})
	}
	return nil
}

// moveCursor scrolls the focused menu one row. Moving the podcast cursor
// re-points the episode menu at the new podcast.
func (m *Model) moveCursor(delta int) {
	if m.active == PaneEpisodes {
		if m.epMenu.Items.Len() > 0 {
			m.epMenu.Scroll(delta)
		}
		return
	}
	if m.podcasts.Len() == 0 {
		return
	}
	m.podMenu.Scroll(delta)
	m.followPodcast()
	m.epMenu.Deactivate()
}

func (m *Model) focus(pane Pane) {
	if m.active == pane || m.podcasts.Len() == 0 {
		return
	}
	if pane == PaneEpisodes && m.epMenu.Items.Len() == 0 {
		return
	}
	m.active = pane
	events.UI.Focus(pane.String())
	m.highlight()
}

// positions returns the podcast and episode indexes under the cursors.
func (m *Model) positions() (pod, ep int, ok bool) {
	pod, ok = m.podMenu.CurrentIndex()
	if !ok {
		return 0, 0, false
	}
	ep, ok = m.epMenu.CurrentIndex()
	return pod, ep, ok
}

// togglePlayed flips the played flag of the episode under the cursor. The
// row is restyled right away; the controller confirms with a refresh.
func (m *Model) togglePlayed() {
	if m.active != PaneEpisodes {
		return
	}
	pod, ep, ok := m.positions()
	if !ok {
		return
	}
	cur, ok := m.epMenu.Current()
	if !ok {
		return
	}
	attr := theme.AttrNormal
	if cur.Played {
		attr = theme.AttrBold
	}
	m.epMenu.Panel.SetStyle(m.epMenu.Selected, attr, theme.ColorHighlightedActive)
	m.send(message.SetPlayed{Podcast: pod, Episode: ep, Played: !cur.Played})
}

func (m *Model) handlePickerKey(key string) tea.Cmd {
	var err error
	switch key {
	case "down", "j":
		m.picker.Scroll(1)
	case "up", "k":
		m.picker.Scroll(-1)
	case " ", "space":
		err = uistate.SelectItem(m.picker)
	case "a":
		err = uistate.SelectAllItems(m.picker)
	case "enter":
		picked := uistate.Picked(m.picker.Items)
		if len(picked) > 0 {
			picks := make([]message.Pick, len(picked))
			for i, ep := range picked {
				picks[i] = message.Pick{PodcastID: ep.PodcastID, EpisodeID: ep.ID}
			}
			m.send(message.DownloadSelected{Picks: picks})
		}
		m.closePicker()
	case "esc", "q":
		m.closePicker()
	case "ctrl+c":
		m.send(message.Quit{})
	}
	if err != nil {
		return m.setMessage("Error: "+err.Error(), 0, true)
	}
	return nil
}
